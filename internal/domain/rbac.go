package domain

// Resources and actions checked by the casbin enforcer.
const (
	ResourceLeave   = "leave"
	ResourceAccount = "account"

	ActionCreate  = "create"
	ActionReadOwn = "read_own"
	ActionReadAll = "read_all"
	ActionApprove = "approve"
	ActionDelete  = "delete"
	ActionUpdate  = "update_own"
	ActionAdjust  = "adjust"
)

type EnforceRequest struct {
	Role     string `json:"role" binding:"required"`
	Resource string `json:"resource" binding:"required"`
	Action   string `json:"action" binding:"required"`
}

type Permission struct {
	Role     string `json:"role"`
	Resource string `json:"resource"`
	Action   string `json:"action"`
}
