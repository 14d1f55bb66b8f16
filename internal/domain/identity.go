package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	RoleEmployee = "employee"
	RoleAdmin    = "admin"
)

// Identity is the resolved caller of an operation. It is produced by the
// authentication service and passed explicitly into every business call.
type Identity struct {
	Username      string          `json:"username"`
	FullName      string          `json:"full_name"`
	Role          string          `json:"role"`
	Department    string          `json:"department"`
	Position      string          `json:"position"`
	RemainingDays decimal.Decimal `json:"-"`
	SessionID     string          `json:"-"`
	ExpiresAt     time.Time       `json:"expires_at"`
}

func (i Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}

func ValidRole(role string) bool {
	return role == RoleEmployee || role == RoleAdmin
}
