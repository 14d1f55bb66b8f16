package events

import "time"

const LeaveLifecycleTopic = "hr.leave.lifecycle.v1"

const (
	AggregateLeaveRequest = "leave_request"

	LeaveSubmitted = "LEAVE_SUBMITTED"
	LeaveApproved  = "LEAVE_APPROVED"
	LeaveRejected  = "LEAVE_REJECTED"
)

// LeaveLifecycleEvent is the payload published on LeaveLifecycleTopic,
// keyed by LeaveID. EventID equals the outbox row id and is stable across
// redeliveries.
type LeaveLifecycleEvent struct {
	EventID         string    `json:"event_id"`
	EventType       string    `json:"event_type"`
	RequestID       string    `json:"request_id,omitempty"`
	LeaveID         string    `json:"leave_id"`
	Requester       string    `json:"requester"`
	Department      string    `json:"department"`
	Category        string    `json:"category"`
	SubCase         string    `json:"sub_case"`
	StartDate       string    `json:"start_date"`
	EndDate         string    `json:"end_date"`
	DurationDays    string    `json:"duration_days"`
	Status          string    `json:"status"`
	Actor           string    `json:"actor"`
	RejectionReason string    `json:"rejection_reason,omitempty"`
	OccurredAt      time.Time `json:"occurred_at"`
}
