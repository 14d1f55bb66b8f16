package leave

import (
	"strings"
	"time"

	"go-leave/internal/domain"
	"go-leave/internal/events"
	leaveerrors "go-leave/internal/leave/errors"

	"github.com/shopspring/decimal"
)

type Action string

const (
	ActionApprove Action = "approve"
	ActionReject  Action = "reject"
)

// Debit is the balance movement an approval triggers. Reference is the
// leave id, which makes the ledger insert idempotent.
type Debit struct {
	Username  string
	Days      decimal.Decimal
	Reference string
}

type Transition struct {
	LeaveID         string
	From            string
	To              string
	ApprovedBy      string
	ApprovedAt      time.Time
	RejectionReason *string
	Debit           *Debit
	EventType       string
}

// Decide computes the mutations for action on l without touching any store.
// The caller must apply the result with a compare-and-swap on the pending
// status.
func Decide(l Leave, action Action, approver domain.Identity, now time.Time, reason string) (Transition, error) {
	if !approver.IsAdmin() {
		return Transition{}, leaveerrors.ErrDecideForbidden
	}
	if l.Status != StatusPending {
		return Transition{}, leaveerrors.ErrLeaveNotPending
	}

	t := Transition{
		LeaveID:    l.ID.String(),
		From:       l.Status,
		ApprovedBy: approver.Username,
		ApprovedAt: now.UTC(),
	}

	switch action {
	case ActionApprove:
		t.To = StatusApproved
		t.EventType = events.LeaveApproved
		if DebitsBalance(l.Category) {
			t.Debit = &Debit{
				Username:  l.Requester,
				Days:      l.DurationDays,
				Reference: l.ID.String(),
			}
		}
	case ActionReject:
		t.To = StatusRejected
		t.EventType = events.LeaveRejected
		if r := strings.TrimSpace(reason); r != "" {
			t.RejectionReason = &r
		}
	default:
		return Transition{}, leaveerrors.ErrInvalidAction
	}

	return t, nil
}

// Apply copies the transition onto l, mirroring what the store persisted.
func (t Transition) Apply(l *Leave) {
	l.Status = t.To
	by := t.ApprovedBy
	at := t.ApprovedAt
	l.ApprovedBy = &by
	l.ApprovedAt = &at
	l.RejectionReason = t.RejectionReason
	l.UpdatedAt = t.ApprovedAt
}
