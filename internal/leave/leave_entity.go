package leave

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// Leave is a single time-off request. Requester name and department are
// snapshots taken at submission. Only the workflow mutates Status and the
// approval columns, and only once.
type Leave struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey"`
	Requester     string    `gorm:"size:100;not null;index:idx_leave_requests_requester_dates,priority:1"`
	RequesterName string    `gorm:"size:150;not null"`
	Department    string    `gorm:"size:100;index"`

	Category     string          `gorm:"size:30;not null"`
	SubCase      string          `gorm:"size:40;not null"`
	StartDate    time.Time       `gorm:"type:date;not null;index:idx_leave_requests_requester_dates,priority:2"`
	EndDate      time.Time       `gorm:"type:date;not null;index:idx_leave_requests_requester_dates,priority:3"`
	DurationDays decimal.Decimal `gorm:"type:numeric(5,1);not null"`
	Reason       string          `gorm:"type:text;not null"`

	Status          string     `gorm:"size:20;not null;default:'pending';index"`
	RequestedAt     time.Time  `gorm:"not null;index"`
	ApprovedBy      *string    `gorm:"size:100"`
	ApprovedAt      *time.Time
	RejectionReason *string `gorm:"type:text"`
	UpdatedAt       time.Time
}

func (Leave) TableName() string {
	return "leave_requests"
}
