package audit

import (
	"time"

	"github.com/google/uuid"
)

// Entry is one line of the leave audit trail, written by the lifecycle
// consumer. EventID is unique so a redelivered message is recorded once.
type Entry struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	EventID     string    `gorm:"size:64;not null;uniqueIndex:uq_audit_entries_event"`
	EventType   string    `gorm:"size:50;not null"`
	AggregateID string    `gorm:"size:64;not null;index"`
	Actor       string    `gorm:"size:100;not null"`
	Subject     string    `gorm:"size:100;not null;index"`
	Summary     string    `gorm:"type:text;not null"`
	OccurredAt  time.Time `gorm:"not null"`
	CreatedAt   time.Time
}

func (Entry) TableName() string {
	return "audit_entries"
}
