package account

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Account struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey"`
	Username      string          `gorm:"size:100;not null;uniqueIndex:uq_accounts_username"`
	Secret        string          `gorm:"not null"`
	Role          string          `gorm:"size:20;not null"`
	FullName      string          `gorm:"size:200;not null"`
	Department    string          `gorm:"size:100;index"`
	Position      string          `gorm:"size:100"`
	RemainingDays decimal.Decimal `gorm:"type:numeric(6,1);not null"`
	DOB           *time.Time      `gorm:"column:dob;type:date"`
	Phone         string          `gorm:"size:30"`
	LastLoginAt   *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (Account) TableName() string { return "accounts" }

// BalanceAdjustment is one entry of the balance ledger. Reference is unique,
// so replaying an adjustment with the same reference never moves the balance
// twice.
type BalanceAdjustment struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey"`
	Username  string          `gorm:"size:100;not null;index"`
	Delta     decimal.Decimal `gorm:"type:numeric(6,1);not null"`
	Reference *string         `gorm:"size:64;uniqueIndex:uq_balance_adjustments_reference"`
	Reason    string          `gorm:"size:500"`
	CreatedBy string          `gorm:"size:100;not null"`
	CreatedAt time.Time
}

func (BalanceAdjustment) TableName() string { return "balance_adjustments" }

// ProfileUpdate holds the self-editable fields. Nil means unchanged.
type ProfileUpdate struct {
	FullName *string
	DOB      *time.Time
	Phone    *string
}
