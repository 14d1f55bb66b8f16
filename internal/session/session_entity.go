package session

import (
	"time"

	"go-leave/internal/account"
)

// Session is the server-side half of a login. A token resolves only while its
// row exists, is not evicted and has not expired.
type Session struct {
	ID        string     `gorm:"size:64;primaryKey"`
	Username  string     `gorm:"size:100;not null;index:idx_sessions_username_issued,priority:1"`
	Role      string     `gorm:"size:20;not null"`
	IssuedAt  time.Time  `gorm:"not null;index:idx_sessions_username_issued,priority:2"`
	ExpiresAt time.Time  `gorm:"not null;index"`
	EvictedAt *time.Time
	UserAgent string `gorm:"size:300"`
	IPAddress string `gorm:"size:64"`

	Account account.Account `gorm:"foreignKey:Username;references:Username;constraint:OnDelete:CASCADE"`
}

func (Session) TableName() string { return "sessions" }

func (s Session) Evicted() bool {
	return s.EvictedAt != nil
}

func (s Session) ExpiredAt(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
