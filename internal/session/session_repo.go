package session

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

//go:generate mockgen -source=session_repo.go -destination=mock/session_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, s *Session) error
	FindWithAccount(ctx context.Context, id string) (*Session, error)
	ListLive(ctx context.Context, username string, now time.Time) ([]Session, error)
	EvictOldest(ctx context.Context, username, currentID string, keep int, now time.Time) (int64, error)
	Delete(ctx context.Context, id string) (bool, error)
	DeleteByUsername(ctx context.Context, username string) (int64, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, s *Session) error {
	return r.db.WithContext(ctx).Omit("Account").Create(s).Error
}

// FindWithAccount loads the session and its account in one query.
func (r *repository) FindWithAccount(ctx context.Context, id string) (*Session, error) {
	var s Session
	err := r.db.WithContext(ctx).
		Joins("Account").
		Where("sessions.id = ?", id).
		First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func liveScope(username string, now time.Time) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.
			Where("username = ?", username).
			Where("evicted_at IS NULL").
			Where("expires_at > ?", now)
	}
}

func (r *repository) ListLive(ctx context.Context, username string, now time.Time) ([]Session, error) {
	var rows []Session
	err := r.db.WithContext(ctx).
		Scopes(liveScope(username, now)).
		Order("issued_at DESC, id DESC").
		Find(&rows).Error
	return rows, err
}

// EvictOldest keeps currentID plus the newest keep-1 other live sessions and
// marks the rest as evicted. The account row is locked first so concurrent
// logins of one account evict in turn; sqlite ignores the lock clause and
// serializes writers on its own.
func (r *repository) EvictOldest(ctx context.Context, username, currentID string, keep int, now time.Time) (int64, error) {
	if keep <= 0 {
		return 0, nil
	}

	var locked []string
	err := r.db.WithContext(ctx).
		Table("accounts").
		Clauses(clause.Locking{Strength: "NO KEY UPDATE"}).
		Where("username = ?", username).
		Pluck("username", &locked).Error
	if err != nil {
		return 0, err
	}

	var ids []string
	err = r.db.WithContext(ctx).
		Model(&Session{}).
		Scopes(liveScope(username, now)).
		Where("id <> ?", currentID).
		Order("issued_at DESC, id DESC").
		Pluck("id", &ids).Error
	if err != nil || len(ids) <= keep-1 {
		return 0, err
	}

	res := r.db.WithContext(ctx).
		Model(&Session{}).
		Where("id IN ?", ids[keep-1:]).
		Update("evicted_at", now)
	return res.RowsAffected, res.Error
}

func (r *repository) Delete(ctx context.Context, id string) (bool, error) {
	res := r.db.WithContext(ctx).Delete(&Session{}, "id = ?", id)
	return res.RowsAffected > 0, res.Error
}

func (r *repository) DeleteByUsername(ctx context.Context, username string) (int64, error) {
	res := r.db.WithContext(ctx).Delete(&Session{}, "username = ?", username)
	return res.RowsAffected, res.Error
}

// DeleteExpired removes rows that can no longer resolve.
func (r *repository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("expires_at <= ?", now).
		Delete(&Session{})
	return res.RowsAffected, res.Error
}
