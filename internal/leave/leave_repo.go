package leave

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"
)

//go:generate mockgen -source=leave_repo.go -destination=mock/leave_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, l *Leave) error
	FindByID(ctx context.Context, id string) (*Leave, error)
	ListByRequester(ctx context.Context, username string) ([]Leave, error)
	ListAll(ctx context.Context, filter ListFilter) ([]Leave, error)
	HasOverlappingPeriod(ctx context.Context, requester string, startDate, endDate time.Time) (bool, error)
	ApplyTransition(ctx context.Context, t Transition) (bool, error)
	Delete(ctx context.Context, id string) (bool, error)
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

func (r *repository) Create(ctx context.Context, l *Leave) error {
	return r.db.WithContext(ctx).Create(l).Error
}

func (r *repository) FindByID(ctx context.Context, id string) (*Leave, error) {
	var l Leave
	err := r.db.WithContext(ctx).First(&l, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *repository) ListByRequester(ctx context.Context, username string) ([]Leave, error) {
	leaves := []Leave{}
	err := r.db.WithContext(ctx).
		Where("requester = ?", username).
		Order("requested_at DESC, id DESC").
		Find(&leaves).Error
	return leaves, err
}

func (r *repository) ListAll(ctx context.Context, filter ListFilter) ([]Leave, error) {
	db := r.db.WithContext(ctx).Model(&Leave{})

	if filter.Status != "" {
		db = db.Where("status = ?", filter.Status)
	}
	if name := strings.ToLower(strings.TrimSpace(filter.Name)); name != "" {
		like := "%" + likeEscaper.Replace(name) + "%"
		db = db.Where(`(LOWER(requester) LIKE ? ESCAPE '\' OR LOWER(requester_name) LIKE ? ESCAPE '\')`, like, like)
	}
	if dept := strings.TrimSpace(filter.Department); dept != "" {
		db = db.Where("LOWER(department) = ?", strings.ToLower(dept))
	}
	if filter.Year > 0 {
		from, to := periodBounds(filter.Year, filter.Month)
		db = db.Where("start_date >= ? AND start_date < ?", from, to)
	}

	leaves := []Leave{}
	err := db.Order("requested_at DESC, id DESC").Find(&leaves).Error
	return leaves, err
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// periodBounds returns [from, to) for a whole year, or a single month when
// month is 1..12.
func periodBounds(year, month int) (time.Time, time.Time) {
	if month >= 1 && month <= 12 {
		from := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
		return from, from.AddDate(0, 1, 0)
	}
	from := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	return from, from.AddDate(1, 0, 0)
}

// HasOverlappingPeriod reports whether requester already holds a pending or
// approved request intersecting [startDate, endDate].
func (r *repository) HasOverlappingPeriod(ctx context.Context, requester string, startDate, endDate time.Time) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&Leave{}).
		Where("requester = ?", requester).
		Where("status IN ?", []string{StatusPending, StatusApproved}).
		Where("NOT (end_date < ? OR start_date > ?)", startDate, endDate).
		Count(&count).Error
	return count > 0, err
}

// ApplyTransition persists t only while the request is still pending. It
// returns false when another decision got there first.
func (r *repository) ApplyTransition(ctx context.Context, t Transition) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&Leave{}).
		Where("id = ? AND status = ?", t.LeaveID, StatusPending).
		Updates(map[string]any{
			"status":           t.To,
			"approved_by":      t.ApprovedBy,
			"approved_at":      t.ApprovedAt,
			"rejection_reason": t.RejectionReason,
			"updated_at":       t.ApprovedAt,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) Delete(ctx context.Context, id string) (bool, error) {
	res := r.db.WithContext(ctx).Delete(&Leave{}, "id = ?", id)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
