package audit

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repository interface {
	Record(ctx context.Context, entry *Entry) (bool, error)
	ListBySubject(ctx context.Context, subject string) ([]Entry, error)
	ListByAggregate(ctx context.Context, aggregateID string) ([]Entry, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

// Record inserts entry unless an entry with the same EventID exists. It
// reports whether a row was written.
func (r *repository) Record(ctx context.Context, entry *Entry) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "event_id"}}, DoNothing: true}).
		Create(entry)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) ListBySubject(ctx context.Context, subject string) ([]Entry, error) {
	var entries []Entry
	err := r.db.WithContext(ctx).
		Where("subject = ?", subject).
		Order("occurred_at DESC, id DESC").
		Find(&entries).Error
	return entries, err
}

func (r *repository) ListByAggregate(ctx context.Context, aggregateID string) ([]Entry, error) {
	var entries []Entry
	err := r.db.WithContext(ctx).
		Where("aggregate_id = ?", aggregateID).
		Order("occurred_at ASC, id ASC").
		Find(&entries).Error
	return entries, err
}
