package account

import (
	"context"
	"errors"
	"time"

	accounterrors "go-leave/internal/account/errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

//go:generate mockgen -source=account_repo.go -destination=mock/account_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, acc *Account) error
	FindByUsername(ctx context.Context, username string) (*Account, error)
	FindAll(ctx context.Context) ([]Account, error)
	UpdateProfile(ctx context.Context, username string, upd ProfileUpdate) error
	UpdateSecret(ctx context.Context, username, secretHash string) error
	TouchLastLogin(ctx context.Context, username string, at time.Time) error
	AdjustBalance(ctx context.Context, adj *BalanceAdjustment, enforceFloor bool) (bool, error)
	ListAdjustments(ctx context.Context, username string) ([]BalanceAdjustment, error)
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

func (r *repository) Create(ctx context.Context, acc *Account) error {
	return r.db.WithContext(ctx).Create(acc).Error
}

func (r *repository) FindByUsername(ctx context.Context, username string) (*Account, error) {
	var acc Account
	err := r.db.WithContext(ctx).
		Where("username = ?", username).
		First(&acc).Error
	if err != nil {
		return nil, err
	}
	return &acc, nil
}

func (r *repository) FindAll(ctx context.Context) ([]Account, error) {
	var accounts []Account
	err := r.db.WithContext(ctx).
		Order("username ASC").
		Find(&accounts).Error
	return accounts, err
}

func (r *repository) UpdateProfile(ctx context.Context, username string, upd ProfileUpdate) error {
	fields := map[string]any{}
	if upd.FullName != nil {
		fields["full_name"] = *upd.FullName
	}
	if upd.DOB != nil {
		fields["dob"] = *upd.DOB
	}
	if upd.Phone != nil {
		fields["phone"] = *upd.Phone
	}
	if len(fields) == 0 {
		return nil
	}

	res := r.db.WithContext(ctx).
		Model(&Account{}).
		Where("username = ?", username).
		Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) UpdateSecret(ctx context.Context, username, secretHash string) error {
	return r.db.WithContext(ctx).
		Model(&Account{}).
		Where("username = ?", username).
		Update("secret", secretHash).Error
}

func (r *repository) TouchLastLogin(ctx context.Context, username string, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&Account{}).
		Where("username = ?", username).
		UpdateColumn("last_login_at", at).Error
}

// AdjustBalance records adj in the ledger and moves the balance by adj.Delta
// in one atomic step. When adj.Reference was already used the call is a
// no-op and reports applied=false.
func (r *repository) AdjustBalance(ctx context.Context, adj *BalanceAdjustment, enforceFloor bool) (bool, error) {
	applied := false

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ins := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(adj)
		if ins.Error != nil {
			return ins.Error
		}
		if ins.RowsAffected == 0 {
			return nil
		}

		q := tx.Model(&Account{}).Where("username = ?", adj.Username)
		if enforceFloor {
			q = q.Where("remaining_days + ? >= 0", adj.Delta)
		}
		res := q.Update("remaining_days", gorm.Expr("remaining_days + ?", adj.Delta))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			var count int64
			if err := tx.Model(&Account{}).Where("username = ?", adj.Username).Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				return accounterrors.ErrAccountNotFound
			}
			return accounterrors.ErrInsufficientBalance
		}

		applied = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return applied, nil
}

func (r *repository) ListAdjustments(ctx context.Context, username string) ([]BalanceAdjustment, error) {
	var rows []BalanceAdjustment
	err := r.db.WithContext(ctx).
		Where("username = ?", username).
		Order("created_at DESC, id DESC").
		Find(&rows).Error
	return rows, err
}

// IsNotFound reports whether err means the account does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound) || errors.Is(err, accounterrors.ErrAccountNotFound)
}
