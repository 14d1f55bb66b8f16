package account

import (
	"errors"

	accounterrors "go-leave/internal/account/errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

func mapRepositoryError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return accounterrors.ErrAccountNotFound
	}

	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return accounterrors.ErrUsernameTaken
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" && pgErr.ConstraintName == "uq_accounts_username" {
		return accounterrors.ErrUsernameTaken
	}

	return err
}
