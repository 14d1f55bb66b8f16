package auth

import (
	"context"
	"testing"
	"time"

	"go-leave/internal/account"
	accountMock "go-leave/internal/account/mock"
	autherrors "go-leave/internal/auth/errors"
	"go-leave/internal/domain"
	"go-leave/internal/session"
	sessionMock "go-leave/internal/session/mock"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func bcryptHash(t *testing.T, secret string) (string, error) {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.MinCost)
	return string(h), err
}

type authDeps struct {
	service  Service
	sqlMock  sqlmock.Sqlmock
	accounts *accountMock.MockRepository
	sessions *sessionMock.MockRepository
	tokens   *TokenIssuer
	now      time.Time
}

func setupAuthServiceTest(t *testing.T) *authDeps {
	ctrl := gomock.NewController(t)

	sqlDB, mock, err := sqlmock.New()
	assert.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: logger.Discard,
	})
	assert.NoError(t, err)

	now := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	tokens, err := NewTokenIssuer("test-secret", "go-leave", 8*time.Hour, clock)
	assert.NoError(t, err)

	accounts := accountMock.NewMockRepository(ctrl)
	sessions := sessionMock.NewMockRepository(ctrl)

	return &authDeps{
		service:  NewService(gdb, accounts, sessions, tokens, Config{MaxSessionsPerAccount: 3, Now: clock}),
		sqlMock:  mock,
		accounts: accounts,
		sessions: sessions,
		tokens:   tokens,
		now:      now,
	}
}

func expectTx(mock sqlmock.Sqlmock, commit bool) {
	mock.ExpectBegin()
	if commit {
		mock.ExpectCommit()
	} else {
		mock.ExpectRollback()
	}
}

func aliceAccount(secret string) *account.Account {
	return &account.Account{
		ID:            uuid.New(),
		Username:      "alice",
		Secret:        secret,
		Role:          domain.RoleEmployee,
		FullName:      "Alice",
		Department:    "Sales",
		RemainingDays: decimal.NewFromInt(12),
	}
}

func TestService_Login(t *testing.T) {
	ctx := context.Background()
	hash, _ := bcryptHash(t, "pw123")

	t.Run("success", func(t *testing.T) {
		deps := setupAuthServiceTest(t)
		deps.accounts.EXPECT().FindByUsername(ctx, "alice").Return(aliceAccount(hash), nil)

		expectTx(deps.sqlMock, true)
		deps.sessions.EXPECT().WithTx(gomock.Any()).Return(deps.sessions)
		var created *session.Session
		deps.sessions.EXPECT().
			Create(ctx, gomock.Any()).
			DoAndReturn(func(_ context.Context, s *session.Session) error {
				created = s
				return nil
			})
		deps.sessions.EXPECT().
			EvictOldest(ctx, "alice", gomock.Any(), 3, deps.now).
			DoAndReturn(func(_ context.Context, _ string, currentID string, _ int, _ time.Time) (int64, error) {
				assert.Equal(t, created.ID, currentID)
				return 1, nil
			})
		deps.accounts.EXPECT().TouchLastLogin(ctx, "alice", deps.now).Return(nil)

		res, err := deps.service.Login(ctx, LoginRequest{Username: "alice", Secret: "pw123"}, Device{UserAgent: "ua", IPAddress: "10.0.0.1"})
		assert.NoError(t, err)
		assert.Equal(t, int64(1), res.Evicted)
		assert.Equal(t, "Sales", res.Identity.Department)
		assert.Equal(t, deps.now.Add(8*time.Hour), res.ExpiresAt)

		claims, err := deps.tokens.Parse(res.Token)
		assert.NoError(t, err)
		assert.Equal(t, created.ID, claims.SessionID)
		assert.Len(t, created.ID, 43)
		assert.Equal(t, "10.0.0.1", created.IPAddress)
		assert.Equal(t, res.ExpiresAt, created.ExpiresAt)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("legacy plaintext secret is upgraded", func(t *testing.T) {
		deps := setupAuthServiceTest(t)
		deps.accounts.EXPECT().FindByUsername(ctx, "alice").Return(aliceAccount("plain-old"), nil)
		deps.accounts.EXPECT().
			UpdateSecret(ctx, "alice", gomock.Any()).
			DoAndReturn(func(_ context.Context, _ string, h string) error {
				assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(h), []byte("plain-old")))
				return nil
			})

		expectTx(deps.sqlMock, true)
		deps.sessions.EXPECT().WithTx(gomock.Any()).Return(deps.sessions)
		deps.sessions.EXPECT().Create(ctx, gomock.Any()).Return(nil)
		deps.sessions.EXPECT().EvictOldest(ctx, "alice", gomock.Any(), 3, deps.now).Return(int64(0), nil)
		deps.accounts.EXPECT().TouchLastLogin(ctx, "alice", deps.now).Return(nil)

		_, err := deps.service.Login(ctx, LoginRequest{Username: "alice", Secret: "plain-old"}, Device{})
		assert.NoError(t, err)
	})

	t.Run("negative wrong secret", func(t *testing.T) {
		deps := setupAuthServiceTest(t)
		deps.accounts.EXPECT().FindByUsername(ctx, "alice").Return(aliceAccount(hash), nil)

		_, err := deps.service.Login(ctx, LoginRequest{Username: "alice", Secret: "nope"}, Device{})
		assert.ErrorIs(t, err, autherrors.ErrInvalidCredentials)
	})

	t.Run("negative unknown user", func(t *testing.T) {
		deps := setupAuthServiceTest(t)
		deps.accounts.EXPECT().FindByUsername(ctx, "ghost").Return(nil, gorm.ErrRecordNotFound)

		_, err := deps.service.Login(ctx, LoginRequest{Username: "ghost", Secret: "x"}, Device{})
		assert.ErrorIs(t, err, autherrors.ErrInvalidCredentials)
	})

	t.Run("negative session persist failure rolls back", func(t *testing.T) {
		deps := setupAuthServiceTest(t)
		deps.accounts.EXPECT().FindByUsername(ctx, "alice").Return(aliceAccount(hash), nil)

		expectTx(deps.sqlMock, false)
		deps.sessions.EXPECT().WithTx(gomock.Any()).Return(deps.sessions)
		deps.sessions.EXPECT().Create(ctx, gomock.Any()).Return(assert.AnError)

		_, err := deps.service.Login(ctx, LoginRequest{Username: "alice", Secret: "pw123"}, Device{})
		assert.ErrorIs(t, err, assert.AnError)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})
}

func TestService_Resolve(t *testing.T) {
	ctx := context.Background()

	issue := func(t *testing.T, deps *authDeps, username, sid string) string {
		token, _, err := deps.tokens.Issue(username, sid, deps.now)
		assert.NoError(t, err)
		return token
	}
	row := func(deps *authDeps, sid string) *session.Session {
		return &session.Session{
			ID:        sid,
			Username:  "alice",
			Role:      domain.RoleEmployee,
			IssuedAt:  deps.now,
			ExpiresAt: deps.now.Add(8 * time.Hour),
			Account:   *aliceAccount("x"),
		}
	}

	t.Run("success", func(t *testing.T) {
		deps := setupAuthServiceTest(t)
		deps.sessions.EXPECT().FindWithAccount(ctx, "sid-1").Return(row(deps, "sid-1"), nil)

		id, err := deps.service.Resolve(ctx, issue(t, deps, "alice", "sid-1"))
		assert.NoError(t, err)
		assert.Equal(t, "alice", id.Username)
		assert.Equal(t, "sid-1", id.SessionID)
		assert.True(t, id.RemainingDays.Equal(decimal.NewFromInt(12)))
	})

	t.Run("negative revoked", func(t *testing.T) {
		deps := setupAuthServiceTest(t)
		deps.sessions.EXPECT().FindWithAccount(ctx, "sid-1").Return(nil, gorm.ErrRecordNotFound)

		_, err := deps.service.Resolve(ctx, issue(t, deps, "alice", "sid-1"))
		assert.ErrorIs(t, err, autherrors.ErrSessionRevoked)
	})

	t.Run("negative evicted row is dropped", func(t *testing.T) {
		deps := setupAuthServiceTest(t)
		r := row(deps, "sid-1")
		evictedAt := deps.now
		r.EvictedAt = &evictedAt
		deps.sessions.EXPECT().FindWithAccount(ctx, "sid-1").Return(r, nil)
		deps.sessions.EXPECT().Delete(ctx, "sid-1").Return(true, nil)

		_, err := deps.service.Resolve(ctx, issue(t, deps, "alice", "sid-1"))
		assert.ErrorIs(t, err, autherrors.ErrSessionEvicted)
	})

	t.Run("negative server side expiry", func(t *testing.T) {
		deps := setupAuthServiceTest(t)
		r := row(deps, "sid-1")
		r.ExpiresAt = deps.now
		deps.sessions.EXPECT().FindWithAccount(ctx, "sid-1").Return(r, nil)
		deps.sessions.EXPECT().Delete(ctx, "sid-1").Return(true, nil)

		_, err := deps.service.Resolve(ctx, issue(t, deps, "alice", "sid-1"))
		assert.ErrorIs(t, err, autherrors.ErrSessionExpired)
	})

	t.Run("negative subject mismatch", func(t *testing.T) {
		deps := setupAuthServiceTest(t)
		deps.sessions.EXPECT().FindWithAccount(ctx, "sid-1").Return(row(deps, "sid-1"), nil)

		_, err := deps.service.Resolve(ctx, issue(t, deps, "mallory", "sid-1"))
		assert.ErrorIs(t, err, autherrors.ErrInvalidToken)
	})

	t.Run("negative tampered token", func(t *testing.T) {
		deps := setupAuthServiceTest(t)
		_, err := deps.service.Resolve(ctx, issue(t, deps, "alice", "sid-1")+"x")
		assert.ErrorIs(t, err, autherrors.ErrInvalidToken)
	})
}

func TestService_LogoutAndList(t *testing.T) {
	ctx := context.Background()
	deps := setupAuthServiceTest(t)
	token, _, _ := deps.tokens.Issue("alice", "sid-1", deps.now)

	deps.sessions.EXPECT().Delete(ctx, "sid-1").Return(true, nil)
	assert.NoError(t, deps.service.Logout(ctx, token))

	alice := domain.Identity{Username: "alice", SessionID: "sid-1"}
	deps.sessions.EXPECT().DeleteByUsername(ctx, "alice").Return(int64(2), nil)
	n, err := deps.service.LogoutAll(ctx, alice)
	assert.NoError(t, err)
	assert.Equal(t, int64(2), n)

	deps.sessions.EXPECT().ListLive(ctx, "alice", deps.now).Return([]session.Session{
		{ID: "sid-1abcdefgh", IssuedAt: deps.now},
		{ID: "sid-2abcdefgh", IssuedAt: deps.now},
	}, nil)
	alice.SessionID = "sid-1abcdefgh"
	list, err := deps.service.ListSessions(ctx, alice)
	assert.NoError(t, err)
	assert.Len(t, list, 2)
	assert.True(t, list[0].Current)
	assert.False(t, list[1].Current)
	assert.Equal(t, "sid-1abc", list[0].IDHint)
}
