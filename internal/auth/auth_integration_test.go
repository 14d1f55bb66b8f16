package auth_test

import (
	"context"
	"testing"
	"time"

	"go-leave/internal/account"
	"go-leave/internal/auth"
	autherrors "go-leave/internal/auth/errors"
	"go-leave/internal/domain"
	"go-leave/internal/session"
	"go-leave/internal/shared/testdb"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type clock struct{ now time.Time }

func (c *clock) Now() time.Time { return c.now }

func setupAuthStore(t *testing.T, maxSessions int, secret string) (auth.Service, *gorm.DB, *clock) {
	t.Helper()
	db := testdb.Open(t, &account.Account{}, &account.BalanceAdjustment{}, &session.Session{})

	err := db.Create(&account.Account{
		ID:            uuid.New(),
		Username:      "alice",
		Secret:        secret,
		Role:          domain.RoleEmployee,
		FullName:      "Alice",
		RemainingDays: decimal.NewFromInt(12),
	}).Error
	assert.NoError(t, err)

	clk := &clock{now: time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)}
	tokens, err := auth.NewTokenIssuer("integration-secret", "go-leave", 8*time.Hour, clk.Now)
	assert.NoError(t, err)

	svc := auth.NewService(db, account.NewRepository(db), session.NewRepository(db), tokens, auth.Config{
		MaxSessionsPerAccount: maxSessions,
		Now:                   clk.Now,
	})
	return svc, db, clk
}

func login(t *testing.T, svc auth.Service) string {
	t.Helper()
	res, err := svc.Login(context.Background(), auth.LoginRequest{Username: "alice", Secret: "pw123"}, auth.Device{UserAgent: "test"})
	assert.NoError(t, err)
	return res.Token
}

func hashed(t *testing.T) string {
	h, err := bcrypt.GenerateFromPassword([]byte("pw123"), bcrypt.MinCost)
	assert.NoError(t, err)
	return string(h)
}

func TestAuth_RevokedTokenFailsBeforeExpiry(t *testing.T) {
	ctx := context.Background()
	svc, _, clk := setupAuthStore(t, 3, hashed(t))

	token := login(t, svc)

	id, err := svc.Resolve(ctx, token)
	assert.NoError(t, err)
	assert.Equal(t, "alice", id.Username)

	assert.NoError(t, svc.Logout(ctx, token))

	clk.now = clk.now.Add(time.Minute)
	_, err = svc.Resolve(ctx, token)
	assert.ErrorIs(t, err, autherrors.ErrSessionRevoked)
}

func TestAuth_OldestSessionEvicted(t *testing.T) {
	ctx := context.Background()
	svc, _, clk := setupAuthStore(t, 2, hashed(t))

	first := login(t, svc)
	clk.now = clk.now.Add(time.Second)
	second := login(t, svc)
	clk.now = clk.now.Add(time.Second)
	third := login(t, svc)

	_, err := svc.Resolve(ctx, first)
	assert.ErrorIs(t, err, autherrors.ErrSessionEvicted)

	_, err = svc.Resolve(ctx, first)
	assert.ErrorIs(t, err, autherrors.ErrSessionRevoked)

	for _, tok := range []string{second, third} {
		_, err := svc.Resolve(ctx, tok)
		assert.NoError(t, err)
	}

	id, err := svc.Resolve(ctx, third)
	assert.NoError(t, err)
	sessions, err := svc.ListSessions(ctx, id)
	assert.NoError(t, err)
	assert.Len(t, sessions, 2)
	assert.True(t, sessions[0].Current)
}

func TestAuth_SingleSessionPolicy(t *testing.T) {
	ctx := context.Background()
	svc, _, clk := setupAuthStore(t, 1, hashed(t))

	first := login(t, svc)
	clk.now = clk.now.Add(time.Second)
	second := login(t, svc)

	_, err := svc.Resolve(ctx, first)
	assert.ErrorIs(t, err, autherrors.ErrSessionEvicted)
	_, err = svc.Resolve(ctx, second)
	assert.NoError(t, err)
}

func TestAuth_SingleSessionPolicy_SameInstant(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := setupAuthStore(t, 1, hashed(t))

	var previous string
	for i := 0; i < 8; i++ {
		latest := login(t, svc)

		_, err := svc.Resolve(ctx, latest)
		assert.NoError(t, err, "login %d", i)
		if previous != "" {
			_, err = svc.Resolve(ctx, previous)
			assert.ErrorIs(t, err, autherrors.ErrSessionEvicted, "login %d", i)
		}
		previous = latest
	}
}

func TestAuth_ExpiredTokenRejected(t *testing.T) {
	ctx := context.Background()
	svc, _, clk := setupAuthStore(t, 3, hashed(t))

	token := login(t, svc)
	clk.now = clk.now.Add(8*time.Hour + time.Second)

	_, err := svc.Resolve(ctx, token)
	assert.ErrorIs(t, err, autherrors.ErrTokenExpired)
}

func TestAuth_LegacySecretUpgraded(t *testing.T) {
	ctx := context.Background()
	svc, db, _ := setupAuthStore(t, 3, "pw123")

	login(t, svc)

	var acc account.Account
	assert.NoError(t, db.Where("username = ?", "alice").First(&acc).Error)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(acc.Secret), []byte("pw123")))
	assert.NotNil(t, acc.LastLoginAt)

	login(t, svc)
	_, err := svc.Login(ctx, auth.LoginRequest{Username: "alice", Secret: "wrong"}, auth.Device{})
	assert.ErrorIs(t, err, autherrors.ErrInvalidCredentials)
}

func TestAuth_LogoutAll(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := setupAuthStore(t, 3, hashed(t))

	a := login(t, svc)
	b := login(t, svc)

	id, err := svc.Resolve(ctx, a)
	assert.NoError(t, err)

	n, err := svc.LogoutAll(ctx, id)
	assert.NoError(t, err)
	assert.Equal(t, int64(2), n)

	for _, tok := range []string{a, b} {
		_, err := svc.Resolve(ctx, tok)
		assert.ErrorIs(t, err, autherrors.ErrSessionRevoked)
	}
}
