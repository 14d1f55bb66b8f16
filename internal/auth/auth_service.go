package auth

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"strings"
	"time"

	"go-leave/internal/account"
	autherrors "go-leave/internal/auth/errors"
	"go-leave/internal/domain"
	"go-leave/internal/session"
	"go-leave/internal/shared/contextutil"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

//go:generate mockgen -source=auth_service.go -destination=mock/auth_service_mock.go -package=mock
type Service interface {
	Login(ctx context.Context, req LoginRequest, device Device) (LoginResult, error)
	Resolve(ctx context.Context, token string) (domain.Identity, error)
	Logout(ctx context.Context, token string) error
	LogoutAll(ctx context.Context, identity domain.Identity) (int64, error)
	ListSessions(ctx context.Context, identity domain.Identity) ([]SessionResponse, error)
}

type service struct {
	db         *gorm.DB
	accounts   account.Repository
	sessions   session.Repository
	tokens     *TokenIssuer
	maxPerUser int
	now        func() time.Time
	logger     *zap.Logger
}

type Config struct {
	MaxSessionsPerAccount int
	Now                   func() time.Time
}

func NewService(
	db *gorm.DB,
	accounts account.Repository,
	sessions session.Repository,
	tokens *TokenIssuer,
	cfg Config,
	logger ...*zap.Logger,
) Service {
	l := zap.L().Named("auth.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("auth.service")
	}
	now := cfg.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &service{
		db:         db,
		accounts:   accounts,
		sessions:   sessions,
		tokens:     tokens,
		maxPerUser: cfg.MaxSessionsPerAccount,
		now:        now,
		logger:     l,
	}
}

func isBcryptHash(s string) bool {
	return strings.HasPrefix(s, "$2a$") || strings.HasPrefix(s, "$2b$") || strings.HasPrefix(s, "$2y$")
}

// verifySecret reports whether presented matches stored and whether stored
// is a legacy plaintext value that should be upgraded.
func verifySecret(stored, presented string) (ok, legacy bool) {
	if isBcryptHash(stored) {
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(presented)) == nil, false
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(presented)) == 1, true
}

func newSessionID() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

func identityFrom(acc account.Account, sid string, expiresAt time.Time) domain.Identity {
	return domain.Identity{
		Username:      acc.Username,
		FullName:      acc.FullName,
		Role:          acc.Role,
		Department:    acc.Department,
		Position:      acc.Position,
		RemainingDays: acc.RemainingDays,
		SessionID:     sid,
		ExpiresAt:     expiresAt,
	}
}

func (s *service) Login(ctx context.Context, req LoginRequest, device Device) (LoginResult, error) {
	rid := contextutil.GetRequestID(ctx)
	username := strings.TrimSpace(req.Username)

	acc, err := s.accounts.FindByUsername(ctx, username)
	if err != nil {
		if account.IsNotFound(err) {
			s.logger.Info("login rejected", zap.String("request_id", rid), zap.String("username", username))
			return LoginResult{}, autherrors.ErrInvalidCredentials
		}
		return LoginResult{}, err
	}

	ok, legacy := verifySecret(acc.Secret, req.Secret)
	if !ok {
		s.logger.Info("login rejected", zap.String("request_id", rid), zap.String("username", username))
		return LoginResult{}, autherrors.ErrInvalidCredentials
	}
	if legacy {
		s.upgradeSecret(ctx, acc.Username, req.Secret)
	}

	sid, err := newSessionID()
	if err != nil {
		return LoginResult{}, err
	}

	now := s.now()
	token, expiresAt, err := s.tokens.Issue(acc.Username, sid, now)
	if err != nil {
		s.logger.Error("sign token failed", zap.String("request_id", rid), zap.Error(err))
		return LoginResult{}, err
	}

	sess := &session.Session{
		ID:        sid,
		Username:  acc.Username,
		Role:      acc.Role,
		IssuedAt:  now,
		ExpiresAt: expiresAt,
		UserAgent: truncate(device.UserAgent, 300),
		IPAddress: truncate(device.IPAddress, 64),
	}

	var evicted int64
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.sessions.WithTx(tx)
		if err := repo.Create(ctx, sess); err != nil {
			return err
		}
		n, err := repo.EvictOldest(ctx, acc.Username, sid, s.maxPerUser, now)
		evicted = n
		return err
	})
	if err != nil {
		s.logger.Error("persist session failed", zap.String("request_id", rid), zap.Error(err))
		return LoginResult{}, err
	}

	if err := s.accounts.TouchLastLogin(ctx, acc.Username, now); err != nil {
		s.logger.Warn("touch last login failed", zap.String("username", acc.Username), zap.Error(err))
	}

	s.logger.Info("login success",
		zap.String("request_id", rid),
		zap.String("username", acc.Username),
		zap.Int64("evicted_sessions", evicted),
	)

	return LoginResult{
		Token:     token,
		ExpiresAt: expiresAt,
		Identity:  identityFrom(*acc, sid, expiresAt),
		Evicted:   evicted,
	}, nil
}

func (s *service) upgradeSecret(ctx context.Context, username, secret string) {
	hash, err := account.HashSecret(secret)
	if err != nil {
		s.logger.Error("hash legacy secret failed", zap.String("username", username), zap.Error(err))
		return
	}
	if err := s.accounts.UpdateSecret(ctx, username, hash); err != nil {
		s.logger.Error("upgrade legacy secret failed", zap.String("username", username), zap.Error(err))
		return
	}
	s.logger.Info("legacy secret upgraded", zap.String("username", username))
}

func (s *service) Resolve(ctx context.Context, token string) (domain.Identity, error) {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return domain.Identity{}, err
	}

	sess, err := s.sessions.FindWithAccount(ctx, claims.SessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Identity{}, autherrors.ErrSessionRevoked
		}
		return domain.Identity{}, err
	}

	if sess.Username != claims.Subject || sess.Account.Username == "" {
		return domain.Identity{}, autherrors.ErrInvalidToken
	}

	if sess.Evicted() {
		s.dropSession(ctx, sess.ID, "evicted")
		return domain.Identity{}, autherrors.ErrSessionEvicted
	}

	if sess.ExpiredAt(s.now()) {
		s.dropSession(ctx, sess.ID, "expired")
		return domain.Identity{}, autherrors.ErrSessionExpired
	}

	return identityFrom(sess.Account, sess.ID, sess.ExpiresAt), nil
}

func (s *service) dropSession(ctx context.Context, id, reason string) {
	if _, err := s.sessions.Delete(ctx, id); err != nil {
		s.logger.Warn("drop session failed", zap.String("reason", reason), zap.Error(err))
	}
}

// Logout revokes the session behind token. Logging out twice is not an error.
func (s *service) Logout(ctx context.Context, token string) error {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return err
	}
	deleted, err := s.sessions.Delete(ctx, claims.SessionID)
	if err != nil {
		return err
	}
	s.logger.Info("logout",
		zap.String("request_id", contextutil.GetRequestID(ctx)),
		zap.String("username", claims.Subject),
		zap.Bool("deleted", deleted),
	)
	return nil
}

func (s *service) LogoutAll(ctx context.Context, identity domain.Identity) (int64, error) {
	n, err := s.sessions.DeleteByUsername(ctx, identity.Username)
	if err != nil {
		return 0, err
	}
	s.logger.Info("logout all",
		zap.String("request_id", contextutil.GetRequestID(ctx)),
		zap.String("username", identity.Username),
		zap.Int64("sessions", n),
	)
	return n, nil
}

func (s *service) ListSessions(ctx context.Context, identity domain.Identity) ([]SessionResponse, error) {
	rows, err := s.sessions.ListLive(ctx, identity.Username, s.now())
	if err != nil {
		return nil, err
	}
	out := make([]SessionResponse, 0, len(rows))
	for _, r := range rows {
		out = append(out, SessionResponse{
			IDHint:    truncate(r.ID, 8),
			IssuedAt:  r.IssuedAt,
			ExpiresAt: r.ExpiresAt,
			UserAgent: r.UserAgent,
			IPAddress: r.IPAddress,
			Current:   r.ID == identity.SessionID,
		})
	}
	return out, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
