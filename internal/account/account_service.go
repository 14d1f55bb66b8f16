package account

import (
	"context"
	"strings"
	"time"

	accounterrors "go-leave/internal/account/errors"
	"go-leave/internal/domain"
	"go-leave/internal/shared/contextutil"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/singleflight"
)

//go:generate mockgen -source=account_service.go -destination=mock/account_service_mock.go -package=mock
type Service interface {
	Create(ctx context.Context, actor domain.Identity, req CreateAccountRequest) (AccountResponse, error)
	GetProfile(ctx context.Context, username string) (AccountResponse, error)
	UpdateProfile(ctx context.Context, actor domain.Identity, req UpdateProfileRequest) (AccountResponse, error)
	List(ctx context.Context, actor domain.Identity) ([]AccountResponse, error)
	AdjustBalance(ctx context.Context, actor domain.Identity, username string, req AdjustBalanceRequest) (AdjustmentResponse, error)
	ListAdjustments(ctx context.Context, actor domain.Identity, username string) ([]AdjustmentResponse, error)
}

type service struct {
	repo         Repository
	cache        *ProfileCache
	sf           *singleflight.Group
	enforceFloor bool
	logger       *zap.Logger
}

type Option func(*service)

// WithBalanceFloor rejects manual corrections that would drive a balance
// below zero.
func WithBalanceFloor(enforce bool) Option {
	return func(s *service) { s.enforceFloor = enforce }
}

func NewService(repo Repository, cache *ProfileCache, opts []Option, logger ...*zap.Logger) Service {
	l := zap.L().Named("account.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("account.service")
	}
	s := &service{
		repo:   repo,
		cache:  cache,
		sf:     &singleflight.Group{},
		logger: l,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func HashSecret(secret string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func parseDate(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return nil, accounterrors.ErrInvalidDOB
	}
	return &t, nil
}

func (s *service) Create(ctx context.Context, actor domain.Identity, req CreateAccountRequest) (AccountResponse, error) {
	rid := contextutil.GetRequestID(ctx)
	if !actor.IsAdmin() {
		return AccountResponse{}, accounterrors.ErrForbidden
	}

	role := req.Role
	if role == "" {
		role = domain.RoleEmployee
	}
	if !domain.ValidRole(role) {
		return AccountResponse{}, accounterrors.ErrInvalidRole
	}

	balance := decimal.NewFromFloat(req.RemainingDays)
	if balance.IsNegative() || !IsHalfDayStep(balance) {
		return AccountResponse{}, accounterrors.ErrInvalidBalance
	}

	dob, err := parseDate(req.DOB)
	if err != nil {
		return AccountResponse{}, err
	}

	hash, err := HashSecret(req.Secret)
	if err != nil {
		s.logger.Error("hash secret failed", zap.String("request_id", rid), zap.Error(err))
		return AccountResponse{}, err
	}

	acc := &Account{
		ID:            uuid.New(),
		Username:      strings.TrimSpace(req.Username),
		Secret:        hash,
		Role:          role,
		FullName:      strings.TrimSpace(req.FullName),
		Department:    strings.TrimSpace(req.Department),
		Position:      strings.TrimSpace(req.Position),
		RemainingDays: balance,
		DOB:           dob,
		Phone:         strings.TrimSpace(req.Phone),
	}

	if err := s.repo.Create(ctx, acc); err != nil {
		s.logger.Warn("create account failed",
			zap.String("request_id", rid),
			zap.String("username", acc.Username),
			zap.Error(err),
		)
		return AccountResponse{}, mapRepositoryError(err)
	}

	s.logger.Info("account created",
		zap.String("request_id", rid),
		zap.String("username", acc.Username),
		zap.String("role", acc.Role),
		zap.String("created_by", actor.Username),
	)
	return ToResponse(*acc), nil
}

func (s *service) GetProfile(ctx context.Context, username string) (AccountResponse, error) {
	if resp, ok := s.cache.Get(ctx, username); ok {
		return resp, nil
	}

	v, err, _ := s.sf.Do(GetProfileKey(username), func() (any, error) {
		acc, err := s.repo.FindByUsername(ctx, username)
		if err != nil {
			return nil, mapRepositoryError(err)
		}
		resp := ToResponse(*acc)
		s.cache.Set(ctx, resp)
		return resp, nil
	})
	if err != nil {
		return AccountResponse{}, err
	}
	return v.(AccountResponse), nil
}

func (s *service) UpdateProfile(ctx context.Context, actor domain.Identity, req UpdateProfileRequest) (AccountResponse, error) {
	upd := ProfileUpdate{Phone: req.Phone}
	if req.FullName != nil {
		name := strings.TrimSpace(*req.FullName)
		if name == "" {
			return AccountResponse{}, accounterrors.ErrInvalidProfile
		}
		upd.FullName = &name
	}
	if req.DOB != nil {
		dob, err := parseDate(*req.DOB)
		if err != nil {
			return AccountResponse{}, err
		}
		upd.DOB = dob
	}

	if err := s.repo.UpdateProfile(ctx, actor.Username, upd); err != nil {
		return AccountResponse{}, mapRepositoryError(err)
	}
	s.cache.Invalidate(ctx, actor.Username)

	acc, err := s.repo.FindByUsername(ctx, actor.Username)
	if err != nil {
		return AccountResponse{}, mapRepositoryError(err)
	}

	s.logger.Info("profile updated", zap.String("username", actor.Username))
	return ToResponse(*acc), nil
}

func (s *service) List(ctx context.Context, actor domain.Identity) ([]AccountResponse, error) {
	if !actor.IsAdmin() {
		return nil, accounterrors.ErrForbidden
	}
	accounts, err := s.repo.FindAll(ctx)
	if err != nil {
		s.logger.Error("list accounts failed", zap.Error(err))
		return nil, mapRepositoryError(err)
	}
	return mapToListResponse(accounts), nil
}

func (s *service) AdjustBalance(ctx context.Context, actor domain.Identity, username string, req AdjustBalanceRequest) (AdjustmentResponse, error) {
	rid := contextutil.GetRequestID(ctx)
	if !actor.IsAdmin() {
		return AdjustmentResponse{}, accounterrors.ErrForbidden
	}

	delta := decimal.NewFromFloat(req.Delta)
	if delta.IsZero() || !IsHalfDayStep(delta) {
		return AdjustmentResponse{}, accounterrors.ErrInvalidAdjustment
	}

	adj := &BalanceAdjustment{
		ID:        uuid.New(),
		Username:  username,
		Delta:     delta,
		Reason:    strings.TrimSpace(req.Reason),
		CreatedBy: actor.Username,
	}

	applied, err := s.repo.AdjustBalance(ctx, adj, s.enforceFloor)
	if err != nil {
		s.logger.Warn("adjust balance failed",
			zap.String("request_id", rid),
			zap.String("username", username),
			zap.String("delta", delta.String()),
			zap.Error(err),
		)
		return AdjustmentResponse{}, mapRepositoryError(err)
	}
	s.cache.Invalidate(ctx, username)

	s.logger.Info("balance adjusted",
		zap.String("request_id", rid),
		zap.String("username", username),
		zap.String("delta", delta.String()),
		zap.String("by", actor.Username),
	)
	return mapAdjustment(*adj, applied), nil
}

func (s *service) ListAdjustments(ctx context.Context, actor domain.Identity, username string) ([]AdjustmentResponse, error) {
	if !actor.IsAdmin() {
		return nil, accounterrors.ErrForbidden
	}
	if _, err := s.repo.FindByUsername(ctx, username); err != nil {
		return nil, mapRepositoryError(err)
	}

	rows, err := s.repo.ListAdjustments(ctx, username)
	if err != nil {
		return nil, mapRepositoryError(err)
	}
	out := make([]AdjustmentResponse, 0, len(rows))
	for _, r := range rows {
		out = append(out, mapAdjustment(r, true))
	}
	return out, nil
}
