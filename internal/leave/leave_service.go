package leave

import (
	"context"
	"strings"
	"time"

	"go-leave/internal/account"
	"go-leave/internal/domain"
	"go-leave/internal/events"
	leaveerrors "go-leave/internal/leave/errors"
	"go-leave/internal/messaging/kafka"
	"go-leave/internal/shared/contextutil"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:generate mockgen -source=leave_service.go -destination=mock/leave_service_mock.go -package=mock
type Service interface {
	Submit(ctx context.Context, requester domain.Identity, req SubmitLeaveRequest) (LeaveResponse, error)
	ListMine(ctx context.Context, requester domain.Identity) ([]LeaveResponse, error)
	ListAll(ctx context.Context, actor domain.Identity, filter ListFilter) ([]LeaveResponse, error)
	Get(ctx context.Context, actor domain.Identity, id string) (LeaveResponse, error)
	Approve(ctx context.Context, approver domain.Identity, id string) (LeaveResponse, error)
	Reject(ctx context.Context, approver domain.Identity, id, reason string) (LeaveResponse, error)
	Delete(ctx context.Context, actor domain.Identity, id string) error
	Categories() []Category
}

type service struct {
	db           *gorm.DB
	repo         Repository
	accounts     account.Repository
	outbox       kafka.OutboxRepository
	cache        *account.ProfileCache
	now          func() time.Time
	enforceFloor bool
	logger       *zap.Logger
}

type Option func(*service)

func WithClock(now func() time.Time) Option {
	return func(s *service) { s.now = now }
}

// WithBalanceFloor makes an annual approval fail instead of driving the
// requester's balance below zero.
func WithBalanceFloor(enforce bool) Option {
	return func(s *service) { s.enforceFloor = enforce }
}

// WithOutbox records a lifecycle event in the same transaction as every
// state change.
func WithOutbox(outbox kafka.OutboxRepository) Option {
	return func(s *service) { s.outbox = outbox }
}

func NewService(
	db *gorm.DB,
	repo Repository,
	accounts account.Repository,
	cache *account.ProfileCache,
	opts []Option,
	logger ...*zap.Logger,
) Service {
	l := zap.L().Named("leave.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("leave.service")
	}
	s := &service{
		db:       db,
		repo:     repo,
		accounts: accounts,
		cache:    cache,
		now:      func() time.Time { return time.Now().UTC() },
		logger:   l,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *service) Submit(ctx context.Context, requester domain.Identity, req SubmitLeaveRequest) (LeaveResponse, error) {
	rid := contextutil.GetRequestID(ctx)
	s.logger.Debug("submit leave requested",
		zap.String("request_id", rid),
		zap.String("requester", requester.Username),
		zap.String("category", req.Category),
		zap.String("start_date", req.StartDate),
		zap.String("end_date", req.EndDate),
	)

	l, err := s.buildLeave(requester, req)
	if err != nil {
		s.logger.Warn("submit leave validation failed",
			zap.String("request_id", rid),
			zap.String("requester", requester.Username),
			zap.Error(err),
		)
		return LeaveResponse{}, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		qtx := s.repo.WithTx(tx)

		overlap, err := qtx.HasOverlappingPeriod(ctx, l.Requester, l.StartDate, l.EndDate)
		if err != nil {
			return err
		}
		if overlap {
			return leaveerrors.ErrLeaveOverlap
		}

		if err := qtx.Create(ctx, l); err != nil {
			return err
		}
		return s.enqueue(ctx, tx, events.LeaveSubmitted, *l, requester.Username)
	})
	if err != nil {
		s.logger.Warn("submit leave failed",
			zap.String("request_id", rid),
			zap.String("requester", requester.Username),
			zap.Error(err),
		)
		return LeaveResponse{}, mapRepositoryError(err)
	}

	s.logger.Info("submit leave success",
		zap.String("request_id", rid),
		zap.String("leave_id", l.ID.String()),
		zap.String("requester", l.Requester),
	)
	return mapToResponse(*l), nil
}

func (s *service) buildLeave(requester domain.Identity, req SubmitLeaveRequest) (*Leave, error) {
	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		return nil, leaveerrors.ErrReasonRequired
	}

	category, ok := FindCategory(strings.TrimSpace(req.Category))
	if !ok {
		return nil, leaveerrors.ErrInvalidCategory
	}
	subCase := strings.TrimSpace(req.SubCase)
	if !category.HasSubCase(subCase) {
		return nil, leaveerrors.ErrInvalidSubCase
	}

	startDate, err := parseDate(req.StartDate)
	if err != nil {
		return nil, err
	}
	endDate, err := parseDate(req.EndDate)
	if err != nil {
		return nil, err
	}
	if startDate.After(endDate) {
		return nil, leaveerrors.ErrInvalidDateRange
	}

	duration := decimal.NewFromFloat(req.DurationDays)
	span := decimal.NewFromInt(int64(endDate.Sub(startDate).Hours()/24) + 1)
	if !duration.IsPositive() || !account.IsHalfDayStep(duration) || duration.GreaterThan(span) {
		return nil, leaveerrors.ErrInvalidDuration
	}

	name := strings.TrimSpace(requester.FullName)
	if name == "" {
		name = requester.Username
	}
	now := s.now().UTC()

	// v7 ids are time ordered, so they break requested_at ties by insertion.
	id, err := uuid.NewV7()
	if err != nil {
		return nil, err
	}

	return &Leave{
		ID:            id,
		Requester:     requester.Username,
		RequesterName: name,
		Department:    requester.Department,
		Category:      category.Code,
		SubCase:       subCase,
		StartDate:     startDate,
		EndDate:       endDate,
		DurationDays:  duration,
		Reason:        reason,
		Status:        StatusPending,
		RequestedAt:   now,
		UpdatedAt:     now,
	}, nil
}

func parseDate(raw string) (time.Time, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}, leaveerrors.ErrInvalidDateFormat
	}
	return t, nil
}

func (s *service) ListMine(ctx context.Context, requester domain.Identity) ([]LeaveResponse, error) {
	leaves, err := s.repo.ListByRequester(ctx, requester.Username)
	if err != nil {
		s.logger.Error("list own leaves failed", zap.String("requester", requester.Username), zap.Error(err))
		return nil, err
	}
	return mapToListResponse(leaves), nil
}

func (s *service) ListAll(ctx context.Context, actor domain.Identity, filter ListFilter) ([]LeaveResponse, error) {
	if !actor.IsAdmin() {
		return nil, leaveerrors.ErrForbidden
	}
	filter, err := s.normalizeFilter(filter)
	if err != nil {
		return nil, err
	}

	leaves, err := s.repo.ListAll(ctx, filter)
	if err != nil {
		s.logger.Error("list leaves failed", zap.Error(err))
		return nil, err
	}
	return mapToListResponse(leaves), nil
}

func (s *service) normalizeFilter(f ListFilter) (ListFilter, error) {
	f.Status = strings.ToLower(strings.TrimSpace(f.Status))
	switch f.Status {
	case "", StatusPending, StatusApproved, StatusRejected:
	default:
		return f, leaveerrors.ErrInvalidFilter
	}
	if f.Month < 0 || f.Month > 12 || f.Year < 0 || f.Year > 9999 {
		return f, leaveerrors.ErrInvalidFilter
	}
	if f.Month > 0 && f.Year == 0 {
		f.Year = s.now().Year()
	}
	return f, nil
}

func (s *service) Get(ctx context.Context, actor domain.Identity, id string) (LeaveResponse, error) {
	l, err := s.find(ctx, id)
	if err != nil {
		return LeaveResponse{}, err
	}
	if !actor.IsAdmin() && l.Requester != actor.Username {
		return LeaveResponse{}, leaveerrors.ErrLeaveNotFound
	}
	return mapToResponse(*l), nil
}

func (s *service) find(ctx context.Context, id string) (*Leave, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, leaveerrors.ErrLeaveNotFound
	}
	l, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapRepositoryError(err)
	}
	return l, nil
}

func (s *service) Approve(ctx context.Context, approver domain.Identity, id string) (LeaveResponse, error) {
	return s.decide(ctx, approver, id, ActionApprove, "")
}

func (s *service) Reject(ctx context.Context, approver domain.Identity, id, reason string) (LeaveResponse, error) {
	return s.decide(ctx, approver, id, ActionReject, reason)
}

func (s *service) decide(ctx context.Context, approver domain.Identity, id string, action Action, reason string) (LeaveResponse, error) {
	rid := contextutil.GetRequestID(ctx)
	if !approver.IsAdmin() {
		return LeaveResponse{}, leaveerrors.ErrDecideForbidden
	}

	l, err := s.find(ctx, id)
	if err != nil {
		return LeaveResponse{}, err
	}

	t, err := Decide(*l, action, approver, s.now(), reason)
	if err != nil {
		s.logger.Warn("leave decision refused",
			zap.String("request_id", rid),
			zap.String("leave_id", id),
			zap.String("status", l.Status),
			zap.String("action", string(action)),
			zap.Error(err),
		)
		return LeaveResponse{}, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		swapped, err := s.repo.WithTx(tx).ApplyTransition(ctx, t)
		if err != nil {
			return err
		}
		if !swapped {
			return leaveerrors.ErrLeaveNotPending
		}

		if t.Debit != nil {
			ref := t.Debit.Reference
			applied, err := s.accounts.WithTx(tx).AdjustBalance(ctx, &account.BalanceAdjustment{
				ID:        uuid.New(),
				Username:  t.Debit.Username,
				Delta:     t.Debit.Days.Neg(),
				Reference: &ref,
				Reason:    "annual leave " + ref,
				CreatedBy: approver.Username,
			}, s.enforceFloor)
			if err != nil {
				return err
			}
			if !applied {
				s.logger.Warn("leave debit already recorded",
					zap.String("request_id", rid),
					zap.String("leave_id", id),
				)
			}
		}

		t.Apply(l)
		return s.enqueue(ctx, tx, t.EventType, *l, approver.Username)
	})
	if err != nil {
		s.logger.Warn("leave decision failed",
			zap.String("request_id", rid),
			zap.String("leave_id", id),
			zap.String("action", string(action)),
			zap.Error(err),
		)
		return LeaveResponse{}, mapRepositoryError(err)
	}

	if t.Debit != nil {
		s.cache.Invalidate(ctx, t.Debit.Username)
	}

	s.logger.Info("leave decided",
		zap.String("request_id", rid),
		zap.String("leave_id", id),
		zap.String("status", t.To),
		zap.String("approved_by", approver.Username),
	)
	return mapToResponse(*l), nil
}

func (s *service) Delete(ctx context.Context, actor domain.Identity, id string) error {
	if !actor.IsAdmin() {
		return leaveerrors.ErrForbidden
	}
	if _, err := uuid.Parse(id); err != nil {
		return leaveerrors.ErrLeaveNotFound
	}

	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		s.logger.Error("delete leave failed", zap.String("leave_id", id), zap.Error(err))
		return err
	}
	if !deleted {
		return leaveerrors.ErrLeaveNotFound
	}

	s.logger.Info("leave deleted", zap.String("leave_id", id), zap.String("by", actor.Username))
	return nil
}

func (s *service) Categories() []Category {
	return Categories()
}

func (s *service) enqueue(ctx context.Context, tx *gorm.DB, eventType string, l Leave, actor string) error {
	if s.outbox == nil {
		return nil
	}

	id := uuid.New()
	rid := contextutil.GetRequestID(ctx)
	body := events.LeaveLifecycleEvent{
		EventID:      id.String(),
		EventType:    eventType,
		RequestID:    rid,
		LeaveID:      l.ID.String(),
		Requester:    l.Requester,
		Department:   l.Department,
		Category:     l.Category,
		SubCase:      l.SubCase,
		StartDate:    l.StartDate.Format(dateLayout),
		EndDate:      l.EndDate.Format(dateLayout),
		DurationDays: l.DurationDays.String(),
		Status:       l.Status,
		Actor:        actor,
		OccurredAt:   s.now().UTC(),
	}
	if l.RejectionReason != nil {
		body.RejectionReason = *l.RejectionReason
	}

	event, err := kafka.NewOutboxEvent(id, rid, events.AggregateLeaveRequest, l.ID.String(), eventType, events.LeaveLifecycleTopic, body)
	if err != nil {
		return err
	}
	return s.outbox.WithTx(tx).Create(ctx, event)
}
