package leave_test

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"go-leave/internal/account"
	accounterrors "go-leave/internal/account/errors"
	"go-leave/internal/domain"
	"go-leave/internal/events"
	"go-leave/internal/leave"
	leaveerrors "go-leave/internal/leave/errors"
	"go-leave/internal/messaging/kafka"
	"go-leave/internal/shared/testdb"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

// stepClock returns a strictly increasing time on every call.
type stepClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

type leaveFixture struct {
	db       *gorm.DB
	service  leave.Service
	accounts account.Repository
}

var (
	alice = domain.Identity{Username: "alice", FullName: "Alice Nguyen", Role: domain.RoleEmployee, Department: "Engineering"}
	carol = domain.Identity{Username: "carol", FullName: "Carol Le", Role: domain.RoleEmployee, Department: "Sales"}
	bob   = domain.Identity{Username: "bob", FullName: "Bob Tran", Role: domain.RoleAdmin, Department: "HR"}
)

func setupLeaveService(t *testing.T, opts ...leave.Option) *leaveFixture {
	t.Helper()

	db := testdb.Open(t, &account.Account{}, &account.BalanceAdjustment{}, &leave.Leave{}, &kafka.OutboxEvent{})
	accounts := account.NewRepository(db)
	for _, id := range []domain.Identity{alice, carol, bob} {
		err := accounts.Create(context.Background(), &account.Account{
			ID:            uuid.New(),
			Username:      id.Username,
			Secret:        "x",
			Role:          id.Role,
			FullName:      id.FullName,
			Department:    id.Department,
			RemainingDays: decimal.NewFromInt(12),
		})
		assert.NoError(t, err)
	}

	clock := &stepClock{now: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)}
	all := append([]leave.Option{
		leave.WithClock(clock.Now),
		leave.WithOutbox(kafka.NewOutboxRepository(db)),
	}, opts...)

	svc := leave.NewService(db, leave.NewRepository(db), accounts, nil, all)
	return &leaveFixture{db: db, service: svc, accounts: accounts}
}

func annual(start, end string, days float64) leave.SubmitLeaveRequest {
	return leave.SubmitLeaveRequest{
		StartDate:    start,
		EndDate:      end,
		DurationDays: days,
		Category:     leave.CategoryAnnual,
		SubCase:      "ANNUAL",
		Reason:       "family trip",
	}
}

func (f *leaveFixture) balance(t *testing.T, username string) decimal.Decimal {
	t.Helper()
	acc, err := f.accounts.FindByUsername(context.Background(), username)
	assert.NoError(t, err)
	return acc.RemainingDays
}

func (f *leaveFixture) outbox(t *testing.T) []kafka.OutboxEvent {
	t.Helper()
	var rows []kafka.OutboxEvent
	assert.NoError(t, f.db.Order("created_at ASC, rowid ASC").Find(&rows).Error)
	return rows
}

func TestLeaveService_SubmitRoundTrip(t *testing.T) {
	ctx := context.Background()
	f := setupLeaveService(t)

	created, err := f.service.Submit(ctx, alice, annual("2024-05-06", "2024-05-07", 1.5))
	assert.NoError(t, err)

	mine, err := f.service.ListMine(ctx, alice)
	assert.NoError(t, err)
	if assert.Len(t, mine, 1) {
		got := mine[0]
		assert.Equal(t, created.ID, got.ID)
		assert.Equal(t, "alice", got.Requester)
		assert.Equal(t, "Alice Nguyen", got.RequesterName)
		assert.Equal(t, "Engineering", got.Department)
		assert.Equal(t, leave.CategoryAnnual, got.Category)
		assert.Equal(t, "Annual leave", got.CategoryLabel)
		assert.Equal(t, "2024-05-06", got.StartDate)
		assert.Equal(t, "2024-05-07", got.EndDate)
		assert.Equal(t, 1.5, got.DurationDays)
		assert.Equal(t, "family trip", got.Reason)
		assert.Equal(t, leave.StatusPending, got.Status)
		assert.Nil(t, got.ApprovedBy)
		assert.Nil(t, got.ApprovedAt)
	}

	rows := f.outbox(t)
	if assert.Len(t, rows, 1) {
		assert.Equal(t, events.LeaveSubmitted, rows[0].EventType)
		assert.Equal(t, events.LeaveLifecycleTopic, rows[0].Topic)
		assert.Equal(t, created.ID, rows[0].AggregateID)

		var payload events.LeaveLifecycleEvent
		assert.NoError(t, json.Unmarshal(rows[0].Payload, &payload))
		assert.Equal(t, rows[0].ID.String(), payload.EventID)
		assert.Equal(t, "alice", payload.Requester)
		assert.Equal(t, "1.5", payload.DurationDays)
	}
}

func TestLeaveService_ListMineNewestFirst(t *testing.T) {
	ctx := context.Background()
	f := setupLeaveService(t)

	a, err := f.service.Submit(ctx, alice, annual("2024-05-06", "2024-05-06", 1))
	assert.NoError(t, err)
	b, err := f.service.Submit(ctx, alice, annual("2024-05-13", "2024-05-13", 1))
	assert.NoError(t, err)
	c, err := f.service.Submit(ctx, alice, annual("2024-05-20", "2024-05-20", 1))
	assert.NoError(t, err)
	_, err = f.service.Submit(ctx, carol, annual("2024-05-20", "2024-05-20", 1))
	assert.NoError(t, err)

	mine, err := f.service.ListMine(ctx, alice)
	assert.NoError(t, err)
	if assert.Len(t, mine, 3) {
		assert.Equal(t, []string{c.ID, b.ID, a.ID}, []string{mine[0].ID, mine[1].ID, mine[2].ID})
	}
}

func TestLeaveService_ListMineSameInstant(t *testing.T) {
	ctx := context.Background()
	frozen := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	f := setupLeaveService(t, leave.WithClock(func() time.Time { return frozen }))

	var submitted []string
	for _, day := range []string{"2024-05-06", "2024-05-13", "2024-05-20", "2024-05-27", "2024-06-03"} {
		resp, err := f.service.Submit(ctx, alice, annual(day, day, 1))
		assert.NoError(t, err)
		submitted = append([]string{resp.ID}, submitted...)
	}

	mine, err := f.service.ListMine(ctx, alice)
	assert.NoError(t, err)
	got := make([]string, 0, len(mine))
	for _, l := range mine {
		got = append(got, l.ID)
	}
	assert.Equal(t, submitted, got)
}

func TestLeaveService_SubmitValidation(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		mutate  func(r *leave.SubmitLeaveRequest)
		wantErr error
	}{
		{"empty reason", func(r *leave.SubmitLeaveRequest) { r.Reason = "" }, leaveerrors.ErrReasonRequired},
		{"blank reason", func(r *leave.SubmitLeaveRequest) { r.Reason = " \t " }, leaveerrors.ErrReasonRequired},
		{"unknown category", func(r *leave.SubmitLeaveRequest) { r.Category = "SABBATICAL" }, leaveerrors.ErrInvalidCategory},
		{"foreign sub-case", func(r *leave.SubmitLeaveRequest) { r.SubCase = "MATERNITY" }, leaveerrors.ErrInvalidSubCase},
		{"malformed start", func(r *leave.SubmitLeaveRequest) { r.StartDate = "06/05/2024" }, leaveerrors.ErrInvalidDateFormat},
		{"malformed end", func(r *leave.SubmitLeaveRequest) { r.EndDate = "2024-02-30" }, leaveerrors.ErrInvalidDateFormat},
		{"start after end", func(r *leave.SubmitLeaveRequest) { r.StartDate = "2024-05-09" }, leaveerrors.ErrInvalidDateRange},
		{"zero duration", func(r *leave.SubmitLeaveRequest) { r.DurationDays = 0 }, leaveerrors.ErrInvalidDuration},
		{"negative duration", func(r *leave.SubmitLeaveRequest) { r.DurationDays = -1 }, leaveerrors.ErrInvalidDuration},
		{"not a half-day step", func(r *leave.SubmitLeaveRequest) { r.DurationDays = 1.25 }, leaveerrors.ErrInvalidDuration},
		{"longer than span", func(r *leave.SubmitLeaveRequest) { r.DurationDays = 3.5 }, leaveerrors.ErrInvalidDuration},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setupLeaveService(t)
			req := annual("2024-05-06", "2024-05-08", 2)
			tt.mutate(&req)

			_, err := f.service.Submit(ctx, alice, req)
			assert.ErrorIs(t, err, tt.wantErr)

			mine, err := f.service.ListMine(ctx, alice)
			assert.NoError(t, err)
			assert.Empty(t, mine)
			assert.Empty(t, f.outbox(t))
		})
	}
}

func TestLeaveService_SubmitOverlap(t *testing.T) {
	ctx := context.Background()
	f := setupLeaveService(t)

	first, err := f.service.Submit(ctx, alice, annual("2024-05-06", "2024-05-08", 3))
	assert.NoError(t, err)

	_, err = f.service.Submit(ctx, alice, annual("2024-05-08", "2024-05-09", 2))
	assert.ErrorIs(t, err, leaveerrors.ErrLeaveOverlap)

	_, err = f.service.Submit(ctx, carol, annual("2024-05-08", "2024-05-09", 2))
	assert.NoError(t, err)

	_, err = f.service.Reject(ctx, bob, first.ID, "")
	assert.NoError(t, err)

	_, err = f.service.Submit(ctx, alice, annual("2024-05-08", "2024-05-09", 2))
	assert.NoError(t, err)
}

func TestLeaveService_ApproveDebitsAnnualBalance(t *testing.T) {
	ctx := context.Background()
	f := setupLeaveService(t)

	submitted, err := f.service.Submit(ctx, alice, annual("2024-05-06", "2024-05-07", 2))
	assert.NoError(t, err)
	assert.Nil(t, submitted.ApprovedBy)
	assert.Nil(t, submitted.ApprovedAt)

	approved, err := f.service.Approve(ctx, bob, submitted.ID)
	assert.NoError(t, err)
	assert.Equal(t, leave.StatusApproved, approved.Status)
	if assert.NotNil(t, approved.ApprovedBy) && assert.NotNil(t, approved.ApprovedAt) {
		assert.Equal(t, "bob", *approved.ApprovedBy)
	}

	assert.True(t, f.balance(t, "alice").Equal(decimal.NewFromInt(10)), "balance %s", f.balance(t, "alice"))
	assert.True(t, f.balance(t, "bob").Equal(decimal.NewFromInt(12)))

	stored, err := f.service.Get(ctx, alice, submitted.ID)
	assert.NoError(t, err)
	assert.Equal(t, leave.StatusApproved, stored.Status)
	assert.Equal(t, "bob", *stored.ApprovedBy)

	ledger, err := f.accounts.ListAdjustments(ctx, "alice")
	assert.NoError(t, err)
	if assert.Len(t, ledger, 1) {
		assert.Equal(t, submitted.ID, *ledger[0].Reference)
		assert.True(t, ledger[0].Delta.Equal(decimal.NewFromInt(-2)))
		assert.Equal(t, "bob", ledger[0].CreatedBy)
	}

	rows := f.outbox(t)
	if assert.Len(t, rows, 2) {
		assert.Equal(t, events.LeaveApproved, rows[1].EventType)
	}
}

func TestLeaveService_DoubleApproveDebitsOnce(t *testing.T) {
	ctx := context.Background()
	f := setupLeaveService(t)

	submitted, err := f.service.Submit(ctx, alice, annual("2024-05-06", "2024-05-07", 2))
	assert.NoError(t, err)

	_, err = f.service.Approve(ctx, bob, submitted.ID)
	assert.NoError(t, err)

	_, err = f.service.Approve(ctx, bob, submitted.ID)
	assert.ErrorIs(t, err, leaveerrors.ErrLeaveNotPending)

	_, err = f.service.Reject(ctx, bob, submitted.ID, "changed my mind")
	assert.ErrorIs(t, err, leaveerrors.ErrLeaveNotPending)

	assert.True(t, f.balance(t, "alice").Equal(decimal.NewFromInt(10)))
	ledger, err := f.accounts.ListAdjustments(ctx, "alice")
	assert.NoError(t, err)
	assert.Len(t, ledger, 1)
	assert.Len(t, f.outbox(t), 2)
}

func TestLeaveService_ConcurrentDecisionsHaveOneWinner(t *testing.T) {
	ctx := context.Background()
	f := setupLeaveService(t)

	submitted, err := f.service.Submit(ctx, alice, annual("2024-05-06", "2024-05-07", 2))
	assert.NoError(t, err)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, errs[0] = f.service.Approve(ctx, bob, submitted.ID)
	}()
	go func() {
		defer wg.Done()
		_, errs[1] = f.service.Reject(ctx, bob, submitted.ID, "conflict")
	}()
	wg.Wait()

	winners := 0
	for _, err := range errs {
		if err == nil {
			winners++
			continue
		}
		assert.ErrorIs(t, err, leaveerrors.ErrLeaveNotPending)
	}
	assert.Equal(t, 1, winners)

	stored, err := f.service.Get(ctx, bob, submitted.ID)
	assert.NoError(t, err)
	ledger, err := f.accounts.ListAdjustments(ctx, "alice")
	assert.NoError(t, err)

	if stored.Status == leave.StatusApproved {
		assert.True(t, f.balance(t, "alice").Equal(decimal.NewFromInt(10)))
		assert.Len(t, ledger, 1)
	} else {
		assert.Equal(t, leave.StatusRejected, stored.Status)
		assert.True(t, f.balance(t, "alice").Equal(decimal.NewFromInt(12)))
		assert.Empty(t, ledger)
	}
	assert.Len(t, f.outbox(t), 2)
}

func TestLeaveService_ApproveNonAnnualKeepsBalance(t *testing.T) {
	ctx := context.Background()
	f := setupLeaveService(t)

	req := annual("2024-05-06", "2024-05-10", 5)
	req.Category = leave.CategorySocialInsurance
	req.SubCase = "CHILD_SICKNESS"
	submitted, err := f.service.Submit(ctx, alice, req)
	assert.NoError(t, err)
	assert.Equal(t, "Child sickness", submitted.SubCaseLabel)

	_, err = f.service.Approve(ctx, bob, submitted.ID)
	assert.NoError(t, err)

	assert.True(t, f.balance(t, "alice").Equal(decimal.NewFromInt(12)))
	ledger, err := f.accounts.ListAdjustments(ctx, "alice")
	assert.NoError(t, err)
	assert.Empty(t, ledger)
}

func TestLeaveService_Reject(t *testing.T) {
	ctx := context.Background()
	f := setupLeaveService(t)

	submitted, err := f.service.Submit(ctx, alice, annual("2024-05-06", "2024-05-07", 2))
	assert.NoError(t, err)

	rejected, err := f.service.Reject(ctx, bob, submitted.ID, " busy sprint ")
	assert.NoError(t, err)
	assert.Equal(t, leave.StatusRejected, rejected.Status)
	assert.Equal(t, "bob", *rejected.ApprovedBy)
	assert.NotNil(t, rejected.ApprovedAt)
	assert.Equal(t, "busy sprint", *rejected.RejectionReason)

	assert.True(t, f.balance(t, "alice").Equal(decimal.NewFromInt(12)))

	rows := f.outbox(t)
	if assert.Len(t, rows, 2) {
		var payload events.LeaveLifecycleEvent
		assert.NoError(t, json.Unmarshal(rows[1].Payload, &payload))
		assert.Equal(t, events.LeaveRejected, payload.EventType)
		assert.Equal(t, "busy sprint", payload.RejectionReason)
		assert.Equal(t, "bob", payload.Actor)
	}
}

func TestLeaveService_BalanceFloor(t *testing.T) {
	ctx := context.Background()

	t.Run("not enforced by default", func(t *testing.T) {
		f := setupLeaveService(t)
		submitted, err := f.service.Submit(ctx, alice, annual("2024-05-01", "2024-05-31", 14))
		assert.NoError(t, err)

		_, err = f.service.Approve(ctx, bob, submitted.ID)
		assert.NoError(t, err)
		assert.True(t, f.balance(t, "alice").Equal(decimal.NewFromInt(-2)))
	})

	t.Run("enforced rolls the whole decision back", func(t *testing.T) {
		f := setupLeaveService(t, leave.WithBalanceFloor(true))
		submitted, err := f.service.Submit(ctx, alice, annual("2024-05-01", "2024-05-31", 14))
		assert.NoError(t, err)

		_, err = f.service.Approve(ctx, bob, submitted.ID)
		assert.ErrorIs(t, err, accounterrors.ErrInsufficientBalance)

		stored, err := f.service.Get(ctx, alice, submitted.ID)
		assert.NoError(t, err)
		assert.Equal(t, leave.StatusPending, stored.Status)
		assert.Nil(t, stored.ApprovedBy)
		assert.True(t, f.balance(t, "alice").Equal(decimal.NewFromInt(12)))
		assert.Len(t, f.outbox(t), 1)
	})
}

func TestLeaveService_Authorization(t *testing.T) {
	ctx := context.Background()
	f := setupLeaveService(t)

	submitted, err := f.service.Submit(ctx, alice, annual("2024-05-06", "2024-05-07", 2))
	assert.NoError(t, err)

	_, err = f.service.Approve(ctx, alice, submitted.ID)
	assert.ErrorIs(t, err, leaveerrors.ErrDecideForbidden)

	_, err = f.service.Get(ctx, carol, submitted.ID)
	assert.ErrorIs(t, err, leaveerrors.ErrLeaveNotFound)

	_, err = f.service.Get(ctx, bob, submitted.ID)
	assert.NoError(t, err)

	_, err = f.service.Get(ctx, bob, "not-a-uuid")
	assert.ErrorIs(t, err, leaveerrors.ErrLeaveNotFound)

	_, err = f.service.Approve(ctx, bob, uuid.NewString())
	assert.ErrorIs(t, err, leaveerrors.ErrLeaveNotFound)

	_, err = f.service.ListAll(ctx, alice, leave.ListFilter{})
	assert.ErrorIs(t, err, leaveerrors.ErrForbidden)
	assert.NotContains(t, err.Error(), "decide")

	assert.ErrorIs(t, f.service.Delete(ctx, alice, submitted.ID), leaveerrors.ErrForbidden)
}

func TestLeaveService_ListAllFilters(t *testing.T) {
	ctx := context.Background()
	f := setupLeaveService(t)

	may, err := f.service.Submit(ctx, alice, annual("2024-05-06", "2024-05-07", 2))
	assert.NoError(t, err)
	june, err := f.service.Submit(ctx, carol, annual("2024-06-03", "2024-06-03", 1))
	assert.NoError(t, err)
	_, err = f.service.Approve(ctx, bob, june.ID)
	assert.NoError(t, err)

	all, err := f.service.ListAll(ctx, bob, leave.ListFilter{})
	assert.NoError(t, err)
	assert.Len(t, all, 2)
	assert.Equal(t, june.ID, all[0].ID)

	pending, err := f.service.ListAll(ctx, bob, leave.ListFilter{Status: "PENDING"})
	assert.NoError(t, err)
	if assert.Len(t, pending, 1) {
		assert.Equal(t, may.ID, pending[0].ID)
	}

	byMonth, err := f.service.ListAll(ctx, bob, leave.ListFilter{Month: 6})
	assert.NoError(t, err)
	if assert.Len(t, byMonth, 1) {
		assert.Equal(t, june.ID, byMonth[0].ID)
	}

	byName, err := f.service.ListAll(ctx, bob, leave.ListFilter{Name: "nguyen", Department: "engineering"})
	assert.NoError(t, err)
	assert.Len(t, byName, 1)

	for _, wildcard := range []string{"_", "%", `\`} {
		none, err := f.service.ListAll(ctx, bob, leave.ListFilter{Name: wildcard})
		assert.NoError(t, err)
		assert.Empty(t, none, "name %q", wildcard)
	}

	_, err = f.service.ListAll(ctx, bob, leave.ListFilter{Status: "cancelled"})
	assert.ErrorIs(t, err, leaveerrors.ErrInvalidFilter)

	_, err = f.service.ListAll(ctx, bob, leave.ListFilter{Month: 13})
	assert.ErrorIs(t, err, leaveerrors.ErrInvalidFilter)
}

func TestLeaveService_Delete(t *testing.T) {
	ctx := context.Background()
	f := setupLeaveService(t)

	submitted, err := f.service.Submit(ctx, alice, annual("2024-05-06", "2024-05-07", 2))
	assert.NoError(t, err)

	assert.NoError(t, f.service.Delete(ctx, bob, submitted.ID))
	assert.ErrorIs(t, f.service.Delete(ctx, bob, submitted.ID), leaveerrors.ErrLeaveNotFound)

	_, err = f.service.Get(ctx, bob, submitted.ID)
	assert.ErrorIs(t, err, leaveerrors.ErrLeaveNotFound)
}

func TestLeaveService_Categories(t *testing.T) {
	f := setupLeaveService(t)
	cats := f.service.Categories()
	assert.Len(t, cats, 4)
	assert.Equal(t, leave.CategoryAnnual, cats[0].Code)
}
