package bootstrap

import (
	"context"
	"encoding/json"
	"time"

	"go-leave/internal/audit"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const systemActor = "system"

type AuditLog struct {
	Action  string
	Message string
	Meta    map[string]any
}

// AuditLogger records process-level events such as startup and shutdown.
type AuditLogger interface {
	Log(ctx context.Context, entry AuditLog)
}

type StdoutAuditLogger struct{}

func NewStdoutAuditLogger() *StdoutAuditLogger {
	return &StdoutAuditLogger{}
}

func (l *StdoutAuditLogger) Log(ctx context.Context, entry AuditLog) {
	zap.L().Named("audit").Info("audit event",
		zap.String("timestamp", time.Now().UTC().Format(time.RFC3339)),
		zap.String("action", entry.Action),
		zap.String("message", entry.Message),
		zap.Any("meta", entry.Meta),
	)
}

// StoreAuditLogger writes to stdout and appends the entry to the audit trail.
// A store failure is logged and otherwise ignored.
type StoreAuditLogger struct {
	stdout *StdoutAuditLogger
	store  audit.Repository
	now    func() time.Time
}

func NewStoreAuditLogger(store audit.Repository) *StoreAuditLogger {
	return &StoreAuditLogger{
		stdout: NewStdoutAuditLogger(),
		store:  store,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (l *StoreAuditLogger) Log(ctx context.Context, entry AuditLog) {
	l.stdout.Log(ctx, entry)

	summary := entry.Message
	if len(entry.Meta) > 0 {
		if meta, err := json.Marshal(entry.Meta); err == nil {
			summary += " " + string(meta)
		}
	}

	id := uuid.New()
	_, err := l.store.Record(ctx, &audit.Entry{
		ID:          id,
		EventID:     id.String(),
		EventType:   entry.Action,
		AggregateID: systemActor,
		Actor:       systemActor,
		Subject:     systemActor,
		Summary:     summary,
		OccurredAt:  l.now(),
	})
	if err != nil {
		zap.L().Named("audit").Warn("persist audit entry failed",
			zap.String("action", entry.Action),
			zap.Error(err),
		)
	}
}
