package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go-leave/internal/audit"
	"go-leave/internal/events"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// MessageReader is the subset of *kafkago.Reader the consumer needs.
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafkago.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafkago.Message) error
}

func ConsumeLeaveLifecycle(
	ctx context.Context,
	reader MessageReader,
	store audit.Repository,
	logger *zap.Logger,
) {
	log := logger.Named("kafka.consumer.leave_lifecycle")
	log.Info("leave lifecycle consumer started")

	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				log.Info("leave lifecycle consumer stopped")
				return
			}
			log.Error("fetch leave lifecycle message failed", zap.Error(err))
			continue
		}

		if !handleWithRetry(ctx, msg, store, log) {
			log.Info("leave lifecycle consumer stopped")
			return
		}

		if err := reader.CommitMessages(ctx, msg); err != nil {
			log.Error("commit leave lifecycle message failed", zap.Error(err))
		}
	}
}

var (
	retryBaseDelay = 500 * time.Millisecond
	retryMaxDelay  = 30 * time.Second
)

// handleWithRetry keeps retrying a message whose store write failed, so its
// offset is never committed past an unrecorded event. It returns false only
// when ctx is cancelled first.
func handleWithRetry(ctx context.Context, msg kafkago.Message, store audit.Repository, log *zap.Logger) bool {
	delay := retryBaseDelay
	for attempt := 1; ; attempt++ {
		err := HandleLeaveLifecycle(ctx, msg, store, log)
		if err == nil {
			return true
		}
		log.Error("record leave lifecycle event failed",
			zap.Int64("offset", msg.Offset),
			zap.Int("attempt", attempt),
			zap.Duration("retry_in", delay),
			zap.Error(err),
		)

		select {
		case <-ctx.Done():
			return false
		case <-time.After(delay):
		}
		delay = min(delay*2, retryMaxDelay)
	}
}

// HandleLeaveLifecycle turns one message into an audit entry. Undecodable
// messages are logged and dropped; only store failures are returned.
func HandleLeaveLifecycle(ctx context.Context, msg kafkago.Message, store audit.Repository, log *zap.Logger) error {
	var event events.LeaveLifecycleEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		log.Error("decode leave lifecycle event failed", zap.Error(err))
		return nil
	}
	if event.EventID == "" || event.LeaveID == "" {
		log.Warn("leave lifecycle event without id, skipping",
			zap.String("event_type", event.EventType),
		)
		return nil
	}

	entry := &audit.Entry{
		ID:          uuid.New(),
		EventID:     event.EventID,
		EventType:   event.EventType,
		AggregateID: event.LeaveID,
		Actor:       event.Actor,
		Subject:     event.Requester,
		Summary:     Summarize(event),
		OccurredAt:  event.OccurredAt.UTC(),
	}

	written, err := store.Record(ctx, entry)
	if err != nil {
		return err
	}
	if !written {
		log.Warn("leave lifecycle event already recorded, skipping",
			zap.String("event_id", event.EventID),
		)
		return nil
	}

	log.Info("notify requester",
		zap.String("requester", event.Requester),
		zap.String("leave_id", event.LeaveID),
		zap.String("event_type", event.EventType),
		zap.String("summary", entry.Summary),
	)
	return nil
}

func Summarize(event events.LeaveLifecycleEvent) string {
	period := fmt.Sprintf("%s to %s (%s days)", event.StartDate, event.EndDate, event.DurationDays)
	switch event.EventType {
	case events.LeaveSubmitted:
		return fmt.Sprintf("%s requested %s leave %s", event.Requester, event.Category, period)
	case events.LeaveApproved:
		return fmt.Sprintf("%s approved %s leave of %s %s", event.Actor, event.Category, event.Requester, period)
	case events.LeaveRejected:
		s := fmt.Sprintf("%s rejected %s leave of %s %s", event.Actor, event.Category, event.Requester, period)
		if reason := strings.TrimSpace(event.RejectionReason); reason != "" {
			s += ": " + reason
		}
		return s
	default:
		return fmt.Sprintf("%s on leave %s", event.EventType, event.LeaveID)
	}
}
