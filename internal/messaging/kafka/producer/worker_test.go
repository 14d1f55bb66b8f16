package producer

import (
	"context"
	"errors"
	"testing"
	"time"

	"go-leave/internal/messaging/kafka"
	"go-leave/internal/messaging/kafka/mock"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
)

type fakeWriter struct {
	written []kafkago.Message
	failFor map[string]error
}

func (w *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafkago.Message) error {
	for _, m := range msgs {
		if err, ok := w.failFor[string(m.Key)]; ok {
			return err
		}
		w.written = append(w.written, m)
	}
	return nil
}

func outboxEvent(aggregateID string) kafka.OutboxEvent {
	return kafka.OutboxEvent{
		ID:            uuid.New(),
		RequestID:     "rid-9",
		AggregateType: "leave_request",
		AggregateID:   aggregateID,
		EventType:     "LEAVE_APPROVED",
		Topic:         "hr.leave.lifecycle.v1",
		Payload:       []byte(`{"leave_id":"` + aggregateID + `"}`),
		Status:        kafka.OutboxStatusPending,
	}
}

func TestProcessPendingEvents(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

	t.Run("publishes and marks sent", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := mock.NewMockOutboxRepository(ctrl)
		writer := &fakeWriter{}
		ev := outboxEvent("leave-1")

		repo.EXPECT().ListPending(ctx, batchSize, now).Return([]kafka.OutboxEvent{ev}, nil)
		repo.EXPECT().MarkSent(ctx, ev.ID, now).Return(nil)

		sent, err := ProcessPendingEvents(ctx, repo, writer, zap.NewNop(), now)
		assert.NoError(t, err)
		assert.Equal(t, 1, sent)

		if assert.Len(t, writer.written, 1) {
			msg := writer.written[0]
			assert.Equal(t, "hr.leave.lifecycle.v1", msg.Topic)
			assert.Equal(t, []byte("leave-1"), msg.Key)
			headers := map[string]string{}
			for _, h := range msg.Headers {
				headers[h.Key] = string(h.Value)
			}
			assert.Equal(t, ev.ID.String(), headers["event_id"])
			assert.Equal(t, "LEAVE_APPROVED", headers["event_type"])
			assert.Equal(t, "rid-9", headers["request_id"])
		}
	})

	t.Run("failed publish is rescheduled and the batch continues", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := mock.NewMockOutboxRepository(ctrl)
		broken := outboxEvent("leave-broken")
		ok := outboxEvent("leave-ok")
		writer := &fakeWriter{failFor: map[string]error{"leave-broken": errors.New("leader not available")}}

		repo.EXPECT().ListPending(ctx, batchSize, now).Return([]kafka.OutboxEvent{broken, ok}, nil)
		repo.EXPECT().MarkFailed(ctx, broken, "leader not available", now).Return(nil)
		repo.EXPECT().MarkSent(ctx, ok.ID, now).Return(nil)

		sent, err := ProcessPendingEvents(ctx, repo, writer, zap.NewNop(), now)
		assert.NoError(t, err)
		assert.Equal(t, 1, sent)
	})

	t.Run("list error", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := mock.NewMockOutboxRepository(ctrl)

		repo.EXPECT().ListPending(ctx, batchSize, now).Return(nil, errors.New("db down"))

		_, err := ProcessPendingEvents(ctx, repo, &fakeWriter{}, zap.NewNop(), now)
		assert.Error(t, err)
	})

	t.Run("nothing pending", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := mock.NewMockOutboxRepository(ctrl)

		repo.EXPECT().ListPending(ctx, batchSize, now).Return(nil, nil)

		sent, err := ProcessPendingEvents(ctx, repo, &fakeWriter{}, zap.NewNop(), now)
		assert.NoError(t, err)
		assert.Zero(t, sent)
	})
}
