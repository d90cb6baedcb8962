package event

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/erp/layaway/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func TestOutboxPublisher_WritesWithTransaction(t *testing.T) {
	db := setupOutboxDB(t)
	s := NewEventSerializer()
	s.Register("E", &testEvent{})
	publisher := NewOutboxPublisher(s, 3)
	repo := NewGormOutboxRepository(db)
	storeID := uuid.New()

	err := db.Transaction(func(tx *gorm.DB) error {
		require.NoError(t, publisher.PublishWithTx(context.Background(), tx, newTestEvent("E", storeID)))
		return errors.New("rollback")
	})
	require.Error(t, err)
	pending, err := repo.FindPending(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, pending, "rolled back events are not delivered")

	ev := newTestEvent("E", storeID)
	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		return publisher.PublishWithTx(context.Background(), tx, ev)
	}))
	pending, err = repo.FindPending(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, ev.EventID(), pending[0].EventID)
	assert.Equal(t, storeID, pending[0].StoreID)
	assert.Equal(t, 3, pending[0].MaxRetries)
	assert.JSONEq(t, string(mustSerialize(t, s, ev)), string(pending[0].Payload))
}

func mustSerialize(t *testing.T, s *EventSerializer, ev shared.DomainEvent) []byte {
	t.Helper()
	data, err := s.Serialize(ev)
	require.NoError(t, err)
	return data
}

func TestGormOutboxRepository_ClaimAndCleanup(t *testing.T) {
	db := setupOutboxDB(t)
	repo := NewGormOutboxRepository(db)
	ctx := context.Background()
	storeID := uuid.New()

	a := shared.NewOutboxEntry(newTestEvent("E", storeID), []byte(`{}`))
	b := shared.NewOutboxEntry(newTestEvent("E", storeID), []byte(`{}`))
	require.NoError(t, repo.Save(ctx, a, b))

	claimed, err := repo.MarkProcessing(ctx, []uuid.UUID{a.ID, b.ID})
	require.NoError(t, err)
	assert.Len(t, claimed, 2)

	again, err := repo.MarkProcessing(ctx, []uuid.UUID{a.ID})
	require.NoError(t, err)
	assert.Empty(t, again, "processing entries cannot be claimed twice")

	claimed[0].MarkSent()
	old := time.Now().Add(-10 * 24 * time.Hour)
	claimed[0].ProcessedAt = &old
	require.NoError(t, repo.Update(ctx, claimed[0]))

	counts, err := repo.CountByStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), counts[shared.OutboxStatusSent])
	assert.Equal(t, int64(1), counts[shared.OutboxStatusProcessing])

	deleted, err := repo.DeleteOlderThan(ctx, time.Now().Add(-7*24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)
}

func TestOutboxProcessor_DeliversAndRetries(t *testing.T) {
	db := setupOutboxDB(t)
	repo := NewGormOutboxRepository(db)
	s := NewEventSerializer()
	s.Register("E", &testEvent{})
	bus := NewInMemoryEventBus(nil)
	handler := newRecordingHandler("E")
	bus.Subscribe(handler)
	ctx := context.Background()

	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		return NewOutboxPublisher(s, 0).PublishWithTx(ctx, tx, newTestEvent("E", uuid.New()))
	}))

	clock := shared.NewFakeClock(time.Now())
	processor := NewOutboxProcessor(repo, bus, s, DefaultOutboxProcessorConfig(), zap.NewNop())
	processor.SetClock(clock)

	handler.setErr(errors.New("dispatcher offline"))
	assert.Equal(t, 0, processor.ProcessBatch(ctx))

	counts, err := repo.CountByStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), counts[shared.OutboxStatusFailed])

	handler.setErr(nil)
	assert.Equal(t, 0, processor.ProcessBatch(ctx), "not yet due")

	clock.Advance(time.Minute)
	assert.Equal(t, 1, processor.ProcessBatch(ctx))
	assert.Equal(t, 2, handler.count())

	counts, err = repo.CountByStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), counts[shared.OutboxStatusSent])
}

func TestOutboxProcessor_UnknownTypeFails(t *testing.T) {
	db := setupOutboxDB(t)
	repo := NewGormOutboxRepository(db)
	entry := shared.NewOutboxEntry(newTestEvent("Unregistered", uuid.New()), []byte(`{}`))
	require.NoError(t, repo.Save(context.Background(), entry))

	processor := NewOutboxProcessor(repo, NewInMemoryEventBus(nil), NewEventSerializer(), DefaultOutboxProcessorConfig(), nil)
	assert.Equal(t, 0, processor.ProcessBatch(context.Background()))

	retryable, err := repo.FindRetryable(context.Background(), time.Now().Add(time.Hour), 10)
	require.NoError(t, err)
	require.Len(t, retryable, 1)
	assert.Contains(t, retryable[0].LastError, "unknown event type")
}

func TestOutboxProcessor_StartStop(t *testing.T) {
	processor := NewOutboxProcessor(NewGormOutboxRepository(setupOutboxDB(t)), NewInMemoryEventBus(nil),
		NewEventSerializer(), DefaultOutboxProcessorConfig(), nil)
	require.NoError(t, processor.Start(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, processor.Stop(ctx))
}
