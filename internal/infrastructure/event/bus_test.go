package event

import (
	"context"
	"errors"
	"testing"

	"github.com/erp/layaway/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type panickingHandler struct{}

func (panickingHandler) Handle(context.Context, shared.DomainEvent) error { panic("boom") }
func (panickingHandler) EventTypes() []string                             { return nil }

func TestInMemoryEventBus_RoutesByType(t *testing.T) {
	bus := NewInMemoryEventBus(nil)
	created := newRecordingHandler("LayawayOrderCreated")
	all := newRecordingHandler()
	bus.Subscribe(created)
	bus.Subscribe(all)

	storeID := uuid.New()
	require.NoError(t, bus.Publish(context.Background(),
		newTestEvent("LayawayOrderCreated", storeID),
		newTestEvent("LayawayPaymentApplied", storeID),
	))

	assert.Equal(t, 1, created.count())
	assert.Equal(t, 2, all.count())

	bus.Unsubscribe(created)
	require.NoError(t, bus.Publish(context.Background(), newTestEvent("LayawayOrderCreated", storeID)))
	assert.Equal(t, 1, created.count())
	assert.Equal(t, 3, all.count())
}

func TestInMemoryEventBus_JoinsHandlerFailures(t *testing.T) {
	bus := NewInMemoryEventBus(nil)
	failing := newRecordingHandler("E")
	failing.setErr(errors.New("dispatcher offline"))
	healthy := newRecordingHandler("E")
	bus.Subscribe(failing)
	bus.Subscribe(panickingHandler{}, "E")
	bus.Subscribe(healthy)

	err := bus.Publish(context.Background(), newTestEvent("E", uuid.New()))
	require.Error(t, err)
	assert.ErrorContains(t, err, "dispatcher offline")
	assert.ErrorContains(t, err, "handler panicked: boom")
	assert.Equal(t, 1, healthy.count(), "later handlers still run")
}

func TestInMemoryEventBus_StopRejectsPublish(t *testing.T) {
	bus := NewInMemoryEventBus(nil)
	require.NoError(t, bus.Stop(context.Background()))
	assert.ErrorIs(t, bus.Publish(context.Background(), newTestEvent("E", uuid.New())), ErrBusStopped)

	require.NoError(t, bus.Start(context.Background()))
	assert.NoError(t, bus.Publish(context.Background(), newTestEvent("E", uuid.New())))
}
