package event

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sync"

	"github.com/erp/layaway/internal/domain/layaway"
	"github.com/erp/layaway/internal/domain/shared"
)

// EventSerializer encodes events as JSON and decodes them back to their registered
// Go types
type EventSerializer struct {
	mu       sync.RWMutex
	registry map[string]reflect.Type
}

// NewEventSerializer creates an empty serializer
func NewEventSerializer() *EventSerializer {
	return &EventSerializer{registry: make(map[string]reflect.Type)}
}

// NewLayawayEventSerializer creates a serializer that knows every ledger event
func NewLayawayEventSerializer() *EventSerializer {
	s := NewEventSerializer()
	RegisterLayawayEvents(s)
	return s
}

// RegisterLayawayEvents registers the order events written to the outbox
func RegisterLayawayEvents(s *EventSerializer) {
	s.Register(layaway.EventTypeOrderCreated, &layaway.OrderCreatedEvent{})
	s.Register(layaway.EventTypePaymentApplied, &layaway.PaymentAppliedEvent{})
	s.Register(layaway.EventTypeOrderCompleted, &layaway.OrderCompletedEvent{})
	s.Register(layaway.EventTypeOrderCancelled, &layaway.OrderCancelledEvent{})
}

// Register maps eventType to the concrete type of instance
func (s *EventSerializer) Register(eventType string, instance shared.DomainEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := reflect.TypeOf(instance)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	s.registry[eventType] = t
}

// Serialize encodes an event
func (s *EventSerializer) Serialize(event shared.DomainEvent) ([]byte, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("serialize %s: %w", event.EventType(), err)
	}
	return data, nil
}

// Deserialize decodes data into a new instance of the type registered for eventType
func (s *EventSerializer) Deserialize(eventType string, data []byte) (shared.DomainEvent, error) {
	s.mu.RLock()
	t, ok := s.registry[eventType]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown event type: %s", eventType)
	}

	ptr := reflect.New(t).Interface()
	if err := json.Unmarshal(data, ptr); err != nil {
		return nil, fmt.Errorf("failed to unmarshal event: %w", err)
	}
	event, ok := ptr.(shared.DomainEvent)
	if !ok {
		return nil, fmt.Errorf("%s does not implement DomainEvent", t)
	}
	return event, nil
}

// IsRegistered reports whether eventType can be decoded
func (s *EventSerializer) IsRegistered(eventType string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.registry[eventType]
	return ok
}
