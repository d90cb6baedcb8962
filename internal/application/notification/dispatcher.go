package notification

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// LoggingDispatcher writes messages to the log instead of delivering them
type LoggingDispatcher struct {
	logger *zap.Logger
}

// NewLoggingDispatcher creates a new LoggingDispatcher
func NewLoggingDispatcher(logger *zap.Logger) *LoggingDispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LoggingDispatcher{logger: logger}
}

// Dispatch logs the message
func (d *LoggingDispatcher) Dispatch(_ context.Context, msg Message) error {
	d.logger.Info("order confirmation",
		zap.String("store_id", msg.StoreID.String()),
		zap.String("order_number", msg.OrderNumber),
		zap.String("kind", string(msg.Kind)),
		zap.String("contact", msg.CustomerContact),
		zap.String("body", msg.Body),
	)
	return nil
}

// RecordingDispatcher keeps dispatched messages in memory
type RecordingDispatcher struct {
	mu       sync.Mutex
	messages []Message
}

// Dispatch records the message
func (d *RecordingDispatcher) Dispatch(_ context.Context, msg Message) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.messages = append(d.messages, msg)
	return nil
}

// Messages returns a copy of the recorded messages
func (d *RecordingDispatcher) Messages() []Message {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Message(nil), d.messages...)
}
