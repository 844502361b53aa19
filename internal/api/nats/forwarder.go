package natsapi

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spec-kit/kaie-api/internal/events"
)

// Publisher is the subset of *nats.Conn the forwarder needs.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// EventForwarder republishes auth events on <subject>.<event type>.
type EventForwarder struct {
	publisher Publisher
	subject   string
}

// NewEventForwarder builds a forwarder rooted at subject.
func NewEventForwarder(publisher Publisher, subject string) *EventForwarder {
	return &EventForwarder{publisher: publisher, subject: subject}
}

// Register subscribes the forwarder to every auth event.
func (f *EventForwarder) Register(dispatcher events.Dispatcher) {
	for _, eventType := range events.AllEventTypes {
		dispatcher.Subscribe(eventType, f.forward)
	}
}

func (f *EventForwarder) forward(_ context.Context, event events.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode %s: %w", event.Type, err)
	}
	if err := f.publisher.Publish(f.subject+"."+string(event.Type), data); err != nil {
		return fmt.Errorf("publish %s: %w", event.Type, err)
	}
	return nil
}
