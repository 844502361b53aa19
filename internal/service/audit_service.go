package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/kaie-api/internal/events"
)

// EventRecorder counts auth events by type.
type EventRecorder interface {
	RecordAuthEvent(eventType string)
}

// AuditService writes auth events to the log and to metrics.
type AuditService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	recorder   EventRecorder
}

// NewAuditService creates the service. recorder may be nil.
func NewAuditService(dispatcher events.Dispatcher, logger *zap.Logger, recorder EventRecorder) *AuditService {
	return &AuditService{
		dispatcher: dispatcher,
		logger:     logger,
		recorder:   recorder,
	}
}

// RegisterHandlers subscribes to every auth event.
func (a *AuditService) RegisterHandlers() {
	if a.dispatcher == nil {
		return
	}
	for _, eventType := range events.AllEventTypes {
		a.dispatcher.Subscribe(eventType, a.handle)
	}
}

func (a *AuditService) handle(_ context.Context, event events.Event) error {
	fields := []zap.Field{
		zap.String("event_id", event.ID),
		zap.String("event_type", string(event.Type)),
		zap.Time("timestamp", event.Timestamp),
	}
	if event.AccountID != "" {
		fields = append(fields, zap.String("account_id", event.AccountID))
	}
	if event.Email != "" {
		fields = append(fields, zap.String("email", event.Email))
	}
	if event.Payload != nil {
		fields = append(fields, zap.Any("payload", event.Payload))
	}

	switch event.Type {
	case events.EventLoginFailed, events.EventRefreshFailed:
		a.logger.Warn("audit", fields...)
	default:
		a.logger.Info("audit", fields...)
	}

	if a.recorder != nil {
		a.recorder.RecordAuthEvent(string(event.Type))
	}
	return nil
}
