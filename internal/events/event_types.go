package events

import (
	"time"

	"github.com/spec-kit/kaie-api/internal/domain"
	"github.com/spec-kit/kaie-api/internal/ids"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventAccountRegistered EventType = "account_registered"
	EventLoginSucceeded    EventType = "login_succeeded"
	EventLoginFailed       EventType = "login_failed"
	EventTokenRefreshed    EventType = "token_refreshed"
	EventRefreshFailed     EventType = "refresh_failed"
	EventLoggedOut         EventType = "logged_out"
)

// AllEventTypes lists every auth event in a stable order.
var AllEventTypes = []EventType{
	EventAccountRegistered,
	EventLoginSucceeded,
	EventLoginFailed,
	EventTokenRefreshed,
	EventRefreshFailed,
	EventLoggedOut,
}

// Event represents an auth event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	AccountID string      `json:"account_id,omitempty"`
	Email     string      `json:"email,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload,omitempty"`
}

// New stamps an event with a fresh id and the current time.
func New(eventType EventType, accountID, email string, payload interface{}) Event {
	now := time.Now().UTC()
	return Event{
		ID:        ids.NewAt(now),
		Type:      eventType,
		AccountID: accountID,
		Email:     email,
		Timestamp: now,
		Payload:   payload,
	}
}

// FailurePayload records why an attempt was rejected.
type FailurePayload struct {
	Reason string `json:"reason"`
}

// SessionPayload describes tokens issued by a login or refresh.
type SessionPayload struct {
	Role       domain.Role `json:"role"`
	RememberMe bool        `json:"remember_me,omitempty"`
}
