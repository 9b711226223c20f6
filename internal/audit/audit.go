// Package audit defines the audit events raised by consent decisions and the
// sinks that deliver them.
package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// EventType identifies the kind of audit event.
type EventType string

const (
	ConsentGranted EventType = "consent_granted"
	ConsentDenied  EventType = "consent_denied"
	GrantsRevoked  EventType = "grants_revoked"
)

// Event is a single audit record. RequestedScopes always carries the full
// raw requested scope set; GrantedScopes is only set on ConsentGranted.
type Event struct {
	ID              string
	Type            EventType
	Time            time.Time
	Subject         string
	ClientID        string
	RequestedScopes []string
	GrantedScopes   []string
	Remember        bool
}

// NewEvent builds an event with a fresh id and timestamp.
func NewEvent(eventType EventType, subject, clientID string) Event {
	return Event{
		ID:       uuid.NewString(),
		Type:     eventType,
		Time:     time.Now().UTC(),
		Subject:  subject,
		ClientID: clientID,
	}
}

// Sink delivers audit events. Emission is fire-and-forget from the caller's
// perspective; delivery guarantees are the sink's responsibility.
type Sink interface {
	Emit(ctx context.Context, event Event)
}

// NopSink discards all events.
type NopSink struct{}

func (NopSink) Emit(context.Context, Event) {}
