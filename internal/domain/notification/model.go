package notification

import (
	"context"
	"time"
)

type EventType string

const (
	EventJoinRequestCreated    EventType = "join_request.created"
	EventJoinRequestAccepted   EventType = "join_request.accepted"
	EventJoinRequestRejected   EventType = "join_request.rejected"
	EventApplicationSubmitted  EventType = "application.submitted"
	EventApplicationDecided    EventType = "application.decided"
	EventApplicationWithdrawn  EventType = "application.withdrawn"
	EventAffiliationRequested  EventType = "affiliation.requested"
	EventAffiliationDecided    EventType = "affiliation.decided"
	EventAffiliationTerminated EventType = "affiliation.terminated"
)

type Event struct {
	Type       EventType
	ActorID    string
	Recipients []string
	SubjectID  string
	Data       map[string]string
	OccurredAt time.Time
}

// Publisher delivers events to the notification channel. Delivery is best effort.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}
