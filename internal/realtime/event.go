package realtime

import (
	"context"

	"reservas-backend/internal/model"
)

// EventType tags a change notification.
type EventType string

const (
	EventInsert EventType = "INSERT"
	EventUpdate EventType = "UPDATE"
	EventDelete EventType = "DELETE"
)

// ChangeEvent is one change to the reservations table. INSERT and UPDATE
// carry New, DELETE carries Old; Old may hold only the id.
type ChangeEvent struct {
	EventType EventType  `json:"eventType"`
	New       *model.Row `json:"new"`
	Old       *model.Row `json:"old"`
}

// Date returns the date the event belongs to, or "" if neither image carries one.
func (e ChangeEvent) Date() string {
	if e.New != nil && e.New.Date != "" {
		return e.New.Date
	}
	if e.Old != nil {
		return e.Old.Date
	}
	return ""
}

// Subscription delivers events for one date. Events is closed once Close
// has been called.
type Subscription interface {
	Events() <-chan ChangeEvent
	Close() error
}

// Feed is a per-date filtered change stream.
type Feed interface {
	Subscribe(ctx context.Context, date string) (Subscription, error)
	Publish(ctx context.Context, event ChangeEvent) error
}
