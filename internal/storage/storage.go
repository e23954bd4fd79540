package storage

import (
	"context"
	"errors"
	"time"
)

var (
	ErrDuplicateEventID   = errors.New("event with same ID exists")
	ErrNotFoundEvent      = errors.New("event not found")
	ErrIncorrectEventTime = errors.New("incorrect event time")
)

// Storage is the durable store behind the reminder engine. It is the
// source of truth; the in-memory reminder index is only a cache of it.
type Storage interface {
	Connect(ctx context.Context) error
	Close(ctx context.Context) error
	// AddEvent validates the event and inserts it, assigning ID and Seq.
	AddEvent(ctx context.Context, e *Event) error
	GetEvent(ctx context.Context, id string) (Event, error)
	// ListPendingEvents returns all events with reminder_sent = false.
	ListPendingEvents(ctx context.Context) ([]Event, error)
	// ListPendingEventsSince returns pending events with Seq > seq. Seq
	// is assigned monotonically on insert, so a caller holding the
	// highest Seq it has seen gets exactly the rows inserted since.
	ListPendingEventsSince(ctx context.Context, seq int64) ([]Event, error)
	MarkReminderSent(ctx context.Context, id string) error
	// RemoveEvent deletes the event and all of its RSVP records.
	RemoveEvent(ctx context.Context, id string) error
	// ListExpiredEvents returns events with end_at <= now.
	ListExpiredEvents(ctx context.Context, now time.Time) ([]Event, error)
	// AddRsvp records a user's intent to attend. created is false when
	// the (event, user) pair is already registered; no second record is
	// written in that case.
	AddRsvp(ctx context.Context, eventID string, userID string) (created bool, err error)
	ListRsvpUsers(ctx context.Context, eventID string) ([]string, error)
}
