package rsvp

import (
	"context"
	"time"

	"github.com/nightpulse/eventbot/internal/notify"
	"github.com/nightpulse/eventbot/internal/storage"
	"github.com/nightpulse/eventbot/internal/timezone"
	log "github.com/sirupsen/logrus"
)

type Result int

const (
	Registered Result = iota
	AlreadyRegistered
)

func (r Result) String() string {
	if r == AlreadyRegistered {
		return "already_registered"
	}
	return "registered"
}

type Store interface {
	GetEvent(ctx context.Context, id string) (storage.Event, error)
	AddRsvp(ctx context.Context, eventID string, userID string) (bool, error)
}

// Registrar records a user's intent to attend an event, deduplicating
// repeat registrations against the store.
type Registrar struct {
	store Store
	sink  notify.Sink
	tz    *timezone.Normalizer
	now   func() time.Time
}

func NewRegistrar(store Store, sink notify.Sink, tz *timezone.Normalizer) *Registrar {
	return &Registrar{store: store, sink: sink, tz: tz, now: time.Now}
}

// Register returns AlreadyRegistered without a second record when the
// (event, user) pair exists. On a fresh registration the user gets a
// confirmation, or the full reminder right away when the event's
// reminder window has already opened — a late joiner must not miss the
// reminder a punctual one already received.
func (r *Registrar) Register(ctx context.Context, eventID string, userID string) (Result, error) {
	event, err := r.store.GetEvent(ctx, eventID)
	if err != nil {
		return 0, err
	}
	created, err := r.store.AddRsvp(ctx, eventID, userID)
	if err != nil {
		return 0, err
	}
	if !created {
		return AlreadyRegistered, nil
	}

	text := notify.ConfirmationText()
	if !r.now().Before(event.RemindAt) {
		text = notify.ReminderText(event, r.tz)
	}
	if err := r.sink.Send(ctx, userID, text); err != nil {
		log.Warnf("failed to notify user %s about rsvp for event %s: %v", userID, eventID, err)
	}
	return Registered, nil
}
