package memorystorage

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nightpulse/eventbot/internal/storage"
)

type Storage struct {
	mu     sync.RWMutex
	events map[string]storage.Event
	rsvps  map[string]map[string]storage.Rsvp
	seq    int64
}

func New() *Storage {
	return &Storage{
		events: make(map[string]storage.Event),
		rsvps:  make(map[string]map[string]storage.Rsvp),
	}
}

func (s *Storage) Connect(_ context.Context) error {
	return nil
}

func (s *Storage) Close(_ context.Context) error {
	return nil
}

func (s *Storage) AddEvent(_ context.Context, e *storage.Event) error {
	if err := e.Validate(time.Now()); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.events[e.ID]; ok {
		return fmt.Errorf("duplicate ID %q: %w", e.ID, storage.ErrDuplicateEventID)
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	s.seq++
	e.Seq = s.seq
	e.CreatedAt = time.Now().UTC()
	s.events[e.ID] = *e
	return nil
}

func (s *Storage) GetEvent(_ context.Context, id string) (storage.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.events[id]
	if !ok {
		return storage.Event{}, fmt.Errorf("failed to get event with id %q: %w", id, storage.ErrNotFoundEvent)
	}
	return e, nil
}

func (s *Storage) ListPendingEvents(_ context.Context) ([]storage.Event, error) {
	return s.selectEvents(func(e storage.Event) bool {
		return !e.ReminderSent
	}), nil
}

func (s *Storage) ListPendingEventsSince(_ context.Context, seq int64) ([]storage.Event, error) {
	return s.selectEvents(func(e storage.Event) bool {
		return !e.ReminderSent && e.Seq > seq
	}), nil
}

func (s *Storage) MarkReminderSent(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.events[id]
	if !ok {
		return fmt.Errorf("failed to mark event with id %q: %w", id, storage.ErrNotFoundEvent)
	}
	e.ReminderSent = true
	s.events[id] = e
	return nil
}

func (s *Storage) RemoveEvent(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.events[id]; !ok {
		return fmt.Errorf("failed to remove event with id %q: %w", id, storage.ErrNotFoundEvent)
	}
	delete(s.events, id)
	delete(s.rsvps, id)
	return nil
}

func (s *Storage) ListExpiredEvents(_ context.Context, now time.Time) ([]storage.Event, error) {
	return s.selectEvents(func(e storage.Event) bool {
		return !e.EndAt.After(now)
	}), nil
}

func (s *Storage) AddRsvp(_ context.Context, eventID string, userID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.events[eventID]; !ok {
		return false, fmt.Errorf("failed to add rsvp for event %q: %w", eventID, storage.ErrNotFoundEvent)
	}
	users, ok := s.rsvps[eventID]
	if !ok {
		users = make(map[string]storage.Rsvp)
		s.rsvps[eventID] = users
	}
	if _, ok := users[userID]; ok {
		return false, nil
	}
	users[userID] = storage.Rsvp{EventID: eventID, UserID: userID, CreatedAt: time.Now().UTC()}
	return true, nil
}

func (s *Storage) ListRsvpUsers(_ context.Context, eventID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.events[eventID]; !ok {
		return nil, fmt.Errorf("failed to list rsvps for event %q: %w", eventID, storage.ErrNotFoundEvent)
	}
	users := make([]string, 0, len(s.rsvps[eventID]))
	for userID := range s.rsvps[eventID] {
		users = append(users, userID)
	}
	return users, nil
}

func (s *Storage) selectEvents(match func(storage.Event) bool) []storage.Event {
	events := make([]storage.Event, 0)
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, event := range s.events {
		if match(event) {
			events = append(events, event)
		}
	}
	return events
}
