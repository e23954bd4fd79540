// Package scheduler drives the event lifecycle with three periodic
// loops sharing the reminder index and the store: dispatch sends due
// reminders, discovery pulls in events inserted behind the index's
// back, expiry retires events whose end time has passed.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/nightpulse/eventbot/internal/discord"
	"github.com/nightpulse/eventbot/internal/membership"
	"github.com/nightpulse/eventbot/internal/notify"
	"github.com/nightpulse/eventbot/internal/reminder"
	"github.com/nightpulse/eventbot/internal/storage"
	"github.com/nightpulse/eventbot/internal/timezone"
	log "github.com/sirupsen/logrus"
)

const (
	defaultDispatchInterval  = time.Minute
	defaultDiscoveryInterval = time.Minute
	defaultExpiryInterval    = 5 * time.Minute
)

type Config struct {
	DispatchInterval  time.Duration
	DiscoveryInterval time.Duration
	ExpiryInterval    time.Duration
}

// Announcer is the engine's view of the chat message an event was
// announced with.
type Announcer interface {
	MessageExists(ctx context.Context, channelID string, messageID string) (bool, error)
	DeleteMessage(ctx context.Context, channelID string, messageID string) error
}

type Scheduler struct {
	config    Config
	store     storage.Storage
	index     *reminder.Index
	sink      notify.Sink
	members   membership.Source
	announcer Announcer
	tz        *timezone.Normalizer
	now       func() time.Time
}

func New(
	config Config,
	store storage.Storage,
	index *reminder.Index,
	sink notify.Sink,
	members membership.Source,
	announcer Announcer,
	tz *timezone.Normalizer,
) *Scheduler {
	if config.DispatchInterval <= 0 {
		config.DispatchInterval = defaultDispatchInterval
	}
	if config.DiscoveryInterval <= 0 {
		config.DiscoveryInterval = defaultDiscoveryInterval
	}
	if config.ExpiryInterval <= 0 {
		config.ExpiryInterval = defaultExpiryInterval
	}
	return &Scheduler{
		config:    config,
		store:     store,
		index:     index,
		sink:      sink,
		members:   members,
		announcer: announcer,
		tz:        tz,
		now:       time.Now,
	}
}

// Run reconciles the index against the store, then ticks the three
// loops until ctx is cancelled. Tick errors are logged at the tick
// boundary and never stop a loop; a failed tick is simply retried on
// the next interval.
func (s *Scheduler) Run(ctx context.Context) {
	if err := s.Reload(ctx); err != nil {
		// Discovery converges on the same set, so starting with an
		// empty index is safe.
		log.Errorf("failed to load reminder index: %v", err)
	}

	var wg sync.WaitGroup
	loops := []struct {
		name     string
		interval time.Duration
		tick     func(ctx context.Context)
	}{
		{"dispatch", s.config.DispatchInterval, s.dispatchTick},
		{"discovery", s.config.DiscoveryInterval, s.discoveryTick},
		{"expiry", s.config.ExpiryInterval, s.expiryTick},
	}
	for _, loop := range loops {
		wg.Add(1)
		go func(name string, interval time.Duration, tick func(ctx context.Context)) {
			defer wg.Done()
			runLoop(ctx, name, interval, tick)
		}(loop.name, loop.interval, loop.tick)
	}
	wg.Wait()
}

func runLoop(ctx context.Context, name string, interval time.Duration, tick func(ctx context.Context)) {
	log.Debugf("%s loop started, interval %s", name, interval)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Debugf("%s loop stopped", name)
			return
		case <-ticker.C:
			tick(ctx)
		}
	}
}

// Reload replaces the index with a fresh snapshot of all events still
// awaiting a reminder.
func (s *Scheduler) Reload(ctx context.Context) error {
	events, err := s.store.ListPendingEvents(ctx)
	if err != nil {
		return fmt.Errorf("failed to list pending events: %w", err)
	}
	s.index.Load(events)
	log.Infof("loaded %d reminders into index", s.index.Len())
	return nil
}

// Dispatch ticks run one at a time on a single goroutine, so the
// snapshot-process-evict sequence for a due entry can never overlap
// with itself; discovery never re-adds a dispatched entry because the
// watermark has already passed its sequence number.
func (s *Scheduler) dispatchTick(ctx context.Context) {
	due := s.index.Due(s.now())
	for _, event := range due {
		if err := s.dispatch(ctx, event); err != nil {
			log.Errorf("failed to dispatch reminder for event %s: %v", event.ID, err)
		}
	}
}

func (s *Scheduler) dispatch(ctx context.Context, event storage.Event) error {
	exists, err := s.announcer.MessageExists(ctx, event.ChannelID, event.MessageID)
	if err != nil {
		return err
	}
	if !exists {
		return s.cleanup(ctx, event)
	}

	users, err := s.members.Attendees(ctx, event)
	if errors.Is(err, discord.ErrMessageNotFound) {
		return s.cleanup(ctx, event)
	}
	if err != nil {
		return err
	}

	text := notify.ReminderText(event, s.tz)
	for _, userID := range users {
		if err := s.sink.Send(ctx, userID, text); err != nil {
			log.Warnf("failed to deliver reminder for event %s to user %s: %v", event.ID, userID, err)
		}
	}

	// Delivery above is best-effort; the state transition is not. The
	// entry leaves the index only after the durable mark succeeds, so a
	// failure here leaves it due for the next tick.
	if err := s.store.MarkReminderSent(ctx, event.ID); err != nil {
		return err
	}
	s.index.Remove(event.ID)
	log.Infof("reminder for event %s dispatched to %d users", event.ID, len(users))
	return nil
}

// cleanup retires an event whose announcement message was deleted
// externally: without the announcement there is nothing to remind
// about, so the store row goes away instead of the reminder going out.
func (s *Scheduler) cleanup(ctx context.Context, event storage.Event) error {
	log.Infof("announcement for event %s is gone, removing event", event.ID)
	if err := s.store.RemoveEvent(ctx, event.ID); err != nil && !errors.Is(err, storage.ErrNotFoundEvent) {
		return err
	}
	s.index.Remove(event.ID)
	return nil
}

func (s *Scheduler) discoveryTick(ctx context.Context) {
	events, err := s.store.ListPendingEventsSince(ctx, s.index.Watermark())
	if err != nil {
		log.Errorf("failed to discover new events: %v", err)
		return
	}
	for _, event := range events {
		if s.index.Add(event) {
			log.Infof("discovered event %s (message %s)", event.ID, event.MessageID)
		}
	}
}

func (s *Scheduler) expiryTick(ctx context.Context) {
	expired, err := s.store.ListExpiredEvents(ctx, s.now())
	if err != nil {
		log.Errorf("failed to list expired events: %v", err)
		return
	}
	for _, event := range expired {
		err := s.announcer.DeleteMessage(ctx, event.ChannelID, event.MessageID)
		if err != nil && !errors.Is(err, discord.ErrMessageNotFound) && !errors.Is(err, discord.ErrForbidden) {
			log.Errorf("failed to delete announcement for event %s: %v", event.ID, err)
		}
		if err := s.store.RemoveEvent(ctx, event.ID); err != nil && !errors.Is(err, storage.ErrNotFoundEvent) {
			log.Errorf("failed to remove expired event %s: %v", event.ID, err)
			continue
		}
		s.index.Remove(event.ID)
		log.Infof("expired event %s removed", event.ID)
	}
}
