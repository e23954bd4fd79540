// Package reminder holds the in-process index of events awaiting a
// reminder. The index is a cache over the durable store, owned by the
// scheduler loops; the store stays authoritative and the index is
// rebuilt from it on startup.
package reminder

import (
	"sync"
	"time"

	"github.com/nightpulse/eventbot/internal/storage"
)

type Index struct {
	mu        sync.Mutex
	entries   map[string]storage.Event
	watermark int64
}

func NewIndex() *Index {
	return &Index{entries: make(map[string]storage.Event)}
}

// Load replaces the whole index with a fresh store snapshot. Safe to
// call again to force a full resync: clear-then-repopulate, so repeated
// loads over the same snapshot produce the same index.
func (i *Index) Load(events []storage.Event) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.entries = make(map[string]storage.Event, len(events))
	i.watermark = 0
	for _, e := range events {
		i.entries[e.ID] = e
		if e.Seq > i.watermark {
			i.watermark = e.Seq
		}
	}
}

// Add inserts one event, used both by synchronous push registration and
// by the discovery loop. No-op when the event is already tracked.
func (i *Index) Add(e storage.Event) bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	if e.Seq > i.watermark {
		i.watermark = e.Seq
	}
	if _, ok := i.entries[e.ID]; ok {
		return false
	}
	i.entries[e.ID] = e
	return true
}

// Due returns a copy of all entries with remind_at <= now. Entries are
// not removed; the caller evicts them with Remove once the dispatch
// outcome is durable, which keeps delivery at-least-once under partial
// failure.
func (i *Index) Due(now time.Time) []storage.Event {
	i.mu.Lock()
	defer i.mu.Unlock()
	due := make([]storage.Event, 0)
	for _, e := range i.entries {
		if !e.RemindAt.After(now) {
			due = append(due, e)
		}
	}
	return due
}

func (i *Index) Remove(id string) {
	i.mu.Lock()
	defer i.mu.Unlock()
	delete(i.entries, id)
}

func (i *Index) Contains(id string) bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	_, ok := i.entries[id]
	return ok
}

func (i *Index) Len() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return len(i.entries)
}

// Watermark is the highest store sequence number the index has seen.
// The discovery loop asks the store only for pending events above it.
func (i *Index) Watermark() int64 {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.watermark
}
