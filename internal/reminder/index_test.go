package reminder_test

import (
	"testing"
	"time"

	"github.com/nightpulse/eventbot/internal/reminder"
	"github.com/nightpulse/eventbot/internal/storage"
	"github.com/stretchr/testify/require"
)

func newEvent(id string, seq int64, remindAt time.Time) storage.Event {
	return storage.Event{
		ID:        id,
		Seq:       seq,
		Name:      "test",
		ChannelID: "chan",
		MessageID: "msg-" + id,
		RemindAt:  remindAt,
	}
}

func TestIndex(t *testing.T) {
	base := time.Date(2300, 1, 1, 0, 0, 0, 0, time.UTC)

	t.Run("load is idempotent", func(t *testing.T) {
		index := reminder.NewIndex()
		events := []storage.Event{
			newEvent("1", 1, base),
			newEvent("2", 2, base.Add(time.Hour)),
		}

		index.Load(events)
		require.Equal(t, 2, index.Len())
		require.Equal(t, int64(2), index.Watermark())

		index.Load(events)
		require.Equal(t, 2, index.Len())
		require.Equal(t, int64(2), index.Watermark())
	})

	t.Run("load replaces previous content", func(t *testing.T) {
		index := reminder.NewIndex()
		index.Load([]storage.Event{newEvent("1", 1, base)})
		index.Load([]storage.Event{newEvent("2", 2, base)})

		require.Equal(t, 1, index.Len())
		require.False(t, index.Contains("1"))
		require.True(t, index.Contains("2"))
	})

	t.Run("add deduplicates", func(t *testing.T) {
		index := reminder.NewIndex()
		require.True(t, index.Add(newEvent("1", 1, base)))
		require.False(t, index.Add(newEvent("1", 1, base)))
		require.Equal(t, 1, index.Len())
	})

	t.Run("add raises watermark", func(t *testing.T) {
		index := reminder.NewIndex()
		index.Add(newEvent("1", 5, base))
		require.Equal(t, int64(5), index.Watermark())
		index.Add(newEvent("2", 3, base))
		require.Equal(t, int64(5), index.Watermark())
	})

	t.Run("due keeps entries in place", func(t *testing.T) {
		index := reminder.NewIndex()
		index.Add(newEvent("past", 1, base.Add(-time.Minute)))
		index.Add(newEvent("exact", 2, base))
		index.Add(newEvent("future", 3, base.Add(time.Minute)))

		due := index.Due(base)
		require.Len(t, due, 2)
		require.Equal(t, 3, index.Len())

		ids := []string{due[0].ID, due[1].ID}
		require.ElementsMatch(t, []string{"past", "exact"}, ids)
	})

	t.Run("remove evicts", func(t *testing.T) {
		index := reminder.NewIndex()
		index.Add(newEvent("1", 1, base))
		index.Remove("1")
		require.False(t, index.Contains("1"))
		require.Empty(t, index.Due(base.Add(time.Hour)))

		index.Remove("1") // second remove is a no-op
		require.Equal(t, 0, index.Len())
	})
}
