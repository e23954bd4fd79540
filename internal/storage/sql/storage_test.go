//go:build sql

package sqlstorage_test

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/nightpulse/eventbot/internal/storage"
	sqlstorage "github.com/nightpulse/eventbot/internal/storage/sql"
	"github.com/stretchr/testify/require"
)

var (
	host     = "127.0.0.1"
	port     = 5532
	database = "testing"
	username = "postgres"
	password = "pas"
)

func TestMain(m *testing.M) {
	pgHost := os.Getenv("POSTGRES_HOST")
	pgPort := os.Getenv("POSTGRES_PORT")
	if pgHost != "" {
		host = pgHost
	}
	if pgPort != "" {
		port, _ = strconv.Atoi(pgPort)
	}

	cleanupDb()
	code := m.Run()
	os.Exit(code)
}

func cleanupDb() {
	db, err := sqlx.Connect(
		"postgres",
		fmt.Sprintf("sslmode=disable host=%s port=%d dbname=%s user=%s password=%s",
			host, port, database, username, password),
	)
	if err != nil {
		return
	}
	defer db.Close()
	db.Exec("DROP TABLE IF EXISTS rsvps")
	db.Exec("DROP TABLE IF EXISTS events")
}

func createStorage(t *testing.T) *sqlstorage.Storage {
	t.Helper()
	s := sqlstorage.New(sqlstorage.Config{
		Host:     host,
		Port:     port,
		Database: database,
		Username: username,
		Password: password,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	require.NoError(t, s.Connect(ctx))
	t.Cleanup(func() { s.Close(context.Background()) })
	return s
}

func testEvent(messageID string) storage.Event {
	start := time.Now().Add(2 * time.Hour).UTC().Truncate(time.Microsecond)
	return storage.Event{
		Name:        "test party",
		Host:        "test crew",
		Location:    "East Bay",
		EventType:   "club",
		AgePolicy:   "18+",
		CoverFee:    "Free",
		ContactInfo: "infoline",
		ChannelID:   "chan-1",
		MessageID:   messageID,
		StartAt:     start,
		EndAt:       start.Add(4 * time.Hour),
		RemindAt:    start.Add(-time.Hour),
	}
}

func TestStorage(t *testing.T) {
	ctx := context.Background()

	t.Run("add and get event", func(t *testing.T) {
		s := createStorage(t)
		e := testEvent("msg-add")

		require.NoError(t, s.AddEvent(ctx, &e))
		require.NotEmpty(t, e.ID)
		require.NotZero(t, e.Seq)

		got, err := s.GetEvent(ctx, e.ID)
		require.NoError(t, err)
		require.Equal(t, e.Name, got.Name)
		require.True(t, e.RemindAt.Equal(got.RemindAt))
		require.False(t, got.ReminderSent)
	})

	t.Run("pending and watermark", func(t *testing.T) {
		s := createStorage(t)
		e1 := testEvent("msg-p1")
		e2 := testEvent("msg-p2")
		require.NoError(t, s.AddEvent(ctx, &e1))
		require.NoError(t, s.AddEvent(ctx, &e2))

		require.NoError(t, s.MarkReminderSent(ctx, e1.ID))

		events, err := s.ListPendingEventsSince(ctx, e1.Seq)
		require.NoError(t, err)
		require.Len(t, events, 1)
		require.Equal(t, e2.ID, events[0].ID)
	})

	t.Run("rsvp dedup and cascade", func(t *testing.T) {
		s := createStorage(t)
		e := testEvent("msg-rsvp")
		require.NoError(t, s.AddEvent(ctx, &e))

		created, err := s.AddRsvp(ctx, e.ID, "user-1")
		require.NoError(t, err)
		require.True(t, created)

		created, err = s.AddRsvp(ctx, e.ID, "user-1")
		require.NoError(t, err)
		require.False(t, created)

		users, err := s.ListRsvpUsers(ctx, e.ID)
		require.NoError(t, err)
		require.Equal(t, []string{"user-1"}, users)

		require.NoError(t, s.RemoveEvent(ctx, e.ID))
		users, err = s.ListRsvpUsers(ctx, e.ID)
		require.NoError(t, err)
		require.Empty(t, users)
	})

	t.Run("rsvp for not exist event", func(t *testing.T) {
		s := createStorage(t)
		_, err := s.AddRsvp(ctx, "___not_exists___", "user-1")
		require.ErrorIs(t, err, storage.ErrNotFoundEvent)
	})

	t.Run("remove not exist event", func(t *testing.T) {
		s := createStorage(t)
		require.ErrorIs(t, s.RemoveEvent(ctx, "___not_exists___"), storage.ErrNotFoundEvent)
	})

	t.Run("old reminder time rejected", func(t *testing.T) {
		s := createStorage(t)
		e := testEvent("msg-old")
		e.RemindAt = time.Now().Add(-time.Minute)
		require.ErrorIs(t, s.AddEvent(ctx, &e), storage.ErrIncorrectEventTime)
	})
}
