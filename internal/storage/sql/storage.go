package sqlstorage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/nightpulse/eventbot/internal/storage"
	log "github.com/sirupsen/logrus"
)

var ErrConnectionFailed = errors.New("failed to connect")

const (
	dbErrUniqueViolation     = "23505"
	dbErrForeignKeyViolation = "23503"
)

const eventColumns = "id, seq, name, host, location, event_type, age_policy, cover_fee, " +
	"contact_info, flyer_url, channel_id, message_id, start_at, end_at, remind_at, " +
	"reminder_sent, created_at"

const schema = `
CREATE TABLE IF NOT EXISTS events (
    id            TEXT PRIMARY KEY,
    seq           BIGSERIAL,
    name          TEXT NOT NULL,
    host          TEXT NOT NULL DEFAULT '',
    location      TEXT NOT NULL DEFAULT '',
    event_type    TEXT NOT NULL DEFAULT '',
    age_policy    TEXT NOT NULL DEFAULT '',
    cover_fee     TEXT NOT NULL DEFAULT '',
    contact_info  TEXT NOT NULL DEFAULT '',
    flyer_url     TEXT NOT NULL DEFAULT '',
    channel_id    TEXT NOT NULL,
    message_id    TEXT NOT NULL,
    start_at      TIMESTAMPTZ NOT NULL,
    end_at        TIMESTAMPTZ NOT NULL,
    remind_at     TIMESTAMPTZ NOT NULL,
    reminder_sent BOOLEAN NOT NULL DEFAULT FALSE,
    created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS rsvps (
    event_id   TEXT NOT NULL REFERENCES events(id) ON DELETE CASCADE,
    user_id    TEXT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    PRIMARY KEY (event_id, user_id)
);`

type Config struct {
	Host     string
	Port     int
	Database string
	Username string
	Password string
}

type Storage struct {
	host     string
	port     int
	database string
	username string
	password string
	db       *sqlx.DB
}

func New(config Config) *Storage {
	return &Storage{
		host:     config.Host,
		port:     config.Port,
		database: config.Database,
		username: config.Username,
		password: config.Password,
	}
}

func (s *Storage) Connect(ctx context.Context) error {
	db, err := sqlx.ConnectContext(
		ctx,
		"postgres",
		fmt.Sprintf(
			"sslmode=disable host=%s port=%d dbname=%s user=%s password=%s",
			s.host, s.port, s.database, s.username, s.password),
	)
	if err != nil {
		log.Errorf("failed to connect: %v", err)
		return ErrConnectionFailed
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return fmt.Errorf("failed to prepare schema: %w", err)
	}
	s.db = db
	return nil
}

func (s *Storage) Close(_ context.Context) error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close connection: %w", err)
	}
	return nil
}

func (s *Storage) AddEvent(ctx context.Context, e *storage.Event) error {
	if err := e.Validate(time.Now()); err != nil {
		return err
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}

	err := s.db.QueryRowxContext(
		ctx,
		"INSERT INTO events(id, name, host, location, event_type, age_policy, cover_fee, "+
			"contact_info, flyer_url, channel_id, message_id, start_at, end_at, remind_at) "+
			"VALUES($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14) "+
			"RETURNING seq, created_at",
		e.ID, e.Name, e.Host, e.Location, e.EventType, e.AgePolicy, e.CoverFee,
		e.ContactInfo, e.FlyerURL, e.ChannelID, e.MessageID,
		e.StartAt.UTC(), e.EndAt.UTC(), e.RemindAt.UTC(),
	).Scan(&e.Seq, &e.CreatedAt)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == pq.ErrorCode(dbErrUniqueViolation) {
		return fmt.Errorf("duplicate ID %q: %w", e.ID, storage.ErrDuplicateEventID)
	}
	return err
}

func (s *Storage) GetEvent(ctx context.Context, id string) (storage.Event, error) {
	var e storage.Event
	err := s.db.GetContext(ctx, &e, "SELECT "+eventColumns+" FROM events WHERE id=$1", id)
	if errors.Is(err, sql.ErrNoRows) {
		return storage.Event{}, fmt.Errorf("failed to get event with id %q: %w", id, storage.ErrNotFoundEvent)
	}
	return e, err
}

func (s *Storage) ListPendingEvents(ctx context.Context) ([]storage.Event, error) {
	var events []storage.Event
	err := s.db.SelectContext(
		ctx,
		&events,
		"SELECT "+eventColumns+" FROM events WHERE reminder_sent=FALSE",
	)
	return events, err
}

func (s *Storage) ListPendingEventsSince(ctx context.Context, seq int64) ([]storage.Event, error) {
	var events []storage.Event
	err := s.db.SelectContext(
		ctx,
		&events,
		"SELECT "+eventColumns+" FROM events WHERE reminder_sent=FALSE AND seq>$1",
		seq,
	)
	return events, err
}

func (s *Storage) MarkReminderSent(ctx context.Context, id string) error {
	var found bool
	err := s.db.GetContext(
		ctx,
		&found,
		"UPDATE events SET reminder_sent=TRUE WHERE id=$1 RETURNING TRUE",
		id,
	)
	if !found {
		return fmt.Errorf("failed to mark event with id %q: %w", id, storage.ErrNotFoundEvent)
	}
	return err
}

func (s *Storage) RemoveEvent(ctx context.Context, id string) error {
	var found bool
	err := s.db.GetContext(ctx, &found, "DELETE FROM events WHERE id=$1 RETURNING TRUE", id)
	if !found {
		return fmt.Errorf("failed to remove event with id %q: %w", id, storage.ErrNotFoundEvent)
	}
	return err
}

func (s *Storage) ListExpiredEvents(ctx context.Context, now time.Time) ([]storage.Event, error) {
	var events []storage.Event
	err := s.db.SelectContext(
		ctx,
		&events,
		"SELECT "+eventColumns+" FROM events WHERE end_at<=$1",
		now.UTC(),
	)
	return events, err
}

func (s *Storage) AddRsvp(ctx context.Context, eventID string, userID string) (bool, error) {
	res, err := s.db.ExecContext(
		ctx,
		"INSERT INTO rsvps(event_id, user_id) VALUES($1, $2) ON CONFLICT (event_id, user_id) DO NOTHING",
		eventID, userID,
	)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == pq.ErrorCode(dbErrForeignKeyViolation) {
		return false, fmt.Errorf("failed to add rsvp for event %q: %w", eventID, storage.ErrNotFoundEvent)
	}
	if err != nil {
		return false, err
	}
	inserted, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return inserted > 0, nil
}

func (s *Storage) ListRsvpUsers(ctx context.Context, eventID string) ([]string, error) {
	var users []string
	err := s.db.SelectContext(ctx, &users, "SELECT user_id FROM rsvps WHERE event_id=$1", eventID)
	return users, err
}
