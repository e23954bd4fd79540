package storage

import (
	"fmt"
	"time"
)

// Event is a scheduled occurrence announced in a chat channel. Display
// metadata is opaque to the engine and passed through to notification
// text untouched. All instants are UTC.
type Event struct {
	ID           string    `db:"id" json:"id"`
	Seq          int64     `db:"seq" json:"-"`
	Name         string    `db:"name" json:"name"`
	Host         string    `db:"host" json:"host"`
	Location     string    `db:"location" json:"location"`
	EventType    string    `db:"event_type" json:"eventType"`
	AgePolicy    string    `db:"age_policy" json:"agePolicy"`
	CoverFee     string    `db:"cover_fee" json:"coverFee"`
	ContactInfo  string    `db:"contact_info" json:"contactInfo"`
	FlyerURL     string    `db:"flyer_url" json:"flyerUrl"`
	ChannelID    string    `db:"channel_id" json:"channelId"`
	MessageID    string    `db:"message_id" json:"messageId"`
	StartAt      time.Time `db:"start_at" json:"startAt"`
	EndAt        time.Time `db:"end_at" json:"endAt"`
	RemindAt     time.Time `db:"remind_at" json:"remindAt"`
	ReminderSent bool      `db:"reminder_sent" json:"reminderSent"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
}

// Validate checks the creation-time invariants:
// remind_at <= start_at < end_at, remind_at strictly in the future.
// The engine never re-validates these later.
func (e Event) Validate(now time.Time) error {
	if e.StartAt.IsZero() || e.EndAt.IsZero() || e.RemindAt.IsZero() {
		return fmt.Errorf("event time is not set: %w", ErrIncorrectEventTime)
	}
	if !e.EndAt.After(e.StartAt) {
		return fmt.Errorf("event end time should be after of start time: %w", ErrIncorrectEventTime)
	}
	if e.RemindAt.After(e.StartAt) {
		return fmt.Errorf("reminder time should not be after of start time: %w", ErrIncorrectEventTime)
	}
	if !e.RemindAt.After(now) {
		return fmt.Errorf("reminder time must be in the future: %w", ErrIncorrectEventTime)
	}
	return nil
}

// Rsvp is one user's registered intent to attend one event. At most one
// record exists per (event, user) pair; records are removed together
// with their event.
type Rsvp struct {
	EventID   string    `db:"event_id" json:"eventId"`
	UserID    string    `db:"user_id" json:"userId"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}
