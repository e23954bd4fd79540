// Package timezone keeps a single canonical instant representation (UTC)
// for the whole service. Events are stored and compared as UTC instants;
// the display zone appears only when notification text is formatted.
package timezone

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidTime marks a malformed or zone-ambiguous timestamp. Such
// values are rejected, never silently coerced to a guessed zone.
var ErrInvalidTime = errors.New("invalid or zone-ambiguous time")

const DefaultDisplayZone = "America/Los_Angeles"

type Config struct {
	Display string
}

type Normalizer struct {
	display *time.Location
}

func New(displayZone string) (*Normalizer, error) {
	if displayZone == "" {
		displayZone = DefaultDisplayZone
	}
	loc, err := time.LoadLocation(displayZone)
	if err != nil {
		return nil, fmt.Errorf("unknown display zone %q: %w", displayZone, ErrInvalidTime)
	}
	return &Normalizer{display: loc}, nil
}

// Canonical returns the UTC instant for t.
func (n *Normalizer) Canonical(t time.Time) (time.Time, error) {
	if t.IsZero() {
		return time.Time{}, ErrInvalidTime
	}
	return t.UTC(), nil
}

// ParseLocal parses a wall-clock value in the display zone and returns
// the canonical UTC instant.
func (n *Normalizer) ParseLocal(value string, layout string) (time.Time, error) {
	t, err := time.ParseInLocation(layout, value, n.display)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse time %q: %w", value, ErrInvalidTime)
	}
	return t.UTC(), nil
}

func (n *Normalizer) ToDisplay(t time.Time) time.Time {
	return t.In(n.display)
}

// FormatDate renders an instant as an MM-DD-YYYY date in the display zone.
func (n *Normalizer) FormatDate(t time.Time) string {
	return t.In(n.display).Format("01-02-2006")
}

// FormatClock renders an instant as a 12-hour clock time with the
// display zone abbreviation.
func (n *Normalizer) FormatClock(t time.Time) string {
	return t.In(n.display).Format("03:04 PM MST")
}
