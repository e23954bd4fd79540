package app

import (
	"context"

	"github.com/nightpulse/eventbot/internal/reminder"
	"github.com/nightpulse/eventbot/internal/rsvp"
	"github.com/nightpulse/eventbot/internal/storage"
)

// App is the surface exposed to the event publisher and the RSVP
// front-end.
type App struct {
	Storage   storage.Storage
	Index     *reminder.Index
	Registrar *rsvp.Registrar
}

func New(storage storage.Storage, index *reminder.Index, registrar *rsvp.Registrar) *App {
	return &App{Storage: storage, Index: index, Registrar: registrar}
}

// CreateEvent inserts a published event and push-registers it with the
// reminder index, so the reminder is tracked without waiting for the
// next discovery tick. Discovery remains the backstop when the process
// dies between the insert and the registration.
func (a *App) CreateEvent(ctx context.Context, e storage.Event) (string, error) {
	if err := a.Storage.AddEvent(ctx, &e); err != nil {
		return "", err
	}
	a.Index.Add(e)
	return e.ID, nil
}

func (a *App) Rsvp(ctx context.Context, eventID string, userID string) (rsvp.Result, error) {
	return a.Registrar.Register(ctx, eventID, userID)
}
