// Package membership resolves the set of users to notify for an event.
// The source is pluggable: explicit RSVP records (default) or the
// legacy scan of reactions on the announcement message. Exactly one
// source is active; there is no fallback between them.
package membership

import (
	"context"
	"fmt"

	"github.com/nightpulse/eventbot/internal/discord"
	"github.com/nightpulse/eventbot/internal/storage"
)

type Config struct {
	Mode string
}

type Source interface {
	Attendees(ctx context.Context, e storage.Event) ([]string, error)
}

type RsvpLister interface {
	ListRsvpUsers(ctx context.Context, eventID string) ([]string, error)
}

type ReactionFetcher interface {
	Reactors(ctx context.Context, channelID string, messageID string, emoji string) ([]string, error)
}

func New(config Config, store RsvpLister, fetcher ReactionFetcher) (Source, error) {
	switch config.Mode {
	case "records":
		return &recordSource{store: store}, nil
	case "reactions":
		return &reactionSource{fetcher: fetcher, emoji: discord.RsvpEmoji}, nil
	default:
		return nil, fmt.Errorf("unknown membership mode %s", config.Mode)
	}
}

type recordSource struct {
	store RsvpLister
}

func (s *recordSource) Attendees(ctx context.Context, e storage.Event) ([]string, error) {
	return s.store.ListRsvpUsers(ctx, e.ID)
}

type reactionSource struct {
	fetcher ReactionFetcher
	emoji   string
}

func (s *reactionSource) Attendees(ctx context.Context, e storage.Event) ([]string, error) {
	return s.fetcher.Reactors(ctx, e.ChannelID, e.MessageID, s.emoji)
}
