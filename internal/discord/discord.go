// Package discord adapts a Discord session to the engine's notification
// sink and announcement collaborator interfaces.
package discord

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/bwmarrin/discordgo"
	"github.com/nightpulse/eventbot/internal/notify"
)

// RsvpEmoji is the reaction users add on an announcement to RSVP.
const RsvpEmoji = "✅"

var (
	ErrMessageNotFound = errors.New("announcement message not found")
	ErrForbidden       = errors.New("missing permission")
)

type Config struct {
	Token string
}

type Client struct {
	session *discordgo.Session
}

func New(config Config) (*Client, error) {
	session, err := discordgo.New("Bot " + config.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildMessageReactions |
		discordgo.IntentsDirectMessages
	return &Client{session: session}, nil
}

func (c *Client) Open() error {
	return c.session.Open()
}

func (c *Client) Close() error {
	return c.session.Close()
}

// Send delivers a direct message. A recipient with closed DMs surfaces
// as notify.ErrUndeliverable.
func (c *Client) Send(ctx context.Context, userID string, text string) error {
	channel, err := c.session.UserChannelCreate(userID, discordgo.WithContext(ctx))
	if err != nil {
		if statusCode(err) == http.StatusForbidden {
			return fmt.Errorf("user %s: %w", userID, notify.ErrUndeliverable)
		}
		return fmt.Errorf("failed to open DM channel for user %s: %w", userID, err)
	}
	_, err = c.session.ChannelMessageSend(channel.ID, text, discordgo.WithContext(ctx))
	if err != nil {
		if statusCode(err) == http.StatusForbidden {
			return fmt.Errorf("user %s: %w", userID, notify.ErrUndeliverable)
		}
		return fmt.Errorf("failed to send DM to user %s: %w", userID, err)
	}
	return nil
}

// Reactors lists the users who reacted to a message with the given
// emoji, excluding the bot itself.
func (c *Client) Reactors(ctx context.Context, channelID string, messageID string, emoji string) ([]string, error) {
	var users []string
	afterID := ""
	for {
		page, err := c.session.MessageReactions(
			channelID, messageID, emoji, 100, "", afterID, discordgo.WithContext(ctx))
		if err != nil {
			return nil, mapRESTError(err)
		}
		for _, user := range page {
			if c.session.State.User != nil && user.ID == c.session.State.User.ID {
				continue
			}
			users = append(users, user.ID)
		}
		if len(page) < 100 {
			return users, nil
		}
		afterID = page[len(page)-1].ID
	}
}

func (c *Client) MessageExists(ctx context.Context, channelID string, messageID string) (bool, error) {
	_, err := c.session.ChannelMessage(channelID, messageID, discordgo.WithContext(ctx))
	if err == nil {
		return true, nil
	}
	if statusCode(err) == http.StatusNotFound {
		return false, nil
	}
	return false, mapRESTError(err)
}

func (c *Client) DeleteMessage(ctx context.Context, channelID string, messageID string) error {
	err := c.session.ChannelMessageDelete(channelID, messageID, discordgo.WithContext(ctx))
	if err != nil {
		return mapRESTError(err)
	}
	return nil
}

func mapRESTError(err error) error {
	switch statusCode(err) {
	case http.StatusNotFound:
		return ErrMessageNotFound
	case http.StatusForbidden:
		return ErrForbidden
	}
	return err
}

func statusCode(err error) int {
	var restErr *discordgo.RESTError
	if errors.As(err, &restErr) && restErr.Response != nil {
		return restErr.Response.StatusCode
	}
	return 0
}
