package notify

import (
	"context"
	"errors"
)

// ErrUndeliverable marks a per-recipient delivery failure (closed DMs,
// unknown user). Callers log it and move on to the next recipient.
var ErrUndeliverable = errors.New("recipient unreachable")

// Sink delivers a message to a single user.
type Sink interface {
	Send(ctx context.Context, userID string, text string) error
}
