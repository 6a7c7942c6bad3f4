// Package chat exposes the workout commands over chat platforms (Telegram,
// Slack, Discord). Platform adapters feed inbound messages to a Router,
// which runs them through a CommandHandler and sends the reply back.
package chat

import (
	"context"
	"time"
)

// Adapter is the interface that platform-specific implementations must satisfy.
type Adapter interface {
	// Connect establishes a connection to the chat platform.
	Connect(ctx context.Context) error

	// Listen returns a channel of inbound messages from the platform.
	// The channel is closed when the context is cancelled or the adapter
	// is closed. Listen must only be called after Connect.
	Listen(ctx context.Context) (<-chan InboundMessage, error)

	// Send delivers an outbound message to the platform.
	Send(ctx context.Context, msg OutboundMessage) error

	// Close gracefully shuts down the adapter connection.
	Close() error
}

// InboundMessage represents a message received from the chat platform.
type InboundMessage struct {
	Platform  string // e.g. "telegram", "slack", "discord"
	ChannelID string // platform-specific channel or chat identifier
	ThreadID  string // thread identifier (empty if top-level)
	UserID    string // platform-specific user identifier
	UserName  string // handle, may be empty
	FirstName string // optional display name parts
	LastName  string
	Text      string    // raw message text
	Direct    bool      // one-to-one conversation with the bot
	Timestamp time.Time // when the message was sent
}

// OutboundMessage represents a message to be sent to the chat platform.
type OutboundMessage struct {
	ChannelID string // target channel; adapters fall back to their default
	ThreadID  string // thread to reply in (empty for top-level)
	Text      string // plain message text
}

// BotUserIDer is an optional interface that adapters can implement to
// expose the bot's own user ID. This enables self-message filtering.
type BotUserIDer interface {
	BotUserID() string
}
