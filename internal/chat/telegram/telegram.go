// Package telegram implements the chat Adapter for Telegram using long polling.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/zulandar/gymyard/internal/chat"
)

const (
	// maxRetries is the max number of retries for rate-limited sends.
	maxRetries = 3
	// maxMessageLen is Telegram's per-message text limit.
	maxMessageLen = 4096
	// pollTimeout is the long-polling timeout in seconds.
	pollTimeout = 60
)

// botAPI abstracts the tgbotapi.BotAPI methods we use, enabling test mocks.
type botAPI interface {
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Adapter implements chat.Adapter for the Telegram Bot API.
type Adapter struct {
	api        botAPI
	token      string
	channelID  string // default chat for notices
	botUserID  string
	mu         sync.Mutex
	connected  bool
	closed     bool
	listening  bool
	inbound    chan chat.InboundMessage
	cancelFunc context.CancelFunc
	retryWait  time.Duration
}

// AdapterOpts holds parameters for creating a Telegram Adapter.
type AdapterOpts struct {
	Token     string // bot token from BotFather
	ChannelID string // default chat ID to post to
	// For testing: inject a mock API and bot ID instead of calling Telegram.
	API       botAPI
	BotUserID string
}

// New creates a Telegram Adapter.
func New(opts AdapterOpts) (*Adapter, error) {
	if opts.API == nil && opts.Token == "" {
		return nil, fmt.Errorf("telegram: bot token is required")
	}
	return &Adapter{
		api:       opts.API,
		token:     opts.Token,
		channelID: opts.ChannelID,
		botUserID: opts.BotUserID,
		inbound:   make(chan chat.InboundMessage, 100),
		retryWait: time.Second,
	}, nil
}

// Connect authenticates with the Bot API and records the bot's user ID.
func (a *Adapter) Connect(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return fmt.Errorf("telegram: adapter already closed")
	}
	if a.connected {
		return nil
	}

	if a.api == nil {
		bot, err := tgbotapi.NewBotAPI(a.token)
		if err != nil {
			return fmt.Errorf("telegram: authorize: %w", err)
		}
		a.api = bot
		a.botUserID = strconv.FormatInt(bot.Self.ID, 10)
		log.Printf("telegram: authorized as @%s", bot.Self.UserName)
	}
	a.connected = true
	return nil
}

// Listen starts long polling and returns the inbound channel. The channel
// is closed when ctx is cancelled or the adapter is closed.
func (a *Adapter) Listen(ctx context.Context) (<-chan chat.InboundMessage, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.connected {
		return nil, fmt.Errorf("telegram: not connected")
	}
	if a.listening {
		return a.inbound, nil
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = pollTimeout
	updates := a.api.GetUpdatesChan(u)

	listenCtx, cancel := context.WithCancel(ctx)
	a.cancelFunc = cancel
	a.listening = true

	go a.pumpUpdates(listenCtx, updates)

	return a.inbound, nil
}

// Send posts plain text to a chat, split into chunks that fit the
// message limit.
func (a *Adapter) Send(ctx context.Context, msg chat.OutboundMessage) error {
	a.mu.Lock()
	if !a.connected {
		a.mu.Unlock()
		return fmt.Errorf("telegram: not connected")
	}
	a.mu.Unlock()

	channelID := msg.ChannelID
	if channelID == "" {
		channelID = a.channelID
	}
	if channelID == "" {
		return fmt.Errorf("telegram: no chat specified")
	}
	chatID, err := strconv.ParseInt(channelID, 10, 64)
	if err != nil {
		return fmt.Errorf("telegram: invalid chat id %q: %w", channelID, err)
	}

	for _, part := range chat.SplitText(msg.Text, maxMessageLen) {
		cfg := tgbotapi.NewMessage(chatID, part)
		err := a.retryOnRateLimit(ctx, func() error {
			_, sendErr := a.api.Send(cfg)
			return sendErr
		})
		if err != nil {
			return fmt.Errorf("telegram: send message: %w", err)
		}
	}
	return nil
}

// Close stops polling. The inbound channel is closed by the pump, or here
// if Listen was never called.
func (a *Adapter) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return nil
	}
	a.closed = true
	a.connected = false
	if a.cancelFunc != nil {
		a.cancelFunc()
	}
	if a.listening {
		a.api.StopReceivingUpdates()
	} else {
		close(a.inbound)
	}
	return nil
}

// BotUserID returns the bot's Telegram user ID (available after Connect).
func (a *Adapter) BotUserID() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.botUserID
}

// pumpUpdates converts Telegram updates into InboundMessages until ctx is
// cancelled or the updates channel closes.
func (a *Adapter) pumpUpdates(ctx context.Context, updates tgbotapi.UpdatesChannel) {
	defer close(a.inbound)
	for {
		select {
		case <-ctx.Done():
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			msg, ok := toInbound(update)
			if !ok {
				continue
			}
			select {
			case a.inbound <- msg:
			case <-ctx.Done():
				return
			}
		}
	}
}

// toInbound converts a text message update. Other update kinds are skipped.
func toInbound(update tgbotapi.Update) (chat.InboundMessage, bool) {
	m := update.Message
	if m == nil || m.From == nil || m.Chat == nil || m.Text == "" {
		return chat.InboundMessage{}, false
	}
	if m.From.IsBot {
		return chat.InboundMessage{}, false
	}
	return chat.InboundMessage{
		Platform:  "telegram",
		ChannelID: strconv.FormatInt(m.Chat.ID, 10),
		UserID:    strconv.FormatInt(m.From.ID, 10),
		UserName:  m.From.UserName,
		FirstName: m.From.FirstName,
		LastName:  m.From.LastName,
		Text:      m.Text,
		Direct:    m.Chat.IsPrivate(),
		Timestamp: m.Time(),
	}, true
}

// retryOnRateLimit calls fn and retries when Telegram answers 429 with a
// retry_after hint. It respects context cancellation.
func (a *Adapter) retryOnRateLimit(ctx context.Context, fn func() error) error {
	for attempt := 0; ; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}

		var apiErr *tgbotapi.Error
		if !errors.As(err, &apiErr) || apiErr.RetryAfter <= 0 || attempt == maxRetries {
			return err
		}

		wait := time.Duration(apiErr.RetryAfter) * a.retryWait
		log.Printf("telegram: rate limited (attempt %d/%d), retrying in %v", attempt+1, maxRetries, wait)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}
