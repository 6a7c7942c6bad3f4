package telegram

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/zulandar/gymyard/internal/chat"
)

// --- Mock Bot API ---

type mockBotAPI struct {
	mu       sync.Mutex
	updates  chan tgbotapi.Update
	stopped  bool
	sent     []tgbotapi.MessageConfig
	sendErrs []error
}

func newMockBotAPI() *mockBotAPI {
	return &mockBotAPI{updates: make(chan tgbotapi.Update, 10)}
}

func (m *mockBotAPI) GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return m.updates
}

func (m *mockBotAPI) StopReceivingUpdates() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopped = true
}

func (m *mockBotAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sendErrs) > 0 {
		err := m.sendErrs[0]
		m.sendErrs = m.sendErrs[1:]
		if err != nil {
			return tgbotapi.Message{}, err
		}
	}
	m.sent = append(m.sent, c.(tgbotapi.MessageConfig))
	return tgbotapi.Message{MessageID: len(m.sent)}, nil
}

func (m *mockBotAPI) sentMessages() []tgbotapi.MessageConfig {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]tgbotapi.MessageConfig(nil), m.sent...)
}

// --- Helpers ---

func newTestAdapter(t *testing.T) (*Adapter, *mockBotAPI) {
	t.Helper()
	api := newMockBotAPI()
	a, err := New(AdapterOpts{API: api, BotUserID: "999", ChannelID: "-100123"})
	if err != nil {
		t.Fatalf("new adapter: %v", err)
	}
	if err := a.Connect(context.Background()); err != nil {
		t.Fatalf("connect: %v", err)
	}
	a.retryWait = time.Millisecond
	return a, api
}

func textUpdate(chatID int64, chatType string, from *tgbotapi.User, text string) tgbotapi.Update {
	return tgbotapi.Update{
		Message: &tgbotapi.Message{
			MessageID: 1,
			From:      from,
			Chat:      &tgbotapi.Chat{ID: chatID, Type: chatType},
			Date:      1700000000,
			Text:      text,
		},
	}
}

func receive(t *testing.T, ch <-chan chat.InboundMessage) chat.InboundMessage {
	t.Helper()
	select {
	case msg, ok := <-ch:
		if !ok {
			t.Fatal("inbound channel closed")
		}
		return msg
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for inbound message")
	}
	return chat.InboundMessage{}
}

// --- Tests ---

func TestNew_RequiresToken(t *testing.T) {
	_, err := New(AdapterOpts{})
	if err == nil || !strings.Contains(err.Error(), "bot token is required") {
		t.Fatalf("err = %v, want token error", err)
	}
}

func TestConnect_UsesInjectedAPI(t *testing.T) {
	a, _ := newTestAdapter(t)
	if a.BotUserID() != "999" {
		t.Errorf("bot user ID = %q, want 999", a.BotUserID())
	}
	if err := a.Connect(context.Background()); err != nil {
		t.Errorf("second connect: %v", err)
	}
}

func TestConnect_AlreadyClosed(t *testing.T) {
	a, _ := newTestAdapter(t)
	a.Close()
	if err := a.Connect(context.Background()); err == nil {
		t.Fatal("expected error for closed adapter")
	}
}

func TestListen_NotConnected(t *testing.T) {
	a, _ := New(AdapterOpts{API: newMockBotAPI()})
	if _, err := a.Listen(context.Background()); err == nil {
		t.Fatal("expected error for not connected")
	}
}

func TestListen_PrivateMessage(t *testing.T) {
	a, api := newTestAdapter(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch, err := a.Listen(ctx)
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	api.updates <- textUpdate(42, "private", &tgbotapi.User{
		ID: 42, FirstName: "Ana", LastName: "Silva", UserName: "ana",
	}, "/start")

	msg := receive(t, ch)
	if msg.Platform != "telegram" || msg.ChannelID != "42" || msg.UserID != "42" {
		t.Errorf("msg = %+v", msg)
	}
	if msg.FirstName != "Ana" || msg.LastName != "Silva" || msg.UserName != "ana" {
		t.Errorf("names = %q %q %q", msg.FirstName, msg.LastName, msg.UserName)
	}
	if !msg.Direct {
		t.Error("private chat should be direct")
	}
	if msg.Timestamp.Unix() != 1700000000 {
		t.Errorf("timestamp = %v", msg.Timestamp)
	}
}

func TestListen_SkipsNonTextAndBots(t *testing.T) {
	a, api := newTestAdapter(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch, _ := a.Listen(ctx)

	api.updates <- tgbotapi.Update{UpdateID: 1}
	api.updates <- textUpdate(-100123, "supergroup", &tgbotapi.User{ID: 7, IsBot: true}, "beep")
	api.updates <- textUpdate(-100123, "supergroup", &tgbotapi.User{ID: 8}, "")
	api.updates <- textUpdate(-100123, "supergroup", &tgbotapi.User{ID: 9, FirstName: "Bo"}, "/myhistory")

	msg := receive(t, ch)
	if msg.UserID != "9" || msg.ChannelID != "-100123" {
		t.Errorf("msg = %+v, want user 9 in group", msg)
	}
	if msg.Direct {
		t.Error("group message should not be direct")
	}
}

func TestClose_StopsPolling(t *testing.T) {
	a, api := newTestAdapter(t)
	ch, _ := a.Listen(context.Background())
	a.Close()

	select {
	case _, ok := <-ch:
		if ok {
			t.Fatal("expected closed channel")
		}
	case <-time.After(time.Second):
		t.Fatal("inbound channel not closed")
	}
	api.mu.Lock()
	defer api.mu.Unlock()
	if !api.stopped {
		t.Error("expected StopReceivingUpdates")
	}
}

func TestSend_DefaultChat(t *testing.T) {
	a, api := newTestAdapter(t)
	if err := a.Send(context.Background(), chat.OutboundMessage{Text: "hi"}); err != nil {
		t.Fatalf("send: %v", err)
	}
	sent := api.sentMessages()
	if len(sent) != 1 || sent[0].ChatID != -100123 || sent[0].Text != "hi" {
		t.Errorf("sent = %+v", sent)
	}
}

func TestSend_InvalidChatID(t *testing.T) {
	a, _ := newTestAdapter(t)
	err := a.Send(context.Background(), chat.OutboundMessage{ChannelID: "general", Text: "hi"})
	if err == nil || !strings.Contains(err.Error(), "invalid chat id") {
		t.Fatalf("err = %v, want invalid chat id", err)
	}
}

func TestSend_NotConnected(t *testing.T) {
	a, _ := New(AdapterOpts{API: newMockBotAPI()})
	if err := a.Send(context.Background(), chat.OutboundMessage{ChannelID: "1", Text: "hi"}); err == nil {
		t.Fatal("expected error when not connected")
	}
}

func TestSend_SplitsLongText(t *testing.T) {
	a, api := newTestAdapter(t)
	text := strings.Repeat("a", maxMessageLen) + strings.Repeat("b", 5)
	if err := a.Send(context.Background(), chat.OutboundMessage{ChannelID: "42", Text: text}); err != nil {
		t.Fatalf("send: %v", err)
	}
	sent := api.sentMessages()
	if len(sent) != 2 || sent[1].Text != "bbbbb" {
		t.Errorf("sent %d messages", len(sent))
	}
}

func TestSend_RetriesRateLimit(t *testing.T) {
	a, api := newTestAdapter(t)
	api.sendErrs = []error{&tgbotapi.Error{
		Code:               429,
		Message:            "Too Many Requests",
		ResponseParameters: tgbotapi.ResponseParameters{RetryAfter: 1},
	}}
	if err := a.Send(context.Background(), chat.OutboundMessage{ChannelID: "42", Text: "hi"}); err != nil {
		t.Fatalf("send: %v", err)
	}
	if len(api.sentMessages()) != 1 {
		t.Error("expected message sent after retry")
	}
}

func TestSend_OtherErrorNotRetried(t *testing.T) {
	a, api := newTestAdapter(t)
	api.sendErrs = []error{fmt.Errorf("chat not found"), nil}
	err := a.Send(context.Background(), chat.OutboundMessage{ChannelID: "42", Text: "hi"})
	if err == nil || !strings.Contains(err.Error(), "chat not found") {
		t.Fatalf("err = %v", err)
	}
	if len(api.sentMessages()) != 0 {
		t.Error("expected no retry")
	}
}
