package discord

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/zulandar/gymyard/internal/chat"
)

// --- Mock Discord session ---

type mockSession struct {
	mu          sync.Mutex
	opened      bool
	closeCalled bool
	openErr     error
	sent        []sentMessage
	sendErrs    []error
	handlers    []interface{}
	removeCount int
	channels    map[string]*discordgo.Channel
}

type sentMessage struct {
	channelID string
	content   string
}

func newMockSession() *mockSession {
	return &mockSession{channels: make(map[string]*discordgo.Channel)}
}

func (m *mockSession) Open() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.openErr != nil {
		return m.openErr
	}
	m.opened = true
	return nil
}

func (m *mockSession) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closeCalled = true
	return nil
}

func (m *mockSession) Channel(channelID string) (*discordgo.Channel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ch, ok := m.channels[channelID]; ok {
		return ch, nil
	}
	return nil, fmt.Errorf("channel not found: %s", channelID)
}

func (m *mockSession) ChannelMessageSend(channelID, content string, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sendErrs) > 0 {
		err := m.sendErrs[0]
		m.sendErrs = m.sendErrs[1:]
		if err != nil {
			return nil, err
		}
	}
	m.sent = append(m.sent, sentMessage{channelID: channelID, content: content})
	return &discordgo.Message{ID: "msg-123"}, nil
}

func (m *mockSession) AddHandler(handler interface{}) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers = append(m.handlers, handler)
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.removeCount++
	}
}

func (m *mockSession) sentMessages() []sentMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]sentMessage(nil), m.sent...)
}

// --- Helpers ---

func newTestAdapter(t *testing.T) (*Adapter, *mockSession) {
	t.Helper()
	sess := newMockSession()

	a, err := New(AdapterOpts{Session: sess, ChannelID: "C_DEFAULT"})
	if err != nil {
		t.Fatalf("new adapter: %v", err)
	}
	if err := a.Connect(context.Background()); err != nil {
		t.Fatalf("connect: %v", err)
	}
	a.SetBotUserID("BOT_USER_ID")
	a.baseBackoff = time.Millisecond
	return a, sess
}

func messageCreate(id, channelID, guildID string, author *discordgo.User, content string) *discordgo.MessageCreate {
	return &discordgo.MessageCreate{
		Message: &discordgo.Message{
			ID:        id,
			ChannelID: channelID,
			GuildID:   guildID,
			Content:   content,
			Author:    author,
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

// --- New / Connect ---

func TestNew_RequiresBotToken(t *testing.T) {
	_, err := New(AdapterOpts{})
	if err == nil || !strings.Contains(err.Error(), "bot token is required") {
		t.Fatalf("err = %v, want bot token error", err)
	}
}

func TestConnect_Success(t *testing.T) {
	_, sess := newTestAdapter(t)
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if !sess.opened {
		t.Error("expected session to be opened")
	}
	if len(sess.handlers) != 2 {
		t.Errorf("handlers = %d, want ready and disconnect", len(sess.handlers))
	}
}

func TestConnect_OpenError(t *testing.T) {
	sess := newMockSession()
	sess.openErr = fmt.Errorf("gateway down")
	a, _ := New(AdapterOpts{Session: sess})

	err := a.Connect(context.Background())
	if err == nil || !strings.Contains(err.Error(), "open gateway") {
		t.Fatalf("err = %v, want open gateway error", err)
	}
}

func TestConnect_AlreadyClosed(t *testing.T) {
	a, _ := newTestAdapter(t)
	a.Close()
	if err := a.Connect(context.Background()); err == nil {
		t.Fatal("expected error for closed adapter")
	}
}

func TestConnect_ReadySetsBotUserID(t *testing.T) {
	sess := newMockSession()
	a, _ := New(AdapterOpts{Session: sess})
	if err := a.Connect(context.Background()); err != nil {
		t.Fatalf("connect: %v", err)
	}

	ready := sess.handlers[0].(func(*discordgo.Session, *discordgo.Ready))
	ready(nil, &discordgo.Ready{User: &discordgo.User{ID: "B42", Username: "gymbot"}})

	if a.BotUserID() != "B42" {
		t.Errorf("bot user ID = %q, want B42", a.BotUserID())
	}
}

// --- Listen / handleMessage ---

func TestListen_NotConnected(t *testing.T) {
	a, _ := New(AdapterOpts{Session: newMockSession()})
	if _, err := a.Listen(context.Background()); err == nil {
		t.Fatal("expected error for not connected")
	}
}

func TestListen_GuildMessage(t *testing.T) {
	a, _ := newTestAdapter(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch, err := a.Listen(ctx)
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	a.handleMessage(messageCreate("123456789012345678", "C1", "G1",
		&discordgo.User{ID: "U_ALICE", Username: "alice", GlobalName: "Alice"}, "/listroutines"))

	msg := receive(t, ch)
	if msg.Platform != "discord" || msg.ChannelID != "C1" || msg.UserID != "U_ALICE" {
		t.Errorf("msg = %+v", msg)
	}
	if msg.UserName != "alice" || msg.FirstName != "Alice" {
		t.Errorf("names = %q %q", msg.UserName, msg.FirstName)
	}
	if msg.Direct {
		t.Error("guild message should not be direct")
	}
	if msg.Timestamp.IsZero() {
		t.Error("expected snowflake timestamp")
	}
}

func TestListen_DirectMessage(t *testing.T) {
	a, _ := newTestAdapter(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch, _ := a.Listen(ctx)

	a.handleMessage(messageCreate("1", "DM1", "", &discordgo.User{ID: "U_ALICE"}, "hello"))

	if msg := receive(t, ch); !msg.Direct {
		t.Error("expected direct message")
	}
}

func TestHandleMessage_Filters(t *testing.T) {
	a, _ := newTestAdapter(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch, _ := a.Listen(ctx)

	a.handleMessage(messageCreate("1", "C1", "G1", nil, "no author"))
	a.handleMessage(messageCreate("2", "C1", "G1", &discordgo.User{ID: "BOT_USER_ID"}, "self"))
	a.handleMessage(messageCreate("3", "C1", "G1", &discordgo.User{ID: "B2", Bot: true}, "other bot"))
	a.handleMessage(messageCreate("4", "C1", "G1", &discordgo.User{ID: "U_BOB"}, "from bob"))

	if msg := receive(t, ch); msg.Text != "from bob" {
		t.Errorf("text = %q, want from bob", msg.Text)
	}
}

func TestHandleMessage_ThreadChannel(t *testing.T) {
	a, sess := newTestAdapter(t)
	sess.channels["T1"] = &discordgo.Channel{ID: "T1", ParentID: "C1", Type: discordgo.ChannelTypeGuildPublicThread}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch, _ := a.Listen(ctx)

	a.handleMessage(messageCreate("1", "T1", "G1", &discordgo.User{ID: "U_ALICE"}, "in thread"))

	msg := receive(t, ch)
	if msg.ChannelID != "C1" || msg.ThreadID != "T1" {
		t.Errorf("channel/thread = %q/%q, want C1/T1", msg.ChannelID, msg.ThreadID)
	}
}

func TestHandleMessage_AfterCloseDropped(t *testing.T) {
	a, _ := newTestAdapter(t)
	a.Close()
	// Must not panic on the closed channel.
	a.handleMessage(messageCreate("1", "C1", "G1", &discordgo.User{ID: "U_ALICE"}, "late"))
}

func TestListen_CancelClosesAdapter(t *testing.T) {
	a, sess := newTestAdapter(t)
	ctx, cancel := context.WithCancel(context.Background())
	ch, _ := a.Listen(ctx)
	cancel()

	select {
	case _, ok := <-ch:
		if ok {
			t.Fatal("expected closed channel")
		}
	case <-time.After(time.Second):
		t.Fatal("inbound channel not closed")
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.removeCount != 1 || !sess.closeCalled {
		t.Errorf("remove = %d, closed = %v", sess.removeCount, sess.closeCalled)
	}
}

// --- Send ---

func TestSend_ChannelSelection(t *testing.T) {
	tests := []struct {
		name string
		msg  chat.OutboundMessage
		want string
	}{
		{"default", chat.OutboundMessage{Text: "hi"}, "C_DEFAULT"},
		{"explicit", chat.OutboundMessage{ChannelID: "C1", Text: "hi"}, "C1"},
		{"thread", chat.OutboundMessage{ChannelID: "C1", ThreadID: "T1", Text: "hi"}, "T1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, sess := newTestAdapter(t)
			if err := a.Send(context.Background(), tt.msg); err != nil {
				t.Fatalf("send: %v", err)
			}
			sent := sess.sentMessages()
			if len(sent) != 1 || sent[0].channelID != tt.want {
				t.Errorf("sent = %+v, want channel %s", sent, tt.want)
			}
		})
	}
}

func TestSend_SplitsLongText(t *testing.T) {
	a, sess := newTestAdapter(t)
	text := strings.Repeat("x", maxMessageLen+10)

	if err := a.Send(context.Background(), chat.OutboundMessage{Text: text}); err != nil {
		t.Fatalf("send: %v", err)
	}
	sent := sess.sentMessages()
	if len(sent) != 2 {
		t.Fatalf("sent %d messages, want 2", len(sent))
	}
	if len(sent[0].content) != maxMessageLen || len(sent[1].content) != 10 {
		t.Errorf("chunk sizes = %d, %d", len(sent[0].content), len(sent[1].content))
	}
}

func TestSend_NoChannel(t *testing.T) {
	sess := newMockSession()
	a, _ := New(AdapterOpts{Session: sess})
	a.Connect(context.Background())
	if err := a.Send(context.Background(), chat.OutboundMessage{Text: "hi"}); err == nil {
		t.Fatal("expected error without channel")
	}
}

func TestSend_NotConnected(t *testing.T) {
	a, _ := New(AdapterOpts{Session: newMockSession()})
	if err := a.Send(context.Background(), chat.OutboundMessage{Text: "hi"}); err == nil {
		t.Fatal("expected error when not connected")
	}
}

func TestSend_RetriesRateLimit(t *testing.T) {
	a, sess := newTestAdapter(t)
	sess.sendErrs = []error{&discordgo.RESTError{Response: &http.Response{StatusCode: http.StatusTooManyRequests}}}

	if err := a.Send(context.Background(), chat.OutboundMessage{Text: "hi"}); err != nil {
		t.Fatalf("send: %v", err)
	}
	if len(sess.sentMessages()) != 1 {
		t.Error("expected message sent after retry")
	}
}

func TestSend_OtherErrorNotRetried(t *testing.T) {
	a, sess := newTestAdapter(t)
	sess.sendErrs = []error{fmt.Errorf("forbidden"), nil}

	err := a.Send(context.Background(), chat.OutboundMessage{Text: "hi"})
	if err == nil || !strings.Contains(err.Error(), "forbidden") {
		t.Fatalf("err = %v, want forbidden", err)
	}
	if len(sess.sentMessages()) != 0 {
		t.Error("expected no retry for non rate limit error")
	}
}

func TestClose_Idempotent(t *testing.T) {
	a, _ := newTestAdapter(t)
	if err := a.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := a.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
}
