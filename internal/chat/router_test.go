package chat

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"
)

func newTestRouter(t *testing.T) (*Router, *MockAdapter) {
	t.Helper()
	ch, _ := newTestHandler(t)
	mock := NewMockAdapter()
	if err := mock.Connect(context.Background()); err != nil {
		t.Fatalf("connect: %v", err)
	}
	r, err := NewRouter(RouterOpts{
		CmdHandler: ch,
		Adapter:    mock,
		BotUserID:  "BOT",
		Out:        &bytes.Buffer{},
	})
	if err != nil {
		t.Fatalf("NewRouter: %v", err)
	}
	return r, mock
}

func TestNewRouter_Validation(t *testing.T) {
	ch, _ := newTestHandler(t)
	if _, err := NewRouter(RouterOpts{Adapter: NewMockAdapter()}); err == nil {
		t.Error("expected error for nil command handler")
	}
	if _, err := NewRouter(RouterOpts{CmdHandler: ch}); err == nil {
		t.Error("expected error for nil adapter")
	}
}

func TestRouter_CommandReply(t *testing.T) {
	r, mock := newTestRouter(t)

	r.Handle(context.Background(), InboundMessage{ChannelID: "C1", ThreadID: "T1", UserID: "U1", Text: "/listroutines"})

	msg, ok := mock.LastSent()
	if !ok {
		t.Fatal("expected a reply")
	}
	if msg.ChannelID != "C1" || msg.ThreadID != "T1" {
		t.Errorf("reply target = %s/%s, want C1/T1", msg.ChannelID, msg.ThreadID)
	}
	if !strings.Contains(msg.Text, "no routines") {
		t.Errorf("reply = %q", msg.Text)
	}
}

func TestRouter_IgnoresSelf(t *testing.T) {
	r, mock := newTestRouter(t)

	r.Handle(context.Background(), InboundMessage{ChannelID: "C1", UserID: "BOT", Text: "/help"})

	if mock.SentCount() != 0 {
		t.Errorf("sent %d messages for self message", mock.SentCount())
	}
}

func TestRouter_PlainTextInChannelIgnored(t *testing.T) {
	r, mock := newTestRouter(t)

	r.Handle(context.Background(), InboundMessage{ChannelID: "C1", UserID: "U1", Text: "great workout today"})

	if mock.SentCount() != 0 {
		t.Errorf("sent %d messages for channel chatter", mock.SentCount())
	}
}

func TestRouter_PlainTextInDirectChat(t *testing.T) {
	r, mock := newTestRouter(t)

	r.Handle(context.Background(), InboundMessage{ChannelID: "D1", UserID: "U1", Text: "hello?", Direct: true})

	msg, ok := mock.LastSent()
	if !ok || msg.Text != notRecognized {
		t.Errorf("reply = %+v, want not-recognized", msg)
	}
}

func TestRouter_MentionCommand(t *testing.T) {
	r, mock := newTestRouter(t)

	r.Handle(context.Background(), InboundMessage{ChannelID: "C1", UserID: "U1", Text: "<@123456> newroutine Legs"})

	msg, _ := mock.LastSent()
	if !strings.Contains(msg.Text, "Routine created!") {
		t.Errorf("reply = %q", msg.Text)
	}
}

func TestRouter_SendErrorDoesNotPanic(t *testing.T) {
	r, mock := newTestRouter(t)
	mock.SetSendError(errors.New("platform down"))

	r.Handle(context.Background(), InboundMessage{ChannelID: "C1", UserID: "U1", Text: "/help"})
}

func TestRouter_RecoversPanic(t *testing.T) {
	mock := NewMockAdapter()
	mock.Connect(context.Background())
	// A handler without a database panics on first use.
	r, err := NewRouter(RouterOpts{CmdHandler: &CommandHandler{}, Adapter: mock, Out: &bytes.Buffer{}})
	if err != nil {
		t.Fatalf("NewRouter: %v", err)
	}

	r.Handle(context.Background(), InboundMessage{ChannelID: "C1", UserID: "U1", Text: "/listroutines"})

	msg, ok := mock.LastSent()
	if !ok || !strings.Contains(msg.Text, "Something went wrong") {
		t.Errorf("reply = %+v, want apology", msg)
	}
}

func TestStripMention(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"<@123> listroutines", "!gym listroutines"},
		{"<@!123> /session 4", "/session 4"},
		{"<@U0BOT> !gym help", "!gym help"},
		{"<@123>", "<@123>"},
		{"/help", "/help"},
		{"hi <@123>", "hi <@123>"},
	}
	for _, tt := range tests {
		if got := stripMention(tt.input); got != tt.want {
			t.Errorf("stripMention(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Errorf("truncate short = %q", got)
	}
	if got := truncate("0123456789abc", 10); got != "0123456789..." {
		t.Errorf("truncate long = %q", got)
	}
}

func TestTruncate_MultiByte(t *testing.T) {
	got := truncate("Supino inclinado çççç", 19)
	if got != "Supino inclinado çç..." {
		t.Errorf("truncate = %q", got)
	}
	if !utf8.ValidString(got) {
		t.Errorf("truncate produced invalid UTF-8: %q", got)
	}
	if got := truncate("ççç", 3); got != "ççç" {
		t.Errorf("truncate at rune length = %q, want unchanged", got)
	}
}
