package chat

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"regexp"
	"strings"
)

// Router filters inbound chat messages and sends command replies back
// through the adapter.
type Router struct {
	cmdHandler *CommandHandler
	adapter    Adapter
	botUserID  string // the bot's own user ID (to filter self-messages)
	out        io.Writer
}

// RouterOpts holds parameters for creating a Router.
type RouterOpts struct {
	CmdHandler *CommandHandler
	Adapter    Adapter
	BotUserID  string    // bot's user ID for self-message filtering
	Out        io.Writer // defaults to os.Stdout
}

// NewRouter creates a Router.
func NewRouter(opts RouterOpts) (*Router, error) {
	if opts.CmdHandler == nil {
		return nil, fmt.Errorf("chat: router: command handler is required")
	}
	if opts.Adapter == nil {
		return nil, fmt.Errorf("chat: router: adapter is required")
	}
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}
	return &Router{
		cmdHandler: opts.CmdHandler,
		adapter:    opts.Adapter,
		botUserID:  opts.BotUserID,
		out:        out,
	}, nil
}

// Handle routes a single inbound message:
//  1. Bot self-message → ignore
//  2. Command ("/name", "!gym name", or "@bot name") → command handler
//  3. Any other text in a direct conversation → "not recognized" reply
//  4. Everything else → ignore
//
// A panic while handling is recovered and answered with an apology, so one
// bad message never stops the daemon.
func (r *Router) Handle(ctx context.Context, msg InboundMessage) {
	if r.isSelfMessage(msg) {
		return
	}

	defer func() {
		if p := recover(); p != nil {
			log.Printf("chat: router: panic handling %q: %v", truncate(msg.Text, 80), p)
			r.reply(ctx, msg, "Something went wrong, please try again later.")
		}
	}()

	text := stripMention(strings.TrimSpace(msg.Text))
	fmt.Fprintf(r.out, "chat: router: recv [%s ch=%s user=%s] %q\n",
		msg.Platform, msg.ChannelID, msg.UserID, truncate(text, 80))

	switch {
	case isCommand(text):
		msg.Text = text
		r.reply(ctx, msg, r.cmdHandler.Execute(msg))
	case msg.Direct && text != "":
		r.reply(ctx, msg, notRecognized)
	}
}

func (r *Router) reply(ctx context.Context, msg InboundMessage, text string) {
	if err := r.adapter.Send(ctx, OutboundMessage{
		ChannelID: msg.ChannelID,
		ThreadID:  msg.ThreadID,
		Text:      text,
	}); err != nil {
		log.Printf("chat: router: send reply: %v", err)
	}
}

// isSelfMessage returns true if the message is from the bot itself.
func (r *Router) isSelfMessage(msg InboundMessage) bool {
	return r.botUserID != "" && msg.UserID == r.botUserID
}

// mentionRe matches a leading Discord (<@ID>, <@!ID>) or Slack (<@UID>)
// mention.
var mentionRe = regexp.MustCompile(`^<@!?[A-Za-z0-9]+>\s*`)

// stripMention removes a leading bot mention so "@bot listroutines" is
// treated as "!gym listroutines".
func stripMention(text string) string {
	stripped := mentionRe.ReplaceAllString(text, "")
	if stripped == text || stripped == "" {
		return text
	}
	if isCommand(stripped) {
		return stripped
	}
	return commandPrefix + " " + stripped
}

// truncate returns s cut to maxLen runes with "..." appended if needed.
func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen]) + "..."
}
