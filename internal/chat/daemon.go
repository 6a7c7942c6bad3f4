package chat

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/zulandar/gymyard/internal/config"
	"github.com/zulandar/gymyard/internal/report"
	"gorm.io/gorm"
)

// Daemon is the chat bot process. It connects to a chat platform via an
// Adapter, pumps inbound messages through the Router, and optionally posts
// an activity digest on a cron schedule.
type Daemon struct {
	db           *gorm.DB
	cfg          config.ChatConfig
	adapter      Adapter
	out          io.Writer
	now          func() time.Time
	holder       string
	leaseTimeout time.Duration
}

// DaemonOpts holds parameters for creating a new Daemon.
type DaemonOpts struct {
	DB      *gorm.DB
	Config  config.ChatConfig
	Adapter Adapter
	Out     io.Writer // defaults to os.Stdout
	// Holder identifies this process in the bot lease (default host:pid).
	Holder       string
	LeaseTimeout time.Duration
}

// NewDaemon creates a Daemon with the given options.
func NewDaemon(opts DaemonOpts) (*Daemon, error) {
	if opts.DB == nil {
		return nil, fmt.Errorf("chat: db is required")
	}
	if opts.Adapter == nil {
		return nil, fmt.Errorf("chat: adapter is required")
	}
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}
	holder := opts.Holder
	if holder == "" {
		holder = defaultHolder()
	}
	leaseTimeout := opts.LeaseTimeout
	if leaseTimeout <= 0 {
		leaseTimeout = DefaultLeaseTimeout
	}
	return &Daemon{
		db:           opts.DB,
		cfg:          opts.Config,
		adapter:      opts.Adapter,
		out:          out,
		now:          time.Now,
		holder:       holder,
		leaseTimeout: leaseTimeout,
	}, nil
}

// Run takes the bot lease, connects the adapter, builds the router and
// digest scheduler, and blocks until the context is cancelled, the adapter
// closes its inbound channel, or the lease is lost. On shutdown it closes
// the adapter and releases the lease.
func (d *Daemon) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	platform := d.leasePlatform()
	if _, err := AcquireLease(d.db, platform, d.holder, d.leaseTimeout); err != nil {
		return err
	}
	defer func() {
		if err := ReleaseLease(d.db, platform, d.holder); err != nil {
			log.Printf("%v", err)
		}
	}()

	fmt.Fprintf(d.out, "Gym bot connecting...\n")
	if err := d.adapter.Connect(ctx); err != nil {
		return fmt.Errorf("chat: connect: %w", err)
	}

	var botUserID string
	if bui, ok := d.adapter.(BotUserIDer); ok {
		botUserID = bui.BotUserID()
	}

	cmdHandler, err := NewCommandHandler(CommandHandlerOpts{DB: d.db})
	if err != nil {
		d.adapter.Close()
		return fmt.Errorf("chat: build command handler: %w", err)
	}
	router, err := NewRouter(RouterOpts{
		CmdHandler: cmdHandler,
		Adapter:    d.adapter,
		BotUserID:  botUserID,
		Out:        d.out,
	})
	if err != nil {
		d.adapter.Close()
		return fmt.Errorf("chat: build router: %w", err)
	}

	inbound, err := d.adapter.Listen(ctx)
	if err != nil {
		d.adapter.Close()
		return fmt.Errorf("chat: listen: %w", err)
	}

	if d.cfg.Digest.Enabled {
		go d.runDigestScheduler(ctx)
	}
	leaseLost := make(chan error, 1)
	go d.runLeaseHeartbeat(ctx, platform, leaseLost)

	fmt.Fprintf(d.out, "Gym bot online\n")
	d.notify(ctx, "Gym bot online")

	for {
		select {
		case <-ctx.Done():
			fmt.Fprintf(d.out, "Gym bot shutting down...\n")
			d.notify(context.Background(), "Gym bot shutting down")
			if err := d.adapter.Close(); err != nil {
				log.Printf("chat: close adapter: %v", err)
			}
			fmt.Fprintf(d.out, "Gym bot stopped\n")
			return nil

		case err := <-leaseLost:
			fmt.Fprintf(d.out, "Gym bot lost its lease, stopping\n")
			if cerr := d.adapter.Close(); cerr != nil {
				log.Printf("chat: close adapter: %v", cerr)
			}
			return err

		case msg, ok := <-inbound:
			if !ok {
				fmt.Fprintf(d.out, "Gym bot inbound channel closed\n")
				return nil
			}
			router.Handle(ctx, msg)
		}
	}
}

// leasePlatform is the lease key: one running bot per platform.
func (d *Daemon) leasePlatform() string {
	if d.cfg.Platform == "" {
		return "default"
	}
	return d.cfg.Platform
}

// runLeaseHeartbeat refreshes the lease at a third of its timeout. Losing
// the lease is reported on lost; transient storage errors are only logged.
func (d *Daemon) runLeaseHeartbeat(ctx context.Context, platform string, lost chan<- error) {
	ticker := time.NewTicker(d.leaseTimeout / 3)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			err := HeartbeatLease(d.db, platform, d.holder)
			if errors.Is(err, ErrLeaseLost) {
				lost <- err
				return
			}
			if err != nil {
				log.Printf("%v", err)
			}
		}
	}
}

// runDigestScheduler fires the activity digest on the configured cron
// schedule until the context is cancelled.
func (d *Daemon) runDigestScheduler(ctx context.Context) {
	wait := nextCronDuration(d.cfg.Digest.Cron, d.now())
	if wait <= 0 {
		log.Printf("chat: digest: invalid cron %q, digest disabled", d.cfg.Digest.Cron)
		return
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()

	since := d.now()
	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			fired := d.now()
			d.fireDigest(ctx, since)
			since = fired
			if wait := nextCronDuration(d.cfg.Digest.Cron, d.now()); wait > 0 {
				timer.Reset(wait)
			}
		}
	}
}

// fireDigest posts the activity summary since the previous digest. Nothing
// is posted when there was no activity.
func (d *Daemon) fireDigest(ctx context.Context, since time.Time) {
	activity, err := report.Activity(d.db, since)
	if err != nil {
		log.Printf("chat: digest: %v", err)
		return
	}
	if activity.Empty() {
		return
	}
	if err := d.adapter.Send(ctx, OutboundMessage{
		ChannelID: d.cfg.Channel,
		Text:      FormatDigest(activity),
	}); err != nil {
		log.Printf("chat: send digest: %v", err)
	}
}

// notify posts a status line to the configured channel (best-effort).
// Without a channel there is nowhere to post.
func (d *Daemon) notify(ctx context.Context, text string) {
	if d.cfg.Channel == "" {
		return
	}
	if err := d.adapter.Send(ctx, OutboundMessage{
		ChannelID: d.cfg.Channel,
		Text:      text,
	}); err != nil {
		log.Printf("chat: send notice: %v", err)
	}
}
