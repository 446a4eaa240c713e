// Package digest emails the site owner a daily summary of assistant
// activity, driven by a cron schedule.
package digest

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/lawrencechen/folio/pkg/folio/analytics"
	"github.com/lawrencechen/folio/pkg/folio/mail"
)

// Digest runs the scheduled summary job.
type Digest struct {
	schedule   string
	ownerEmail string
	events     *analytics.Store
	mailer     mail.Dispatcher
	cron       *cron.Cron
	logger     *slog.Logger
}

// New creates a digest with the given cron schedule (e.g. "0 18 * * *").
func New(schedule, ownerEmail string, events *analytics.Store, mailer mail.Dispatcher, logger *slog.Logger) *Digest {
	if schedule == "" {
		schedule = "0 18 * * *"
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Digest{
		schedule:   schedule,
		ownerEmail: ownerEmail,
		events:     events,
		mailer:     mailer,
		cron:       cron.New(),
		logger:     logger.With("component", "digest"),
	}
}

// Start registers the job and starts the scheduler.
func (d *Digest) Start() error {
	if _, err := d.cron.AddFunc(d.schedule, d.run); err != nil {
		return err
	}
	d.cron.Start()
	d.logger.Info("digest scheduled", "schedule", d.schedule, "to", d.ownerEmail)
	return nil
}

// Stop stops the scheduler, waiting for a running job to finish.
func (d *Digest) Stop() {
	<-d.cron.Stop().Done()
}

// run builds and sends one digest. Empty days are skipped.
func (d *Digest) run() {
	sum, err := d.events.SummarizeSince(time.Now().Add(-24 * time.Hour))
	if err != nil {
		d.logger.Error("summarizing events failed", "error", err)
		return
	}
	if sum.Chats == 0 && sum.Contacts == 0 && sum.Meetings == 0 {
		d.logger.Debug("no activity, skipping digest")
		return
	}

	email, err := mail.RenderDigest(sum.Chats, sum.Contacts, sum.Meetings)
	if err != nil {
		d.logger.Error("rendering digest failed", "error", err)
		return
	}
	email.To = d.ownerEmail

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if _, err := d.mailer.Send(ctx, email); err != nil {
		d.logger.Error("sending digest failed", "error", err)
		return
	}

	d.logger.Info("digest sent",
		"chats", sum.Chats,
		"contacts", sum.Contacts,
		"meetings", sum.Meetings,
	)
}
