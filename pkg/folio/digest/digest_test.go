package digest

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/lawrencechen/folio/pkg/folio/analytics"
	"github.com/lawrencechen/folio/pkg/folio/mail"
)

type fakeMailer struct {
	sent []mail.Email
}

func (f *fakeMailer) Send(_ context.Context, e mail.Email) (string, error) {
	f.sent = append(f.sent, e)
	return "msg-1", nil
}

func newTestStore(t *testing.T) *analytics.Store {
	t.Helper()
	store, err := analytics.Open(filepath.Join(t.TempDir(), "events.db"), nil)
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestRun_SendsSummaryToOwner(t *testing.T) {
	store := newTestStore(t)
	store.Record(analytics.EventChat, "chat", "")
	store.Record(analytics.EventChat, "chat", "")
	store.Record(analytics.EventContactSent, "message from a@b.com", "")

	mailer := &fakeMailer{}
	d := New("0 18 * * *", "owner@example.com", store, mailer, nil)
	d.run()

	if len(mailer.sent) != 1 {
		t.Fatalf("sent %d emails, want 1", len(mailer.sent))
	}
	if mailer.sent[0].To != "owner@example.com" {
		t.Errorf("To = %q", mailer.sent[0].To)
	}
}

func TestRun_SkipsEmptyDay(t *testing.T) {
	store := newTestStore(t)
	mailer := &fakeMailer{}

	d := New("", "owner@example.com", store, mailer, nil)
	d.run()

	if len(mailer.sent) != 0 {
		t.Errorf("sent %d emails, want 0 on an empty day", len(mailer.sent))
	}
}

func TestStart_RejectsBadSchedule(t *testing.T) {
	d := New("not a schedule", "owner@example.com", newTestStore(t), &fakeMailer{}, nil)
	if err := d.Start(); err == nil {
		t.Error("Start() = nil error for an invalid cron expression")
	}
}
