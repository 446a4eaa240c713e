package mail

import (
	"fmt"
	"html/template"
	"strings"
)

// contactTmpl renders a completed /message flow for the owner's inbox.
var contactTmpl = template.Must(template.New("contact").Parse(`<div style="font-family: sans-serif; max-width: 600px;">
  <h2>New message from your portfolio</h2>
  <p><strong>From:</strong> {{.Email}}</p>
  <p style="white-space: pre-wrap;">{{.Body}}</p>
</div>`))

// meetingTmpl renders a completed /meeting flow. The requested time is an
// opaque free-text string, rendered as typed.
var meetingTmpl = template.Must(template.New("meeting").Parse(`<div style="font-family: sans-serif; max-width: 600px;">
  <h2>Meeting request from your portfolio</h2>
  <p><strong>From:</strong> {{.Email}}</p>
  <p><strong>Requested time:</strong> {{.ScheduledAt}}</p>
  <p style="white-space: pre-wrap;">{{.Body}}</p>
</div>`))

// digestTmpl renders the daily activity digest.
var digestTmpl = template.Must(template.New("digest").Parse(`<div style="font-family: sans-serif; max-width: 600px;">
  <h2>Portfolio assistant — daily digest</h2>
  <p>{{.Chats}} chat turns, {{.Contacts}} contact messages, {{.Meetings}} meeting requests in the last 24h.</p>
</div>`))

// RenderContactMessage builds the owner-bound email for a contact message.
func RenderContactMessage(senderEmail, body string) (Email, error) {
	var b strings.Builder
	err := contactTmpl.Execute(&b, struct{ Email, Body string }{senderEmail, body})
	if err != nil {
		return Email{}, fmt.Errorf("rendering contact email: %w", err)
	}
	return Email{
		Subject: fmt.Sprintf("Portfolio message from %s", senderEmail),
		HTML:    b.String(),
	}, nil
}

// RenderMeetingRequest builds the owner-bound email for a meeting request.
func RenderMeetingRequest(senderEmail, body, scheduledAt string) (Email, error) {
	var b strings.Builder
	err := meetingTmpl.Execute(&b, struct{ Email, Body, ScheduledAt string }{senderEmail, body, scheduledAt})
	if err != nil {
		return Email{}, fmt.Errorf("rendering meeting email: %w", err)
	}
	return Email{
		Subject: fmt.Sprintf("Meeting request from %s", senderEmail),
		HTML:    b.String(),
	}, nil
}

// RenderDigest builds the daily summary email.
func RenderDigest(chats, contacts, meetings int) (Email, error) {
	var b strings.Builder
	err := digestTmpl.Execute(&b, struct{ Chats, Contacts, Meetings int }{chats, contacts, meetings})
	if err != nil {
		return Email{}, fmt.Errorf("rendering digest email: %w", err)
	}
	return Email{
		Subject: "Portfolio assistant daily digest",
		HTML:    b.String(),
	}, nil
}
