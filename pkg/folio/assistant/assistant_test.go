package assistant

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/lawrencechen/folio/pkg/folio/extract"
	"github.com/lawrencechen/folio/pkg/folio/mail"
)

// fakeProvider returns a fixed reply or error.
type fakeProvider struct {
	reply    string
	err      error
	gotCalls int
	gotMsgs  []ChatMessage
}

func (f *fakeProvider) Complete(_ context.Context, messages []ChatMessage) (string, error) {
	f.gotCalls++
	f.gotMsgs = messages
	return f.reply, f.err
}

// fakeDispatcher records sent emails.
type fakeDispatcher struct {
	sent []mail.Email
	err  error
}

func (f *fakeDispatcher) Send(_ context.Context, email mail.Email) (string, error) {
	f.sent = append(f.sent, email)
	if f.err != nil {
		return "", f.err
	}
	return "msg_1", nil
}

func newTestAssistant(provider CompletionProvider, dispatcher mail.Dispatcher) *Assistant {
	cfg := DefaultConfig()
	cfg.Mail.OwnerEmail = "lawrence@example.com"
	return New(cfg, provider, dispatcher, nil, nil)
}

func TestRespond_FreeChat(t *testing.T) {
	provider := &fakeProvider{reply: "I work mostly on backend systems."}
	a := newTestAssistant(provider, &fakeDispatcher{})

	reply, err := a.Respond(context.Background(), ChatRequest{
		Message: "what do you work on?",
		History: []Turn{user("hi"), bot("hello!")},
	})
	if err != nil {
		t.Fatalf("Respond() error = %v", err)
	}
	if reply.Response != "I work mostly on backend systems." {
		t.Errorf("Response = %q", reply.Response)
	}
	if reply.ContactSent || reply.MeetingRequested {
		t.Error("flow flags set on free chat")
	}
	if provider.gotCalls != 1 {
		t.Errorf("provider calls = %d, want 1", provider.gotCalls)
	}
	if provider.gotMsgs[0].Role != "system" {
		t.Error("system prompt missing from provider request")
	}
}

func TestRespond_EmptyProviderReplyFallback(t *testing.T) {
	a := newTestAssistant(&fakeProvider{reply: ""}, &fakeDispatcher{})
	reply, err := a.Respond(context.Background(), ChatRequest{Message: "hi"})
	if err != nil {
		t.Fatalf("Respond() error = %v", err)
	}
	if reply.Response == "" {
		t.Error("Response empty; the chat UI must always get a renderable string")
	}
}

func TestRespond_ProviderFailureSurfaced(t *testing.T) {
	providerErr := ErrUpstreamUnavailable
	a := newTestAssistant(&fakeProvider{err: providerErr}, &fakeDispatcher{})
	_, err := a.Respond(context.Background(), ChatRequest{Message: "hi"})
	if !errors.Is(err, ErrUpstreamUnavailable) {
		t.Errorf("Respond() error = %v, want ErrUpstreamUnavailable", err)
	}
}

func TestRespond_MessageFlowCompletesAndSendsOnce(t *testing.T) {
	provider := &fakeProvider{reply: "should not be called"}
	dispatcher := &fakeDispatcher{}
	a := newTestAssistant(provider, dispatcher)

	history := []Turn{
		user("/message"),
		bot("email?"),
		user("sarah.recruiter@techcorp.com"),
		bot("message?"),
	}
	reply, err := a.Respond(context.Background(), ChatRequest{
		Message: "Hi Lawrence! Let's talk.",
		History: history,
	})
	if err != nil {
		t.Fatalf("Respond() error = %v", err)
	}
	if !reply.ContactSent {
		t.Error("ContactSent = false")
	}
	if !reply.UserEmailSent {
		t.Error("UserEmailSent = false on successful dispatch")
	}
	if len(dispatcher.sent) != 1 {
		t.Fatalf("dispatched %d emails, want exactly 1", len(dispatcher.sent))
	}
	sent := dispatcher.sent[0]
	if sent.To != "lawrence@example.com" {
		t.Errorf("email To = %q, want the owner", sent.To)
	}
	if !strings.Contains(sent.HTML, "sarah.recruiter@techcorp.com") {
		t.Error("email missing the visitor's address")
	}
	if !strings.Contains(sent.HTML, "Hi Lawrence! Let") {
		t.Error("email missing the message body")
	}
	if provider.gotCalls != 0 {
		t.Errorf("provider calls = %d, flow turns must not hit the LLM", provider.gotCalls)
	}
}

func TestRespond_MailFailureIsSoft(t *testing.T) {
	dispatcher := &fakeDispatcher{err: errors.New("rate limited")}
	a := newTestAssistant(&fakeProvider{}, dispatcher)

	history := []Turn{
		user("/message"),
		bot("email?"),
		user("a@b.co"),
		bot("message?"),
	}
	reply, err := a.Respond(context.Background(), ChatRequest{
		Message: "Hello!",
		History: history,
	})
	if err != nil {
		t.Fatalf("Respond() error = %v, mail failure must not fail the request", err)
	}
	if !reply.ContactSent {
		t.Error("ContactSent = false, the flow still completed")
	}
	if reply.UserEmailSent {
		t.Error("UserEmailSent = true despite dispatch failure")
	}
}

func TestRespond_MeetingFlowThreeTurnsNoEmail(t *testing.T) {
	dispatcher := &fakeDispatcher{}
	a := newTestAssistant(&fakeProvider{}, dispatcher)

	history := []Turn{
		user("/meeting"),
		bot("email?"),
		user("a@b.co"),
		bot("about?"),
	}
	reply, err := a.Respond(context.Background(), ChatRequest{
		Message: "Backend role intro",
		History: history,
	})
	if err != nil {
		t.Fatalf("Respond() error = %v", err)
	}
	if reply.MeetingRequested {
		t.Error("MeetingRequested = true before the datetime slot")
	}
	if len(dispatcher.sent) != 0 {
		t.Errorf("dispatched %d emails before the flow completed", len(dispatcher.sent))
	}
}

func TestRespond_MeetingFlowCompletes(t *testing.T) {
	dispatcher := &fakeDispatcher{}
	a := newTestAssistant(&fakeProvider{}, dispatcher)

	history := []Turn{
		user("/meeting"),
		bot("email?"),
		user("a@b.co"),
		bot("about?"),
		user("Backend role intro"),
		bot("when?"),
	}
	reply, err := a.Respond(context.Background(), ChatRequest{
		Message: "Friday morning",
		History: history,
	})
	if err != nil {
		t.Fatalf("Respond() error = %v", err)
	}
	if !reply.MeetingRequested {
		t.Error("MeetingRequested = false")
	}
	if len(dispatcher.sent) != 1 {
		t.Fatalf("dispatched %d emails, want 1", len(dispatcher.sent))
	}
	if !strings.Contains(dispatcher.sent[0].HTML, "Friday morning") {
		t.Error("meeting email missing the requested time")
	}
}

func TestRespond_OverrideBeforeProvider(t *testing.T) {
	provider := &fakeProvider{reply: "llm reply"}
	a := newTestAssistant(provider, &fakeDispatcher{})

	reply, err := a.Respond(context.Background(), ChatRequest{Message: "/help"})
	if err != nil {
		t.Fatalf("Respond() error = %v", err)
	}
	if !strings.Contains(reply.Response, "/message") {
		t.Errorf("Response = %q, want the help override", reply.Response)
	}
	if provider.gotCalls != 0 {
		t.Error("override turn reached the provider")
	}
}

func TestRespond_FileContentAppended(t *testing.T) {
	provider := &fakeProvider{reply: "looks like a solid match"}
	a := newTestAssistant(provider, &fakeDispatcher{})

	_, err := a.Respond(context.Background(), ChatRequest{
		Message: "does this role fit?",
		Files: []extract.File{
			{Name: "jd.txt", Data: []byte("Senior Go engineer, Berlin")},
		},
	})
	if err != nil {
		t.Fatalf("Respond() error = %v", err)
	}
	userMsg := provider.gotMsgs[len(provider.gotMsgs)-1].Content
	if !strings.Contains(userMsg, "File content from jd.txt:") {
		t.Errorf("user message missing file block: %q", userMsg)
	}
	if !strings.Contains(userMsg, "Senior Go engineer, Berlin") {
		t.Errorf("user message missing file text: %q", userMsg)
	}
}

func TestRespond_BadPDFStillSucceeds(t *testing.T) {
	provider := &fakeProvider{reply: "no worries, paste it in"}
	a := newTestAssistant(provider, &fakeDispatcher{})

	reply, err := a.Respond(context.Background(), ChatRequest{
		Message: "here's my resume",
		Files: []extract.File{
			{Name: "broken.pdf", Data: []byte("not a pdf at all")},
		},
	})
	if err != nil {
		t.Fatalf("Respond() error = %v, PDF failure must not fail the request", err)
	}
	if reply.Response == "" {
		t.Error("Response empty")
	}
	userMsg := provider.gotMsgs[len(provider.gotMsgs)-1].Content
	if !strings.Contains(userMsg, extract.PDFFailureMarker) {
		t.Errorf("user message missing the PDF fallback marker: %q", userMsg)
	}
}

func TestRespond_ReplayedCompletedHistoryDoesNotResend(t *testing.T) {
	dispatcher := &fakeDispatcher{}
	a := newTestAssistant(&fakeProvider{reply: "you're welcome!"}, dispatcher)

	history := []Turn{
		user("/message"),
		bot("email?"),
		user("a@b.co"),
		bot("message?"),
		user("Hi Lawrence!"),
		bot("sent!"),
	}
	reply, err := a.Respond(context.Background(), ChatRequest{
		Message: "thanks!",
		History: history,
	})
	if err != nil {
		t.Fatalf("Respond() error = %v", err)
	}
	if len(dispatcher.sent) != 0 {
		t.Errorf("replayed completed flow dispatched %d emails", len(dispatcher.sent))
	}
	if reply.ContactSent {
		t.Error("ContactSent = true on a replayed completed flow")
	}
}
