// assistant.go is the orchestrator. Request flow:
// file extraction → intent overrides → command flow → prompt budget →
// completion provider → reply, with email dispatch on flow completion.
package assistant

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lawrencechen/folio/pkg/folio/analytics"
	"github.com/lawrencechen/folio/pkg/folio/extract"
	"github.com/lawrencechen/folio/pkg/folio/mail"
)

// Assistant is the conversational engine. All collaborators are injected at
// construction, live for the process lifetime and are never mutated
// per-request; requests share nothing else and may run fully in parallel.
type Assistant struct {
	cfg       *Config
	provider  CompletionProvider
	mailer    mail.Dispatcher
	events    *analytics.Store
	overrides []OverrideRule
	logger    *slog.Logger
}

// New creates an Assistant with all dependencies. events may be nil when
// analytics is disabled.
func New(cfg *Config, provider CompletionProvider, mailer mail.Dispatcher, events *analytics.Store, logger *slog.Logger) *Assistant {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Assistant{
		cfg:       cfg,
		provider:  provider,
		mailer:    mailer,
		events:    events,
		overrides: defaultOverrides(cfg.Persona.Owner, cfg.Persona.ResumeURL),
		logger:    logger.With("component", "assistant"),
	}
}

// Respond handles one chat request to completion. File extraction happens
// before prompt assembly; the provider call is the only other blocking step.
func (a *Assistant) Respond(ctx context.Context, req ChatRequest) (ChatReply, error) {
	start := time.Now()
	message := a.applyFiles(req.Message, req.Files)

	// Overrides run before the flow engine and the provider, and match on the
	// raw message: appended file content must not trip a keyword rule.
	if response, ok := matchOverride(a.overrides, req.Message, req.History); ok {
		a.record(analytics.EventChat, "override response", clip(req.Message, 120))
		return ChatReply{Response: response}, nil
	}

	if reply, result, handled := AdvanceFlow(req.History, message); handled {
		out := ChatReply{Response: reply}
		if result != nil {
			out.UserEmailSent = a.dispatchResult(ctx, result)
			switch result.Kind {
			case FlowMessage:
				out.ContactSent = true
				a.record(analytics.EventContactSent,
					fmt.Sprintf("message from %s", result.RecipientEmail), clip(result.Body, 200))
			case FlowMeeting:
				out.MeetingRequested = true
				a.record(analytics.EventMeetingSent,
					fmt.Sprintf("meeting request from %s", result.RecipientEmail), clip(result.Body, 200))
			}
		}
		a.logger.Info("flow turn handled",
			"completed", result != nil,
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return out, nil
	}

	// Free chat: protect an in-progress flow's turns from history truncation.
	protect := -1
	if state := DeriveFlowState(req.History); state.Stage != StageIdle && state.Stage != StageCompleted {
		protect = state.TriggerIndex
	}
	messages := BuildMessages(a.cfg.TokenBudget, a.cfg.Persona.SystemPrompt, req.History, message, protect)

	response, err := a.provider.Complete(ctx, messages)
	if err != nil {
		a.logger.Error("completion failed", "error", err)
		return ChatReply{}, err
	}
	if response == "" {
		response = emptyReplyFallback
	}

	a.record(analytics.EventChat, "chat turn", clip(req.Message, 120))
	a.logger.Info("chat turn handled",
		"history_turns", len(req.History),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return ChatReply{Response: response}, nil
}

// applyFiles appends each uploaded file's extracted text to the message.
// Every extraction failure degrades to a marker block so the request itself
// never fails on a bad upload; the DOCX typed error is softened here, the
// PDF marker already comes from the extractor.
func (a *Assistant) applyFiles(message string, files []extract.File) string {
	for _, f := range files {
		text, err := extract.Extract(f)
		if err != nil {
			a.logger.Warn("file extraction failed", "file", f.Name, "error", err)
			a.record(analytics.EventExtractFailed, f.Name, err.Error())
			text = fmt.Sprintf("[The attached file %s could not be read. Ask the visitor to paste the relevant text directly.]", f.Name)
		}
		message = extract.AppendToMessage(message, f.Name, text)
	}
	return message
}

// dispatchResult sends the completed flow's email exactly once. A send
// failure is soft: the flow stays completed and the caller reports
// userEmailSent=false.
func (a *Assistant) dispatchResult(ctx context.Context, result *FlowResult) bool {
	if a.mailer == nil {
		return false
	}

	var (
		email mail.Email
		err   error
	)
	switch result.Kind {
	case FlowMeeting:
		email, err = mail.RenderMeetingRequest(result.RecipientEmail, result.Body, result.ScheduledAt)
	default:
		email, err = mail.RenderContactMessage(result.RecipientEmail, result.Body)
	}
	if err != nil {
		a.logger.Error("rendering flow email failed", "kind", result.Kind, "error", err)
		return false
	}
	email.To = a.cfg.Mail.OwnerEmail

	if _, err := a.mailer.Send(ctx, email); err != nil {
		a.logger.Error("flow email dispatch failed",
			"kind", result.Kind,
			"from", result.RecipientEmail,
			"error", err,
		)
		return false
	}
	return true
}

func (a *Assistant) record(kind analytics.EventKind, summary, detail string) {
	if a.events == nil {
		return
	}
	a.events.Record(kind, summary, detail)
}
