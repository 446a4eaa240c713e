// Package assistant implements the conversational engine behind the
// portfolio site: free chat against the LLM persona, the slot-filled
// /message and /meeting flows, intent overrides, and prompt budgeting.
//
// The engine holds no session state. Every request carries the full
// conversation history and the flow position is re-derived from it.
package assistant

import (
	"encoding/json"
	"errors"

	"github.com/lawrencechen/folio/pkg/folio/extract"
)

// Role tags a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is a single conversation turn. The history is append-only and
// client-owned; the server never stores it.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// UnmarshalJSON accepts both the wire shape {role, content} and the older
// client shape {text, isUser}.
func (t *Turn) UnmarshalJSON(data []byte) error {
	var wire struct {
		Role    string `json:"role"`
		Content string `json:"content"`
		Text    string `json:"text"`
		IsUser  *bool  `json:"isUser"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	if wire.IsUser != nil {
		t.Content = wire.Text
		if *wire.IsUser {
			t.Role = RoleUser
		} else {
			t.Role = RoleAssistant
		}
		return nil
	}

	t.Content = wire.Content
	switch wire.Role {
	case "assistant", "system":
		t.Role = RoleAssistant
	default:
		t.Role = RoleUser
	}
	return nil
}

// ChatRequest is one inbound assistant request.
type ChatRequest struct {
	Message string
	History []Turn
	Files   []extract.File
}

// ChatReply is the assembled response plus flow side-effect flags.
type ChatReply struct {
	Response         string `json:"response"`
	ContactSent      bool   `json:"contactSent"`
	MeetingRequested bool   `json:"meetingRequested"`
	UserEmailSent    bool   `json:"userEmailSent"`
}

// ErrUpstreamUnavailable wraps any completion-provider failure. Handlers map
// it to a non-2xx response; it is never retried silently.
var ErrUpstreamUnavailable = errors.New("completion provider unavailable")

// emptyReplyFallback is returned when the provider answers with empty
// content, so the chat UI always has something renderable.
const emptyReplyFallback = "Sorry, I lost my train of thought there. Could you ask that again?"
