package assistant

import (
	"regexp"
	"strings"
)

// FlowKind names a multi-turn command flow.
type FlowKind string

const (
	FlowMessage FlowKind = "message"
	FlowMeeting FlowKind = "meeting"
)

// Stage is the flow position re-derived from history on every request.
type Stage string

const (
	StageIdle             Stage = "IDLE"
	StageAwaitingEmail    Stage = "AWAITING_EMAIL"
	StageAwaitingBody     Stage = "AWAITING_BODY"
	StageAwaitingDateTime Stage = "AWAITING_DATETIME"
	StageCompleted        Stage = "COMPLETED"
)

// Trigger literals. A flow starts (or resets) when a user turn is exactly
// one of these, ignoring surrounding whitespace and case.
const (
	TriggerMessage = "/message"
	TriggerMeeting = "/meeting"
)

// emailPattern accepts the standard local@domain.tld shape. Anything looser
// (deliverability, MX checks) is out of scope: a syntactically valid but
// wrong address is accepted.
var emailPattern = regexp.MustCompile(`^[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}$`)

// FlowState is the reconstructed position of a command flow. Slot order is
// fixed: command → email → body → datetime (meeting only).
type FlowState struct {
	Stage Stage
	Kind  FlowKind
	Email string
	Body  string

	// TriggerIndex is the history index of the flow's trigger turn, or -1.
	// History truncation must never drop turns at or after this index.
	TriggerIndex int
}

// FlowResult is the terminal payload of a completed flow, handed to the
// email dispatcher exactly once.
type FlowResult struct {
	Kind           FlowKind
	RecipientEmail string
	Body           string
	ScheduledAt    string
}

// triggerKind returns the flow kind for a trigger literal, or "".
func triggerKind(message string) FlowKind {
	switch strings.ToLower(strings.TrimSpace(message)) {
	case TriggerMessage:
		return FlowMessage
	case TriggerMeeting:
		return FlowMeeting
	}
	return ""
}

// DeriveFlowState reconstructs the flow position from a replayed history.
//
// It walks forward from the last user turn that is a trigger literal,
// treating every later user turn as filling the next unfilled slot in order.
// Assistant turns in between are slot prompts and carry no state. Pure:
// identical histories always derive identical states.
func DeriveFlowState(history []Turn) FlowState {
	trigger := -1
	var kind FlowKind
	for i, turn := range history {
		if turn.Role != RoleUser {
			continue
		}
		if k := triggerKind(turn.Content); k != "" {
			trigger = i
			kind = k
		}
	}
	if trigger < 0 {
		return FlowState{Stage: StageIdle, TriggerIndex: -1}
	}

	state := FlowState{
		Stage:        StageAwaitingEmail,
		Kind:         kind,
		TriggerIndex: trigger,
	}
	for _, turn := range history[trigger+1:] {
		if turn.Role != RoleUser {
			continue
		}
		state = fillSlot(state, turn.Content)
	}
	return state
}

// fillSlot applies one user input to the next unfilled slot. Inputs that
// fail slot validation leave the state unchanged so the same slot is
// re-prompted.
func fillSlot(state FlowState, input string) FlowState {
	switch state.Stage {
	case StageAwaitingEmail:
		trimmed := strings.TrimSpace(input)
		if !emailPattern.MatchString(trimmed) {
			return state
		}
		state.Email = trimmed
		state.Stage = StageAwaitingBody

	case StageAwaitingBody:
		if strings.TrimSpace(input) == "" {
			return state
		}
		state.Body = input
		if state.Kind == FlowMeeting {
			state.Stage = StageAwaitingDateTime
		} else {
			state.Stage = StageCompleted
		}

	case StageAwaitingDateTime:
		if strings.TrimSpace(input) == "" {
			return state
		}
		state.Stage = StageCompleted
	}
	return state
}

// AdvanceFlow applies the new user message on top of the state derived from
// history. It returns the assistant's reply for flow turns, the FlowResult
// when this exact message fills the terminal slot, and handled=false when
// the message belongs to free chat instead.
//
// A trigger literal always starts its flow fresh, discarding any partially
// filled slots of a prior flow (last-trigger-wins). Replaying a completed
// history emits nothing: only the slot-filling message itself produces a
// FlowResult.
func AdvanceFlow(history []Turn, message string) (reply string, result *FlowResult, handled bool) {
	if kind := triggerKind(message); kind != "" {
		return emailPrompt(kind), nil, true
	}

	state := DeriveFlowState(history)
	switch state.Stage {
	case StageIdle, StageCompleted:
		return "", nil, false

	case StageAwaitingEmail:
		next := fillSlot(state, message)
		if next.Stage == StageAwaitingEmail {
			return emailRetryPrompt, nil, true
		}
		return bodyPrompt(state.Kind), nil, true

	case StageAwaitingBody:
		next := fillSlot(state, message)
		switch next.Stage {
		case StageAwaitingBody:
			return bodyRetryPrompt, nil, true
		case StageAwaitingDateTime:
			return dateTimePrompt, nil, true
		default:
			return messageConfirmation, &FlowResult{
				Kind:           FlowMessage,
				RecipientEmail: state.Email,
				Body:           message,
			}, true
		}

	case StageAwaitingDateTime:
		if strings.TrimSpace(message) == "" {
			return dateTimeRetryPrompt, nil, true
		}
		return meetingConfirmation, &FlowResult{
			Kind:           FlowMeeting,
			RecipientEmail: state.Email,
			Body:           state.Body,
			ScheduledAt:    message,
		}, true
	}

	return "", nil, false
}

// Slot prompts and confirmations. These are engine responses, not LLM
// output: flow turns never hit the completion provider.
const (
	emailRetryPrompt    = "Hmm, that doesn't look like a valid email address. Could you double-check it? Something like you@example.com works."
	bodyRetryPrompt     = "I didn't catch that — what would you like to say?"
	dateTimePrompt      = "Got it. When would work for you? Any format is fine, e.g. \"next Tuesday afternoon\" or \"March 3rd at 2pm\"."
	dateTimeRetryPrompt = "When would work for you? Any date and time format is fine."
	messageConfirmation = "Done — your message is on its way to Lawrence. He'll get back to you at the email you left. Anything else I can help with?"
	meetingConfirmation = "All set — I've sent your meeting request along. Lawrence will follow up by email to confirm a time. Anything else?"
)

func emailPrompt(kind FlowKind) string {
	if kind == FlowMeeting {
		return "Happy to set that up. What's the best email to reach you at?"
	}
	return "Sure — I'll pass a message along. What's your email address, so Lawrence can reply?"
}

func bodyPrompt(kind FlowKind) string {
	if kind == FlowMeeting {
		return "Thanks! What would you like to meet about?"
	}
	return "Thanks! What would you like to tell Lawrence?"
}
