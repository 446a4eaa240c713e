package assistant

import (
	"strings"
	"testing"

	"github.com/lawrencechen/folio/pkg/folio/tokens"
)

var testBudget = TokenBudgetConfig{
	Ceiling:         8192,
	ResponseReserve: 1024,
	SystemPrompt:    2048,
}

func TestBuildMessages_Shape(t *testing.T) {
	history := []Turn{user("hi"), bot("hello!")}
	messages := BuildMessages(testBudget, "You are an assistant.", history, "what's up?", -1)

	if len(messages) != 4 {
		t.Fatalf("got %d messages, want 4", len(messages))
	}
	if messages[0].Role != "system" {
		t.Errorf("messages[0].Role = %q, want system", messages[0].Role)
	}
	if messages[1].Role != "user" || messages[2].Role != "assistant" {
		t.Errorf("history roles = %q, %q", messages[1].Role, messages[2].Role)
	}
	last := messages[len(messages)-1]
	if last.Role != "user" || last.Content != "what's up?" {
		t.Errorf("last message = %+v, want the user turn", last)
	}
}

func TestBuildMessages_TruncatesSystemPromptFirst(t *testing.T) {
	long := strings.Repeat("Persona details. ", 2000) // way past the system cap
	messages := BuildMessages(testBudget, long, nil, "hi", -1)

	system := messages[0]
	if system.Role != "system" {
		t.Fatalf("messages[0].Role = %q", system.Role)
	}
	if est := tokens.Estimate(system.Content); est > testBudget.SystemPrompt {
		t.Errorf("system prompt estimate = %d, exceeds cap %d", est, testBudget.SystemPrompt)
	}
	// User message survives untouched.
	if messages[len(messages)-1].Content != "hi" {
		t.Error("user message was altered")
	}
}

func TestBuildMessages_OversizeSystemPromptFallback(t *testing.T) {
	huge := strings.Repeat("a", tokens.OversizeSourceChars+1000)
	messages := BuildMessages(testBudget, huge, nil, "hi", -1)
	if est := tokens.Estimate(messages[0].Content); est > tokens.OversizeFallbackTokens {
		t.Errorf("system prompt estimate = %d, want oversize fallback <= %d", est, tokens.OversizeFallbackTokens)
	}
}

func TestBuildMessages_DropsOldestHistoryFirst(t *testing.T) {
	filler := strings.Repeat("x", 3500) // ~1000 tokens per turn
	history := []Turn{
		user("OLDEST " + filler),
		bot(filler),
		user(filler),
		bot(filler),
		user(filler),
		bot(filler),
		user(filler),
		bot("NEWEST " + filler),
	}
	budget := TokenBudgetConfig{Ceiling: 4096, ResponseReserve: 512, SystemPrompt: 256}
	messages := BuildMessages(budget, "persona", history, "latest question", -1)

	var joined strings.Builder
	for _, m := range messages {
		joined.WriteString(m.Content)
	}
	if strings.Contains(joined.String(), "OLDEST") {
		t.Error("oldest turn survived a budget that cannot hold the full history")
	}
	if !strings.Contains(joined.String(), "NEWEST") {
		t.Error("newest turn was dropped; truncation must drop oldest first")
	}
}

func TestBuildMessages_NeverDropsActiveFlowTurns(t *testing.T) {
	filler := strings.Repeat("x", 3500)
	history := []Turn{
		user(filler),
		bot(filler),
		user("/meeting"),
		bot("email?"),
		user("a@b.co"),
		bot(filler), // oversized slot prompt pushes the budget over
		user(filler),
	}
	budget := TokenBudgetConfig{Ceiling: 2048, ResponseReserve: 512, SystemPrompt: 128}
	messages := BuildMessages(budget, "persona", history, "latest", 2)

	var joined strings.Builder
	for _, m := range messages {
		joined.WriteString(m.Content)
		joined.WriteString("\n")
	}
	if !strings.Contains(joined.String(), "/meeting") {
		t.Error("the active flow's trigger turn was dropped")
	}
	if !strings.Contains(joined.String(), "a@b.co") {
		t.Error("the active flow's slot turn was dropped")
	}
}

func TestBuildMessages_EmptySystemPromptOmitted(t *testing.T) {
	messages := BuildMessages(testBudget, "", nil, "hi", -1)
	if len(messages) != 1 {
		t.Fatalf("got %d messages, want 1", len(messages))
	}
	if messages[0].Role != "user" {
		t.Errorf("messages[0].Role = %q", messages[0].Role)
	}
}
