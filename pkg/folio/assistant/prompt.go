// prompt.go assembles the provider-bound message list within the token
// budget: system prompt first, then as much history as fits (newest first),
// then the user's own message, which is never truncated.
package assistant

import (
	"github.com/lawrencechen/folio/pkg/folio/tokens"
)

// BuildMessages produces the role-tagged [system, ...history, user] list.
//
// The system prompt is truncated first when the budget is violated. History
// is the last resort: oldest turns are dropped first, but turns at or after
// protectFrom (the active flow's trigger index, -1 for none) are always
// kept, since dropping them would corrupt flow reconstruction.
func BuildMessages(budget TokenBudgetConfig, systemPrompt string, history []Turn, userMessage string, protectFrom int) []ChatMessage {
	available := budget.Ceiling - budget.ResponseReserve - tokens.Estimate(userMessage)
	if available < 0 {
		available = 0
	}

	systemBudget := budget.SystemPrompt
	if systemBudget > available {
		systemBudget = available
	}
	system := tokens.Truncate(systemPrompt, tokens.BudgetFor(systemPrompt, systemBudget))

	historyBudget := available - tokens.Estimate(system)
	start := historyStart(history, historyBudget, protectFrom)

	messages := make([]ChatMessage, 0, len(history)-start+2)
	if system != "" {
		messages = append(messages, ChatMessage{Role: "system", Content: system})
	}
	for _, turn := range history[start:] {
		messages = append(messages, ChatMessage{Role: string(turn.Role), Content: turn.Content})
	}
	messages = append(messages, ChatMessage{Role: string(RoleUser), Content: userMessage})
	return messages
}

// historyStart picks the first history index to keep: walk backward from the
// newest turn accumulating estimates until the budget runs out, then widen
// to include protected turns.
func historyStart(history []Turn, budget, protectFrom int) int {
	start := len(history)
	used := 0
	for i := len(history) - 1; i >= 0; i-- {
		cost := tokens.Estimate(history[i].Content)
		if used+cost > budget {
			break
		}
		used += cost
		start = i
	}
	if protectFrom >= 0 && protectFrom < start {
		start = protectFrom
	}
	return start
}
