package assistant

import "strings"

// OverrideRule short-circuits the pipeline for a recognized input before the
// flow engine or the completion provider run. Rules are evaluated in order;
// the first match wins. A rule must be side-effect free beyond its own
// response and must not consume or advance slot-filling state.
type OverrideRule struct {
	Name    string
	Matcher func(message string, history []Turn) bool
	Respond func(message string, history []Turn) string
}

// matchOverride returns the first matching rule's response.
func matchOverride(rules []OverrideRule, message string, history []Turn) (string, bool) {
	for _, rule := range rules {
		if rule.Matcher(message, history) {
			return rule.Respond(message, history), true
		}
	}
	return "", false
}

// defaultOverrides builds the built-in rule list for an owner name and
// resume URL. Order matters: /help must come before the looser matchers.
func defaultOverrides(ownerName, resumeURL string) []OverrideRule {
	contains := func(substrings ...string) func(string, []Turn) bool {
		return func(message string, _ []Turn) bool {
			lower := strings.ToLower(message)
			for _, s := range substrings {
				if strings.Contains(lower, s) {
					return true
				}
			}
			return false
		}
	}
	exact := func(literal string) func(string, []Turn) bool {
		return func(message string, _ []Turn) bool {
			return strings.EqualFold(strings.TrimSpace(message), literal)
		}
	}
	canned := func(text string) func(string, []Turn) string {
		return func(_ string, _ []Turn) string { return text }
	}

	return []OverrideRule{
		{
			Name:    "help",
			Matcher: exact("/help"),
			Respond: canned("You can just chat with me about " + ownerName + "'s work, or use a command:\n" +
				"/message — leave " + ownerName + " a message\n" +
				"/meeting — request a meeting\n" +
				"You can also attach a .txt, .pdf or .docx file and I'll read it."),
		},
		{
			Name:    "resume",
			Matcher: contains("resume", "your cv", " cv?"),
			Respond: canned("You can grab " + ownerName + "'s resume here: " + resumeURL +
				" — or attach a job description and I'll tell you how his experience lines up."),
		},
		{
			Name:    "are-you-human",
			Matcher: contains("are you human", "are you real", "are you a real person", "are you a bot"),
			Respond: canned("I'm an assistant that lives on " + ownerName + "'s site — not the man himself. " +
				"If you'd like to reach the real " + ownerName + ", try /message or /meeting."),
		},
		{
			Name:    "pod-bay-doors",
			Matcher: contains("open the pod bay doors"),
			Respond: canned("I'm sorry, Dave. I'm afraid I can't do that. I can, however, pass along a message with /message."),
		},
		{
			Name:    "sudo",
			Matcher: func(message string, _ []Turn) bool {
				return strings.HasPrefix(strings.TrimSpace(strings.ToLower(message)), "sudo ")
			},
			Respond: canned("Nice try. This incident will be reported (to no one)."),
		},
	}
}
