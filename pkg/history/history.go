// Package history keeps the per-session conversation transcript. The
// transcript is append-only: stages add messages, nothing ever rewrites or
// truncates what was said. Prompt construction applies a token budget over
// the most recent messages instead.
package history

import (
	"mediroute/pkg/oracle"
)

// Message is one transcript entry. Agent-authored messages carry the stage
// that produced them.
type Message struct {
	Role    oracle.Role `json:"role"`
	Stage   string      `json:"stage,omitempty"`
	Content string      `json:"content"`
}

// History is the ordered, append-only message sequence for one session.
// Not safe for concurrent use; the session lock serializes access.
type History struct {
	counter  *TokenCounter
	messages []Message
}

// New creates an empty history.
func New() *History {
	return &History{counter: NewTokenCounter()}
}

// AppendPatient records a patient-authored message.
func (h *History) AppendPatient(content string) {
	h.messages = append(h.messages, Message{Role: oracle.RoleUser, Content: content})
}

// AppendAgent records an agent-authored message tagged with its stage.
func (h *History) AppendAgent(stage, content string) {
	h.messages = append(h.messages, Message{Role: oracle.RoleAssistant, Stage: stage, Content: content})
}

// Len returns the number of recorded messages.
func (h *History) Len() int {
	return len(h.messages)
}

// Messages returns a copy of the transcript in order.
func (h *History) Messages() []Message {
	out := make([]Message, len(h.messages))
	copy(out, h.messages)
	return out
}

// LastAgentFrom returns the most recent message authored by the given stage.
func (h *History) LastAgentFrom(stage string) (Message, bool) {
	for i := len(h.messages) - 1; i >= 0; i-- {
		if h.messages[i].Role == oracle.RoleAssistant && h.messages[i].Stage == stage {
			return h.messages[i], true
		}
	}
	return Message{}, false
}

// LastPatient returns the most recent patient-authored message.
func (h *History) LastPatient() (Message, bool) {
	for i := len(h.messages) - 1; i >= 0; i-- {
		if h.messages[i].Role == oracle.RoleUser {
			return h.messages[i], true
		}
	}
	return Message{}, false
}

// PromptMessages converts the transcript into oracle messages, keeping the
// most recent messages that fit the token budget. The newest message is
// always included even if it alone exceeds the budget. A budget of zero or
// less means no limit.
func (h *History) PromptMessages(tokenBudget int) []oracle.Message {
	if len(h.messages) == 0 {
		return nil
	}

	start := 0
	if tokenBudget > 0 {
		used := 0
		start = len(h.messages)
		for i := len(h.messages) - 1; i >= 0; i-- {
			cost := h.counter.Count(h.messages[i].Content)
			if used+cost > tokenBudget && start < len(h.messages) {
				break
			}
			used += cost
			start = i
		}
	}

	out := make([]oracle.Message, 0, len(h.messages)-start)
	for _, m := range h.messages[start:] {
		out = append(out, oracle.Message{Role: m.Role, Content: m.Content})
	}
	return out
}
