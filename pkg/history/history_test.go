package history

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mediroute/pkg/oracle"
)

func TestAppendPreservesOrder(t *testing.T) {
	h := New()
	h.AppendPatient("I have chest pain")
	h.AppendAgent("orchestrator", "Where are you located?")
	h.AppendPatient("Makati")

	msgs := h.Messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, oracle.RoleUser, msgs[0].Role)
	assert.Equal(t, "orchestrator", msgs[1].Stage)
	assert.Equal(t, "Makati", msgs[2].Content)
}

func TestMessagesReturnsCopy(t *testing.T) {
	h := New()
	h.AppendPatient("hello")

	msgs := h.Messages()
	msgs[0].Content = "tampered"

	assert.Equal(t, "hello", h.Messages()[0].Content)
}

func TestLastAgentFrom(t *testing.T) {
	h := New()
	h.AppendAgent("orchestrator", "first")
	h.AppendAgent("verify", "verified")
	h.AppendAgent("orchestrator", "second")

	m, ok := h.LastAgentFrom("orchestrator")
	require.True(t, ok)
	assert.Equal(t, "second", m.Content)

	_, ok = h.LastAgentFrom("report")
	assert.False(t, ok)
}

func TestLastPatient(t *testing.T) {
	h := New()
	_, ok := h.LastPatient()
	assert.False(t, ok)

	h.AppendPatient("first")
	h.AppendAgent("orchestrator", "reply")
	h.AppendPatient("second")

	m, ok := h.LastPatient()
	require.True(t, ok)
	assert.Equal(t, "second", m.Content)
}

func TestPromptMessagesNoBudgetKeepsAll(t *testing.T) {
	h := New()
	h.AppendPatient("one")
	h.AppendAgent("orchestrator", "two")

	msgs := h.PromptMessages(0)
	require.Len(t, msgs, 2)
	assert.Equal(t, oracle.RoleAssistant, msgs[1].Role)
}

func TestPromptMessagesDropsOldestFirst(t *testing.T) {
	h := New()
	h.AppendPatient(strings.Repeat("old words in a long message ", 200))
	h.AppendAgent("orchestrator", "short reply")
	h.AppendPatient("newest")

	msgs := h.PromptMessages(50)
	require.NotEmpty(t, msgs)
	// Newest message survives; the oversized oldest one is cut.
	assert.Equal(t, "newest", msgs[len(msgs)-1].Content)
	assert.Less(t, len(msgs), 3)
}

func TestPromptMessagesAlwaysIncludesNewest(t *testing.T) {
	h := New()
	h.AppendPatient(strings.Repeat("enormous ", 500))

	msgs := h.PromptMessages(10)
	require.Len(t, msgs, 1)
}

func TestTokenCounterCountsSomething(t *testing.T) {
	tc := NewTokenCounter()
	assert.Greater(t, tc.Count("the quick brown fox jumps over the lazy dog"), 5)
	assert.Equal(t, 0, tc.Count(""))
}
