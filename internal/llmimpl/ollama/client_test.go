package ollama

import (
	"testing"

	"github.com/ollama/ollama/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mediroute/pkg/oracle"
)

func TestConvertMessagesPreservesRolesAndToolIDs(t *testing.T) {
	msgs, err := convertMessages([]oracle.Message{
		oracle.SystemMessage("triage router"),
		oracle.UserMessage("chest pain"),
		oracle.ToolMessage("call_1", "policy active"),
	})
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	assert.Equal(t, "system", msgs[0].Role)
	assert.Equal(t, "user", msgs[1].Role)
	assert.Equal(t, "tool", msgs[2].Role)
	assert.Equal(t, "call_1", msgs[2].ToolCallID)
}

func TestConvertMessagesRejectsEmpty(t *testing.T) {
	_, err := convertMessages(nil)
	require.Error(t, err)
}

func TestConvertToolsCarriesEnumsAndRequired(t *testing.T) {
	tools := convertTools([]oracle.ToolDefinition{{
		Name:        "generate_loa",
		Description: "Issue a letter of authorization",
		InputSchema: oracle.ObjectSchema(map[string]oracle.Property{
			"chosen_hospital": {Type: "string"},
			"severity":        {Type: "string", Enum: []string{"CRITICAL", "URGENT", "MODERATE"}},
		}, []string{"chosen_hospital"}),
	}})

	require.Len(t, tools, 1)
	fn := tools[0].Function
	assert.Equal(t, "generate_loa", fn.Name)
	assert.Equal(t, []string{"chosen_hospital"}, fn.Parameters.Required)
	sev, ok := fn.Parameters.Properties.Get("severity")
	require.True(t, ok)
	assert.Len(t, sev.Enum, 3)
}

func TestStopReasonMapping(t *testing.T) {
	assert.Equal(t, "incomplete", stopReason(&api.ChatResponse{Done: false}))
	assert.Equal(t, "end_turn", stopReason(&api.ChatResponse{Done: true, DoneReason: "stop"}))
	assert.Equal(t, "end_turn", stopReason(&api.ChatResponse{Done: true}))
	assert.Equal(t, "max_tokens", stopReason(&api.ChatResponse{Done: true, DoneReason: "length"}))
	assert.Equal(t, "tool_calls", stopReason(&api.ChatResponse{Done: true, DoneReason: "tool_calls"}))
}
