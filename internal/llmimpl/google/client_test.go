package google

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"mediroute/pkg/oracle"
)

func TestConvertMessagesExtractsSystemInstruction(t *testing.T) {
	contents, system, err := convertMessages([]oracle.Message{
		oracle.SystemMessage("triage router"),
		oracle.UserMessage("chest pain"),
		oracle.AssistantMessage("noted"),
	})
	require.NoError(t, err)
	assert.Equal(t, "triage router", system)
	require.Len(t, contents, 2)
	assert.Equal(t, "user", contents[0].Role)
	assert.Equal(t, "model", contents[1].Role)
}

func TestConvertMessagesConcatenatesSystemMessages(t *testing.T) {
	_, system, err := convertMessages([]oracle.Message{
		oracle.SystemMessage("first"),
		oracle.SystemMessage("second"),
		oracle.UserMessage("hello"),
	})
	require.NoError(t, err)
	assert.Equal(t, "first\n\nsecond", system)
}

func TestConvertMessagesToolResultsBecomeUserTurns(t *testing.T) {
	contents, _, err := convertMessages([]oracle.Message{
		oracle.UserMessage("verify"),
		oracle.ToolMessage("call_1", "policy active"),
	})
	require.NoError(t, err)
	require.Len(t, contents, 2)
	assert.Equal(t, "user", contents[1].Role)
}

func TestConvertSchemaMapsTypes(t *testing.T) {
	schema := convertSchema(oracle.ObjectSchema(map[string]oracle.Property{
		"severity":  {Type: "string", Enum: []string{"CRITICAL", "URGENT"}},
		"distance":  {Type: "number"},
		"services":  {Type: "array", Items: &oracle.Property{Type: "string"}},
		"dispatch":  {Type: "boolean"},
		"claim_cnt": {Type: "integer"},
	}, []string{"severity"}))

	assert.Equal(t, genai.TypeObject, schema.Type)
	assert.Equal(t, []string{"severity"}, schema.Required)
	assert.Equal(t, genai.TypeString, schema.Properties["severity"].Type)
	assert.Len(t, schema.Properties["severity"].Enum, 2)
	assert.Equal(t, genai.TypeNumber, schema.Properties["distance"].Type)
	assert.Equal(t, genai.TypeBoolean, schema.Properties["dispatch"].Type)
	assert.Equal(t, genai.TypeInteger, schema.Properties["claim_cnt"].Type)
	arr := schema.Properties["services"]
	assert.Equal(t, genai.TypeArray, arr.Type)
	require.NotNil(t, arr.Items)
	assert.Equal(t, genai.TypeString, arr.Items.Type)
}
