package oracle

import "encoding/json"

// Property describes a single field in a JSON schema object.
type Property struct {
	Type        string              `json:"type"`
	Description string              `json:"description,omitempty"`
	Enum        []string            `json:"enum,omitempty"`
	Items       *Property           `json:"items,omitempty"`
	Properties  map[string]Property `json:"properties,omitempty"`
	Required    []string            `json:"required,omitempty"`
}

// Schema describes a JSON object schema for structured output or tool input.
type Schema struct {
	Type       string              `json:"type"`
	Properties map[string]Property `json:"properties"`
	Required   []string            `json:"required,omitempty"`
	// AdditionalProperties is pointered so that strict backends can
	// distinguish "unset" from an explicit false.
	AdditionalProperties *bool `json:"additionalProperties,omitempty"`
}

// ObjectSchema builds an object schema requiring every listed property.
func ObjectSchema(properties map[string]Property, required []string) Schema {
	strict := false
	return Schema{
		Type:                 "object",
		Properties:           properties,
		Required:             required,
		AdditionalProperties: &strict,
	}
}

// ToolDefinition describes a callable tool exposed to the model.
type ToolDefinition struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	InputSchema Schema `json:"input_schema"`
}

// ResponseSchema names a schema for native structured output (OpenAI
// json_schema response format, or emulation on other backends).
type ResponseSchema struct {
	Name   string
	Schema Schema
}

// AsMap renders the schema as a generic map for SDKs that accept raw
// JSON schema values.
func (s Schema) AsMap() map[string]any {
	raw, err := json.Marshal(s)
	if err != nil {
		return map[string]any{"type": "object"}
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return map[string]any{"type": "object"}
	}
	return out
}
