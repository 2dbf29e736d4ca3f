// Package google provides a Google Gemini client implementation for the
// oracle interface.
package google

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"mediroute/pkg/oracle"
)

// Client wraps the Google GenAI client to implement oracle.Client.
type Client struct {
	client *genai.Client
	apiKey string
	model  string
}

// NewClient creates a raw Gemini client; middleware is applied at a higher
// level. Client creation needs a context, so it is deferred to first use.
func NewClient(apiKey, model string) oracle.Client {
	return &Client{
		apiKey: apiKey,
		model:  model,
	}
}

// Complete implements the oracle.Client interface.
func (g *Client) Complete(ctx context.Context, in oracle.Request) (oracle.Response, error) {
	if g.client == nil {
		client, err := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  g.apiKey,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			return oracle.Response{}, oracle.WrapError("complete", oracle.ErrorTypeAuth,
				fmt.Errorf("failed to create Gemini client: %w", err))
		}
		g.client = client
	}

	contents, systemInstruction, err := convertMessages(in.Messages)
	if err != nil {
		return oracle.Response{}, oracle.WrapError("complete", oracle.ErrorTypeBadPrompt, err)
	}

	temperature := in.Temperature
	config := &genai.GenerateContentConfig{
		Temperature:     &temperature,
		MaxOutputTokens: int32(in.MaxTokens),
	}

	if systemInstruction != "" {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: systemInstruction}},
		}
	}

	// Gemini supports schema-constrained JSON output natively.
	if in.ResponseFormat != nil {
		config.ResponseMIMEType = "application/json"
		config.ResponseSchema = convertSchema(in.ResponseFormat.Schema)
	}

	if len(in.Tools) > 0 {
		config.Tools = []*genai.Tool{
			{FunctionDeclarations: convertTools(in.Tools)},
		}
		// Gemini may return empty responses when not forced to use tools,
		// so mode ANY ensures it always calls one of the provided tools.
		config.ToolConfig = &genai.ToolConfig{
			FunctionCallingConfig: &genai.FunctionCallingConfig{
				Mode: genai.FunctionCallingConfigModeAny,
			},
		}
	}

	result, err := g.client.Models.GenerateContent(ctx, g.model, contents, config)
	if err != nil {
		return oracle.Response{}, oracle.WrapError("complete", oracle.ErrorTypeUnknown, err)
	}
	if result == nil {
		return oracle.Response{}, oracle.WrapError("complete", oracle.ErrorTypeEmptyResponse,
			fmt.Errorf("empty response from Gemini API"))
	}

	response := oracle.Response{
		Content:    result.Text(),
		StopReason: "end_turn",
	}
	if result.UsageMetadata != nil {
		response.Usage = oracle.Usage{
			PromptTokens:     int(result.UsageMetadata.PromptTokenCount),
			CompletionTokens: int(result.UsageMetadata.CandidatesTokenCount),
		}
	}

	if functionCalls := result.FunctionCalls(); len(functionCalls) > 0 {
		response.ToolCalls = convertFunctionCalls(functionCalls)
	}

	return response, nil
}

// Stream implements the oracle.Client interface by draining a Complete call.
func (g *Client) Stream(ctx context.Context, in oracle.Request) (<-chan oracle.StreamChunk, error) {
	ch := make(chan oracle.StreamChunk, 2)
	go func() {
		defer close(ch)
		resp, err := g.Complete(ctx, in)
		if err != nil {
			ch <- oracle.StreamChunk{Error: err}
			return
		}
		ch <- oracle.StreamChunk{Content: resp.Content}
		ch <- oracle.StreamChunk{Done: true}
	}()
	return ch, nil
}

// ModelName returns the model name for this client.
func (g *Client) ModelName() string {
	return g.model
}

// convertMessages converts messages to Gemini Content format, extracting
// system messages into a system instruction.
func convertMessages(messages []oracle.Message) ([]*genai.Content, string, error) {
	if len(messages) == 0 {
		return nil, "", fmt.Errorf("message list cannot be empty")
	}

	var systemInstruction string
	var contents []*genai.Content
	for i := range messages {
		msg := &messages[i]

		if msg.Role == oracle.RoleSystem {
			if systemInstruction != "" {
				systemInstruction += "\n\n" + msg.Content
			} else {
				systemInstruction = msg.Content
			}
			continue
		}

		var role string
		switch msg.Role {
		case oracle.RoleUser, oracle.RoleTool:
			role = "user"
		case oracle.RoleAssistant:
			role = "model" // Gemini uses "model" instead of "assistant"
		default:
			return nil, "", fmt.Errorf("unsupported message role: %s", msg.Role)
		}

		if msg.Content == "" {
			continue
		}
		contents = append(contents, &genai.Content{
			Role:  role,
			Parts: []*genai.Part{{Text: msg.Content}},
		})
	}

	return contents, systemInstruction, nil
}

func convertTools(defs []oracle.ToolDefinition) []*genai.FunctionDeclaration {
	declarations := make([]*genai.FunctionDeclaration, len(defs))
	for i := range defs {
		tool := &defs[i]
		declarations[i] = &genai.FunctionDeclaration{
			Name:        tool.Name,
			Description: tool.Description,
			Parameters:  convertSchema(tool.InputSchema),
		}
	}
	return declarations
}

func convertSchema(schema oracle.Schema) *genai.Schema {
	out := &genai.Schema{
		Type:     genai.TypeObject,
		Required: schema.Required,
	}
	if len(schema.Properties) > 0 {
		properties := make(map[string]*genai.Schema, len(schema.Properties))
		for name := range schema.Properties {
			prop := schema.Properties[name]
			properties[name] = convertProperty(&prop)
		}
		out.Properties = properties
	}
	return out
}

func convertProperty(prop *oracle.Property) *genai.Schema {
	schema := &genai.Schema{
		Description: prop.Description,
	}

	switch prop.Type {
	case "string":
		schema.Type = genai.TypeString
	case "number":
		schema.Type = genai.TypeNumber
	case "integer":
		schema.Type = genai.TypeInteger
	case "boolean":
		schema.Type = genai.TypeBoolean
	case "array":
		schema.Type = genai.TypeArray
		if prop.Items != nil {
			schema.Items = convertProperty(prop.Items)
		}
	case "object":
		schema.Type = genai.TypeObject
		if prop.Properties != nil {
			properties := make(map[string]*genai.Schema)
			for name := range prop.Properties {
				child := prop.Properties[name]
				properties[name] = convertProperty(&child)
			}
			schema.Properties = properties
		}
		schema.Required = prop.Required
	default:
		schema.Type = genai.TypeString
	}

	if len(prop.Enum) > 0 {
		schema.Enum = prop.Enum
	}

	return schema
}

func convertFunctionCalls(calls []*genai.FunctionCall) []oracle.ToolCall {
	toolCalls := make([]oracle.ToolCall, len(calls))
	for i := range calls {
		call := calls[i]
		// Gemini does not always provide call IDs, so fall back to the
		// function name for response matching.
		id := call.ID
		if id == "" {
			id = call.Name
		}
		toolCalls[i] = oracle.ToolCall{
			ID:         id,
			Name:       call.Name,
			Parameters: call.Args,
		}
	}
	return toolCalls
}
