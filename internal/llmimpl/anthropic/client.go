// Package anthropic provides an Anthropic Claude client implementation
// for the oracle interface.
package anthropic

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"mediroute/pkg/oracle"
)

// Client wraps the Anthropic API client to implement oracle.Client.
type Client struct {
	client anthropic.Client
	model  anthropic.Model
}

// NewClient creates a raw Claude client; middleware is applied at a higher level.
func NewClient(apiKey, model string) oracle.Client {
	return &Client{
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:  anthropic.Model(model),
	}
}

// ensureAlternation prepares messages for Anthropic API requirements:
// system messages move to the top-level system parameter, consecutive
// non-assistant messages merge into single user messages, and the
// sequence must end with a user message.
func ensureAlternation(messages []oracle.Message) (systemPrompt string, alternating []oracle.Message, err error) {
	if len(messages) == 0 {
		return "", nil, fmt.Errorf("message list cannot be empty")
	}

	var systemParts []string
	var rest []oracle.Message
	for i := range messages {
		msg := &messages[i]
		if msg.Role == oracle.RoleSystem {
			systemParts = append(systemParts, msg.Content)
		} else {
			rest = append(rest, *msg)
		}
	}
	systemPrompt = strings.Join(systemParts, "\n\n")

	if len(rest) == 0 {
		return "", nil, fmt.Errorf("must have at least one non-system message")
	}

	// Merge consecutive non-assistant messages. Tool results become user
	// content since the emulated tool loop resubmits them as text.
	var merged []oracle.Message
	var userParts []string
	flush := func() {
		if len(userParts) > 0 {
			merged = append(merged, oracle.Message{
				Role:    oracle.RoleUser,
				Content: strings.Join(userParts, "\n\n"),
			})
			userParts = nil
		}
	}
	for i := range rest {
		msg := &rest[i]
		if msg.Role == oracle.RoleAssistant {
			flush()
			merged = append(merged, *msg)
		} else {
			userParts = append(userParts, msg.Content)
		}
	}
	flush()

	for i := range merged {
		if i > 0 && merged[i].Role == merged[i-1].Role {
			return "", nil, fmt.Errorf("alternation violation at index %d: consecutive %s messages", i, merged[i].Role)
		}
	}
	if merged[0].Role != oracle.RoleUser {
		return "", nil, fmt.Errorf("first message must be user role, got: %s", merged[0].Role)
	}
	if merged[len(merged)-1].Role != oracle.RoleUser {
		return "", nil, fmt.Errorf("last message must be user role, got: %s", merged[len(merged)-1].Role)
	}

	return systemPrompt, merged, nil
}

// Complete implements the oracle.Client interface.
func (c *Client) Complete(ctx context.Context, in oracle.Request) (oracle.Response, error) {
	systemPrompt, alternating, err := ensureAlternation(in.Messages)
	if err != nil {
		return oracle.Response{}, oracle.WrapError("complete", oracle.ErrorTypeBadPrompt, err)
	}

	messages := make([]anthropic.MessageParam, 0, len(alternating))
	for i := range alternating {
		msg := &alternating[i]
		messages = append(messages, anthropic.MessageParam{
			Role:    anthropic.MessageParamRole(msg.Role),
			Content: []anthropic.ContentBlockParamUnion{anthropic.NewTextBlock(msg.Content)},
		})
	}

	params := anthropic.MessageNewParams{
		Model:       c.model,
		Messages:    messages,
		MaxTokens:   int64(in.MaxTokens),
		Temperature: anthropic.Float(float64(in.Temperature)),
	}
	if systemPrompt != "" {
		params.System = []anthropic.TextBlockParam{{Text: systemPrompt, Type: "text"}}
	}

	tools := in.Tools
	toolChoice := in.ToolChoice

	// Claude has no native JSON schema response format. Emulate it by
	// forcing a single tool whose input schema is the response schema;
	// the tool input comes back as the structured payload.
	structuredTool := ""
	if in.ResponseFormat != nil {
		structuredTool = in.ResponseFormat.Name
		tools = []oracle.ToolDefinition{{
			Name:        structuredTool,
			Description: "Record the structured result.",
			InputSchema: in.ResponseFormat.Schema,
		}}
		toolChoice = structuredTool
	}

	if len(tools) > 0 {
		var toolParams []anthropic.ToolUnionParam
		for i := range tools {
			tool := &tools[i]
			toolParams = append(toolParams, anthropic.ToolUnionParamOfTool(anthropic.ToolInputSchemaParam{
				Type:       "object",
				Properties: toolProperties(tool.InputSchema),
				Required:   tool.InputSchema.Required,
			}, tool.Name))
		}
		params.Tools = toolParams

		switch toolChoice {
		case "", "auto":
			params.ToolChoice = anthropic.ToolChoiceUnionParam{
				OfAuto: &anthropic.ToolChoiceAutoParam{},
			}
		case "required":
			params.ToolChoice = anthropic.ToolChoiceUnionParam{
				OfAny: &anthropic.ToolChoiceAnyParam{},
			}
		default:
			params.ToolChoice = anthropic.ToolChoiceUnionParam{
				OfTool: &anthropic.ToolChoiceToolParam{Name: toolChoice},
			}
		}
	}

	resp, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return oracle.Response{}, oracle.WrapError("complete", classify(err), err)
	}
	if resp == nil || len(resp.Content) == 0 {
		return oracle.Response{}, oracle.WrapError("complete", oracle.ErrorTypeEmptyResponse,
			fmt.Errorf("empty response from Claude API"))
	}

	var content string
	var toolCalls []oracle.ToolCall
	for i := range resp.Content {
		block := &resp.Content[i]
		switch block.Type {
		case "text":
			content += block.AsText().Text
		case "tool_use":
			toolUse := block.AsToolUse()
			if structuredTool != "" && toolUse.Name == structuredTool {
				// Surface the forced tool input as the structured content.
				content = string(toolUse.Input)
				continue
			}
			var args map[string]any
			if uerr := json.Unmarshal(toolUse.Input, &args); uerr != nil {
				return oracle.Response{}, oracle.WrapError("complete", oracle.ErrorTypeParse,
					fmt.Errorf("failed to parse tool input: %w", uerr))
			}
			toolCalls = append(toolCalls, oracle.ToolCall{
				ID:         toolUse.ID,
				Name:       toolUse.Name,
				Parameters: args,
			})
		}
	}

	return oracle.Response{
		Content:    content,
		ToolCalls:  toolCalls,
		StopReason: string(resp.StopReason),
		Usage: oracle.Usage{
			PromptTokens:     int(resp.Usage.InputTokens),
			CompletionTokens: int(resp.Usage.OutputTokens),
		},
	}, nil
}

// Stream implements the oracle.Client interface by draining a Complete call.
func (c *Client) Stream(ctx context.Context, in oracle.Request) (<-chan oracle.StreamChunk, error) {
	ch := make(chan oracle.StreamChunk, 2)
	go func() {
		defer close(ch)
		resp, err := c.Complete(ctx, in)
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
func (c *Client) ModelName() string {
	return string(c.model)
}

func toolProperties(schema oracle.Schema) any {
	if len(schema.Properties) == 0 {
		return nil
	}
	props := make(map[string]any, len(schema.Properties))
	for name := range schema.Properties {
		prop := schema.Properties[name]
		m := map[string]any{"type": prop.Type}
		if prop.Description != "" {
			m["description"] = prop.Description
		}
		if len(prop.Enum) > 0 {
			m["enum"] = prop.Enum
		}
		props[name] = m
	}
	return props
}
