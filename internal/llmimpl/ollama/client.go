// Package ollama provides an Ollama client implementation for the oracle
// interface. Ollama is a local LLM runtime for open-source models.
package ollama

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/ollama/ollama/api"

	"mediroute/pkg/oracle"
)

// Client wraps the Ollama API client to implement oracle.Client.
type Client struct {
	client  *api.Client
	model   string
	hostURL string
}

// NewClient creates a raw Ollama client for the given server URL
// (e.g. "http://localhost:11434"); middleware is applied at a higher level.
func NewClient(hostURL, model string) oracle.Client {
	parsedURL, err := url.Parse(hostURL)
	if err != nil {
		parsedURL, _ = url.Parse("http://localhost:11434")
	}

	return &Client{
		client:  api.NewClient(parsedURL, http.DefaultClient),
		model:   model,
		hostURL: hostURL,
	}
}

// Complete implements the oracle.Client interface.
func (o *Client) Complete(ctx context.Context, in oracle.Request) (oracle.Response, error) {
	messages, err := convertMessages(in.Messages)
	if err != nil {
		return oracle.Response{}, oracle.WrapError("complete", oracle.ErrorTypeBadPrompt, err)
	}

	stream := false
	req := &api.ChatRequest{
		Model:    o.model,
		Messages: messages,
		Stream:   &stream,
		Options: map[string]any{
			"temperature": in.Temperature,
			"num_predict": in.MaxTokens,
		},
	}

	if len(in.Tools) > 0 {
		req.Tools = convertTools(in.Tools)
	}

	// Ollama accepts a raw JSON schema as the format constraint.
	if in.ResponseFormat != nil {
		raw, merr := json.Marshal(in.ResponseFormat.Schema)
		if merr != nil {
			return oracle.Response{}, oracle.WrapError("complete", oracle.ErrorTypeBadPrompt, merr)
		}
		req.Format = raw
	}

	var response api.ChatResponse
	err = o.client.Chat(ctx, req, func(resp api.ChatResponse) error {
		response = resp
		return nil
	})
	if err != nil {
		return oracle.Response{}, oracle.WrapError("complete", classify(err), err)
	}

	result := oracle.Response{
		Content:    response.Message.Content,
		StopReason: stopReason(&response),
		Usage: oracle.Usage{
			PromptTokens:     response.PromptEvalCount,
			CompletionTokens: response.EvalCount,
		},
	}

	for i := range response.Message.ToolCalls {
		call := &response.Message.ToolCalls[i]
		id := call.ID
		if id == "" {
			id = fmt.Sprintf("call_%d", i)
		}
		result.ToolCalls = append(result.ToolCalls, oracle.ToolCall{
			ID:         id,
			Name:       call.Function.Name,
			Parameters: call.Function.Arguments.ToMap(),
		})
	}

	return result, nil
}

// Stream implements the oracle.Client interface by draining a Complete call.
func (o *Client) Stream(ctx context.Context, in oracle.Request) (<-chan oracle.StreamChunk, error) {
	ch := make(chan oracle.StreamChunk, 2)
	go func() {
		defer close(ch)
		resp, err := o.Complete(ctx, in)
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
func (o *Client) ModelName() string {
	return o.model
}

func convertMessages(messages []oracle.Message) ([]api.Message, error) {
	if len(messages) == 0 {
		return nil, fmt.Errorf("message list cannot be empty")
	}

	result := make([]api.Message, 0, len(messages))
	for i := range messages {
		msg := &messages[i]
		result = append(result, api.Message{
			Role:       string(msg.Role),
			Content:    msg.Content,
			ToolCallID: msg.ToolCallID,
		})
	}
	return result, nil
}

func convertTools(defs []oracle.ToolDefinition) api.Tools {
	tools := make(api.Tools, len(defs))
	for i := range defs {
		td := &defs[i]
		properties := api.NewToolPropertiesMap()
		for name := range td.InputSchema.Properties {
			prop := td.InputSchema.Properties[name]
			properties.Set(name, convertProperty(&prop))
		}

		tools[i] = api.Tool{
			Type: "function",
			Function: api.ToolFunction{
				Name:        td.Name,
				Description: td.Description,
				Parameters: api.ToolFunctionParameters{
					Type:       td.InputSchema.Type,
					Properties: properties,
					Required:   td.InputSchema.Required,
				},
			},
		}
	}
	return tools
}

func convertProperty(prop *oracle.Property) api.ToolProperty {
	out := api.ToolProperty{
		Type:        api.PropertyType{prop.Type},
		Description: prop.Description,
	}
	if len(prop.Enum) > 0 {
		enumVals := make([]any, len(prop.Enum))
		for i, v := range prop.Enum {
			enumVals[i] = v
		}
		out.Enum = enumVals
	}
	if prop.Items != nil {
		out.Items = convertProperty(prop.Items)
	}
	return out
}

func stopReason(resp *api.ChatResponse) string {
	if !resp.Done {
		return "incomplete"
	}
	switch resp.DoneReason {
	case "stop", "":
		return "end_turn"
	case "length":
		return "max_tokens"
	default:
		return resp.DoneReason
	}
}

// classify converts Ollama errors to oracle error types.
func classify(err error) oracle.ErrorType {
	errStr := err.Error()
	switch {
	case strings.Contains(errStr, "connection refused"):
		return oracle.ErrorTypeTransient
	case strings.Contains(errStr, "model") && strings.Contains(errStr, "not found"):
		return oracle.ErrorTypeBadPrompt
	case strings.Contains(errStr, "context canceled"), strings.Contains(errStr, "timeout"):
		return oracle.ErrorTypeTransient
	default:
		return oracle.ErrorTypeUnknown
	}
}
