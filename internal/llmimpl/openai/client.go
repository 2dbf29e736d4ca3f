// Package openai provides an OpenAI client implementation using the
// official OpenAI Go package.
package openai

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"

	"mediroute/pkg/oracle"
)

// Client wraps the official OpenAI Go client to implement oracle.Client.
type Client struct {
	client openai.Client
	model  string
}

// NewClient creates a raw OpenAI client; middleware is applied at a higher level.
func NewClient(apiKey, model string) oracle.Client {
	return &Client{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
	}
}

// Complete implements the oracle.Client interface via the Chat Completions API.
func (c *Client) Complete(ctx context.Context, in oracle.Request) (oracle.Response, error) {
	params := c.buildParams(in)

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return oracle.Response{}, oracle.WrapError("complete", classify(err), err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return oracle.Response{}, oracle.WrapError("complete", oracle.ErrorTypeEmptyResponse,
			fmt.Errorf("no choices in OpenAI response"))
	}

	choice := resp.Choices[0]
	out := oracle.Response{
		Content:    choice.Message.Content,
		StopReason: string(choice.FinishReason),
		Usage: oracle.Usage{
			PromptTokens:     int(resp.Usage.PromptTokens),
			CompletionTokens: int(resp.Usage.CompletionTokens),
		},
	}

	for i := range choice.Message.ToolCalls {
		tc := &choice.Message.ToolCalls[i]
		var parameters map[string]any
		if tc.Function.Arguments != "" {
			if uerr := json.Unmarshal([]byte(tc.Function.Arguments), &parameters); uerr != nil {
				// Skip tool calls with unparseable arguments.
				continue
			}
		}
		out.ToolCalls = append(out.ToolCalls, oracle.ToolCall{
			ID:         tc.ID,
			Name:       tc.Function.Name,
			Parameters: parameters,
		})
	}

	return out, nil
}

// Stream implements the oracle.Client interface with streaming support.
func (c *Client) Stream(ctx context.Context, in oracle.Request) (<-chan oracle.StreamChunk, error) {
	params := c.buildParams(in)

	stream := c.client.Chat.Completions.NewStreaming(ctx, params)

	ch := make(chan oracle.StreamChunk)
	go func() {
		defer close(ch)
		defer func() {
			if err := stream.Close(); err != nil {
				_ = err // cleanup in streaming context
			}
		}()

		for stream.Next() {
			chunk := stream.Current()
			if len(chunk.Choices) > 0 && chunk.Choices[0].Delta.Content != "" {
				select {
				case ch <- oracle.StreamChunk{Content: chunk.Choices[0].Delta.Content}:
				case <-ctx.Done():
					return
				}
			}
		}
		if err := stream.Err(); err != nil {
			ch <- oracle.StreamChunk{Error: oracle.WrapError("stream", classify(err), err)}
			return
		}
		ch <- oracle.StreamChunk{Done: true}
	}()

	return ch, nil
}

// ModelName returns the model name for this client.
func (c *Client) ModelName() string {
	return c.model
}

func (c *Client) buildParams(in oracle.Request) openai.ChatCompletionNewParams {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(in.Messages))
	for i := range in.Messages {
		msg := &in.Messages[i]
		switch msg.Role {
		case oracle.RoleSystem:
			messages = append(messages, openai.SystemMessage(msg.Content))
		case oracle.RoleAssistant:
			messages = append(messages, openai.AssistantMessage(msg.Content))
		case oracle.RoleTool:
			messages = append(messages, openai.ToolMessage(msg.Content, msg.ToolCallID))
		default:
			messages = append(messages, openai.UserMessage(msg.Content))
		}
	}

	params := openai.ChatCompletionNewParams{
		Model:               shared.ChatModel(c.model),
		Messages:            messages,
		MaxCompletionTokens: openai.Int(int64(in.MaxTokens)),
		Temperature:         openai.Float(float64(in.Temperature)),
	}

	if len(in.Tools) > 0 {
		tools := make([]openai.ChatCompletionToolParam, len(in.Tools))
		for i := range in.Tools {
			tool := &in.Tools[i]
			tools[i] = openai.ChatCompletionToolParam{
				Function: shared.FunctionDefinitionParam{
					Name:        tool.Name,
					Description: openai.String(tool.Description),
					Parameters:  shared.FunctionParameters(tool.InputSchema.AsMap()),
				},
			}
		}
		params.Tools = tools

		if in.ToolChoice == "required" {
			params.ToolChoice = openai.ChatCompletionToolChoiceOptionUnionParam{
				OfAuto: openai.String("required"),
			}
		}
	}

	if in.ResponseFormat != nil {
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &shared.ResponseFormatJSONSchemaParam{
				JSONSchema: shared.ResponseFormatJSONSchemaJSONSchemaParam{
					Name:   in.ResponseFormat.Name,
					Strict: openai.Bool(true),
					Schema: in.ResponseFormat.Schema.AsMap(),
				},
			},
		}
	}

	return params
}
