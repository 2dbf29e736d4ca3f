// Package oracle provides interfaces and types for language-model client
// implementations used by the routing pipeline.
package oracle

import (
	"context"
)

// Role represents the role of a message in a conversation.
type Role string

const (
	// RoleSystem indicates a system message that provides instructions or context.
	RoleSystem Role = "system"
	// RoleUser indicates a message from the human user.
	RoleUser Role = "user"
	// RoleAssistant indicates a message from the model.
	RoleAssistant Role = "assistant"
	// RoleTool indicates a tool result message returned to the model.
	RoleTool Role = "tool"
)

const (
	// TemperatureDefault is the default temperature for classification and
	// routing decisions. Allows some flexibility while staying focused.
	TemperatureDefault = 0.3

	// DefaultMaxTokens caps completion length when the caller does not
	// specify a limit.
	DefaultMaxTokens = 4096
)

// Message represents a message in a completion request.
type Message struct {
	Content string
	// ToolCallID links a RoleTool message back to the tool call it answers.
	ToolCallID string
	Role       Role
}

// ToolCall represents a tool call made by the model.
type ToolCall struct {
	Parameters map[string]any `json:"parameters"`
	ID         string         `json:"id"`
	Name       string         `json:"name"`
}

// Request represents a request to generate a completion.
type Request struct {
	Messages []Message
	Tools    []ToolDefinition
	// ToolChoice forces tool selection: "" (auto), "required", or a tool name.
	ToolChoice string
	// ResponseFormat, when set, asks the backend for strict JSON conforming
	// to the named schema. Backends without native structured output emulate
	// it via forced tool use or JSON mode.
	ResponseFormat *ResponseSchema
	MaxTokens      int
	Temperature    float32
}

// Usage reports token consumption for a completed request.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
}

// Response represents a response from a completion request.
type Response struct {
	ToolCalls  []ToolCall
	Content    string
	StopReason string
	Usage      Usage
}

// StreamChunk represents a chunk of streamed completion response.
type StreamChunk struct {
	Error   error
	Content string
	Done    bool
}

// Client defines the interface for language-model interactions.
type Client interface {
	// Complete generates a completion synchronously.
	Complete(ctx context.Context, in Request) (Response, error)

	// Stream generates a completion as a stream of chunks.
	Stream(ctx context.Context, in Request) (<-chan StreamChunk, error)

	// ModelName returns the model name for this client.
	ModelName() string
}

// NewRequest creates a completion request with default values.
func NewRequest(messages []Message) Request {
	return Request{
		Messages:    messages,
		MaxTokens:   DefaultMaxTokens,
		Temperature: TemperatureDefault,
	}
}

// SystemMessage creates a new system message.
func SystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// UserMessage creates a new user message.
func UserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// AssistantMessage creates a new assistant message.
func AssistantMessage(content string) Message {
	return Message{Role: RoleAssistant, Content: content}
}

// ToolMessage creates a tool result message for the given call ID.
func ToolMessage(callID, content string) Message {
	return Message{Role: RoleTool, ToolCallID: callID, Content: content}
}
