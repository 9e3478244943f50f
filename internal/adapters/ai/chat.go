package ai

import "context"

// ChatProvider is the contract every AI backend must satisfy.
// Implementations translate the neutral request into their wire format
// and normalize the answer back into plain text.
type ChatProvider interface {
	Name() ProviderName

	// Chat sends a completion request and returns the generated text
	Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error)
}

// MessageRole defines the role of a message sender
type MessageRole string

const (
	RoleSystem    MessageRole = "system"
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
)

// Message represents a single message in the conversation
type Message struct {
	Role    MessageRole
	Content string
}

// ChatRequest represents a chat completion request
type ChatRequest struct {
	Messages    []Message
	Temperature float64
	MaxTokens   int
	TopP        float64
}

// ChatResponse represents the response from a chat completion
type ChatResponse struct {
	Content string
	Usage   Usage
}

// Usage reports token consumption for a single request
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}
