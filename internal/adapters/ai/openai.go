package ai

import (
	"context"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"mentor/pkg/errors"
)

// Ensure OpenAIProvider implements ChatProvider
var _ ChatProvider = (*OpenAIProvider)(nil)

// OpenAIProvider implements ChatProvider on the OpenAI chat completions API
type OpenAIProvider struct {
	client      *openai.Client
	model       string
	timeout     time.Duration
	rateLimiter RateLimiter
}

// NewOpenAIProvider creates an OpenAI provider
func NewOpenAIProvider(apiKey, model string, timeout time.Duration, limiter RateLimiter) *OpenAIProvider {
	if limiter == nil {
		limiter = NewNoOpLimiter()
	}
	return &OpenAIProvider{
		client:      openai.NewClient(apiKey),
		model:       model,
		timeout:     timeout,
		rateLimiter: limiter,
	}
}

// Name returns the provider identifier
func (p *OpenAIProvider) Name() ProviderName {
	return ProviderNameOpenAI
}

// Chat sends a completion request to the OpenAI API
func (p *OpenAIProvider) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	if err := p.rateLimiter.Wait(ctx); err != nil {
		return nil, &RateLimitError{
			Provider: ProviderNameOpenAI,
			Limit:    p.rateLimiter.Limit(),
			Err:      err,
		}
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	messages := make([]openai.ChatCompletionMessage, 0, len(req.Messages))
	for _, msg := range req.Messages {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    string(msg.Role),
			Content: msg.Content,
		})
	}

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       p.model,
		Messages:    messages,
		Temperature: float32(req.Temperature),
		MaxTokens:   req.MaxTokens,
		TopP:        float32(req.TopP),
	})
	if err != nil {
		apiErr := &openai.APIError{}
		if errors.As(err, &apiErr) && apiErr.HTTPStatusCode == 429 {
			return nil, errors.Wrap(errors.ErrRateLimited, "openai quota exceeded")
		}
		return nil, errors.Wrap(err, "openai completion failed")
	}

	if len(resp.Choices) == 0 {
		return nil, errors.Wrap(errors.ErrInvalidResponse, "openai returned no choices")
	}

	return &ChatResponse{
		Content: strings.TrimSpace(resp.Choices[0].Message.Content),
		Usage: Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}, nil
}
