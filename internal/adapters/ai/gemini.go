package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"mentor/pkg/errors"
)

const geminiAPIBase = "https://generativelanguage.googleapis.com/v1beta/models"

// Ensure GeminiProvider implements ChatProvider
var _ ChatProvider = (*GeminiProvider)(nil)

// GeminiProvider talks to the Gemini generateContent REST API.
// Gemini has no separate system role on this endpoint, so system
// messages are folded into the prompt text.
type GeminiProvider struct {
	apiKey      string
	model       string
	baseURL     string
	timeout     time.Duration
	rateLimiter RateLimiter
}

// NewGeminiProvider creates a Gemini provider
func NewGeminiProvider(apiKey, model string, timeout time.Duration, limiter RateLimiter) *GeminiProvider {
	if limiter == nil {
		limiter = NewNoOpLimiter()
	}
	return &GeminiProvider{
		apiKey:      apiKey,
		model:       model,
		baseURL:     geminiAPIBase,
		timeout:     timeout,
		rateLimiter: limiter,
	}
}

// Name returns the provider identifier
func (p *GeminiProvider) Name() ProviderName {
	return ProviderNameGemini
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiGenerationConfig struct {
	Temperature     float64 `json:"temperature,omitempty"`
	TopK            int     `json:"topK,omitempty"`
	TopP            float64 `json:"topP,omitempty"`
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
}

type geminiRequest struct {
	Contents         []geminiContent        `json:"contents"`
	GenerationConfig geminiGenerationConfig `json:"generationConfig"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []geminiPart `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	UsageMetadata struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
		TotalTokenCount      int `json:"totalTokenCount"`
	} `json:"usageMetadata"`
}

// Chat sends a completion request to the Gemini API
func (p *GeminiProvider) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	if p.apiKey == "" {
		return nil, errors.Wrap(errors.ErrInvalidInput, "gemini API key not configured")
	}

	if err := p.rateLimiter.Wait(ctx); err != nil {
		return nil, &RateLimitError{
			Provider: ProviderNameGemini,
			Limit:    p.rateLimiter.Limit(),
			Err:      err,
		}
	}

	geminiReq := geminiRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: flattenMessages(req.Messages)}}}},
		GenerationConfig: geminiGenerationConfig{
			Temperature:     req.Temperature,
			TopK:            40,
			TopP:            req.TopP,
			MaxOutputTokens: req.MaxTokens,
		},
	}

	body, err := json.Marshal(geminiReq)
	if err != nil {
		return nil, errors.Wrap(err, "marshal gemini request")
	}

	url := p.baseURL + "/" + p.model + ":generateContent?key=" + p.apiKey

	httpReq, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "create HTTP request")
	}
	httpReq.Header.Set("Content-Type", "application/json")

	client := &http.Client{Timeout: p.timeout}
	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, errors.Wrap(err, "send gemini request")
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "read gemini response")
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, errors.Wrap(errors.ErrRateLimited, "gemini quota exceeded")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, errors.Wrapf(errors.ErrExternal, "gemini API returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var geminiResp geminiResponse
	if err := json.Unmarshal(respBody, &geminiResp); err != nil {
		return nil, errors.Wrap(err, "unmarshal gemini response")
	}

	if len(geminiResp.Candidates) == 0 || len(geminiResp.Candidates[0].Content.Parts) == 0 {
		return nil, errors.Wrap(errors.ErrInvalidResponse, "gemini returned no candidates")
	}

	return &ChatResponse{
		Content: strings.TrimSpace(geminiResp.Candidates[0].Content.Parts[0].Text),
		Usage: Usage{
			PromptTokens:     geminiResp.UsageMetadata.PromptTokenCount,
			CompletionTokens: geminiResp.UsageMetadata.CandidatesTokenCount,
			TotalTokens:      geminiResp.UsageMetadata.TotalTokenCount,
		},
	}, nil
}

// flattenMessages folds the conversation into one prompt text
func flattenMessages(messages []Message) string {
	var b strings.Builder
	for i, msg := range messages {
		if i > 0 {
			b.WriteString("\n\n")
		}
		switch msg.Role {
		case RoleUser:
			b.WriteString("User: ")
		case RoleAssistant:
			b.WriteString("Coach: ")
		}
		b.WriteString(msg.Content)
	}
	b.WriteString("\n\nYour response:")
	return b.String()
}
