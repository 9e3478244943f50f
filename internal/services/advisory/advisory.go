// Package advisory builds AI coaching prompts from structured journal data
// and routes them through the configured chat provider.
package advisory

import (
	"context"
	"strings"
	"time"

	"mentor/internal/adapters/ai"
	"mentor/internal/domain/stats"
	"mentor/internal/domain/therapy"
	"mentor/internal/domain/trade"
	"mentor/internal/domain/user"
	"mentor/internal/metrics"
	"mentor/pkg/errors"
	"mentor/pkg/logger"
)

const (
	therapyMaxTokens  = 800
	analysisMaxTokens = 1500
	defaultTopP       = 0.95
	defaultTemp       = 0.7
)

// Advisor is the single entry point for AI-generated coaching text
type Advisor struct {
	registry *ai.ProviderRegistry
	provider ai.ProviderName
	log      *logger.Logger
}

// New creates an advisor using the given default provider
func New(registry *ai.ProviderRegistry, provider ai.ProviderName, log *logger.Logger) *Advisor {
	return &Advisor{
		registry: registry,
		provider: provider,
		log:      log.With("component", "advisor"),
	}
}

// TherapyReply generates the coach's next message in a therapy session.
// Prior turns are passed as conversation context so the model keeps thread.
func (a *Advisor) TherapyReply(ctx context.Context, u *user.User, history []therapy.Turn, input string) (string, error) {
	messages := make([]ai.Message, 0, len(history)+2)
	messages = append(messages, ai.Message{
		Role:    ai.RoleSystem,
		Content: therapySystemPrompt + "\n\n" + userInfoBlock(u),
	})

	for _, turn := range history {
		role := ai.RoleUser
		if turn.Role == therapy.RoleAssistant {
			role = ai.RoleAssistant
		}
		messages = append(messages, ai.Message{Role: role, Content: turn.Text})
	}

	messages = append(messages, ai.Message{Role: ai.RoleUser, Content: input})

	return a.chat(ctx, "therapy", ai.ChatRequest{
		Messages:    messages,
		Temperature: defaultTemp,
		MaxTokens:   therapyMaxTokens,
		TopP:        defaultTopP,
	})
}

// SummaryAnalysis generates the /summary deep-dive over the full history
func (a *Advisor) SummaryAnalysis(ctx context.Context, u *user.User, trades []*trade.Trade) (string, error) {
	prompt, err := summaryPrompt(u, trades)
	if err != nil {
		return "", err
	}

	return a.chat(ctx, "summary", ai.ChatRequest{
		Messages: []ai.Message{
			{Role: ai.RoleSystem, Content: summarySystemPrompt},
			{Role: ai.RoleUser, Content: prompt},
		},
		Temperature: defaultTemp,
		MaxTokens:   analysisMaxTokens,
		TopP:        defaultTopP,
	})
}

// WeeklyNarrative generates the coaching paragraph of a weekly report
func (a *Advisor) WeeklyNarrative(ctx context.Context, u *user.User, week stats.WeekSummary, weekStart time.Time) (string, error) {
	return a.chat(ctx, "weekly_narrative", ai.ChatRequest{
		Messages: []ai.Message{
			{Role: ai.RoleSystem, Content: narrativeSystemPrompt},
			{Role: ai.RoleUser, Content: narrativePrompt(u, week, weekStart.Format("2006-01-02"))},
		},
		Temperature: defaultTemp,
		MaxTokens:   analysisMaxTokens,
		TopP:        defaultTopP,
	})
}

func (a *Advisor) chat(ctx context.Context, purpose string, req ai.ChatRequest) (string, error) {
	provider, err := a.registry.Get(a.provider)
	if err != nil {
		return "", err
	}

	start := time.Now()
	resp, err := provider.Chat(ctx, req)
	latency := time.Since(start)

	if err != nil {
		metrics.RecordAICall(string(a.provider), purpose, latency, 0, 0, err)
		a.log.Warnw("AI call failed",
			"provider", a.provider, "purpose", purpose,
			"latency_ms", latency.Milliseconds(), "error", err)
		return "", err
	}

	metrics.RecordAICall(string(a.provider), purpose, latency,
		resp.Usage.PromptTokens, resp.Usage.CompletionTokens, nil)

	content := strings.TrimSpace(resp.Content)
	if content == "" {
		return "", errors.Wrap(errors.ErrInvalidResponse, "provider returned empty content")
	}

	a.log.Debugw("AI call completed",
		"provider", a.provider, "purpose", purpose,
		"latency_ms", latency.Milliseconds(), "tokens", resp.Usage.TotalTokens)

	return content, nil
}
