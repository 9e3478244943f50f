package advisory

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mentor/internal/adapters/ai"
	"mentor/internal/domain/stats"
	"mentor/internal/domain/therapy"
	"mentor/internal/domain/trade"
	"mentor/internal/domain/user"
	"mentor/pkg/errors"
	"mentor/pkg/logger"
)

// scriptedProvider returns canned responses and records requests
type scriptedProvider struct {
	name     ai.ProviderName
	reply    string
	err      error
	requests []ai.ChatRequest
}

func (p *scriptedProvider) Name() ai.ProviderName { return p.name }

func (p *scriptedProvider) Chat(ctx context.Context, req ai.ChatRequest) (*ai.ChatResponse, error) {
	p.requests = append(p.requests, req)
	if p.err != nil {
		return nil, p.err
	}
	return &ai.ChatResponse{
		Content: p.reply,
		Usage:   ai.Usage{PromptTokens: 100, CompletionTokens: 50, TotalTokens: 150},
	}, nil
}

func newTestAdvisor(t *testing.T, provider *scriptedProvider) *Advisor {
	t.Helper()

	registry := ai.NewProviderRegistry()
	require.NoError(t, registry.Register(provider))

	return New(registry, provider.name, logger.Get())
}

func testUser() *user.User {
	return &user.User{
		FullName:        "Sarah Chen",
		Age:             29,
		TradingYears:    3.5,
		ExperienceLevel: user.ExperienceIntermediate,
		AccountType:     user.AccountLive,
		Phase:           user.Phase1,
		InitialBalance:  decimal.NewFromInt(100000),
		CurrentBalance:  decimal.NewFromInt(104200),
	}
}

func TestTherapyReplyBuildsConversation(t *testing.T) {
	provider := &scriptedProvider{name: ai.ProviderNameGemini, reply: "  Take a breath.  "}
	advisor := newTestAdvisor(t, provider)

	history := []therapy.Turn{
		{Role: therapy.RoleUser, Text: "I revenge traded today"},
		{Role: therapy.RoleAssistant, Text: "What triggered it?"},
	}

	reply, err := advisor.TherapyReply(context.Background(), testUser(), history, "A stopped out long")
	require.NoError(t, err)
	assert.Equal(t, "Take a breath.", reply)

	require.Len(t, provider.requests, 1)
	req := provider.requests[0]

	require.Len(t, req.Messages, 4)
	assert.Equal(t, ai.RoleSystem, req.Messages[0].Role)
	assert.Contains(t, req.Messages[0].Content, "trading psychology coach")
	assert.Contains(t, req.Messages[0].Content, "Sarah Chen")
	assert.Contains(t, req.Messages[0].Content, "live - phase1")
	assert.Equal(t, ai.RoleUser, req.Messages[1].Role)
	assert.Equal(t, ai.RoleAssistant, req.Messages[2].Role)
	assert.Equal(t, "A stopped out long", req.Messages[3].Content)

	assert.InDelta(t, 0.7, req.Temperature, 0.001)
	assert.Equal(t, therapyMaxTokens, req.MaxTokens)
	assert.InDelta(t, 0.95, req.TopP, 0.001)
}

func TestSummaryAnalysisIncludesTradeHistory(t *testing.T) {
	provider := &scriptedProvider{name: ai.ProviderNameGemini, reply: "You overtrade gold."}
	advisor := newTestAdvisor(t, provider)

	trades := []*trade.Trade{
		{
			TradeDate:  time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC),
			Pair:       "XAUUSD",
			Direction:  trade.DirectionShort,
			EntryPrice: decimal.RequireFromString("2400"),
			ExitPrice:  decimal.RequireFromString("2380"),
			Result:     trade.ResultWin,
			ProfitLoss: decimal.RequireFromString("20"),
			Notes:      "news fade",
		},
	}

	analysis, err := advisor.SummaryAnalysis(context.Background(), testUser(), trades)
	require.NoError(t, err)
	assert.Equal(t, "You overtrade gold.", analysis)

	req := provider.requests[0]
	assert.Equal(t, analysisMaxTokens, req.MaxTokens)
	prompt := req.Messages[1].Content
	assert.Contains(t, prompt, `"pair": "XAUUSD"`)
	assert.Contains(t, prompt, `"date": "2026-08-24"`)
	assert.Contains(t, prompt, "actionable recommendations")
}

func TestWeeklyNarrativePrompt(t *testing.T) {
	provider := &scriptedProvider{name: ai.ProviderNameGemini, reply: "Solid week."}
	advisor := newTestAdvisor(t, provider)

	week := weekSummaryFixture()
	weekStart := time.Date(2026, 8, 17, 0, 0, 0, 0, time.UTC)

	narrative, err := advisor.WeeklyNarrative(context.Background(), testUser(), week, weekStart)
	require.NoError(t, err)
	assert.Equal(t, "Solid week.", narrative)

	prompt := provider.requests[0].Messages[1].Content
	assert.Contains(t, prompt, "Week starting 2026-08-17")
	assert.Contains(t, prompt, "Win rate: 66.67%")
}

func weekSummaryFixture() stats.WeekSummary {
	var week stats.WeekSummary
	week.TotalTrades = 3
	week.Wins = 2
	week.Losses = 1
	week.NetProfitLoss = decimal.RequireFromString("250")
	week.LongestWinStreak = 2
	week.LongestLossStreak = 1
	week.MostTradedPair = "EURUSD"
	week.WeeklyWinRate = 66.67
	return week
}

func TestChatFailurePropagates(t *testing.T) {
	provider := &scriptedProvider{name: ai.ProviderNameGemini, err: errors.ErrUnavailable}
	advisor := newTestAdvisor(t, provider)

	_, err := advisor.TherapyReply(context.Background(), testUser(), nil, "hi")
	assert.True(t, errors.Is(err, errors.ErrUnavailable))
}

func TestEmptyContentIsAnError(t *testing.T) {
	provider := &scriptedProvider{name: ai.ProviderNameGemini, reply: "   "}
	advisor := newTestAdvisor(t, provider)

	_, err := advisor.TherapyReply(context.Background(), testUser(), nil, "hi")
	assert.True(t, errors.Is(err, errors.ErrInvalidResponse))
}

func TestUserInfoBlockOmitsPhaseForDemo(t *testing.T) {
	u := testUser()
	u.AccountType = user.AccountDemo
	u.Phase = ""

	block := userInfoBlock(u)
	assert.Contains(t, block, "Account Type: demo\n")
	assert.NotContains(t, block, "phase")
}
