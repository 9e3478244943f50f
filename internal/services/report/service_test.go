package report

import (
	"context"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mentor/internal/adapters/ai"
	"mentor/internal/domain/report"
	"mentor/internal/domain/trade"
	"mentor/internal/domain/user"
	"mentor/internal/repository/postgres"
	"mentor/internal/services/advisory"
	"mentor/internal/testsupport"
	"mentor/pkg/errors"
	"mentor/pkg/logger"
)

// cannedProvider returns a fixed narrative or a fixed error
type cannedProvider struct {
	reply string
	err   error
}

func (p *cannedProvider) Name() ai.ProviderName { return ai.ProviderNameGemini }

func (p *cannedProvider) Chat(ctx context.Context, req ai.ChatRequest) (*ai.ChatResponse, error) {
	if p.err != nil {
		return nil, p.err
	}
	return &ai.ChatResponse{Content: p.reply}, nil
}

// reportHarness wires the service against the test database. The service
// commits its own transactions, so created users are deleted on cleanup.
type reportHarness struct {
	svc   *Service
	db    *sqlx.DB
	user  *user.User
	repos *postgres.Repos
}

func newReportHarness(t *testing.T, provider *cannedProvider) *reportHarness {
	t.Helper()

	testDB := testsupport.NewTestPostgres(t)
	db := testDB.DB()

	registry := ai.NewProviderRegistry()
	require.NoError(t, registry.Register(provider))
	advisor := advisory.New(registry, ai.ProviderNameGemini, logger.Get())

	fixtures := postgres.NewTestFixtures(t, db)
	u := fixtures.CreateUser()

	t.Cleanup(func() {
		_, _ = db.Exec("DELETE FROM users WHERE id = $1", u.ID)
	})

	return &reportHarness{
		svc:   New(db, advisor, logger.Get()),
		db:    db,
		user:  u,
		repos: postgres.NewRepos(db),
	}
}

func TestGenerateWritesStatsAndNarrativeTogether(t *testing.T) {
	if testing.Short() {
		t.Skip("integration test requires postgres")
	}

	h := newReportHarness(t, &cannedProvider{reply: "A disciplined week."})

	at := time.Date(2026, 8, 26, 15, 0, 0, 0, time.UTC) // wednesday
	weekStart, _ := report.WeekWindow(at)

	fixtures := postgres.NewTestFixtures(t, h.db)
	fixtures.CreateTrade(h.user.ID, func(tr *trade.Trade) {
		tr.TradeDate = weekStart.AddDate(0, 0, 1)
	})
	fixtures.CreateTrade(h.user.ID, func(tr *trade.Trade) {
		tr.TradeDate = weekStart.AddDate(0, 0, 2)
		tr.Result = trade.ResultLoss
		tr.ProfitLoss = tr.ProfitLoss.Neg()
	})

	rpt, err := h.svc.Generate(context.Background(), h.user, at)
	require.NoError(t, err)

	assert.Equal(t, 2, rpt.TotalTrades)
	assert.Equal(t, 1, rpt.Wins)
	assert.Equal(t, 1, rpt.Losses)
	assert.Equal(t, "A disciplined week.", rpt.Narrative)
	assert.Equal(t, weekStart, rpt.WeekStart.UTC())

	stored, err := h.repos.Reports.GetByUserWeek(context.Background(), h.user.ID, weekStart)
	require.NoError(t, err)
	assert.Equal(t, rpt.ID, stored.ID)
}

func TestGenerateAdapterFailureLeavesNoRow(t *testing.T) {
	if testing.Short() {
		t.Skip("integration test requires postgres")
	}

	h := newReportHarness(t, &cannedProvider{err: errors.ErrUnavailable})

	at := time.Now().UTC()
	weekStart, _ := report.WeekWindow(at)

	fixtures := postgres.NewTestFixtures(t, h.db)
	fixtures.CreateTrade(h.user.ID, func(tr *trade.Trade) {
		tr.TradeDate = weekStart
	})

	_, err := h.svc.Generate(context.Background(), h.user, at)
	require.Error(t, err)

	_, err = h.repos.Reports.GetByUserWeek(context.Background(), h.user.ID, weekStart)
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestGenerateNoTrades(t *testing.T) {
	if testing.Short() {
		t.Skip("integration test requires postgres")
	}

	h := newReportHarness(t, &cannedProvider{reply: "x"})

	_, err := h.svc.Generate(context.Background(), h.user, time.Now().UTC())
	assert.True(t, errors.Is(err, ErrNoTrades))
}

func TestGenerateForAllSkipsAndDelivers(t *testing.T) {
	if testing.Short() {
		t.Skip("integration test requires postgres")
	}

	h := newReportHarness(t, &cannedProvider{reply: "Steady week."})

	at := time.Now().UTC()
	weekStart, _ := report.WeekWindow(at)

	fixtures := postgres.NewTestFixtures(t, h.db)
	fixtures.CreateTrade(h.user.ID, func(tr *trade.Trade) {
		tr.TradeDate = weekStart
	})

	// Second user has no trades this week and must be skipped.
	idle := fixtures.CreateUser(func(u *user.User) {
		u.TelegramID = h.user.TelegramID + 1
	})
	t.Cleanup(func() {
		_, _ = h.db.Exec("DELETE FROM users WHERE id = $1", idle.ID)
	})

	var delivered []*report.WeeklyReport
	generated := h.svc.GenerateForAll(context.Background(), []*user.User{h.user, idle}, at,
		func(u *user.User, rpt *report.WeeklyReport) {
			assert.Equal(t, h.user.ID, u.ID)
			delivered = append(delivered, rpt)
		})

	assert.Equal(t, 1, generated)
	require.Len(t, delivered, 1)
	assert.Equal(t, "Steady week.", delivered[0].Narrative)

	// A second run finds the existing report and writes nothing.
	generated = h.svc.GenerateForAll(context.Background(), []*user.User{h.user, idle}, at, nil)
	assert.Equal(t, 0, generated)
}

func TestGetOrGenerateReturnsExisting(t *testing.T) {
	if testing.Short() {
		t.Skip("integration test requires postgres")
	}

	h := newReportHarness(t, &cannedProvider{reply: "First narrative."})

	at := time.Now().UTC()
	weekStart, _ := report.WeekWindow(at)

	fixtures := postgres.NewTestFixtures(t, h.db)
	fixtures.CreateTrade(h.user.ID, func(tr *trade.Trade) {
		tr.TradeDate = weekStart
	})

	first, err := h.svc.GetOrGenerate(context.Background(), h.user, at)
	require.NoError(t, err)

	second, err := h.svc.GetOrGenerate(context.Background(), h.user, at)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
}
