package therapy

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mentor/internal/adapters/ai"
	"mentor/internal/adapters/config"
	"mentor/internal/domain/therapy"
	"mentor/internal/domain/user"
	"mentor/internal/services/advisory"
	"mentor/pkg/errors"
	"mentor/pkg/logger"
)

// memoryRepo is an in-memory therapy.Repository for unit tests.
// Reads return copies so callers never share state with the store,
// matching how the real repository hydrates rows.
type memoryRepo struct {
	sessions map[uuid.UUID]*therapy.Session
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{sessions: make(map[uuid.UUID]*therapy.Session)}
}

func cloneSession(s *therapy.Session) *therapy.Session {
	clone := *s
	clone.Turns = append([]therapy.Turn(nil), s.Turns...)
	return &clone
}

func (r *memoryRepo) Create(ctx context.Context, s *therapy.Session) error {
	r.sessions[s.ID] = cloneSession(s)
	return nil
}

func (r *memoryRepo) GetByID(ctx context.Context, id uuid.UUID) (*therapy.Session, error) {
	s, ok := r.sessions[id]
	if !ok {
		return nil, errors.ErrNotFound
	}
	return cloneSession(s), nil
}

func (r *memoryRepo) GetActiveByUser(ctx context.Context, userID uuid.UUID) (*therapy.Session, error) {
	for _, s := range r.sessions {
		if s.UserID == userID && s.IsActive() {
			return cloneSession(s), nil
		}
	}
	return nil, errors.ErrNotFound
}

func (r *memoryRepo) AppendTurns(ctx context.Context, id uuid.UUID, turns ...therapy.Turn) error {
	s, ok := r.sessions[id]
	if !ok {
		return errors.ErrNotFound
	}
	s.Turns = append(s.Turns, turns...)
	return nil
}

func (r *memoryRepo) Close(ctx context.Context, id uuid.UUID, at time.Time) error {
	s, ok := r.sessions[id]
	if !ok {
		return errors.ErrNotFound
	}
	s.Close(at)
	return nil
}

func (r *memoryRepo) ListIdleActive(ctx context.Context, cutoff time.Time) ([]*therapy.Session, error) {
	var idle []*therapy.Session
	for _, s := range r.sessions {
		if s.IsActive() && s.LastActivity().Before(cutoff) {
			idle = append(idle, cloneSession(s))
		}
	}
	return idle, nil
}

var _ therapy.Repository = (*memoryRepo)(nil)

// stubProvider always answers with the same text
type stubProvider struct {
	reply string
	err   error
	calls int
}

func (p *stubProvider) Name() ai.ProviderName { return ai.ProviderNameGemini }

func (p *stubProvider) Chat(ctx context.Context, req ai.ChatRequest) (*ai.ChatResponse, error) {
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	return &ai.ChatResponse{Content: p.reply}, nil
}

func newTestService(t *testing.T, provider *stubProvider) (*Service, *memoryRepo) {
	t.Helper()

	registry := ai.NewProviderRegistry()
	require.NoError(t, registry.Register(provider))
	advisor := advisory.New(registry, ai.ProviderNameGemini, logger.Get())

	repo := newMemoryRepo()
	cfg := config.TherapyConfig{IdleTimeout: 30 * time.Minute, MaxTurns: 4}

	return New(repo, advisor, cfg, logger.Get()), repo
}

func testUser() *user.User {
	return &user.User{ID: uuid.New(), FullName: "Sarah Chen", Age: 29}
}

func TestStartCreatesThenResumes(t *testing.T) {
	svc, _ := newTestService(t, &stubProvider{reply: "hello"})
	u := testUser()

	first, resumed, err := svc.Start(context.Background(), u)
	require.NoError(t, err)
	assert.False(t, resumed)

	second, resumed, err := svc.Start(context.Background(), u)
	require.NoError(t, err)
	assert.True(t, resumed)
	assert.Equal(t, first.ID, second.ID)
}

func TestHandleTurnAppendsBothSides(t *testing.T) {
	svc, repo := newTestService(t, &stubProvider{reply: "What triggered that?"})
	u := testUser()

	session, _, err := svc.Start(context.Background(), u)
	require.NoError(t, err)

	reply, err := svc.HandleTurn(context.Background(), u, session, "I keep revenge trading")
	require.NoError(t, err)
	assert.Equal(t, "What triggered that?", reply)

	stored := repo.sessions[session.ID]
	require.Len(t, stored.Turns, 2)
	assert.Equal(t, therapy.RoleUser, stored.Turns[0].Role)
	assert.Equal(t, "I keep revenge trading", stored.Turns[0].Text)
	assert.Equal(t, therapy.RoleAssistant, stored.Turns[1].Role)

	// The caller's session mirrors the store, once per turn.
	require.Len(t, session.Turns, 2)

	_, err = svc.HandleTurn(context.Background(), u, session, "After every red day")
	require.NoError(t, err)
	require.Len(t, repo.sessions[session.ID].Turns, 4)
	assert.Equal(t, "After every red day", repo.sessions[session.ID].Turns[2].Text)
	require.Len(t, session.Turns, 4)
}

func TestHandleTurnAIFailureWritesNothing(t *testing.T) {
	svc, repo := newTestService(t, &stubProvider{err: errors.ErrUnavailable})
	u := testUser()

	session, _, err := svc.Start(context.Background(), u)
	require.NoError(t, err)

	_, err = svc.HandleTurn(context.Background(), u, session, "help")
	assert.Error(t, err)
	assert.Empty(t, repo.sessions[session.ID].Turns)
	assert.Empty(t, session.Turns)
}

func TestEnd(t *testing.T) {
	svc, repo := newTestService(t, &stubProvider{reply: "x"})
	u := testUser()

	session, _, err := svc.Start(context.Background(), u)
	require.NoError(t, err)

	ended, err := svc.End(context.Background(), u.ID)
	require.NoError(t, err)
	assert.True(t, ended)
	assert.False(t, repo.sessions[session.ID].IsActive())

	// Ending again reports no active session
	ended, err = svc.End(context.Background(), u.ID)
	require.NoError(t, err)
	assert.False(t, ended)
}

func TestCloseIdle(t *testing.T) {
	svc, repo := newTestService(t, &stubProvider{reply: "x"})

	stale := therapy.NewSession(uuid.New())
	stale.StartedAt = time.Now().UTC().Add(-2 * time.Hour)
	require.NoError(t, repo.Create(context.Background(), stale))

	fresh := therapy.NewSession(uuid.New())
	require.NoError(t, repo.Create(context.Background(), fresh))

	closed, err := svc.CloseIdle(context.Background(), time.Now().UTC())
	require.NoError(t, err)
	require.Len(t, closed, 1)
	assert.Equal(t, stale.ID, closed[0].ID)
	assert.False(t, repo.sessions[stale.ID].IsActive())
	assert.True(t, repo.sessions[fresh.ID].IsActive())
}
