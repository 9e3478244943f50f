package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mentor/internal/domain/flow"
	"mentor/internal/testsupport"
	"mentor/pkg/errors"
)

func TestFlowStateRepository_SaveAndGet(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	testDB := testsupport.NewTestPostgres(t)
	defer testDB.Close()

	fixtures := NewTestFixtures(t, testDB.Tx())
	u := fixtures.CreateUser()

	repo := NewFlowStateRepository(testDB.Tx())
	ctx := context.Background()

	state := flow.NewState(u.ID, flow.FlowJournaling)
	state.Advance("date", "2025-01-08")
	state.Advance("pair", "EURUSD")
	require.NoError(t, repo.Save(ctx, state))

	got, err := repo.Get(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, flow.FlowJournaling, got.Flow)
	assert.Equal(t, 2, got.Step)
	assert.Equal(t, "EURUSD", got.Get("pair"))
}

func TestFlowStateRepository_SaveUpsertsExistingRow(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	testDB := testsupport.NewTestPostgres(t)
	defer testDB.Close()

	fixtures := NewTestFixtures(t, testDB.Tx())
	u := fixtures.CreateUser()

	repo := NewFlowStateRepository(testDB.Tx())
	ctx := context.Background()

	first := flow.NewState(u.ID, flow.FlowRegistration)
	require.NoError(t, repo.Save(ctx, first))

	// Starting a new flow replaces the old row for the same user
	second := flow.NewState(u.ID, flow.FlowTherapy)
	require.NoError(t, repo.Save(ctx, second))

	got, err := repo.Get(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, flow.FlowTherapy, got.Flow)
	assert.Equal(t, 0, got.Step)
}

func TestFlowStateRepository_GetMissingReturnsNotFound(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	testDB := testsupport.NewTestPostgres(t)
	defer testDB.Close()

	fixtures := NewTestFixtures(t, testDB.Tx())
	u := fixtures.CreateUser()

	repo := NewFlowStateRepository(testDB.Tx())

	_, err := repo.Get(context.Background(), u.ID)
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestFlowStateRepository_ClearIsIdempotent(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	testDB := testsupport.NewTestPostgres(t)
	defer testDB.Close()

	fixtures := NewTestFixtures(t, testDB.Tx())
	u := fixtures.CreateUser()

	repo := NewFlowStateRepository(testDB.Tx())
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, flow.NewState(u.ID, flow.FlowRegistration)))
	require.NoError(t, repo.Clear(ctx, u.ID))
	require.NoError(t, repo.Clear(ctx, u.ID))

	_, err := repo.Get(ctx, u.ID)
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}
