package postgres

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mentor/internal/domain/user"
	"mentor/internal/testsupport"
	"mentor/pkg/errors"
)

func TestUserRepository_CreateAndGet(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	testDB := testsupport.NewTestPostgres(t)
	defer testDB.Close()

	fixtures := NewTestFixtures(t, testDB.Tx())
	created := fixtures.CreateUser()

	repo := NewUserRepository(testDB.Tx())
	ctx := context.Background()

	got, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.TelegramID, got.TelegramID)
	assert.Equal(t, created.FullName, got.FullName)
	assert.Equal(t, user.ExperienceIntermediate, got.ExperienceLevel)
	assert.True(t, got.InitialBalance.Equal(created.InitialBalance))
	assert.True(t, got.RegistrationComplete)
}

func TestUserRepository_GetByTelegramID(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	testDB := testsupport.NewTestPostgres(t)
	defer testDB.Close()

	fixtures := NewTestFixtures(t, testDB.Tx())
	created := fixtures.CreateUser()

	repo := NewUserRepository(testDB.Tx())

	got, err := repo.GetByTelegramID(context.Background(), created.TelegramID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
}

func TestUserRepository_GetMissingReturnsNotFound(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	testDB := testsupport.NewTestPostgres(t)
	defer testDB.Close()

	repo := NewUserRepository(testDB.Tx())

	_, err := repo.GetByTelegramID(context.Background(), 1)
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestUserRepository_DuplicateTelegramID(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	testDB := testsupport.NewTestPostgres(t)
	defer testDB.Close()

	fixtures := NewTestFixtures(t, testDB.Tx())
	created := fixtures.CreateUser()

	repo := NewUserRepository(testDB.Tx())

	dup := *created
	dup.ID = created.ID
	err := repo.Create(context.Background(), &dup)
	assert.True(t, errors.Is(err, errors.ErrAlreadyExists))
}

func TestUserRepository_UpdateBalance(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	testDB := testsupport.NewTestPostgres(t)
	defer testDB.Close()

	fixtures := NewTestFixtures(t, testDB.Tx())
	created := fixtures.CreateUser()

	repo := NewUserRepository(testDB.Tx())
	ctx := context.Background()

	created.ApplyTradeResult(decimal.RequireFromString("250.50"))
	require.NoError(t, repo.Update(ctx, created))

	got, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, got.CurrentBalance.Equal(decimal.RequireFromString("100250.50")), "balance %s", got.CurrentBalance)
}

func TestUserRepository_FractionalTradingYearsRoundTrips(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	testDB := testsupport.NewTestPostgres(t)
	defer testDB.Close()

	fixtures := NewTestFixtures(t, testDB.Tx())
	created := fixtures.CreateUser()

	repo := NewUserRepository(testDB.Tx())
	ctx := context.Background()

	created.TradingYears = 3.5
	require.NoError(t, repo.Update(ctx, created))

	got, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.InDelta(t, 3.5, got.TradingYears, 0.001)
}

func TestUserRepository_ListRegistered(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	testDB := testsupport.NewTestPostgres(t)
	defer testDB.Close()

	fixtures := NewTestFixtures(t, testDB.Tx())
	registered := fixtures.CreateUser()
	pending := fixtures.CreateUser(func(u *user.User) {
		u.RegistrationComplete = false
	})

	repo := NewUserRepository(testDB.Tx())

	users, err := repo.ListRegistered(context.Background())
	require.NoError(t, err)

	ids := make(map[string]bool)
	for _, u := range users {
		ids[u.ID.String()] = true
	}
	assert.True(t, ids[registered.ID.String()])
	assert.False(t, ids[pending.ID.String()])
}
