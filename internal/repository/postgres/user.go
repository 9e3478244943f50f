package postgres

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"mentor/internal/domain/user"
	"mentor/pkg/errors"
)

// Compile-time check that we implement the interface
var _ user.Repository = (*UserRepository)(nil)

// UserRepository implements user.Repository using sqlx
type UserRepository struct {
	db DBTX
}

// NewUserRepository creates a new user repository
func NewUserRepository(db DBTX) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, telegram_id, telegram_username, full_name, age, trading_years,
	   experience_level, account_type, phase, profit_target,
	   initial_balance, current_balance, registration_complete, created_at, updated_at`

// Create inserts a new user
func (r *UserRepository) Create(ctx context.Context, u *user.User) error {
	query := `
		INSERT INTO users (
			id, telegram_id, telegram_username, full_name, age, trading_years,
			experience_level, account_type, phase, profit_target,
			initial_balance, current_balance, registration_complete, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15
		)`

	_, err := r.db.ExecContext(ctx, query,
		u.ID, u.TelegramID, u.TelegramUsername, u.FullName, u.Age, u.TradingYears,
		u.ExperienceLevel, u.AccountType, u.Phase, u.ProfitTarget,
		u.InitialBalance, u.CurrentBalance, u.RegistrationComplete, u.CreatedAt, u.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return errors.Wrap(errors.ErrAlreadyExists, "user already registered")
	}

	return err
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	var u user.User

	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	err := r.db.GetContext(ctx, &u, query, id)
	if err == sql.ErrNoRows {
		return nil, errors.Wrap(errors.ErrNotFound, "user not found")
	}
	if err != nil {
		return nil, err
	}

	return &u, nil
}

// GetByTelegramID retrieves a user by Telegram ID
func (r *UserRepository) GetByTelegramID(ctx context.Context, telegramID int64) (*user.User, error) {
	var u user.User

	query := `SELECT ` + userColumns + ` FROM users WHERE telegram_id = $1`

	err := r.db.GetContext(ctx, &u, query, telegramID)
	if err == sql.ErrNoRows {
		return nil, errors.Wrap(errors.ErrNotFound, "user not found")
	}
	if err != nil {
		return nil, err
	}

	return &u, nil
}

// Update updates user data
func (r *UserRepository) Update(ctx context.Context, u *user.User) error {
	query := `
		UPDATE users SET
			telegram_username = $2,
			full_name = $3,
			age = $4,
			trading_years = $5,
			experience_level = $6,
			account_type = $7,
			phase = $8,
			profit_target = $9,
			initial_balance = $10,
			current_balance = $11,
			registration_complete = $12,
			updated_at = NOW()
		WHERE id = $1`

	_, err := r.db.ExecContext(ctx, query,
		u.ID, u.TelegramUsername, u.FullName, u.Age, u.TradingYears,
		u.ExperienceLevel, u.AccountType, u.Phase, u.ProfitTarget,
		u.InitialBalance, u.CurrentBalance, u.RegistrationComplete,
	)

	return err
}

// ListRegistered retrieves all users that completed registration
func (r *UserRepository) ListRegistered(ctx context.Context) ([]*user.User, error) {
	var users []*user.User

	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE registration_complete = TRUE
		ORDER BY created_at`

	err := r.db.SelectContext(ctx, &users, query)
	if err != nil {
		return nil, err
	}

	return users, nil
}
