package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"mentor/internal/domain/therapy"
	"mentor/pkg/errors"
)

// Compile-time check
var _ therapy.Repository = (*TherapySessionRepository)(nil)

// TherapySessionRepository implements therapy.Repository using sqlx.
// Turns are stored as a jsonb array; appends rewrite the array inside
// a single UPDATE so concurrent appends on the same session cannot
// drop each other.
type TherapySessionRepository struct {
	db DBTX
}

// NewTherapySessionRepository creates a new therapy session repository
func NewTherapySessionRepository(db DBTX) *TherapySessionRepository {
	return &TherapySessionRepository{db: db}
}

// Create inserts a new session
func (r *TherapySessionRepository) Create(ctx context.Context, s *therapy.Session) error {
	turnsJSON, err := json.Marshal(s.Turns)
	if err != nil {
		return errors.Wrap(err, "failed to marshal turns")
	}

	query := `
		INSERT INTO therapy_sessions (id, user_id, turns, started_at, ended_at)
		VALUES ($1, $2, $3, $4, $5)`

	_, err = r.db.ExecContext(ctx, query, s.ID, s.UserID, turnsJSON, s.StartedAt, s.EndedAt)

	return err
}

// GetByID retrieves a session by ID
func (r *TherapySessionRepository) GetByID(ctx context.Context, id uuid.UUID) (*therapy.Session, error) {
	query := `
		SELECT id, user_id, turns, started_at, ended_at
		FROM therapy_sessions
		WHERE id = $1`

	return r.scanOne(r.db.QueryRowContext(ctx, query, id), "session not found")
}

// GetActiveByUser retrieves the user's open session
func (r *TherapySessionRepository) GetActiveByUser(ctx context.Context, userID uuid.UUID) (*therapy.Session, error) {
	query := `
		SELECT id, user_id, turns, started_at, ended_at
		FROM therapy_sessions
		WHERE user_id = $1 AND ended_at IS NULL
		ORDER BY started_at DESC
		LIMIT 1`

	return r.scanOne(r.db.QueryRowContext(ctx, query, userID), "no active session")
}

// AppendTurns appends turns to a session's conversation
func (r *TherapySessionRepository) AppendTurns(ctx context.Context, id uuid.UUID, turns ...therapy.Turn) error {
	if len(turns) == 0 {
		return nil
	}

	turnsJSON, err := json.Marshal(turns)
	if err != nil {
		return errors.Wrap(err, "failed to marshal turns")
	}

	query := `
		UPDATE therapy_sessions
		SET turns = turns || $2::jsonb
		WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query, id, turnsJSON)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return errors.Wrap(errors.ErrNotFound, "session not found")
	}

	return nil
}

// Close sets ended_at on an open session; closing twice is a no-op
func (r *TherapySessionRepository) Close(ctx context.Context, id uuid.UUID, at time.Time) error {
	query := `
		UPDATE therapy_sessions
		SET ended_at = $2
		WHERE id = $1 AND ended_at IS NULL`

	_, err := r.db.ExecContext(ctx, query, id, at)
	return err
}

// ListIdleActive retrieves open sessions with no turn after the cutoff
func (r *TherapySessionRepository) ListIdleActive(ctx context.Context, cutoff time.Time) ([]*therapy.Session, error) {
	query := `
		SELECT id, user_id, turns, started_at, ended_at
		FROM therapy_sessions
		WHERE ended_at IS NULL
		  AND COALESCE((turns -> -1 ->> 'ts')::timestamptz, started_at) < $1`

	rows, err := r.db.QueryContext(ctx, query, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []*therapy.Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}

	return sessions, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSession(row rowScanner) (*therapy.Session, error) {
	var s therapy.Session
	var turnsJSON []byte

	if err := row.Scan(&s.ID, &s.UserID, &turnsJSON, &s.StartedAt, &s.EndedAt); err != nil {
		return nil, err
	}

	if len(turnsJSON) > 0 {
		if err := json.Unmarshal(turnsJSON, &s.Turns); err != nil {
			return nil, errors.Wrap(err, "failed to unmarshal turns")
		}
	}

	return &s, nil
}

func (r *TherapySessionRepository) scanOne(row *sql.Row, notFoundMsg string) (*therapy.Session, error) {
	s, err := scanSession(row)
	if err == sql.ErrNoRows {
		return nil, errors.Wrap(errors.ErrNotFound, notFoundMsg)
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}
