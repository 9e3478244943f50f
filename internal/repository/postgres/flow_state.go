package postgres

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/google/uuid"

	"mentor/internal/domain/flow"
	"mentor/pkg/errors"
)

// Compile-time check
var _ flow.Repository = (*FlowStateRepository)(nil)

// FlowStateRepository implements flow.Repository using sqlx.
// One row per user; collected answers live in a jsonb column so the
// conversation survives restarts.
type FlowStateRepository struct {
	db DBTX
}

// NewFlowStateRepository creates a new flow state repository
func NewFlowStateRepository(db DBTX) *FlowStateRepository {
	return &FlowStateRepository{db: db}
}

// Get retrieves the user's active flow state
func (r *FlowStateRepository) Get(ctx context.Context, userID uuid.UUID) (*flow.State, error) {
	var s flow.State
	var dataJSON []byte

	query := `
		SELECT id, user_id, flow, step, data, updated_at
		FROM flow_states
		WHERE user_id = $1`

	row := r.db.QueryRowContext(ctx, query, userID)
	err := row.Scan(&s.ID, &s.UserID, &s.Flow, &s.Step, &dataJSON, &s.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, errors.Wrap(errors.ErrNotFound, "no active flow")
	}
	if err != nil {
		return nil, err
	}

	s.Data = make(map[string]string)
	if len(dataJSON) > 0 {
		if err := json.Unmarshal(dataJSON, &s.Data); err != nil {
			return nil, errors.Wrap(err, "failed to unmarshal flow data")
		}
	}

	return &s, nil
}

// Save upserts the user's flow state
func (r *FlowStateRepository) Save(ctx context.Context, s *flow.State) error {
	dataJSON, err := json.Marshal(s.Data)
	if err != nil {
		return errors.Wrap(err, "failed to marshal flow data")
	}

	query := `
		INSERT INTO flow_states (id, user_id, flow, step, data, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		ON CONFLICT (user_id) DO UPDATE SET
			flow = EXCLUDED.flow,
			step = EXCLUDED.step,
			data = EXCLUDED.data,
			updated_at = NOW()`

	_, err = r.db.ExecContext(ctx, query, s.ID, s.UserID, s.Flow, s.Step, dataJSON)

	return err
}

// Clear removes the user's flow state; clearing a missing state is a no-op
func (r *FlowStateRepository) Clear(ctx context.Context, userID uuid.UUID) error {
	query := `DELETE FROM flow_states WHERE user_id = $1`
	_, err := r.db.ExecContext(ctx, query, userID)
	return err
}
