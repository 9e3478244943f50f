package flow

import (
	"time"

	"github.com/google/uuid"
)

// Flow names a multi-step conversational sequence
type Flow string

const (
	FlowNone         Flow = "none"
	FlowRegistration Flow = "registration"
	FlowJournaling   Flow = "journaling"
	FlowTherapy      Flow = "therapy"
	FlowBroadcast    Flow = "broadcast"
)

// State is the persisted position of one user inside a flow.
// Exactly one row exists per user while a flow is active, it is
// overwritten on every step and deleted on completion or cancel,
// so a process restart mid-flow loses nothing.
type State struct {
	ID        uuid.UUID `db:"id"`
	UserID    uuid.UUID `db:"user_id"`
	Flow      Flow      `db:"flow"`
	Step      int       `db:"step"`
	UpdatedAt time.Time `db:"updated_at"`

	// Data holds the partially collected inputs of the flow, keyed by
	// field name. Values are kept as the user's raw text so decimals
	// survive the JSON round-trip unchanged.
	Data map[string]string `db:"-"`
}

// NewState starts a flow at its first step
func NewState(userID uuid.UUID, f Flow) *State {
	return &State{
		ID:        uuid.New(),
		UserID:    userID,
		Flow:      f,
		Step:      0,
		UpdatedAt: time.Now().UTC(),
		Data:      make(map[string]string),
	}
}

// Advance moves to the next step, storing the collected value if named
func (s *State) Advance(field, value string) {
	if field != "" {
		if s.Data == nil {
			s.Data = make(map[string]string)
		}
		s.Data[field] = value
	}
	s.Step++
	s.UpdatedAt = time.Now().UTC()
}

// Set stores a collected value without advancing
func (s *State) Set(field, value string) {
	if s.Data == nil {
		s.Data = make(map[string]string)
	}
	s.Data[field] = value
	s.UpdatedAt = time.Now().UTC()
}

// Get returns a collected value
func (s *State) Get(field string) string {
	return s.Data[field]
}
