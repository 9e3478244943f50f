package therapy

import (
	"time"

	"github.com/google/uuid"
)

// Role identifies who produced a turn
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one message in a therapy conversation
type Turn struct {
	Role      Role      `json:"role"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"ts"`
}

// Session is one therapy conversation. Turns are append-only and
// ordered by timestamp; a session is closed by /end or by the
// inactivity sweeper.
type Session struct {
	ID        uuid.UUID  `db:"id"`
	UserID    uuid.UUID  `db:"user_id"`
	Turns     []Turn     `db:"-"`
	StartedAt time.Time  `db:"started_at"`
	EndedAt   *time.Time `db:"ended_at"`
}

// NewSession opens a session for the user
func NewSession(userID uuid.UUID) *Session {
	return &Session{
		ID:        uuid.New(),
		UserID:    userID,
		StartedAt: time.Now().UTC(),
	}
}

// NewTurn builds a timestamped turn without attaching it to a session
func NewTurn(role Role, text string) Turn {
	return Turn{Role: role, Text: text, Timestamp: time.Now().UTC()}
}

// Append adds a turn to the conversation
func (s *Session) Append(role Role, text string) Turn {
	turn := NewTurn(role, text)
	s.Turns = append(s.Turns, turn)
	return turn
}

// LastActivity returns the timestamp of the most recent turn,
// falling back to the session start
func (s *Session) LastActivity() time.Time {
	if len(s.Turns) == 0 {
		return s.StartedAt
	}
	return s.Turns[len(s.Turns)-1].Timestamp
}

// IsActive reports whether the session is still open
func (s *Session) IsActive() bool {
	return s.EndedAt == nil
}

// Close sets the end timestamp. Closing twice is a no-op.
func (s *Session) Close(at time.Time) bool {
	if s.EndedAt != nil {
		return false
	}
	t := at.UTC()
	s.EndedAt = &t
	return true
}
