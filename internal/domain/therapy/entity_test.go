package therapy

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestSession_AppendOrdersTurns(t *testing.T) {
	s := NewSession(uuid.New())

	s.Append(RoleUser, "hello")
	s.Append(RoleAssistant, "hi")

	assert.Len(t, s.Turns, 2)
	assert.Equal(t, RoleUser, s.Turns[0].Role)
	assert.Equal(t, RoleAssistant, s.Turns[1].Role)
	assert.False(t, s.Turns[1].Timestamp.Before(s.Turns[0].Timestamp))
}

func TestSession_LastActivityFallsBackToStart(t *testing.T) {
	s := NewSession(uuid.New())
	assert.Equal(t, s.StartedAt, s.LastActivity())

	turn := s.Append(RoleUser, "hello")
	assert.Equal(t, turn.Timestamp, s.LastActivity())
}

func TestSession_DoubleCloseIsNoop(t *testing.T) {
	s := NewSession(uuid.New())
	first := time.Date(2025, 1, 8, 12, 0, 0, 0, time.UTC)

	assert.True(t, s.Close(first))
	assert.False(t, s.Close(first.Add(time.Hour)))
	assert.Equal(t, first, *s.EndedAt)
	assert.False(t, s.IsActive())
}
