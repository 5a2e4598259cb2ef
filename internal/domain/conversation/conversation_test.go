package conversation

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/axiom-hq/axiom-hub/internal/domain/shared"
)

const (
	userA = shared.UserID("3f1e9a2c-6d4b-4f0a-9c8e-1b2a3c4d5e6f")
	userB = shared.UserID("8b2d7e4f-1a3c-4d5e-9f0a-2b3c4d5e6f7a")
	userC = shared.UserID("5c6d7e8f-9a0b-4c1d-8e2f-3a4b5c6d7e8f")
)

func TestNewConversation(t *testing.T) {
	t.Run("canonical participant order", func(t *testing.T) {
		c1, err := NewConversation("c1", userA, userB)
		require.NoError(t, err)
		c2, err := NewConversation("c2", userB, userA)
		require.NoError(t, err)

		assert.Equal(t, c1.ParticipantA, c2.ParticipantA)
		assert.Equal(t, c1.ParticipantB, c2.ParticipantB)
		assert.True(t, c1.ParticipantA < c1.ParticipantB)
	})

	t.Run("self conversation rejected", func(t *testing.T) {
		_, err := NewConversation("c3", userA, userA)
		assert.Error(t, err)
	})
}

func TestConversation_OtherParticipant(t *testing.T) {
	c, err := NewConversation("c1", userA, userB)
	require.NoError(t, err)

	other, ok := c.OtherParticipant(userA)
	require.True(t, ok)
	assert.Equal(t, userB, other)

	other, ok = c.OtherParticipant(userB)
	require.True(t, ok)
	assert.Equal(t, userA, other)

	_, ok = c.OtherParticipant(userC)
	assert.False(t, ok)
}

func TestConversation_NewMessage(t *testing.T) {
	c, err := NewConversation("c1", userA, userB)
	require.NoError(t, err)

	m, err := c.NewMessage("m1", userA, "  hello there  ")
	require.NoError(t, err)
	assert.Equal(t, "hello there", m.Body)
	assert.Equal(t, c.LastMessageAt, m.SentAt)

	_, err = c.NewMessage("m2", userC, "hi")
	assert.ErrorIs(t, err, ErrNotParticipant)

	_, err = c.NewMessage("m3", userA, "   ")
	assert.ErrorIs(t, err, ErrEmptyMessage)

	_, err = c.NewMessage("m4", userA, strings.Repeat("x", 2001))
	assert.ErrorIs(t, err, ErrMessageTooLong)
}

func TestMessage_MarkRead(t *testing.T) {
	c, err := NewConversation("c1", userA, userB)
	require.NoError(t, err)
	m, err := c.NewMessage("m1", userA, "ping")
	require.NoError(t, err)

	first := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	m.MarkRead(first)
	assert.Equal(t, first, m.ReadAt)

	// Повторное прочтение не двигает время.
	m.MarkRead(first.Add(time.Hour))
	assert.Equal(t, first, m.ReadAt)
}
