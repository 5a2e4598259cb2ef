package notification

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/axiom-hq/axiom-hub/internal/domain/shared"
)

const recipientID = shared.UserID("3f1e9a2c-6d4b-4f0a-9c8e-1b2a3c4d5e6f")

func pendingNotification(t *testing.T) *Notification {
	t.Helper()
	n, err := NewNotification(NewNotificationParams{
		ID:          "n-1",
		Type:        TypeTeamUpRequested,
		RecipientID: recipientID,
		Channel:     ChannelInApp,
		Body:        "Alex зовёт тебя в команду",
	})
	require.NoError(t, err)
	return n
}

func TestNewNotification(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		n := pendingNotification(t)
		assert.Equal(t, StatusPending, n.Status)
		assert.Equal(t, PriorityHigh, n.Priority) // default for teamup_requested
		assert.Equal(t, defaultMaxRetries, n.MaxRetries)
	})

	t.Run("explicit priority wins", func(t *testing.T) {
		p := PriorityLow
		n, err := NewNotification(NewNotificationParams{
			ID:          "n-2",
			Type:        TypeTeamUpRequested,
			RecipientID: recipientID,
			Channel:     ChannelEmail,
			Body:        "x",
			Priority:    &p,
		})
		require.NoError(t, err)
		assert.Equal(t, PriorityLow, n.Priority)
	})

	t.Run("validation", func(t *testing.T) {
		_, err := NewNotification(NewNotificationParams{
			ID: "", Type: TypeWelcome, RecipientID: recipientID,
			Channel: ChannelInApp, Body: "x",
		})
		assert.ErrorIs(t, err, shared.ErrInvalidID)

		_, err = NewNotification(NewNotificationParams{
			ID: "n", Type: "bogus", RecipientID: recipientID,
			Channel: ChannelInApp, Body: "x",
		})
		assert.ErrorIs(t, err, ErrInvalidType)

		_, err = NewNotification(NewNotificationParams{
			ID: "n", Type: TypeWelcome, RecipientID: recipientID,
			Channel: "sms", Body: "x",
		})
		assert.ErrorIs(t, err, ErrInvalidChannel)

		_, err = NewNotification(NewNotificationParams{
			ID: "n", Type: TypeWelcome, RecipientID: recipientID,
			Channel: ChannelInApp, Body: "",
		})
		assert.ErrorIs(t, err, ErrEmptyBody)
	})
}

func TestNotification_DeliveryLifecycle(t *testing.T) {
	t.Run("happy path", func(t *testing.T) {
		n := pendingNotification(t)
		require.NoError(t, n.MarkSending())
		require.NoError(t, n.MarkDelivered())
		assert.Equal(t, StatusDelivered, n.Status)
		assert.NotNil(t, n.SentAt)
		assert.NotNil(t, n.DeliveredAt)
	})

	t.Run("deliver without sending", func(t *testing.T) {
		n := pendingNotification(t)
		assert.ErrorIs(t, n.MarkDelivered(), ErrInvalidTransition)
	})

	t.Run("retry until exhausted", func(t *testing.T) {
		n := pendingNotification(t)

		for i := 0; i < defaultMaxRetries-1; i++ {
			require.NoError(t, n.MarkSending())
			require.NoError(t, n.MarkFailed("smtp timeout"))
			assert.True(t, n.CanRetry())
			require.NoError(t, n.ResetForRetry())
		}

		require.NoError(t, n.MarkSending())
		require.NoError(t, n.MarkFailed("smtp timeout"))
		assert.False(t, n.CanRetry())
		assert.ErrorIs(t, n.ResetForRetry(), ErrMaxRetriesExceeded)
		assert.Equal(t, defaultMaxRetries, n.RetryCount)
	})

	t.Run("skip is final", func(t *testing.T) {
		n := pendingNotification(t)
		require.NoError(t, n.MarkSkipped("quiet hours"))
		assert.Equal(t, "quiet hours", n.LastError)
		assert.ErrorIs(t, n.MarkCancelled(), ErrInvalidTransition)
	})
}

func TestNotificationType_Defaults(t *testing.T) {
	assert.Equal(t, PriorityUrgent, TypeSystemAlert.DefaultPriority())
	assert.Equal(t, PriorityLow, TypeDailyDigest.DefaultPriority())
	assert.True(t, PriorityUrgent.IgnoresQuietHours())
	assert.False(t, PriorityHigh.IgnoresQuietHours())
	assert.Equal(t, "🤝", TypeTeamUpRequested.Emoji())
	assert.Equal(t, "📬", NotificationType("bogus").Emoji())
}
