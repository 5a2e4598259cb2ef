package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCronExpression(t *testing.T) {
	t.Run("valid expressions", func(t *testing.T) {
		for _, expr := range []string{
			"* * * * *",
			"*/5 * * * *",
			"0 9 * * *",
			"30 9,21 * * *",
			"0 9-17 * * 1-5",
			"0 0 1 * *",
		} {
			ce, err := ParseCronExpression(expr)
			require.NoError(t, err, expr)
			assert.Equal(t, expr, ce.String())
		}
	})

	t.Run("wrong field count", func(t *testing.T) {
		_, err := ParseCronExpression("* * * *")
		require.Error(t, err)
	})

	t.Run("value out of range", func(t *testing.T) {
		_, err := ParseCronExpression("60 * * * *")
		require.Error(t, err)

		_, err = ParseCronExpression("* 24 * * *")
		require.Error(t, err)
	})

	t.Run("bad step", func(t *testing.T) {
		_, err := ParseCronExpression("*/0 * * * *")
		require.Error(t, err)

		_, err = ParseCronExpression("*/x * * * *")
		require.Error(t, err)
	})
}

func TestCronExpression_Next(t *testing.T) {
	// Понедельник, 12 января 2026, 10:07 UTC.
	base := time.Date(2026, time.January, 12, 10, 7, 0, 0, time.UTC)

	cases := []struct {
		expr string
		want time.Time
	}{
		{"*/5 * * * *", time.Date(2026, time.January, 12, 10, 10, 0, 0, time.UTC)},
		{"0 * * * *", time.Date(2026, time.January, 12, 11, 0, 0, 0, time.UTC)},
		{"0 9 * * *", time.Date(2026, time.January, 13, 9, 0, 0, 0, time.UTC)},
		{"30 9,21 * * *", time.Date(2026, time.January, 12, 21, 30, 0, 0, time.UTC)},
		// Ближайшее воскресенье — 18 января.
		{"0 0 * * 0", time.Date(2026, time.January, 18, 0, 0, 0, 0, time.UTC)},
		// Первое число следующего месяца.
		{"0 0 1 * *", time.Date(2026, time.February, 1, 0, 0, 0, 0, time.UTC)},
	}

	for _, tc := range cases {
		t.Run(tc.expr, func(t *testing.T) {
			ce, err := ParseCronExpression(tc.expr)
			require.NoError(t, err)
			assert.Equal(t, tc.want, ce.Next(base))
		})
	}

	t.Run("next skips the current minute", func(t *testing.T) {
		ce, err := ParseCronExpression("7 10 * * *")
		require.NoError(t, err)
		next := ce.Next(base)
		assert.Equal(t, time.Date(2026, time.January, 13, 10, 7, 0, 0, time.UTC), next)
	})
}
