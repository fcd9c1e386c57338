package icron

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	require.NoError(t, Validate("0 * * * * *"))
	require.NoError(t, Validate("*/30 * * * * *"))
	require.NoError(t, Validate("@every 1m"))

	require.Error(t, Validate(""))
	require.Error(t, Validate("not a schedule"))
	require.Error(t, Validate("* * * * *")) // five fields, seconds required
}

func TestNextTrigger(t *testing.T) {
	ref := time.Date(2026, 8, 29, 12, 0, 30, 0, time.UTC)

	info, err := NextTrigger("0 * * * * *", ref)
	require.NoError(t, err)
	require.Equal(t, "0 * * * * *", info.Expression)
	require.Equal(t, time.Date(2026, 8, 29, 12, 1, 0, 0, time.UTC), info.Next)
	require.Equal(t, 30*time.Second, info.TimeUntilNext)
}

func TestNextTrigger_InvalidExpression(t *testing.T) {
	_, err := NextTrigger("bogus", time.Now())
	require.Error(t, err)
}
