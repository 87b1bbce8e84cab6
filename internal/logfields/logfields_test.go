package logfields

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHelpers(t *testing.T) {
	t.Run("string fields use canonical keys", func(t *testing.T) {
		attr := ScheduleName("nightly-sync")
		require.Equal(t, KeySchedule, attr.Key)
		require.Equal(t, "nightly-sync", attr.Value.String())

		attr = Expression("0 * * * * * *")
		require.Equal(t, KeyExpression, attr.Key)
	})

	t.Run("offset is an int attr", func(t *testing.T) {
		attr := Offset(-120)
		require.Equal(t, KeyOffset, attr.Key)
		require.Equal(t, int64(-120), attr.Value.Int64())
	})

	t.Run("nil error yields empty string", func(t *testing.T) {
		attr := Error(nil)
		require.Equal(t, "", attr.Value.String())
	})

	t.Run("error message is preserved", func(t *testing.T) {
		attr := Error(errors.New("no such schedule"))
		require.Equal(t, "no such schedule", attr.Value.String())
	})
}
