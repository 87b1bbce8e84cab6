package cron

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"
)

func TestNextTrigger(t *testing.T) {
	t.Run("weekday morning schedule", func(t *testing.T) {
		reg := New()
		_, err := reg.Add("0 0 30 9 * * 1-5", func(Instant, any) {}, nil)
		require.NoError(t, err)

		// Monday 2025-02-17 10:30:00 is already past 09:30; the next
		// trigger is Tuesday 09:30:00.
		next, ok := reg.NextTrigger(Instant{Sec: 1_739_788_200})
		require.True(t, ok)
		require.Equal(t, Instant{Sec: 1_739_871_000}, next)
	})

	t.Run("sub-second ordering", func(t *testing.T) {
		reg := New()
		_, err := reg.Add("0,500000000 * * * * * *", func(Instant, any) {}, nil)
		require.NoError(t, err)

		next, ok := reg.NextTrigger(Instant{Sec: baseSec})
		require.True(t, ok)
		require.Equal(t, Instant{Sec: baseSec, Nsec: 500_000_000}, next)

		next, ok = reg.NextTrigger(Instant{Sec: baseSec, Nsec: 500_000_000})
		require.True(t, ok)
		require.Equal(t, Instant{Sec: baseSec + 1}, next)
	})

	t.Run("strictly greater than the reference", func(t *testing.T) {
		reg := New()
		_, err := reg.Add("* * * * * * *", func(Instant, any) {}, nil)
		require.NoError(t, err)

		next, ok := reg.NextTrigger(Instant{Sec: baseSec})
		require.True(t, ok)
		require.Equal(t, Instant{Sec: baseSec, Nsec: 1}, next)

		// A reference at the nanosecond maximum rolls to the next second.
		next, ok = reg.NextTrigger(Instant{Sec: baseSec, Nsec: MaxNanos})
		require.True(t, ok)
		require.Equal(t, Instant{Sec: baseSec + 1}, next)
	})

	t.Run("minimum across schedules within a second", func(t *testing.T) {
		reg := New()
		_, err := reg.Add("750000000 * * * * * *", func(Instant, any) {}, nil)
		require.NoError(t, err)
		_, err = reg.Add("250000000 * * * * * *", func(Instant, any) {}, nil)
		require.NoError(t, err)

		next, ok := reg.NextTrigger(Instant{Sec: baseSec})
		require.True(t, ok)
		require.Equal(t, Instant{Sec: baseSec, Nsec: 250_000_000}, next)
	})

	t.Run("an earlier second beats a smaller nanosecond", func(t *testing.T) {
		reg := New()
		_, err := reg.Add("999999999 * * * * * *", func(Instant, any) {}, nil)
		require.NoError(t, err)
		_, err = reg.Add("0 30 * * * * *", func(Instant, any) {}, nil)
		require.NoError(t, err)

		// base second is :00; the first schedule matches every second at
		// ns 999999999, the other only at :30.0. The scan picks the first.
		next, ok := reg.NextTrigger(Instant{Sec: baseSec})
		require.True(t, ok)
		require.Equal(t, Instant{Sec: baseSec, Nsec: 999_999_999}, next)
	})

	t.Run("tombstoned entries do not contribute", func(t *testing.T) {
		reg := New()
		var entry *Entry
		entry, err := reg.Add("0 * * * * * *", func(Instant, any) {
			require.NoError(t, reg.Remove(entry))
			_, ok := reg.NextTrigger(Instant{Sec: baseSec})
			require.False(t, ok)
		}, nil)
		require.NoError(t, err)

		reg.Execute(Instant{Sec: baseSec})
	})

	t.Run("empty registry has no trigger", func(t *testing.T) {
		reg := New()
		_, ok := reg.NextTrigger(Instant{Sec: baseSec})
		require.False(t, ok)
	})

	t.Run("invalid reference has no trigger", func(t *testing.T) {
		reg := New()
		_, err := reg.Add("* * * * * * *", func(Instant, any) {}, nil)
		require.NoError(t, err)
		_, ok := reg.NextTrigger(Instant{Sec: baseSec, Nsec: -1})
		require.False(t, ok)
	})

	t.Run("optimality within the gap", func(t *testing.T) {
		reg := New()
		_, err := reg.Add("0 15,45 * * * * *", func(Instant, any) {}, nil)
		require.NoError(t, err)

		after := Instant{Sec: baseSec} // :00
		next, ok := reg.NextTrigger(after)
		require.True(t, ok)
		require.Equal(t, Instant{Sec: baseSec + 15}, next)

		// Nothing in between matches: executing the open interval before
		// the trigger fires no callback.
		probe := New()
		fired := 0
		_, err = probe.Add("0 15,45 * * * * *", countingCallback(&fired), nil)
		require.NoError(t, err)
		// next is at nanosecond 0, so the instant just before it is the
		// last nanosecond of the preceding second.
		require.NoError(t, probe.ExecuteBetween(after, Instant{Sec: next.Sec - 1, Nsec: MaxNanos}))
		require.Equal(t, 0, fired)
	})

	t.Run("horizon exhaustion", func(t *testing.T) {
		if testing.Short() {
			t.Skip("scans the full 366-day horizon")
		}
		reg := New()
		// February 30th never exists.
		_, err := reg.Add("0 0 0 0 30 2 *", func(Instant, any) {}, nil)
		require.NoError(t, err)

		_, ok := reg.NextTrigger(Instant{Sec: baseSec})
		require.False(t, ok)
	})

	t.Run("overflow near the end of time stops the search", func(t *testing.T) {
		reg := New()
		_, err := reg.Add("0 0 0 0 30 2 *", func(Instant, any) {}, nil)
		require.NoError(t, err)

		_, ok := reg.NextTrigger(Instant{Sec: 1<<63 - 2})
		require.False(t, ok)
	})
}

func TestTick(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Unix(baseSec, 0).UTC())
	reg := NewWithClock(clock)
	fired := 0
	_, err := reg.Add("* * * * * * *", countingCallback(&fired), nil)
	require.NoError(t, err)

	reg.Tick()
	require.Equal(t, 1, fired)

	// Same clock reading dedups.
	reg.Tick()
	require.Equal(t, 1, fired)

	clock.Advance(time.Second)
	reg.Tick()
	require.Equal(t, 2, fired)
}
