package cron

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestInstant(t *testing.T) {
	t.Run("ordering is lexicographic", func(t *testing.T) {
		a := Instant{Sec: 100, Nsec: 999_999_999}
		b := Instant{Sec: 101, Nsec: 0}
		require.True(t, a.Before(b))
		require.True(t, b.After(a))
		require.Equal(t, 0, a.Compare(a))
		require.Equal(t, -1, Instant{Sec: 100, Nsec: 1}.Compare(Instant{Sec: 100, Nsec: 2}))
	})

	t.Run("validity bounds the nanosecond", func(t *testing.T) {
		require.True(t, Instant{Sec: 0, Nsec: 0}.Valid())
		require.True(t, Instant{Sec: -5, Nsec: MaxNanos}.Valid())
		require.False(t, Instant{Sec: 0, Nsec: -1}.Valid())
		require.False(t, Instant{Sec: 0, Nsec: MaxNanos + 1}.Valid())
	})

	t.Run("time round-trip", func(t *testing.T) {
		at := time.Date(2025, 2, 17, 10, 30, 0, 500_000_000, time.UTC)
		inst := InstantFromTime(at)
		require.Equal(t, int64(1_739_788_200), inst.Sec)
		require.Equal(t, int32(500_000_000), inst.Nsec)
		require.True(t, at.Equal(inst.Time()))
	})

	t.Run("string is sec.nsec", func(t *testing.T) {
		require.Equal(t, "1739788200.000000001", Instant{Sec: 1_739_788_200, Nsec: 1}.String())
	})
}

func TestBreakDown(t *testing.T) {
	t.Run("plain UTC", func(t *testing.T) {
		vals, ok := breakDown(Instant{Sec: 1_739_788_200, Nsec: 250}, 0)
		require.True(t, ok)
		require.Equal(t, uint32(250), vals.nsec)
		require.Equal(t, uint32(0), vals.sec)
		require.Equal(t, uint32(30), vals.min)
		require.Equal(t, uint32(10), vals.hour)
		require.Equal(t, uint32(17), vals.dom)
		require.Equal(t, uint32(2), vals.month)
		require.Equal(t, uint32(1), vals.dow) // Monday
	})

	t.Run("offset shifts the calendar", func(t *testing.T) {
		vals, ok := breakDown(Instant{Sec: 1_739_788_200}, -60)
		require.True(t, ok)
		require.Equal(t, uint32(9), vals.hour)
		require.Equal(t, uint32(30), vals.min)
	})

	t.Run("offset overflow fails", func(t *testing.T) {
		_, ok := breakDown(Instant{Sec: 1<<63 - 1}, 1440)
		require.False(t, ok)
	})
}
