package cron

import (
	"github.com/ThirdLetterC/nanocron/internal/foundation"
)

// searchHorizonSeconds bounds the forward scan of NextTrigger. A schedule
// with no match inside 366 days is reported as having none.
const searchHorizonSeconds = 366 * 86_400

// NextTrigger returns the smallest instant strictly after the reference at
// which any live entry matches, searching at most 366 days ahead. The
// second return value is false when no trigger exists inside the horizon,
// when the input is invalid, or after Destroy.
func (r *Registry) NextTrigger(after Instant) (Instant, bool) {
	if !after.Valid() || r.destroyPending {
		return Instant{}, false
	}
	next := r.nextTrigger(after)
	if next.IsNone() {
		return Instant{}, false
	}
	return next.Unwrap(), true
}

// nextTrigger scans forward one second at a time. Within a candidate second
// the smallest matching nanosecond across all entries wins; ordering across
// seconds is preserved by the outer scan.
func (r *Registry) nextTrigger(after Instant) foundation.Option[Instant] {
	if !r.hasLiveEntries() {
		return foundation.None[Instant]()
	}
	for off := int64(0); off < searchHorizonSeconds; off++ {
		sec, ok := addInt64(after.Sec, off)
		if !ok {
			break
		}
		vals, ok := breakDown(Instant{Sec: sec}, r.offsetMinutes)
		if !ok {
			break
		}
		// Strict-greater-than contract: inside the reference second only
		// nanoseconds past after.Nsec qualify, and a reference already at
		// the maximum excludes that second entirely.
		lo := uint32(0)
		if off == 0 {
			if after.Nsec >= MaxNanos {
				continue
			}
			lo = uint32(after.Nsec) + 1
		}
		best := foundation.None[uint32]()
		for _, e := range r.entries {
			if e.tombstone {
				continue
			}
			if !e.matches(vals, false) {
				continue
			}
			ns := e.fields[fieldNanosecond].nextMatch(lo, MaxNanos)
			if ns.IsNone() {
				continue
			}
			if best.IsNone() || ns.Unwrap() < best.Unwrap() {
				best = ns
			}
		}
		if best.IsSome() {
			return foundation.Some(Instant{Sec: sec, Nsec: int32(best.Unwrap())})
		}
	}
	return foundation.None[Instant]()
}

func (r *Registry) hasLiveEntries() bool {
	for _, e := range r.entries {
		if !e.tombstone {
			return true
		}
	}
	return false
}
