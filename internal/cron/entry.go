package cron

import (
	"github.com/ThirdLetterC/nanocron/internal/foundation"
)

// Callback is invoked synchronously for every matching entry. at is the
// instant passed to Execute, user the opaque value supplied to Add. A
// callback may call any operation on the owning Registry, including Add,
// Remove, Destroy, and Execute.
type Callback func(at Instant, user any)

// Entry is one registered schedule: seven parsed fields, a callback, and
// dedup state. Entries are created by Registry.Add and stay valid until
// removed or until the Registry is destroyed.
type Entry struct {
	fields     scheduleFields
	expression string
	callback   Callback
	user       any

	// lastFired dedups firings: an entry fires at most once per distinct
	// instant across monotonically non-decreasing Execute calls.
	lastFired foundation.Option[Instant]

	// tombstone marks an entry removed while an executor invocation is in
	// flight; it is skipped from then on and swept when the outermost
	// invocation unwinds.
	tombstone bool

	owner *Registry
}

// Expression returns the schedule text the entry was parsed from.
func (e *Entry) Expression() string { return e.expression }

// matches reports whether the entry's schedule accepts the broken-down
// instant. The nanosecond field is checked only when withNanos is true;
// next-trigger search passes false, because there the nanosecond is
// resolved separately once the second is fixed.
func (e *Entry) matches(v fieldValues, withNanos bool) bool {
	if withNanos && !e.fields[fieldNanosecond].matches(v.nsec) {
		return false
	}
	if !e.fields[fieldSecond].matches(v.sec) ||
		!e.fields[fieldMinute].matches(v.min) ||
		!e.fields[fieldHour].matches(v.hour) ||
		!e.fields[fieldMonth].matches(v.month) {
		return false
	}
	dom := &e.fields[fieldDayOfMonth]
	dow := &e.fields[fieldDayOfWeek]
	if !dom.wildcard && !dow.wildcard {
		// Vixie-cron rule: with both day fields restricted the schedule
		// matches on either of them.
		return dom.matches(v.dom) || dow.matches(v.dow)
	}
	return dom.matches(v.dom) && dow.matches(v.dow)
}
