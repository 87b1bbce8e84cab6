package cron

import (
	"github.com/jonboulle/clockwork"

	"github.com/ThirdLetterC/nanocron/internal/errors"
	"github.com/ThirdLetterC/nanocron/internal/foundation"
)

// Offset bounds, in minutes from UTC.
const (
	MinOffsetMinutes = -1440
	MaxOffsetMinutes = 1440
)

// Registry owns a set of schedule entries and the state shared between
// executor invocations. A Registry is not safe for concurrent use; callers
// that share one across goroutines must serialize access themselves.
type Registry struct {
	entries []*Entry

	// depth counts nested executor invocations. Physical removal of
	// tombstoned entries and registry teardown only happen when it drops
	// back to zero.
	depth int

	// destroyPending stays set once Destroy has been requested; every later
	// operation fails.
	destroyPending bool

	offsetMinutes int

	clock clockwork.Clock
}

// New returns an empty Registry reading the host clock for Tick.
func New() *Registry {
	return NewWithClock(clockwork.NewRealClock())
}

// NewWithClock returns an empty Registry using the given clock for Tick.
func NewWithClock(clock clockwork.Clock) *Registry {
	return &Registry{clock: clock}
}

// Add parses the expression and registers it with the callback and opaque
// user value. The returned Entry is the handle for Remove. An entry added
// from inside a callback is appended past the executor's cursor, so the
// in-flight Execute pass will still consider it.
func (r *Registry) Add(expression string, cb Callback, user any) (*Entry, error) {
	if r.destroyPending {
		return nil, errors.RegistryDestroyed()
	}
	if cb == nil {
		return nil, errors.ValidationFailed("callback", "must not be nil")
	}
	fields, err := parseExpression(expression)
	if err != nil {
		return nil, err
	}
	e := &Entry{
		fields:     fields,
		expression: expression,
		callback:   cb,
		user:       user,
		lastFired:  foundation.None[Instant](),
		owner:      r,
	}
	r.entries = append(r.entries, e)
	return e, nil
}

// Remove unregisters an entry. While an executor invocation is in flight the
// entry is only tombstoned and swept later; otherwise it is detached
// immediately. Removing an entry that is not a live member fails.
func (r *Registry) Remove(e *Entry) error {
	if r.destroyPending {
		return errors.RegistryDestroyed()
	}
	if e == nil || e.owner != r || e.tombstone {
		return errors.NotAMember()
	}
	if r.depth > 0 {
		e.tombstone = true
		return nil
	}
	r.unlink(e)
	return nil
}

// Destroy tears the registry down. When called from inside a callback the
// teardown is deferred until the outermost executor invocation unwinds; the
// registry stays dereferenceable until then but every further operation
// fails.
func (r *Registry) Destroy() {
	if r.destroyPending {
		return
	}
	r.destroyPending = true
	if r.depth == 0 {
		r.teardown()
	}
}

// SetOffset stores the UTC offset, in minutes, applied when breaking
// instants down for matching. Entries are not reparsed.
func (r *Registry) SetOffset(minutes int) error {
	if r.destroyPending {
		return errors.RegistryDestroyed()
	}
	if minutes < MinOffsetMinutes || minutes > MaxOffsetMinutes {
		return errors.ValidationFailed("offset", "outside [-1440, 1440] minutes")
	}
	r.offsetMinutes = minutes
	return nil
}

// Offset returns the configured UTC offset in minutes.
func (r *Registry) Offset() int { return r.offsetMinutes }

// Len returns the number of live (non-tombstoned) entries.
func (r *Registry) Len() int {
	n := 0
	for _, e := range r.entries {
		if !e.tombstone {
			n++
		}
	}
	return n
}

func (r *Registry) unlink(target *Entry) {
	for i, e := range r.entries {
		if e == target {
			copy(r.entries[i:], r.entries[i+1:])
			r.entries[len(r.entries)-1] = nil
			r.entries = r.entries[:len(r.entries)-1]
			break
		}
	}
	target.owner = nil
}

// sweep drops tombstoned entries, preserving registration order.
func (r *Registry) sweep() {
	kept := r.entries[:0]
	for _, e := range r.entries {
		if e.tombstone {
			e.owner = nil
			continue
		}
		kept = append(kept, e)
	}
	for i := len(kept); i < len(r.entries); i++ {
		r.entries[i] = nil
	}
	r.entries = kept
}

func (r *Registry) teardown() {
	for _, e := range r.entries {
		e.owner = nil
	}
	r.entries = nil
}
