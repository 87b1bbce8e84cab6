package cron

import (
	"github.com/ThirdLetterC/nanocron/internal/errors"
	"github.com/ThirdLetterC/nanocron/internal/foundation"
)

// Execute fires every entry whose schedule matches the given instant and
// that has not already fired at it. Invalid input, a destroyed registry, or
// a failed breakdown make it a silent no-op: Execute is driven from timing
// loops where an error return has nowhere useful to go.
func (r *Registry) Execute(at Instant) {
	if !at.Valid() || r.destroyPending {
		return
	}
	vals, ok := breakDown(at, r.offsetMinutes)
	if !ok {
		return
	}
	r.depth++
	// Indexed iteration with the length re-read each step: callbacks may
	// append entries mid-pass and those are visited too.
	for i := 0; i < len(r.entries); i++ {
		e := r.entries[i]
		if e.tombstone {
			continue
		}
		if !e.matches(vals, true) {
			continue
		}
		if e.lastFired.IsSome() && at.Compare(e.lastFired.Unwrap()) <= 0 {
			continue
		}
		// Written before the callback runs so a reentrant Execute at the
		// same instant observes the dedup state.
		e.lastFired = foundation.Some(at)
		e.callback(at, e.user)
		if r.destroyPending {
			break
		}
	}
	r.finish()
}

// ExecuteBetween fires every trigger in the half-open interval (after,
// until], in order, by alternating NextTrigger and Execute. An empty or
// inverted interval succeeds without firing.
func (r *Registry) ExecuteBetween(after, until Instant) error {
	if !after.Valid() || !until.Valid() {
		return errors.ValidationFailed("instant", "nanoseconds out of range")
	}
	if r.destroyPending {
		return errors.RegistryDestroyed()
	}
	if until.Compare(after) <= 0 {
		return nil
	}
	r.depth++
	cursor := after
	for {
		next := r.nextTrigger(cursor)
		if next.IsNone() || next.Unwrap().After(until) {
			break
		}
		r.Execute(next.Unwrap())
		if r.destroyPending {
			break
		}
		cursor = next.Unwrap()
	}
	r.finish()
	return nil
}

// Tick reads the clock and executes at the current instant.
func (r *Registry) Tick() {
	if r.destroyPending {
		return
	}
	r.Execute(InstantFromTime(r.clock.Now()))
}

// finish unwinds one executor invocation. When the outermost one exits,
// tombstoned entries are swept and a pending destroy is completed.
func (r *Registry) finish() {
	r.depth--
	if r.depth != 0 {
		return
	}
	r.sweep()
	if r.destroyPending {
		r.teardown()
	}
}
