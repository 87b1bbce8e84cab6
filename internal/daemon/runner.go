// Package daemon drives the passive scheduler core from the wall clock and
// wires it to logging, metrics, and event publishing.
package daemon

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/ThirdLetterC/nanocron/internal/config"
	"github.com/ThirdLetterC/nanocron/internal/cron"
	"github.com/ThirdLetterC/nanocron/internal/errors"
	"github.com/ThirdLetterC/nanocron/internal/logfields"
	"github.com/ThirdLetterC/nanocron/internal/metrics"
)

// idleWait is how long the run loop sleeps when no trigger exists inside
// the search horizon.
const idleWait = time.Hour

// Job is one configured schedule binding registered with the runner.
type Job struct {
	ID         string
	Name       string
	Expression string
	Subject    string

	entry *cron.Entry
}

// Runner owns a cron.Registry and executes it against the clock. All
// registry access is serialized through the runner's mutex, honoring the
// core's single-threaded contract.
type Runner struct {
	cfg      *config.Config
	registry *cron.Registry
	clock    clockwork.Clock
	recorder *metrics.Recorder
	emitter  *EventEmitter

	mu     sync.Mutex
	jobs   map[string]*Job
	cursor cron.Instant

	stopChan chan struct{}
	wakeChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewRunner builds a runner for the given configuration. emitter may be nil
// to disable event publishing.
func NewRunner(cfg *config.Config, clock clockwork.Clock, recorder *metrics.Recorder, emitter *EventEmitter) (*Runner, error) {
	registry := cron.NewWithClock(clock)
	if err := registry.SetOffset(cfg.Scheduler.UTCOffsetMinutes); err != nil {
		return nil, err
	}
	return &Runner{
		cfg:      cfg,
		registry: registry,
		clock:    clock,
		recorder: recorder,
		emitter:  emitter,
		jobs:     make(map[string]*Job),
		stopChan: make(chan struct{}),
		wakeChan: make(chan struct{}, 1),
	}, nil
}

// Start registers the configured schedules and launches the run loop.
func (r *Runner) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, sc := range r.cfg.Scheduler.Schedules {
		if err := r.register(sc); err != nil {
			return err
		}
	}
	r.recorder.SetRegistered(r.registry.Len())
	r.cursor = cron.InstantFromTime(r.clock.Now())

	slog.Info("Starting scheduler runner",
		logfields.Count(r.registry.Len()),
		logfields.Offset(r.registry.Offset()))

	r.wg.Add(1)
	go r.loop(ctx)
	return nil
}

// Stop shuts the run loop down and waits for it to exit.
func (r *Runner) Stop() {
	r.stopOnce.Do(func() { close(r.stopChan) })
	r.wg.Wait()
	slog.Info("Scheduler runner stopped")
}

// Jobs returns the names of the currently registered jobs.
func (r *Runner) Jobs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.jobs))
	for name := range r.jobs {
		names = append(names, name)
	}
	return names
}

// register parses and adds one schedule binding. Must be called with the
// mutex held.
func (r *Runner) register(sc config.ScheduleConfig) error {
	job := &Job{
		ID:         uuid.NewString(),
		Name:       sc.Name,
		Expression: sc.Expression,
		Subject:    sc.Subject,
	}
	entry, err := r.registry.Add(sc.Expression, func(at cron.Instant, user any) {
		r.fired(user.(*Job), at)
	}, job)
	if err != nil {
		if errors.IsCategory(err, errors.CategoryParse) {
			r.recorder.IncParseFailure()
		}
		return err
	}
	job.entry = entry
	r.jobs[job.Name] = job
	slog.Info("Schedule registered",
		logfields.ScheduleID(job.ID),
		logfields.ScheduleName(job.Name),
		logfields.Expression(job.Expression))
	return nil
}

// fired handles one schedule firing. It runs inside the registry callback,
// with the runner mutex already held by the executing pass.
func (r *Runner) fired(job *Job, at cron.Instant) {
	slog.Info("Schedule fired",
		logfields.ScheduleID(job.ID),
		logfields.ScheduleName(job.Name),
		logfields.Instant(at.String()))
	r.recorder.IncFiring(job.Name)
	if r.emitter == nil {
		return
	}
	err := r.emitter.Publish(job.Subject, TriggerEvent{
		ID:         job.ID,
		Name:       job.Name,
		Expression: job.Expression,
		At:         at.Time().Format(time.RFC3339Nano),
		EpochSec:   at.Sec,
		Nanosecond: at.Nsec,
	})
	if err != nil {
		r.recorder.IncPublishError()
		slog.Warn("Failed to publish trigger event",
			logfields.ScheduleName(job.Name),
			logfields.Error(err))
	}
}

// Reload replaces the schedule bindings with the given set: entries whose
// name disappeared or whose expression or subject changed are removed, new
// ones are added. The registry offset is fixed at construction and not
// touched here.
func (r *Runner) Reload(schedules []config.ScheduleConfig) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	wanted := make(map[string]config.ScheduleConfig, len(schedules))
	for _, sc := range schedules {
		wanted[sc.Name] = sc
	}

	for name, job := range r.jobs {
		sc, keep := wanted[name]
		if keep && sc.Expression == job.Expression && sc.Subject == job.Subject {
			delete(wanted, name)
			continue
		}
		if err := r.registry.Remove(job.entry); err != nil {
			slog.Warn("Failed to remove schedule", logfields.ScheduleName(name), logfields.Error(err))
		}
		delete(r.jobs, name)
		slog.Info("Schedule removed", logfields.ScheduleName(name))
	}

	var firstErr error
	for _, sc := range wanted {
		if err := r.register(sc); err != nil {
			slog.Error("Failed to register schedule",
				logfields.ScheduleName(sc.Name),
				logfields.Expression(sc.Expression),
				logfields.Error(err))
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	r.recorder.SetRegistered(r.registry.Len())
	r.wake()
	return firstErr
}

func (r *Runner) wake() {
	select {
	case r.wakeChan <- struct{}{}:
	default:
	}
}

// loop sleeps until the next trigger and replays the elapsed interval when
// it wakes, catching up after drift or long sleeps.
func (r *Runner) loop(ctx context.Context) {
	defer r.wg.Done()
	for {
		r.mu.Lock()
		searchStart := r.clock.Now()
		next, ok := r.registry.NextTrigger(r.cursor)
		r.recorder.ObserveSearch(r.clock.Since(searchStart))
		r.mu.Unlock()

		wait := idleWait
		if ok {
			now := cron.InstantFromTime(r.clock.Now())
			if !next.After(now) {
				r.advance(now)
				continue
			}
			wait = next.Time().Sub(now.Time())
			slog.Debug("Sleeping until next trigger", logfields.NextRun(next.String()))
		}

		select {
		case <-ctx.Done():
			return
		case <-r.stopChan:
			return
		case <-r.wakeChan:
		case <-r.clock.After(wait):
			r.advance(cron.InstantFromTime(r.clock.Now()))
		}
	}
}

// advance fires everything due in (cursor, now], bounded by the configured
// catch-up window.
func (r *Runner) advance(now cron.Instant) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cursor := r.cursor
	if window := r.cfg.Scheduler.CatchUpWindow.Std(); window > 0 {
		if gap := now.Time().Sub(cursor.Time()); gap > window {
			cursor = cron.InstantFromTime(now.Time().Add(-window))
			slog.Warn("Catch-up window exceeded, dropping older triggers",
				logfields.Instant(r.cursor.String()),
				logfields.DurationMS(float64(gap.Milliseconds())))
		}
	}
	r.recorder.ObserveCatchup(now.Time().Sub(cursor.Time()))
	if err := r.registry.ExecuteBetween(cursor, now); err != nil {
		slog.Error("Executor pass failed", logfields.Error(err))
	}
	r.cursor = now
}
