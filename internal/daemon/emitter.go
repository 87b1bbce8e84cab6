package daemon

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/ThirdLetterC/nanocron/internal/config"
	"github.com/ThirdLetterC/nanocron/internal/errors"
	"github.com/ThirdLetterC/nanocron/internal/logfields"
)

// TriggerEvent is the JSON payload published for every schedule firing.
type TriggerEvent struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Expression string `json:"expression"`
	At         string `json:"at"`
	EpochSec   int64  `json:"epoch_seconds"`
	Nanosecond int32  `json:"nanosecond"`
}

// EventEmitter publishes trigger events to NATS.
type EventEmitter struct {
	conn    *nats.Conn
	subject string
}

// NewEventEmitter connects to NATS with automatic reconnection. The initial
// connect is fatal here; callers that want a daemon without events pass a
// nil emitter to the runner instead.
func NewEventEmitter(cfg *config.EventsConfig) (*EventEmitter, error) {
	opts := []nats.Option{
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2 * time.Second),
		nats.ReconnectJitter(500*time.Millisecond, 2*time.Second),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			if err != nil {
				slog.Warn("NATS disconnected", logfields.Error(err))
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			slog.Info("NATS reconnected", logfields.URL(nc.ConnectedUrl()))
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			slog.Info("NATS connection closed")
		}),
	}
	conn, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, errors.WrapDaemon(err, "connecting to NATS").WithContext("url", cfg.URL)
	}
	return &EventEmitter{conn: conn, subject: cfg.Subject}, nil
}

// Publish sends one trigger event. subject overrides the configured default
// when non-empty.
func (e *EventEmitter) Publish(subject string, ev TriggerEvent) error {
	if subject == "" {
		subject = e.subject
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return errors.WrapDaemon(err, "encoding trigger event")
	}
	if err := e.conn.Publish(subject, data); err != nil {
		return errors.WrapDaemon(err, "publishing trigger event").WithContext("subject", subject)
	}
	return nil
}

// Close closes the NATS connection without draining it.
func (e *EventEmitter) Close() {
	e.conn.Close()
}
