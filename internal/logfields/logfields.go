// Package logfields provides canonical log field names and helpers for
// structured logging across the scheduler daemon and CLI.
package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyScheduleID = "schedule_id"
	KeySchedule   = "schedule_name"
	KeyExpression = "expression"
	KeyInstant    = "instant"
	KeyNextRun    = "next_run"
	KeyOffset     = "offset_minutes"
	KeyCount      = "count"
	KeySubject    = "subject"
	KeyURL        = "url"
	KeyPath       = "path"
	KeyListen     = "listen"
	KeyDurationMS = "duration_ms"
	KeyError      = "error"
)

// The following helpers return slog.Attr for common log fields, allowing
// composable structured logging.

func ScheduleID(id string) slog.Attr   { return slog.String(KeyScheduleID, id) }  // ScheduleID returns a slog.Attr for schedule ID.
func ScheduleName(n string) slog.Attr  { return slog.String(KeySchedule, n) }     // ScheduleName returns a slog.Attr for schedule name.
func Expression(e string) slog.Attr    { return slog.String(KeyExpression, e) }   // Expression returns a slog.Attr for a schedule expression.
func Instant(s string) slog.Attr       { return slog.String(KeyInstant, s) }      // Instant returns a slog.Attr for a trigger instant.
func NextRun(s string) slog.Attr       { return slog.String(KeyNextRun, s) }      // NextRun returns a slog.Attr for the next trigger instant.
func Offset(minutes int) slog.Attr     { return slog.Int(KeyOffset, minutes) }    // Offset returns a slog.Attr for the UTC offset in minutes.
func Count(n int) slog.Attr            { return slog.Int(KeyCount, n) }           // Count returns a slog.Attr for a generic count.
func Subject(s string) slog.Attr       { return slog.String(KeySubject, s) }      // Subject returns a slog.Attr for a message subject.
func URL(u string) slog.Attr           { return slog.String(KeyURL, u) }          // URL returns a slog.Attr for a URL field.
func Path(p string) slog.Attr          { return slog.String(KeyPath, p) }         // Path returns a slog.Attr for a file path.
func Listen(addr string) slog.Attr     { return slog.String(KeyListen, addr) }    // Listen returns a slog.Attr for a listen address.
func DurationMS(ms float64) slog.Attr  { return slog.Float64(KeyDurationMS, ms) } // DurationMS returns a slog.Attr for duration in ms.

// Error returns a slog.Attr for an error, or an empty string if nil.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
