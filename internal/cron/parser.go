package cron

import (
	"strconv"
	"strings"

	"github.com/ThirdLetterC/nanocron/internal/errors"
)

// maxExpressionLen caps accepted schedule expressions, in bytes.
const maxExpressionLen = 512

// fieldBounds holds the inclusive value range for each schedule position.
var fieldBounds = [numFields]struct{ min, max uint32 }{
	fieldNanosecond: {0, MaxNanos},
	fieldSecond:     {0, 59},
	fieldMinute:     {0, 59},
	fieldHour:       {0, 23},
	fieldDayOfMonth: {1, 31},
	fieldMonth:      {1, 12},
	fieldDayOfWeek:  {0, 6}, // 0 = Sunday
}

var fieldNames = [numFields]string{
	"nanosecond", "second", "minute", "hour", "day-of-month", "month", "day-of-week",
}

type scheduleFields [numFields]field

// parseExpression converts a 7-field schedule expression into its parsed
// form. Failure leaves no partial state behind.
func parseExpression(expr string) (scheduleFields, error) {
	var fields scheduleFields
	if expr == "" {
		return fields, errors.ParseFailed("empty expression")
	}
	if len(expr) > maxExpressionLen {
		return fields, errors.ParseFailed("expression too long").
			WithContext("length", len(expr)).
			WithContext("max", maxExpressionLen)
	}
	tokens := strings.Fields(expr)
	if len(tokens) != numFields {
		return fields, errors.ParseFailed("expected 7 fields").
			WithContext("fields", len(tokens))
	}
	for i, tok := range tokens {
		f, err := parseField(tok, fieldBounds[i].min, fieldBounds[i].max)
		if err != nil {
			if ce, ok := err.(*errors.CronError); ok {
				return scheduleFields{}, ce.WithContext("field", fieldNames[i])
			}
			return scheduleFields{}, err
		}
		fields[i] = f
	}
	return fields, nil
}

// parseField parses one comma-separated field token under the given bounds.
func parseField(tok string, min, max uint32) (field, error) {
	segs := strings.Split(tok, ",")
	if len(segs) > maxAtoms {
		return field{}, errors.ParseFailed("too many list segments").
			WithContext("segments", len(segs)).
			WithContext("max", maxAtoms)
	}
	f := field{
		atoms: make([]atom, 0, len(segs)),
		// A field is a wildcard only when the whole token is a bare star;
		// "*,5" or "*/2" restrict the field.
		wildcard: tok == "*",
	}
	for _, seg := range segs {
		a, err := parseSegment(seg, min, max)
		if err != nil {
			return field{}, err
		}
		f.atoms = append(f.atoms, a)
	}
	return f, nil
}

// parseSegment parses one "* | */s | v | v/s | v-w | v-w/s" segment.
func parseSegment(seg string, min, max uint32) (atom, error) {
	if seg == "" {
		return atom{}, errors.ParseFailed("empty segment")
	}
	parts := strings.Split(seg, "/")
	if len(parts) > 2 {
		return atom{}, errors.ParseFailed("too many '/' in segment").
			WithContext("segment", seg)
	}

	step := uint64(1)
	if len(parts) == 2 {
		s, err := strconv.ParseUint(parts[1], 10, 32)
		if err != nil {
			return atom{}, errors.ParseFailed("bad step value").
				WithContext("segment", seg)
		}
		if s == 0 {
			return atom{}, errors.ParseFailed("step must be positive").
				WithContext("segment", seg)
		}
		step = s
	}

	a := atom{step: step}
	body := parts[0]
	if body == "*" {
		a.start, a.end = min, max
		return a, nil
	}

	bounds := strings.Split(body, "-")
	if len(bounds) > 2 {
		return atom{}, errors.ParseFailed("too many '-' in segment").
			WithContext("segment", seg)
	}
	v, err := parseBounded(bounds[0], min, max)
	if err != nil {
		return atom{}, err
	}
	a.start, a.end = v, v
	if len(bounds) == 2 {
		w, err := parseBounded(bounds[1], min, max)
		if err != nil {
			return atom{}, err
		}
		if w < v {
			return atom{}, errors.ParseFailed("inverted range").
				WithContext("segment", seg)
		}
		a.end = w
	} else if step > 1 {
		// Vixie-compatible quirk: a step on a bare value opens the range to
		// the field maximum, so "10/5" means 10, 15, 20, ... max.
		a.end = max
	}
	return a, nil
}

// parseBounded parses an unsigned decimal with no sign or whitespace and
// checks it against the field bounds. Overflow is a parse failure.
func parseBounded(s string, min, max uint32) (uint32, error) {
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, errors.ParseFailed("bad number").WithContext("value", s)
	}
	if n < uint64(min) || n > uint64(max) {
		return 0, errors.ParseFailed("value out of range").
			WithContext("value", s).
			WithContext("min", min).
			WithContext("max", max)
	}
	return uint32(n), nil
}
