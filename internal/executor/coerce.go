package executor

import (
	"strings"
	"time"

	"agent-gw-poc/internal/contract"
)

// temporalNameSuffixes is the name-pattern fallback for fields whose contract
// type does not declare them temporal.
var temporalNameSuffixes = []string{"_at", "_date", "_time"}

// isTemporalField reports whether a field should have string values parsed
// into native temporal values before binding.
func isTemporalField(c *contract.ResourceContract, name string) bool {
	if f := c.GetField(name); f != nil {
		if f.Type == contract.TypeDate || f.Type == contract.TypeTimestamp {
			return true
		}
	}
	for _, suffix := range temporalNameSuffixes {
		if strings.HasSuffix(name, suffix) {
			return true
		}
	}
	return false
}

var coerceLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// CoerceTemporal converts a string value destined for a temporal column into
// a time.Time. The strategy is deliberately tolerant: plain dates parse as
// dates, ISO-ish strings are tried against several layouts after stripping a
// trailing Z or +00:00 offset, and anything unparsable passes through
// unchanged so one odd value does not fail the whole operation.
func CoerceTemporal(value interface{}) interface{} {
	s, ok := value.(string)
	if !ok {
		return value
	}

	if len(s) == 10 && !strings.ContainsAny(s, "T ") {
		if t, err := time.Parse("2006-01-02", s); err == nil {
			return t
		}
		return s
	}

	if strings.ContainsAny(s, "T ") {
		trimmed := strings.TrimSuffix(s, "Z")
		trimmed = strings.TrimSuffix(trimmed, "+00:00")
		for _, layout := range coerceLayouts {
			if t, err := time.Parse(layout, trimmed); err == nil {
				return t.UTC()
			}
		}
	}

	return s
}
