package parsers

import (
	"strings"
	"time"
)

// Candidate timestamp layouts, tried in order. Statement exports use the
// full form; some older files carry date-only values.
var timestampLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTimestamp parses a heterogeneous date string into a timestamp.
// The boolean reports success; a failed parse is a normal outcome consumed
// by the normalizer as a row-rejection signal, never an error.
func ParseTimestamp(raw string) (time.Time, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, trimmed); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
