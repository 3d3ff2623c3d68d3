package pace

import (
	"errors"
	"strings"
	"time"
)

var errEmptyTimestamp = errors.New("empty timestamp")

// layouts tried in order; zone-less values are read as UTC
var layouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05",
}

// ParseTimestamp reads an ISO-8601 timestamp as written by GPS devices and
// track generators.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, &InvalidTimestampError{Value: s, Err: errEmptyTimestamp}
	}

	var firstErr error
	for _, layout := range layouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t.UTC(), nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return time.Time{}, &InvalidTimestampError{Value: s, Err: firstErr}
}

// FormatTimestamp renders t in UTC with second precision.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(StampLayout)
}
