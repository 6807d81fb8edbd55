package relay

import (
	"regexp"
	"time"
)

// CompletionTimePattern is the accepted completion time shape:
// YYYY-MM-DDTHH:MM:SS.ffffffZ with one to six fractional digits.
const CompletionTimePattern = "YYYY-MM-DDTHH:MM:SS.ffffffZ"

var completionTimeRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}\.\d{1,6}Z$`)

// ParseCompletionTime parses a completion time as UTC.
// The fractional component and the trailing Z are mandatory.
func ParseCompletionTime(s string) (time.Time, error) {
	if !completionTimeRe.MatchString(s) {
		return time.Time{}, &TimestampFormatError{Value: s}
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		// Shape matched but a field is out of range (month 13, hour 25).
		return time.Time{}, &TimestampFormatError{Value: s, Err: err}
	}
	return t.UTC(), nil
}

// EpochMillis converts t to epoch milliseconds.
//
// The value is computed as float seconds times 1000, truncated toward zero,
// so sub-millisecond digits never round up.
func EpochMillis(t time.Time) int64 {
	seconds := float64(t.UnixMicro()) / 1e6
	return int64(seconds * 1000)
}

// CompletionMillis parses s and returns its epoch milliseconds.
func CompletionMillis(s string) (int64, error) {
	t, err := ParseCompletionTime(s)
	if err != nil {
		return 0, err
	}
	return EpochMillis(t), nil
}
