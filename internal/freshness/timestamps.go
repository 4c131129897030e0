package freshness

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	// TimestampLayoutConstant renders local timestamps without an offset.
	TimestampLayoutConstant  = "2006-01-02T15:04:05"
	sinceDateLayoutConstant  = "2006-01-02"
	invalidDateErrorTemplate = "%w: %q (expected YYYY-MM-DD)"
)

// ErrInvalidDateFormat indicates a since value that is not a YYYY-MM-DD date.
var ErrInvalidDateFormat = errors.New("invalid date format")

// NormalizeTimestamp converts to local time and drops sub-second precision.
func NormalizeTimestamp(timestamp time.Time) time.Time {
	return timestamp.Local().Truncate(time.Second)
}

// FormatTimestamp renders a timestamp in local time with second precision.
func FormatTimestamp(timestamp time.Time) string {
	return NormalizeTimestamp(timestamp).Format(TimestampLayoutConstant)
}

// ParseSinceDate parses a YYYY-MM-DD date as local midnight.
func ParseSinceDate(value string) (time.Time, error) {
	parsedDate, parseError := time.ParseInLocation(sinceDateLayoutConstant, strings.TrimSpace(value), time.Local)
	if parseError != nil {
		return time.Time{}, fmt.Errorf(invalidDateErrorTemplate, ErrInvalidDateFormat, value)
	}
	return parsedDate, nil
}
