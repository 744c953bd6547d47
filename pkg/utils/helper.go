package utils

import (
	"time"
)

// ParseTime parses an optional RFC3339 query value. Empty yields the zero time.
func ParseTime(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339, value)
}
