package time_parser

import (
	"fmt"
	"strings"
	"time"
)

var dueDateFormats = []string{
	time.RFC3339,          // "2006-01-02T15:04:05Z07:00"
	time.RFC3339Nano,      // "2006-01-02T15:04:05.999999999Z07:00"
	"2006-01-02T15:04:05", // ISO without timezone
	"2006-01-02 15:04:05", // Space-separated format
	"2006-01-02T15:04",    // datetime-local inputs
	time.DateOnly,         // "2006-01-02"
}

// ParseDueDate converts a user supplied due date to UTC. Values without a zone
// are read as UTC. An empty string returns nil.
func ParseDueDate(value string) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}

	for _, format := range dueDateFormats {
		if t, err := time.Parse(format, value); err == nil {
			utc := t.UTC()
			return &utc, nil
		}
	}

	return nil, fmt.Errorf("unsupported date format: %q", value)
}
