package models

import (
	"fmt"
	"strings"
	"time"
)

// JSONTime wraps time.Time so every timestamp crossing the wire is formatted
// the same way (UTC RFC3339, nanosecond precision) regardless of how the row
// was scanned.
type JSONTime time.Time

func (jt JSONTime) MarshalJSON() ([]byte, error) {
	return []byte(fmt.Sprintf("\"%s\"", time.Time(jt).UTC().Format(time.RFC3339Nano))), nil
}

func (jt *JSONTime) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), "\"")
	if s == "null" || s == "" {
		*jt = JSONTime(time.Time{})
		return nil
	}

	formats := []string{
		time.RFC3339Nano,
		time.RFC3339,
	}

	var lastErr error
	for _, format := range formats {
		t, err := time.Parse(format, s)
		if err == nil {
			*jt = JSONTime(t)
			return nil
		}
		lastErr = err
	}
	return fmt.Errorf("JSONTime.UnmarshalJSON: failed to parse time string '%s': %w", s, lastErr)
}

func (jt JSONTime) Time() time.Time {
	return time.Time(jt)
}
