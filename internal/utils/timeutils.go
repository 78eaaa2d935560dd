package utils

import (
	"fmt"
	"time"
)

// ParseRFC3339 parses a request timestamp. The API accepts RFC3339 only.
func ParseRFC3339(value string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("timestamp %q is not RFC3339: %w", value, err)
	}
	return t, nil
}
