// Copyright (c) 2025 BVK Chaitanya

package journal

import (
	"fmt"
	"io"
	"time"
)

// parseTime accepts a negative duration relative to now, a date or a RFC3339
// timestamp.
func parseTime(now time.Time, s string) (time.Time, error) {
	if len(s) == 0 {
		return time.Time{}, nil
	}
	if d, err := time.ParseDuration(s); err == nil {
		return now.Add(d), nil
	}
	if v, err := time.ParseInLocation(time.DateOnly, s, time.Local); err == nil {
		return v, nil
	}
	v, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("could not parse time %q: want duration, date or RFC3339 timestamp", s)
	}
	return v, nil
}

func printEntry(w io.Writer, at time.Time, event string, payload []byte) {
	fmt.Fprintf(w, "%s %-28s %s\n", at.Local().Format("2006-01-02 15:04:05.000"), event, payload)
}
