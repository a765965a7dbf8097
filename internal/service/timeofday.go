package service

import (
	"fmt"
	"strconv"
	"strings"
)

const minutesPerDay = 24 * 60

// parseTimeOfDay converts an "HH:MM" string into minutes since midnight.
func parseTimeOfDay(value string) (int, error) {
	parts := strings.Split(strings.TrimSpace(value), ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid time %q, expected HH:MM", value)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, fmt.Errorf("invalid hour in %q", value)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("invalid minute in %q", value)
	}
	return hour*60 + minute, nil
}

// minutesApart returns the shortest distance between two times of day on a
// 24-hour clock, so 23:50 and 00:05 are 15 minutes apart, not 1425.
func minutesApart(a, b int) int {
	diff := a - b
	if diff < 0 {
		diff = -diff
	}
	if wrapped := minutesPerDay - diff; wrapped < diff {
		return wrapped
	}
	return diff
}

// inWindow reports whether now falls inside [start, end], where a window
// with start > end spans midnight.
func inWindow(now, start, end int) bool {
	if start <= end {
		return start <= now && now <= end
	}
	return now >= start || now <= end
}
