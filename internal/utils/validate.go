package utils

import (
	"regexp"
	"time"
)

const (
	DateLayout      = "2006-01-02"
	TimestampLayout = "2006-01-02 15:04:05"
)

var timeOfDayRe = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

// ValidTime reports whether s is a 24h "HH:MM" string.
func ValidTime(s string) bool {
	return timeOfDayRe.MatchString(s)
}

// ValidDate reports whether s is a calendar date in "YYYY-MM-DD" form.
func ValidDate(s string) bool {
	_, err := time.Parse(DateLayout, s)
	return err == nil
}

// Now returns the current local time in the stored timestamp format.
func Now() string {
	return time.Now().Format(TimestampLayout)
}

// Today returns the current local date in "YYYY-MM-DD" form.
func Today() string {
	return time.Now().Format(DateLayout)
}
