package events

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// SearchWindowDays is how many days after the search date the window extends.
const SearchWindowDays = 14

// Offset is a fixed local UTC offset split into hour and minute parts.
// For negative offsets both parts are negative.
type Offset struct {
	Hours   int
	Minutes int
}

// String renders the offset as "+HH:MM" / "-HH:MM".
func (o Offset) String() string {
	sign := "+"
	h, m := o.Hours, o.Minutes
	if h < 0 || m < 0 {
		sign = "-"
		h, m = -h, -m
	}
	return fmt.Sprintf("%s%02d:%02d", sign, h, m)
}

// ParseOffset parses "+05:30", "-03:00" or "05:30".
func ParseOffset(s string) (Offset, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Offset{}, fmt.Errorf("empty offset")
	}

	sign := 1
	switch s[0] {
	case '+':
		s = s[1:]
	case '-':
		sign = -1
		s = s[1:]
	}

	hh, mm, ok := strings.Cut(s, ":")
	if !ok {
		return Offset{}, fmt.Errorf("invalid offset %q: want [+-]HH:MM", s)
	}
	h, err := strconv.Atoi(hh)
	if err != nil || h < 0 || h > 14 {
		return Offset{}, fmt.Errorf("invalid offset hours %q", hh)
	}
	m, err := strconv.Atoi(mm)
	if err != nil || m < 0 || m > 59 {
		return Offset{}, fmt.Errorf("invalid offset minutes %q", mm)
	}

	return Offset{Hours: sign * h, Minutes: sign * m}, nil
}

// WindowStart converts a date captured in the local offset into its UTC
// instant. Hours are subtracted first, then minutes, each as a calendar
// field adjustment in the value's own location.
func WindowStart(localDate time.Time, offset Offset) time.Time {
	t := localDate
	t = time.Date(t.Year(), t.Month(), t.Day(), t.Hour()-offset.Hours, t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	t = time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute()-offset.Minutes, t.Second(), t.Nanosecond(), t.Location())
	return t.UTC()
}

// AddDays adds n calendar days, keeping the time of day.
func AddDays(t time.Time, n int) time.Time {
	return t.AddDate(0, 0, n)
}

// Window returns the inclusive [start, end] search window for a local search date.
func Window(searchDate time.Time, offset Offset) (time.Time, time.Time) {
	start := WindowStart(searchDate, offset)
	return start, AddDays(start, SearchWindowDays)
}
