// Package timewindow evaluates recurring daily access windows expressed in
// minutes since midnight. Windows whose start is later than their end wrap
// past midnight.
package timewindow

import (
	"errors"
	"fmt"
	"time"
)

// MinutesPerDay is the exclusive upper bound for a minute-of-day value.
const MinutesPerDay = 24 * 60

var ErrBadClock = errors.New("time of day must be HH:MM")

// Window is a daily interval. Both bounds are inclusive.
type Window struct {
	Start int
	End   int
}

// Parse builds a Window from two "HH:MM" strings.
func Parse(start, end string) (Window, error) {
	s, err := ParseClock(start)
	if err != nil {
		return Window{}, fmt.Errorf("window start: %w", err)
	}
	e, err := ParseClock(end)
	if err != nil {
		return Window{}, fmt.Errorf("window end: %w", err)
	}
	return Window{Start: s, End: e}, nil
}

func (w Window) Contains(minute int) bool { return Contains(minute, w.Start, w.End) }

// Wraps reports whether the window crosses midnight.
func (w Window) Wraps() bool { return w.Start > w.End }

func (w Window) String() string {
	return FormatClock(w.Start) + "-" + FormatClock(w.End)
}

// Contains reports whether current falls inside [start, end]. When start is
// after end the window covers [start, 1440) and [0, end]. start == end is a
// single-minute window.
func Contains(current, start, end int) bool {
	if start <= end {
		return start <= current && current <= end
	}
	return current >= start || current <= end
}

// MinuteOfDay returns the wall-clock minute of t in loc. Seconds are
// truncated, so 18:00:59 is minute 1080.
func MinuteOfDay(t time.Time, loc *time.Location) int {
	if loc != nil {
		t = t.In(loc)
	}
	return t.Hour()*60 + t.Minute()
}

// ParseClock parses a zero-padded 24-hour "HH:MM" string.
func ParseClock(s string) (int, error) {
	if len(s) != 5 || s[2] != ':' {
		return 0, fmt.Errorf("%w: %q", ErrBadClock, s)
	}
	h, ok1 := twoDigits(s[0], s[1])
	m, ok2 := twoDigits(s[3], s[4])
	if !ok1 || !ok2 || h > 23 || m > 59 {
		return 0, fmt.Errorf("%w: %q", ErrBadClock, s)
	}
	return h*60 + m, nil
}

// FormatClock renders a minute of day as "HH:MM". Values outside the day
// are folded back into it.
func FormatClock(minute int) string {
	minute %= MinutesPerDay
	if minute < 0 {
		minute += MinutesPerDay
	}
	return fmt.Sprintf("%02d:%02d", minute/60, minute%60)
}

func twoDigits(a, b byte) (int, bool) {
	if a < '0' || a > '9' || b < '0' || b > '9' {
		return 0, false
	}
	return int(a-'0')*10 + int(b-'0'), true
}
