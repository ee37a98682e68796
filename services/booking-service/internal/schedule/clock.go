package schedule

import (
	"fmt"
	"strconv"
	"strings"
)

// MinutesPerDay bounds every Clock value.
const MinutesPerDay = 24 * 60

// Clock is a wall-clock time of day in minutes since midnight.
type Clock int

// ParseClock parses "HH:MM" (hour 00-23, minute 00-59). A single-digit hour
// such as "9:30" is accepted.
func ParseClock(s string) (Clock, error) {
	s = strings.TrimSpace(s)
	hh, mm, ok := strings.Cut(s, ":")
	if !ok || len(hh) < 1 || len(hh) > 2 || len(mm) != 2 {
		return 0, fmt.Errorf("invalid time %q: want HH:MM", s)
	}
	h, err := strconv.Atoi(hh)
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("invalid time %q: hour out of range", s)
	}
	m, err := strconv.Atoi(mm)
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid time %q: minute out of range", s)
	}
	return Clock(h*60 + m), nil
}

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", int(c)/60, int(c)%60)
}

// Add returns c shifted by minutes. The result may exceed MinutesPerDay;
// callers check Valid when it matters.
func (c Clock) Add(minutes int) Clock {
	return c + Clock(minutes)
}

// Valid reports whether c falls within a single day, allowing the 24:00 end bound.
func (c Clock) Valid() bool {
	return c >= 0 && c <= MinutesPerDay
}

// Interval is a half-open [Start, End) range of the day.
type Interval struct {
	Start Clock
	End   Clock
}

func (i Interval) Minutes() int {
	return int(i.End - i.Start)
}

func (i Interval) Empty() bool {
	return i.End <= i.Start
}

// Contains reports whether other lies fully inside i.
func (i Interval) Contains(other Interval) bool {
	return other.Start >= i.Start && other.End <= i.End
}

func (i Interval) String() string {
	return i.Start.String() + "-" + i.End.String()
}
