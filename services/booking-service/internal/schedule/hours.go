package schedule

import (
	"encoding/json"
	"fmt"
	"time"
)

// WorkingHours is a doctor's weekly schedule. A missing weekday means the
// doctor does not work that day.
type WorkingHours map[Weekday]Interval

// Window returns the open window for the weekday of date.
func (wh WorkingHours) Window(date time.Time) (Interval, bool) {
	w, ok := wh[WeekdayOf(date)]
	if !ok || w.Empty() {
		return Interval{}, false
	}
	return w, true
}

type dayHours struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// MarshalJSON writes {"monday":{"start":"09:00","end":"17:00"}, ...}.
func (wh WorkingHours) MarshalJSON() ([]byte, error) {
	out := make(map[string]dayHours, len(wh))
	for d, w := range wh {
		if !d.Valid() {
			return nil, fmt.Errorf("working hours: invalid weekday %d", int(d))
		}
		out[d.String()] = dayHours{Start: w.Start.String(), End: w.End.String()}
	}
	return json.Marshal(out)
}

// UnmarshalJSON reads the weekday-keyed map. Null entries mean a day off.
func (wh *WorkingHours) UnmarshalJSON(raw []byte) error {
	var in map[string]*dayHours
	if err := json.Unmarshal(raw, &in); err != nil {
		return fmt.Errorf("working hours: %w", err)
	}
	out := make(WorkingHours, len(in))
	for key, hours := range in {
		d, err := ParseWeekday(key)
		if err != nil {
			return fmt.Errorf("working hours: %w", err)
		}
		if hours == nil || (hours.Start == "" && hours.End == "") {
			continue
		}
		start, err := ParseClock(hours.Start)
		if err != nil {
			return fmt.Errorf("working hours %s start: %w", d, err)
		}
		end, err := parseEnd(hours.End)
		if err != nil {
			return fmt.Errorf("working hours %s end: %w", d, err)
		}
		out[d] = Interval{Start: start, End: end}
	}
	*wh = out
	return nil
}

// parseEnd also accepts "24:00" for a window that runs to midnight.
func parseEnd(s string) (Clock, error) {
	if s == "24:00" {
		return MinutesPerDay, nil
	}
	return ParseClock(s)
}
