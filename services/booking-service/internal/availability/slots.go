package availability

import "github.com/md-rashed-zaman/clinicbook/services/booking-service/internal/schedule"

// SlotStep is the spacing between candidate slot starts, in minutes.
const SlotStep = 30

// GenerateSlots returns every [start, start+duration) inside window with
// start = window.Start + k*SlotStep.
func GenerateSlots(window schedule.Interval, duration int) []schedule.Interval {
	return generateSlots(window, duration, SlotStep)
}

func generateSlots(window schedule.Interval, duration, step int) []schedule.Interval {
	if duration <= 0 || step <= 0 || window.Empty() {
		return nil
	}
	if duration > window.Minutes() {
		return nil
	}

	slots := make([]schedule.Interval, 0, (window.Minutes()-duration)/step+1)
	for start := window.Start; start.Add(duration) <= window.End; start = start.Add(step) {
		slots = append(slots, schedule.Interval{Start: start, End: start.Add(duration)})
	}
	return slots
}

// Overlaps reports whether two half-open intervals share any minute.
// Touching endpoints never overlap.
func Overlaps(a, b schedule.Interval) bool {
	return a.Start < b.End && a.End > b.Start
}

// HasConflict reports whether candidate overlaps any busy interval.
func HasConflict(candidate schedule.Interval, busy []schedule.Interval) bool {
	for _, b := range busy {
		if Overlaps(candidate, b) {
			return true
		}
	}
	return false
}

// FreeSlots is GenerateSlots minus slots that conflict with busy or start
// before notBefore.
func FreeSlots(window schedule.Interval, duration int, busy []schedule.Interval, notBefore schedule.Clock) []schedule.Interval {
	var free []schedule.Interval
	for _, slot := range GenerateSlots(window, duration) {
		if slot.Start < notBefore {
			continue
		}
		if !HasConflict(slot, busy) {
			free = append(free, slot)
		}
	}
	return free
}
