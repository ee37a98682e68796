package availability

import (
	"testing"

	"github.com/md-rashed-zaman/clinicbook/services/booking-service/internal/schedule"
)

func iv(start, end string) schedule.Interval {
	s, err := schedule.ParseClock(start)
	if err != nil {
		panic(err)
	}
	e, err := schedule.ParseClock(end)
	if err != nil {
		panic(err)
	}
	return schedule.Interval{Start: s, End: e}
}

func TestGenerateSlots_FullDay(t *testing.T) {
	slots := GenerateSlots(iv("09:00", "17:00"), 30)
	if len(slots) != 16 {
		t.Fatalf("expected 16 slots, got %d", len(slots))
	}
	if slots[0].Start.String() != "09:00" || slots[15].Start.String() != "16:30" || slots[15].End.String() != "17:00" {
		t.Fatalf("unexpected bounds %s .. %s", slots[0], slots[15])
	}
}

func TestGenerateSlots_Properties(t *testing.T) {
	windows := []schedule.Interval{iv("08:15", "12:00"), iv("09:00", "17:00"), iv("13:00", "13:45")}
	for _, w := range windows {
		for _, d := range []int{15, 30, 45, 60, 90} {
			for _, slot := range GenerateSlots(w, d) {
				if slot.End > w.End {
					t.Fatalf("slot %s exceeds window %s", slot, w)
				}
				if int(slot.Start-w.Start)%SlotStep != 0 {
					t.Fatalf("slot %s not aligned to window %s", slot, w)
				}
				if slot.Minutes() != d {
					t.Fatalf("slot %s has wrong duration %d", slot, d)
				}
			}
		}
	}
}

func TestGenerateSlots_Empty(t *testing.T) {
	if got := GenerateSlots(iv("09:00", "09:30"), 45); len(got) != 0 {
		t.Fatalf("expected no slots when duration exceeds window, got %d", len(got))
	}
	if got := GenerateSlots(schedule.Interval{}, 30); len(got) != 0 {
		t.Fatalf("expected no slots for empty window, got %d", len(got))
	}
	if got := GenerateSlots(iv("09:00", "17:00"), 0); len(got) != 0 {
		t.Fatalf("expected no slots for zero duration, got %d", len(got))
	}
}

func TestOverlaps(t *testing.T) {
	if Overlaps(iv("09:00", "09:30"), iv("09:30", "10:00")) {
		t.Fatal("touching intervals must not conflict")
	}
	if Overlaps(iv("09:30", "10:00"), iv("09:00", "09:30")) {
		t.Fatal("touching intervals must not conflict in either order")
	}
	if !Overlaps(iv("09:00", "09:30"), iv("09:15", "09:45")) {
		t.Fatal("partial overlap must conflict")
	}
	if !Overlaps(iv("09:00", "12:00"), iv("10:00", "10:30")) {
		t.Fatal("containment must conflict")
	}
}

func TestFreeSlots(t *testing.T) {
	busy := []schedule.Interval{iv("10:00", "10:30"), iv("11:15", "11:45")}
	free := FreeSlots(iv("09:00", "12:00"), 30, busy, 0)

	var got []string
	for _, s := range free {
		got = append(got, s.Start.String())
	}
	want := []string{"09:00", "09:30", "10:30"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}

	later := FreeSlots(iv("09:00", "12:00"), 30, nil, iv("09:31", "09:32").Start)
	if len(later) == 0 || later[0].Start.String() != "10:00" {
		t.Fatalf("expected first slot 10:00 after cutoff, got %v", later)
	}
}
