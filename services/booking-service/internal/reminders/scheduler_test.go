package reminders

import (
	"testing"
	"time"
)

func TestPlanCountMatchesLeadTime(t *testing.T) {
	now := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	s := NewScheduler(nil)

	cases := []struct {
		ahead time.Duration
		want  int
	}{
		{90 * time.Minute, 0},
		{3 * time.Hour, 0},
		{3*time.Hour + time.Minute, 1},
		{24 * time.Hour, 1},
		{25 * time.Hour, 2},
		{72 * time.Hour, 2},
	}
	for _, tc := range cases {
		plans := s.Plan(now.Add(tc.ahead), now)
		if len(plans) != tc.want {
			t.Fatalf("appointment %s ahead: got %d reminders, want %d", tc.ahead, len(plans), tc.want)
		}
		for _, p := range plans {
			if !p.ScheduledFor.After(now) || !p.ScheduledFor.Before(now.Add(tc.ahead)) {
				t.Fatalf("reminder %s at %s outside (now, start)", p.Kind, p.ScheduledFor)
			}
		}
	}
}

func TestPlanKinds(t *testing.T) {
	now := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	start := now.Add(48 * time.Hour)
	plans := NewScheduler(nil).Plan(start, now)
	if len(plans) != 2 || plans[0].Kind != "24h" || plans[1].Kind != "3h" {
		t.Fatalf("unexpected plans %+v", plans)
	}
	if !plans[0].ScheduledFor.Equal(start.Add(-24 * time.Hour)) {
		t.Fatalf("unexpected 24h time %s", plans[0].ScheduledFor)
	}
}

func TestNewSchedulerNormalizesOffsets(t *testing.T) {
	s := NewScheduler([]time.Duration{90 * time.Minute, 24 * time.Hour, 0, 90 * time.Minute})
	got := s.Offsets()
	if len(got) != 2 || got[0] != 24*time.Hour || got[1] != 90*time.Minute {
		t.Fatalf("unexpected offsets %v", got)
	}
	if KindFor(90*time.Minute) != "90m" {
		t.Fatalf("unexpected kind %q", KindFor(90*time.Minute))
	}
}

func TestParseOffsets(t *testing.T) {
	got, err := ParseOffsets("1440, 180")
	if err != nil {
		t.Fatalf("ParseOffsets: %v", err)
	}
	if len(got) != 2 || got[0] != 24*time.Hour || got[1] != 3*time.Hour {
		t.Fatalf("unexpected offsets %v", got)
	}
	if _, err := ParseOffsets("1440,-5"); err == nil {
		t.Fatal("expected error for negative offset")
	}
}
