package reminders

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// DefaultOffsets are the lead times used when none are configured.
var DefaultOffsets = []time.Duration{24 * time.Hour, 3 * time.Hour}

// Plan is one reminder to be stored for an appointment.
type Plan struct {
	Kind         string
	ScheduledFor time.Time
}

type Scheduler struct {
	offsets []time.Duration
}

// NewScheduler keeps positive offsets, largest first, without duplicates.
func NewScheduler(offsets []time.Duration) *Scheduler {
	if len(offsets) == 0 {
		offsets = DefaultOffsets
	}
	seen := map[time.Duration]bool{}
	kept := make([]time.Duration, 0, len(offsets))
	for _, o := range offsets {
		if o <= 0 || seen[o] {
			continue
		}
		seen[o] = true
		kept = append(kept, o)
	}
	sort.Slice(kept, func(i, j int) bool { return kept[i] > kept[j] })
	return &Scheduler{offsets: kept}
}

func (s *Scheduler) Offsets() []time.Duration {
	return append([]time.Duration(nil), s.offsets...)
}

// Plan returns the reminders for an appointment starting at start. Each
// offset is kept only if start-offset is still after now.
func (s *Scheduler) Plan(start, now time.Time) []Plan {
	var plans []Plan
	for _, offset := range s.offsets {
		at := start.Add(-offset)
		if !at.After(now) {
			continue
		}
		plans = append(plans, Plan{Kind: KindFor(offset), ScheduledFor: at.UTC()})
	}
	return plans
}

// KindFor labels an offset: "24h", "3h", "90m".
func KindFor(offset time.Duration) string {
	if offset%time.Hour == 0 {
		return strconv.Itoa(int(offset/time.Hour)) + "h"
	}
	return strconv.Itoa(int(offset/time.Minute)) + "m"
}

// ParseOffsets reads a comma separated list of minutes, e.g. "1440,180".
func ParseOffsets(raw string) ([]time.Duration, error) {
	var out []time.Duration
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("invalid reminder offset %q: want positive minutes", part)
		}
		out = append(out, time.Duration(n)*time.Minute)
	}
	return out, nil
}
