package availability

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/md-rashed-zaman/clinicbook/services/booking-service/internal/model"
)

// DefaultDurationMinutes applies when no service name is given or nothing matches.
const DefaultDurationMinutes = 30

type ServiceTypeSource interface {
	ListServiceTypes(ctx context.Context, clinicID string) ([]model.ServiceType, error)
}

type DurationResolver struct {
	source ServiceTypeSource
}

func NewDurationResolver(source ServiceTypeSource) *DurationResolver {
	return &DurationResolver{source: source}
}

// Resolve maps a free-text service name to minutes. The first configured
// type whose name contains the query (case-insensitive) wins, ordered by
// name then id.
func (r *DurationResolver) Resolve(ctx context.Context, clinicID, serviceName string) (int, error) {
	query := strings.ToLower(strings.TrimSpace(serviceName))
	if query == "" {
		return DefaultDurationMinutes, nil
	}

	types, err := r.source.ListServiceTypes(ctx, clinicID)
	if err != nil {
		return 0, fmt.Errorf("list service types: %w", err)
	}
	if st, ok := Match(types, query); ok {
		return st.DurationMinutes, nil
	}
	return DefaultDurationMinutes, nil
}

// Match returns the first service type whose name contains query.
func Match(types []model.ServiceType, query string) (model.ServiceType, bool) {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return model.ServiceType{}, false
	}

	ordered := append([]model.ServiceType(nil), types...)
	sort.SliceStable(ordered, func(i, j int) bool {
		a, b := strings.ToLower(ordered[i].Name), strings.ToLower(ordered[j].Name)
		if a != b {
			return a < b
		}
		return ordered[i].ID < ordered[j].ID
	})
	for _, st := range ordered {
		if st.DurationMinutes <= 0 {
			continue
		}
		if strings.Contains(strings.ToLower(st.Name), query) {
			return st, true
		}
	}
	return model.ServiceType{}, false
}
