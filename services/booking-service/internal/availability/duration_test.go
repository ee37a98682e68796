package availability

import (
	"context"
	"errors"
	"testing"

	"github.com/md-rashed-zaman/clinicbook/services/booking-service/internal/model"
)

type staticTypes []model.ServiceType

func (s staticTypes) ListServiceTypes(context.Context, string) ([]model.ServiceType, error) {
	return s, nil
}

type failingTypes struct{}

func (failingTypes) ListServiceTypes(context.Context, string) ([]model.ServiceType, error) {
	return nil, errors.New("db down")
}

func TestDurationResolver(t *testing.T) {
	types := staticTypes{
		{ID: "b", Name: "Consulta de retorno", DurationMinutes: 20},
		{ID: "a", Name: "Consulta", DurationMinutes: 45},
		{ID: "c", Name: "Limpeza dental", DurationMinutes: 60},
	}
	r := NewDurationResolver(types)
	ctx := context.Background()

	cases := map[string]int{
		"":         DefaultDurationMinutes,
		"   ":      DefaultDurationMinutes,
		"LIMPEZA":  60,
		"retorno":  20,
		"consulta": 45,
		"implante": DefaultDurationMinutes,
		"dental":   60,
	}
	for query, want := range cases {
		got, err := r.Resolve(ctx, "clinic-1", query)
		if err != nil {
			t.Fatalf("Resolve(%q): %v", query, err)
		}
		if got != want {
			t.Fatalf("Resolve(%q) = %d, want %d", query, got, want)
		}
	}
}

func TestDurationResolverTieBreakByID(t *testing.T) {
	types := staticTypes{
		{ID: "z", Name: "Exam", DurationMinutes: 15},
		{ID: "m", Name: "exam", DurationMinutes: 40},
	}
	got, err := NewDurationResolver(types).Resolve(context.Background(), "c", "exam")
	if err != nil || got != 40 {
		t.Fatalf("expected id tie-break to pick 40, got %d (%v)", got, err)
	}
}

func TestDurationResolverSkipsSourceWithoutQuery(t *testing.T) {
	got, err := NewDurationResolver(failingTypes{}).Resolve(context.Background(), "c", "")
	if err != nil || got != DefaultDurationMinutes {
		t.Fatalf("expected default without touching source, got %d (%v)", got, err)
	}
	if _, err := NewDurationResolver(failingTypes{}).Resolve(context.Background(), "c", "exam"); err == nil {
		t.Fatal("expected source error to surface")
	}
}
