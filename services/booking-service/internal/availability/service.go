package availability

import (
	"context"
	"errors"
	"sort"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/md-rashed-zaman/clinicbook/libs/i18n"
	"github.com/md-rashed-zaman/clinicbook/services/booking-service/internal/apperr"
	"github.com/md-rashed-zaman/clinicbook/services/booking-service/internal/metrics"
	"github.com/md-rashed-zaman/clinicbook/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/clinicbook/services/booking-service/internal/schedule"
	"github.com/md-rashed-zaman/clinicbook/services/booking-service/internal/storage"
)

var availabilityTracer = otel.Tracer("clinicbook.booking.availability")

// Store is the read side the availability service needs.
type Store interface {
	GetClinic(ctx context.Context, clinicID string) (model.Clinic, error)
	GetDoctor(ctx context.Context, doctorID string) (model.Doctor, error)
	// ListActiveDoctors returns active doctors of the clinic ordered by id.
	ListActiveDoctors(ctx context.Context, clinicID string) ([]model.Doctor, error)
	// ListBusyIntervals returns the non-cancelled appointment intervals of a doctor on date.
	ListBusyIntervals(ctx context.Context, doctorID string, date time.Time) ([]schedule.Interval, error)
}

type Config struct {
	DefaultClinicID string
	// DefaultLocale renders errors raised before the clinic is known.
	DefaultLocale  string
	MaxSlots       int
	MaxSuggestions int
}

type Service struct {
	store     Store
	durations *DurationResolver
	metrics   *metrics.Metrics
	cfg       Config
	now       func() time.Time
}

// Upper bounds of the day listing and of the alternatives offered for a
// specific time. Config values outside (0, bound] fall back to the bound.
const (
	MaxDaySlots    = 20
	MaxSuggestions = 3
)

func NewService(store Store, durations *DurationResolver, m *metrics.Metrics, cfg Config) *Service {
	if cfg.MaxSlots <= 0 || cfg.MaxSlots > MaxDaySlots {
		cfg.MaxSlots = MaxDaySlots
	}
	if cfg.MaxSuggestions <= 0 || cfg.MaxSuggestions > MaxSuggestions {
		cfg.MaxSuggestions = MaxSuggestions
	}
	return &Service{store: store, durations: durations, metrics: m, cfg: cfg, now: time.Now}
}

type Query struct {
	ClinicID    string
	Date        time.Time
	DoctorID    string
	ServiceType string
}

type DoctorRef struct {
	ID   string
	Name string
}

type SlotOption struct {
	Slot   schedule.Interval
	Doctor DoctorRef
}

type SpecificResult struct {
	Available       bool
	Requested       schedule.Interval
	DurationMinutes int
	Doctor          DoctorRef
	Suggestions     []SlotOption
}

type DayResult struct {
	DurationMinutes int
	Total           int
	Slots           []SlotOption
	Doctors         []DoctorRef
}

func (r DayResult) Available() bool { return r.Total > 0 }

// CheckSpecificTime binds the requested start to the first eligible doctor
// (id order) whose window fits it without conflict. When nobody can take it,
// up to MaxSuggestions free slots at or after the requested time are offered.
func (s *Service) CheckSpecificTime(ctx context.Context, q Query, start schedule.Clock) (SpecificResult, error) {
	ctx, span := availabilityTracer.Start(ctx, "availability.check_specific_time")
	defer span.End()

	p, err := s.prepare(ctx, q)
	if err != nil {
		span.RecordError(err)
		return SpecificResult{}, err
	}
	span.SetAttributes(
		attribute.String("clinicbook.clinic_id", p.clinic.ID),
		attribute.String("clinicbook.date", q.Date.Format(time.DateOnly)),
		attribute.String("clinicbook.start", start.String()),
		attribute.Int("clinicbook.doctors", len(p.doctors)),
	)

	requested := schedule.Interval{Start: start, End: start.Add(p.duration)}
	res := SpecificResult{Requested: requested, DurationMinutes: p.duration}

	busyByDoctor := make(map[string][]schedule.Interval, len(p.doctors))
	bookable := requested.End <= schedule.MinutesPerDay && start >= p.cutoff
	for _, doc := range p.doctors {
		window, ok := doc.WorkingHours.Window(q.Date)
		if !ok {
			continue
		}
		busy, err := s.busy(ctx, doc.ID, q.Date, p.clinic.Locale)
		if err != nil {
			span.RecordError(err)
			return SpecificResult{}, err
		}
		busyByDoctor[doc.ID] = busy
		if bookable && window.Contains(requested) && !HasConflict(requested, busy) {
			res.Available = true
			res.Doctor = DoctorRef{ID: doc.ID, Name: doc.Name}
			s.metrics.ObserveAvailability("specific", true)
			return res, nil
		}
	}

	from := start
	if p.cutoff > from {
		from = p.cutoff
	}
	for _, doc := range p.doctors {
		window, ok := doc.WorkingHours.Window(q.Date)
		if !ok {
			continue
		}
		for _, slot := range FreeSlots(window, p.duration, busyByDoctor[doc.ID], from) {
			if len(res.Suggestions) == s.cfg.MaxSuggestions {
				break
			}
			res.Suggestions = append(res.Suggestions, SlotOption{Slot: slot, Doctor: DoctorRef{ID: doc.ID, Name: doc.Name}})
		}
		if len(res.Suggestions) == s.cfg.MaxSuggestions {
			break
		}
	}
	s.metrics.ObserveAvailability("specific", false)
	return res, nil
}

// ListDaySlots lists every free slot of every eligible doctor for the date.
// Slots holds at most MaxSlots entries; Total counts all of them.
func (s *Service) ListDaySlots(ctx context.Context, q Query) (DayResult, error) {
	ctx, span := availabilityTracer.Start(ctx, "availability.list_day_slots")
	defer span.End()

	p, err := s.prepare(ctx, q)
	if err != nil {
		span.RecordError(err)
		return DayResult{}, err
	}
	span.SetAttributes(
		attribute.String("clinicbook.clinic_id", p.clinic.ID),
		attribute.String("clinicbook.date", q.Date.Format(time.DateOnly)),
		attribute.Int("clinicbook.doctors", len(p.doctors)),
	)

	res := DayResult{DurationMinutes: p.duration, Doctors: make([]DoctorRef, 0, len(p.doctors))}
	for _, doc := range p.doctors {
		ref := DoctorRef{ID: doc.ID, Name: doc.Name}
		res.Doctors = append(res.Doctors, ref)

		window, ok := doc.WorkingHours.Window(q.Date)
		if !ok {
			continue
		}
		busy, err := s.busy(ctx, doc.ID, q.Date, p.clinic.Locale)
		if err != nil {
			span.RecordError(err)
			return DayResult{}, err
		}
		for _, slot := range FreeSlots(window, p.duration, busy, p.cutoff) {
			res.Total++
			if len(res.Slots) < s.cfg.MaxSlots {
				res.Slots = append(res.Slots, SlotOption{Slot: slot, Doctor: ref})
			}
		}
	}
	span.SetAttributes(attribute.Int("clinicbook.slots_total", res.Total))
	s.metrics.ObserveAvailability("day", res.Available())
	return res, nil
}

type prepared struct {
	clinic   model.Clinic
	doctors  []model.Doctor
	duration int
	cutoff   schedule.Clock
}

func (s *Service) prepare(ctx context.Context, q Query) (prepared, error) {
	if q.Date.IsZero() {
		return prepared{}, apperr.Validation(i18n.Message(s.cfg.DefaultLocale, i18n.DateRequired))
	}
	clinic, err := ResolveClinic(ctx, s.store, q.ClinicID, s.cfg.DefaultClinicID, s.cfg.DefaultLocale)
	if err != nil {
		return prepared{}, err
	}
	duration, err := s.durations.Resolve(ctx, clinic.ID, q.ServiceType)
	if err != nil {
		return prepared{}, apperr.Dependency(i18n.Message(clinic.Locale, i18n.ResolveDurationFailed), err)
	}
	doctors, err := s.eligibleDoctors(ctx, clinic, q.DoctorID)
	if err != nil {
		return prepared{}, err
	}
	return prepared{
		clinic:   clinic,
		doctors:  doctors,
		duration: duration,
		cutoff:   Cutoff(q.Date, s.now().In(clinic.Location())),
	}, nil
}

// eligibleDoctors returns the filtered doctor when it is an active member of
// the clinic, otherwise all active doctors. An unknown filter yields none.
func (s *Service) eligibleDoctors(ctx context.Context, clinic model.Clinic, doctorID string) ([]model.Doctor, error) {
	if doctorID != "" {
		doc, err := s.store.GetDoctor(ctx, doctorID)
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil
		}
		if err != nil {
			return nil, apperr.Dependency(i18n.Message(clinic.Locale, i18n.LoadDoctorFailed), err)
		}
		if doc.ClinicID != clinic.ID || !doc.Active {
			return nil, nil
		}
		return []model.Doctor{doc}, nil
	}

	doctors, err := s.store.ListActiveDoctors(ctx, clinic.ID)
	if err != nil {
		return nil, apperr.Dependency(i18n.Message(clinic.Locale, i18n.ListDoctorsFailed), err)
	}
	sort.SliceStable(doctors, func(i, j int) bool { return doctors[i].ID < doctors[j].ID })
	return doctors, nil
}

func (s *Service) busy(ctx context.Context, doctorID string, date time.Time, locale string) ([]schedule.Interval, error) {
	busy, err := s.store.ListBusyIntervals(ctx, doctorID, date)
	if err != nil {
		return nil, apperr.Dependency(i18n.Message(locale, i18n.LoadAppointmentsFailed), err)
	}
	return busy, nil
}

// ClinicReader is the part of Store needed to resolve a clinic.
type ClinicReader interface {
	GetClinic(ctx context.Context, clinicID string) (model.Clinic, error)
}

// ResolveClinic loads clinicID, or defaultID when clinicID is empty. Its
// errors are rendered in locale since no clinic locale is known yet.
func ResolveClinic(ctx context.Context, store ClinicReader, clinicID, defaultID, locale string) (model.Clinic, error) {
	if clinicID == "" {
		clinicID = defaultID
	}
	if clinicID == "" {
		return model.Clinic{}, apperr.Validation(i18n.Message(locale, i18n.ClinicRequired))
	}
	clinic, err := store.GetClinic(ctx, clinicID)
	if errors.Is(err, storage.ErrNotFound) {
		return model.Clinic{}, apperr.NotFound(i18n.Message(locale, i18n.ClinicNotFound))
	}
	if err != nil {
		return model.Clinic{}, apperr.Dependency(i18n.Message(locale, i18n.LoadClinicFailed), err)
	}
	return clinic, nil
}

// Cutoff is the earliest bookable time of day on date given the clinic-local
// now: 00:00 for future dates, the next whole minute today, and past the end
// of the day for dates already gone.
func Cutoff(date, now time.Time) schedule.Clock {
	y, m, d := date.Date()
	ny, nm, nd := now.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	today := time.Date(ny, nm, nd, 0, 0, 0, 0, time.UTC)
	switch {
	case day.After(today):
		return 0
	case day.Before(today):
		return schedule.MinutesPerDay + 1
	}
	c := schedule.Clock(now.Hour()*60 + now.Minute())
	if now.Second() > 0 || now.Nanosecond() > 0 {
		c++
	}
	return c
}
