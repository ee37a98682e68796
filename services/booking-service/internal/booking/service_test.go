package booking

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/md-rashed-zaman/clinicbook/libs/i18n"
	"github.com/md-rashed-zaman/clinicbook/services/booking-service/internal/apperr"
	"github.com/md-rashed-zaman/clinicbook/services/booking-service/internal/availability"
	"github.com/md-rashed-zaman/clinicbook/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/clinicbook/services/booking-service/internal/reminders"
	"github.com/md-rashed-zaman/clinicbook/services/booking-service/internal/schedule"
	"github.com/md-rashed-zaman/clinicbook/services/booking-service/internal/storage"
	"github.com/md-rashed-zaman/clinicbook/services/booking-service/internal/validation"
)

const (
	clinicID = "11111111-1111-1111-1111-111111111111"
	doctorID = "22222222-2222-2222-2222-222222222222"
)

// 2026-03-02 is a Monday.
var monday = time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

type memStore struct {
	mu            sync.Mutex
	clinic        model.Clinic
	doctors       map[string]model.Doctor
	patients      map[string]model.Patient
	appts         []model.Appointment
	reminders     map[string][]reminders.Plan
	failReminders bool
	writes        int
}

func newMemStore() *memStore {
	return &memStore{
		clinic: model.Clinic{ID: clinicID, Name: "Sorriso", Timezone: "UTC", Locale: "pt-BR"},
		doctors: map[string]model.Doctor{
			doctorID: {ID: doctorID, ClinicID: clinicID, Name: "Dr. Ana", Active: true},
		},
		patients:  map[string]model.Patient{},
		reminders: map[string][]reminders.Plan{},
	}
}

func (m *memStore) GetClinic(_ context.Context, id string) (model.Clinic, error) {
	if id != m.clinic.ID {
		return model.Clinic{}, storage.ErrNotFound
	}
	return m.clinic, nil
}

func (m *memStore) GetDoctor(_ context.Context, id string) (model.Doctor, error) {
	d, ok := m.doctors[id]
	if !ok {
		return model.Doctor{}, storage.ErrNotFound
	}
	return d, nil
}

func (m *memStore) UpsertPatient(_ context.Context, clinic, phone, name string) (model.Patient, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writes++
	key := clinic + "|" + phone
	if p, ok := m.patients[key]; ok {
		if name != "" {
			p.Name = name
			m.patients[key] = p
		}
		return p, nil
	}
	p := model.Patient{ID: "patient-" + phone, ClinicID: clinic, Phone: phone, Name: name}
	m.patients[key] = p
	return p, nil
}

func (m *memStore) ListBusyIntervals(_ context.Context, doctor string, date time.Time) ([]schedule.Interval, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []schedule.Interval
	for _, a := range m.appts {
		if a.DoctorID == doctor && a.Date.Equal(date) && a.Status != model.StatusCancelled {
			out = append(out, a.Interval())
		}
	}
	return out, nil
}

// CreateAppointment rejects overlaps under the lock, like the exclusion constraint.
func (m *memStore) CreateAppointment(_ context.Context, appt *model.Appointment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.appts {
		if a.DoctorID == appt.DoctorID && a.Date.Equal(appt.Date) && availability.Overlaps(a.Interval(), appt.Interval()) {
			return storage.ErrSlotTaken
		}
	}
	m.writes++
	appt.ID = "appt-" + appt.Start.String()
	m.appts = append(m.appts, *appt)
	return nil
}

func (m *memStore) CreateReminders(_ context.Context, apptID string, plans []reminders.Plan) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failReminders {
		return nil, errors.New("reminders table unavailable")
	}
	m.reminders[apptID] = append(m.reminders[apptID], plans...)
	kinds := make([]string, 0, len(plans))
	for _, p := range plans {
		kinds = append(kinds, p.Kind)
	}
	return kinds, nil
}

type staticTypes []model.ServiceType

func (s staticTypes) ListServiceTypes(context.Context, string) ([]model.ServiceType, error) {
	return s, nil
}

type recordingResolver struct {
	calls []string
	err   error
}

func (r *recordingResolver) Resolve(_ context.Context, conversationID, _, _, appointmentID string) error {
	r.calls = append(r.calls, conversationID+"->"+appointmentID)
	return r.err
}

func newTestService(store *memStore, now time.Time, conv ConversationResolver) *Service {
	types := staticTypes{{ID: "st-1", ClinicID: clinicID, Name: "Limpeza", DurationMinutes: 45}}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := NewService(store, availability.NewDurationResolver(types), nil, conv, nil, logger,
		Config{DefaultClinicID: clinicID, DefaultCountryCode: "55"})
	svc.now = func() time.Time { return now }
	return svc
}

func baseRequest() Request {
	return Request{
		DoctorID:        doctorID,
		PatientPhone:    "(11) 98765-4321",
		PatientName:     "Maria",
		AppointmentDate: "2026-03-02",
		StartTime:       "10:00",
	}
}

func TestBook_DefaultDurationAndReminders(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store, monday.AddDate(0, 0, -1).Add(9*time.Hour), nil)

	res, err := svc.Book(context.Background(), baseRequest())
	if err != nil {
		t.Fatalf("Book: %v", err)
	}
	appt := res.Appointment
	if appt.Start.String() != "10:00" || appt.End.String() != "10:30" {
		t.Fatalf("unexpected interval %s-%s", appt.Start, appt.End)
	}
	if appt.Status != model.StatusScheduled || appt.Source != model.SourceManual {
		t.Fatalf("unexpected status/source %s/%s", appt.Status, appt.Source)
	}
	if res.PatientPhone != "5511987654321" {
		t.Fatalf("expected canonical phone, got %q", res.PatientPhone)
	}
	if res.FormattedDate != "segunda-feira, 2 de março de 2026" {
		t.Fatalf("unexpected formatted date %q", res.FormattedDate)
	}
	if len(res.Reminders) != 2 || res.Reminders[0] != "24h" || res.Reminders[1] != "3h" {
		t.Fatalf("expected 24h and 3h reminders, got %v", res.Reminders)
	}
	want := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	if got := store.reminders[appt.ID][0].ScheduledFor; !got.Equal(want) {
		t.Fatalf("expected 24h reminder at %s, got %s", want, got)
	}
}

func TestBook_ServiceTypeDurationAndExplicitEnd(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store, monday.AddDate(0, 0, -1), nil)

	req := baseRequest()
	req.Type = "limpeza"
	res, err := svc.Book(context.Background(), req)
	if err != nil {
		t.Fatalf("Book: %v", err)
	}
	if res.Appointment.End.String() != "10:45" {
		t.Fatalf("expected service type duration, got end %s", res.Appointment.End)
	}

	req = baseRequest()
	req.StartTime = "14:00"
	req.EndTime = "15:15"
	req.Type = "limpeza"
	res, err = svc.Book(context.Background(), req)
	if err != nil {
		t.Fatalf("Book: %v", err)
	}
	if res.Appointment.End.String() != "15:15" {
		t.Fatalf("expected explicit end to win, got %s", res.Appointment.End)
	}
}

func TestBook_ValidationHasNoSideEffects(t *testing.T) {
	cases := map[string]func(*Request){
		"bad start":      func(r *Request) { r.StartTime = "25:00" },
		"bad date":       func(r *Request) { r.AppointmentDate = "2026-02-30" },
		"end before":     func(r *Request) { r.EndTime = "09:30" },
		"end equal":      func(r *Request) { r.EndTime = "10:00" },
		"missing doctor": func(r *Request) { r.DoctorID = "" },
		"bad phone":      func(r *Request) { r.PatientPhone = "call me" },
		"short phone":    func(r *Request) { r.PatientPhone = "+12" },
		"bad source":     func(r *Request) { r.Source = "fax" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			store := newMemStore()
			svc := newTestService(store, monday.AddDate(0, 0, -1), nil)
			req := baseRequest()
			mutate(&req)

			_, err := svc.Book(context.Background(), req)
			if apperr.KindOf(err) != apperr.KindValidation {
				t.Fatalf("expected validation error, got %v", err)
			}
			if store.writes != 0 {
				t.Fatalf("expected no writes, got %d", store.writes)
			}
		})
	}
}

func TestBook_PastMidnightRejected(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store, monday.AddDate(0, 0, -1), nil)
	req := baseRequest()
	req.StartTime = "23:45"

	_, err := svc.Book(context.Background(), req)
	if apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(store.appts) != 0 {
		t.Fatal("expected no appointment")
	}
}

func TestBook_DoctorChecks(t *testing.T) {
	store := newMemStore()
	store.doctors["33333333-3333-3333-3333-333333333333"] = model.Doctor{
		ID: "33333333-3333-3333-3333-333333333333", ClinicID: clinicID, Name: "Dr. Off", Active: false,
	}
	store.doctors["44444444-4444-4444-4444-444444444444"] = model.Doctor{
		ID: "44444444-4444-4444-4444-444444444444", ClinicID: "other", Name: "Dr. Else", Active: true,
	}
	svc := newTestService(store, monday.AddDate(0, 0, -1), nil)

	for _, id := range []string{
		"33333333-3333-3333-3333-333333333333",
		"44444444-4444-4444-4444-444444444444",
		"55555555-5555-5555-5555-555555555555",
	} {
		req := baseRequest()
		req.DoctorID = id
		if _, err := svc.Book(context.Background(), req); apperr.KindOf(err) != apperr.KindNotFound {
			t.Fatalf("doctor %s: expected not_found, got %v", id, err)
		}
	}

	req := baseRequest()
	req.ClinicID = "66666666-6666-6666-6666-666666666666"
	if _, err := svc.Book(context.Background(), req); apperr.KindOf(err) != apperr.KindNotFound {
		t.Fatalf("expected unknown clinic to be not_found, got %v", err)
	}
}

func TestBook_MessagesFollowClinicLocale(t *testing.T) {
	store := newMemStore()
	store.clinic.Locale = "es-MX"
	store.doctors["33333333-3333-3333-3333-333333333333"] = model.Doctor{
		ID: "33333333-3333-3333-3333-333333333333", ClinicID: clinicID, Name: "Dr. Off", Active: false,
	}
	svc := newTestService(store, monday.AddDate(0, 0, -1), nil)

	cases := map[string]string{
		"33333333-3333-3333-3333-333333333333": "el médico no está activo",
		"55555555-5555-5555-5555-555555555555": "médico no encontrado",
	}
	for id, want := range cases {
		req := baseRequest()
		req.DoctorID = id
		_, err := svc.Book(context.Background(), req)
		if apperr.KindOf(err) != apperr.KindNotFound || apperr.MessageOf(err) != want {
			t.Fatalf("doctor %s: expected %q, got %v", id, want, err)
		}
	}

	svc.cfg.DefaultLocale = "pt"
	svc.validator = validation.New("pt")
	req := baseRequest()
	req.StartTime = "9h"
	_, err := svc.Book(context.Background(), req)
	if got := apperr.MessageOf(err); got != "startTime deve ser um horário válido (HH:MM)" {
		t.Fatalf("expected default-locale validation message, got %q", got)
	}
}

func TestBook_SamePhoneSamePatient(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store, monday.AddDate(0, 0, -1), nil)

	first, err := svc.Book(context.Background(), baseRequest())
	if err != nil {
		t.Fatalf("first Book: %v", err)
	}
	req := baseRequest()
	req.PatientPhone = "+55 11 98765-4321"
	req.StartTime = "11:00"
	second, err := svc.Book(context.Background(), req)
	if err != nil {
		t.Fatalf("second Book: %v", err)
	}
	if first.Appointment.PatientID != second.Appointment.PatientID {
		t.Fatalf("expected same patient, got %s and %s", first.Appointment.PatientID, second.Appointment.PatientID)
	}
	if len(store.patients) != 1 {
		t.Fatalf("expected one patient row, got %d", len(store.patients))
	}
}

func TestBook_AreaCodeEqualToCountryCodeSamePatient(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store, monday.AddDate(0, 0, -1), nil)

	req := baseRequest()
	req.PatientPhone = "55 99123 4567"
	first, err := svc.Book(context.Background(), req)
	if err != nil {
		t.Fatalf("first Book: %v", err)
	}
	req.PatientPhone = "+55 55 99123-4567"
	req.StartTime = "11:00"
	second, err := svc.Book(context.Background(), req)
	if err != nil {
		t.Fatalf("second Book: %v", err)
	}
	if first.PatientPhone != "5555991234567" || first.Appointment.PatientID != second.Appointment.PatientID {
		t.Fatalf("expected one patient 5555991234567, got %s (%s) and %s (%s)",
			first.Appointment.PatientID, first.PatientPhone, second.Appointment.PatientID, second.PatientPhone)
	}
	if len(store.patients) != 1 {
		t.Fatalf("expected one patient row, got %d", len(store.patients))
	}
}

func TestBook_ConflictIsLocalized(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store, monday.AddDate(0, 0, -1), nil)
	if _, err := svc.Book(context.Background(), baseRequest()); err != nil {
		t.Fatalf("Book: %v", err)
	}

	req := baseRequest()
	req.StartTime = "10:15"
	_, err := svc.Book(context.Background(), req)
	if apperr.KindOf(err) != apperr.KindConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
	if apperr.MessageOf(err) != i18n.Message("pt", i18n.SlotTaken) {
		t.Fatalf("expected portuguese message, got %q", apperr.MessageOf(err))
	}

	// Back-to-back is not a conflict.
	req.StartTime = "10:30"
	if _, err := svc.Book(context.Background(), req); err != nil {
		t.Fatalf("expected adjacent booking to succeed, got %v", err)
	}
}

func TestBook_ConcurrentSameSlotOneWins(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store, monday.AddDate(0, 0, -1), nil)

	const n = 8
	errs := make(chan error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Book(context.Background(), baseRequest())
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var ok, conflicts int
	for err := range errs {
		switch {
		case err == nil:
			ok++
		case apperr.KindOf(err) == apperr.KindConflict:
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if ok != 1 || conflicts != n-1 {
		t.Fatalf("expected 1 success and %d conflicts, got %d/%d", n-1, ok, conflicts)
	}
	if len(store.appts) != 1 {
		t.Fatalf("expected one stored appointment, got %d", len(store.appts))
	}
}

func TestBook_NoRemindersWhenTooClose(t *testing.T) {
	store := newMemStore()
	// 90 minutes before a 10:00 start.
	svc := newTestService(store, monday.Add(8*time.Hour+30*time.Minute), nil)

	res, err := svc.Book(context.Background(), baseRequest())
	if err != nil {
		t.Fatalf("Book: %v", err)
	}
	if len(res.Reminders) != 0 || len(store.reminders) != 0 {
		t.Fatalf("expected no reminders, got %v", res.Reminders)
	}
}

func TestBook_ReminderFailureKeepsBooking(t *testing.T) {
	store := newMemStore()
	store.failReminders = true
	conv := &recordingResolver{err: errors.New("conversation store down")}
	svc := newTestService(store, monday.AddDate(0, 0, -1), conv)

	req := baseRequest()
	req.ConversationID = "wa-123"
	req.Source = "whatsapp"
	res, err := svc.Book(context.Background(), req)
	if err != nil {
		t.Fatalf("expected booking to succeed, got %v", err)
	}
	if len(res.Reminders) != 0 {
		t.Fatalf("expected no reminders reported, got %v", res.Reminders)
	}
	if len(store.appts) != 1 {
		t.Fatal("expected appointment to be stored")
	}
	if len(conv.calls) != 1 || conv.calls[0] != "wa-123->"+res.Appointment.ID {
		t.Fatalf("expected conversation resolve call, got %v", conv.calls)
	}
	if res.Appointment.Source != model.SourceWhatsApp {
		t.Fatalf("expected whatsapp source, got %s", res.Appointment.Source)
	}
}
