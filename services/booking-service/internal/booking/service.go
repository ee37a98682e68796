package booking

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/md-rashed-zaman/clinicbook/libs/i18n"
	"github.com/md-rashed-zaman/clinicbook/services/booking-service/internal/apperr"
	"github.com/md-rashed-zaman/clinicbook/services/booking-service/internal/availability"
	"github.com/md-rashed-zaman/clinicbook/services/booking-service/internal/metrics"
	"github.com/md-rashed-zaman/clinicbook/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/clinicbook/services/booking-service/internal/phone"
	"github.com/md-rashed-zaman/clinicbook/services/booking-service/internal/reminders"
	"github.com/md-rashed-zaman/clinicbook/services/booking-service/internal/schedule"
	"github.com/md-rashed-zaman/clinicbook/services/booking-service/internal/storage"
	"github.com/md-rashed-zaman/clinicbook/services/booking-service/internal/validation"
)

var bookingTracer = otel.Tracer("clinicbook.booking")

type Store interface {
	GetClinic(ctx context.Context, clinicID string) (model.Clinic, error)
	GetDoctor(ctx context.Context, doctorID string) (model.Doctor, error)
	UpsertPatient(ctx context.Context, clinicID, phone, name string) (model.Patient, error)
	ListBusyIntervals(ctx context.Context, doctorID string, date time.Time) ([]schedule.Interval, error)
	CreateAppointment(ctx context.Context, appt *model.Appointment) error
	CreateReminders(ctx context.Context, appointmentID string, plans []reminders.Plan) ([]string, error)
}

// ConversationResolver closes the chat conversation a booking came from.
type ConversationResolver interface {
	Resolve(ctx context.Context, conversationID, clinicID, patientID, appointmentID string) error
}

type Config struct {
	DefaultClinicID string
	// DefaultCountryCode reads national phone numbers ("55" or "BR").
	DefaultCountryCode string
	// DefaultLocale renders errors raised before the clinic is known.
	DefaultLocale string
}

type Service struct {
	store         Store
	durations     *availability.DurationResolver
	reminders     *reminders.Scheduler
	conversations ConversationResolver
	validator     *validation.Validator
	metrics       *metrics.Metrics
	logger        *slog.Logger
	cfg           Config
	now           func() time.Time
}

func NewService(
	store Store,
	durations *availability.DurationResolver,
	scheduler *reminders.Scheduler,
	conversations ConversationResolver,
	m *metrics.Metrics,
	logger *slog.Logger,
	cfg Config,
) *Service {
	if scheduler == nil {
		scheduler = reminders.NewScheduler(nil)
	}
	return &Service{
		store:         store,
		durations:     durations,
		reminders:     scheduler,
		conversations: conversations,
		validator:     validation.New(cfg.DefaultLocale),
		metrics:       m,
		logger:        logger,
		cfg:           cfg,
		now:           time.Now,
	}
}

type Result struct {
	Appointment   model.Appointment
	DoctorName    string
	PatientName   string
	PatientPhone  string
	FormattedDate string
	Reminders     []string
}

// parsed is a structurally valid Request.
type parsed struct {
	date   time.Time
	start  schedule.Clock
	end    schedule.Clock
	hasEnd bool
	phone  string
	source model.Source
}

// Book validates and commits an appointment. Reminder creation and
// conversation resolution never fail the booking once it is stored.
func (s *Service) Book(ctx context.Context, req Request) (res Result, err error) {
	ctx, span := bookingTracer.Start(ctx, "booking.book")
	defer span.End()

	began := s.now()
	sourceLabel := "invalid"
	defer func() {
		outcome := "created"
		if err != nil {
			outcome = string(apperr.KindOf(err))
			span.RecordError(err)
		}
		s.metrics.ObserveBooking(sourceLabel, outcome, s.now().Sub(began))
	}()

	in, err := s.parse(req)
	if err != nil {
		return Result{}, err
	}
	sourceLabel = string(in.source)

	clinic, err := availability.ResolveClinic(ctx, s.store, req.ClinicID, s.cfg.DefaultClinicID, s.cfg.DefaultLocale)
	if err != nil {
		return Result{}, err
	}
	doctor, err := s.activeDoctor(ctx, clinic, req.DoctorID)
	if err != nil {
		return Result{}, err
	}
	span.SetAttributes(
		attribute.String("clinicbook.clinic_id", clinic.ID),
		attribute.String("clinicbook.doctor_id", doctor.ID),
		attribute.String("clinicbook.date", req.AppointmentDate),
		attribute.String("clinicbook.source", string(in.source)),
	)

	patient, err := s.store.UpsertPatient(ctx, clinic.ID, in.phone, strings.TrimSpace(req.PatientName))
	if err != nil {
		return Result{}, apperr.Dependency(i18n.Message(clinic.Locale, i18n.ResolvePatientFailed), err)
	}

	end := in.end
	if !in.hasEnd {
		minutes, err := s.durations.Resolve(ctx, clinic.ID, req.Type)
		if err != nil {
			return Result{}, apperr.Dependency(i18n.Message(clinic.Locale, i18n.ResolveDurationFailed), err)
		}
		end = in.start.Add(minutes)
		if end > schedule.MinutesPerDay {
			return Result{}, apperr.Validation(i18n.Message(clinic.Locale, i18n.EndByMidnight))
		}
	}
	slot := schedule.Interval{Start: in.start, End: end}

	busy, err := s.store.ListBusyIntervals(ctx, doctor.ID, in.date)
	if err != nil {
		return Result{}, apperr.Dependency(i18n.Message(clinic.Locale, i18n.LoadAppointmentsFailed), err)
	}
	if availability.HasConflict(slot, busy) {
		return Result{}, apperr.Conflict(i18n.Message(clinic.Locale, i18n.SlotTaken))
	}

	appt := model.Appointment{
		ClinicID:       clinic.ID,
		DoctorID:       doctor.ID,
		PatientID:      patient.ID,
		Date:           in.date,
		Start:          slot.Start,
		End:            slot.End,
		Status:         model.StatusScheduled,
		Type:           strings.TrimSpace(req.Type),
		Notes:          strings.TrimSpace(req.Notes),
		Source:         in.source,
		ConversationID: strings.TrimSpace(req.ConversationID),
	}
	if err := s.store.CreateAppointment(ctx, &appt); err != nil {
		if storage.IsConflict(err) {
			return Result{}, apperr.Conflict(i18n.Message(clinic.Locale, i18n.SlotTaken))
		}
		return Result{}, apperr.Dependency(i18n.Message(clinic.Locale, i18n.CreateAppointmentFailed), err)
	}
	span.SetAttributes(attribute.String("clinicbook.appointment_id", appt.ID))

	res = Result{
		Appointment:   appt,
		DoctorName:    doctor.Name,
		PatientName:   patient.Name,
		PatientPhone:  patient.Phone,
		FormattedDate: i18n.FormatDate(in.date, clinic.Locale),
	}
	res.Reminders = s.createReminders(ctx, appt, clinic.Location())

	if appt.ConversationID != "" && s.conversations != nil {
		if err := s.conversations.Resolve(ctx, appt.ConversationID, clinic.ID, patient.ID, appt.ID); err != nil {
			s.logger.Warn("conversation resolve failed",
				"appointment_id", appt.ID,
				"conversation_id", appt.ConversationID,
				"err", err,
			)
		}
	}

	s.logger.Info("appointment booked",
		"appointment_id", appt.ID,
		"clinic_id", clinic.ID,
		"doctor_id", doctor.ID,
		"date", req.AppointmentDate,
		"start", slot.Start.String(),
		"end", slot.End.String(),
		"source", string(appt.Source),
		"reminders", len(res.Reminders),
	)
	return res, nil
}

// parse runs before the clinic is known, so its messages use the default locale.
func (s *Service) parse(req Request) (parsed, error) {
	if err := s.validator.Struct(req); err != nil {
		return parsed{}, err
	}
	locale := s.cfg.DefaultLocale
	date, err := validation.ParseDate(req.AppointmentDate)
	if err != nil {
		return parsed{}, apperr.Validation(i18n.Message(locale, i18n.DateField, "appointmentDate"))
	}
	start, err := schedule.ParseClock(req.StartTime)
	if err != nil {
		return parsed{}, apperr.Validation(i18n.Message(locale, i18n.TimeField, "startTime"))
	}
	in := parsed{date: date, start: start}

	if strings.TrimSpace(req.EndTime) != "" {
		end, err := schedule.ParseClock(req.EndTime)
		if err != nil {
			return parsed{}, apperr.Validation(i18n.Message(locale, i18n.TimeField, "endTime"))
		}
		if end <= start {
			return parsed{}, apperr.Validation(i18n.Message(locale, i18n.EndAfterStart))
		}
		in.end, in.hasEnd = end, true
	}

	in.phone, err = phone.Canonicalize(req.PatientPhone, s.cfg.DefaultCountryCode)
	if err != nil {
		return parsed{}, apperr.Validation(i18n.Message(locale, i18n.InvalidPhone))
	}

	source, ok := model.ParseSource(req.Source)
	if !ok {
		return parsed{}, apperr.Validation(i18n.Message(locale, i18n.InvalidSource))
	}
	in.source = source
	return in, nil
}

func (s *Service) activeDoctor(ctx context.Context, clinic model.Clinic, doctorID string) (model.Doctor, error) {
	doctor, err := s.store.GetDoctor(ctx, doctorID)
	if errors.Is(err, storage.ErrNotFound) {
		return model.Doctor{}, apperr.NotFound(i18n.Message(clinic.Locale, i18n.DoctorNotFound))
	}
	if err != nil {
		return model.Doctor{}, apperr.Dependency(i18n.Message(clinic.Locale, i18n.LoadDoctorFailed), err)
	}
	if doctor.ClinicID != clinic.ID {
		return model.Doctor{}, apperr.NotFound(i18n.Message(clinic.Locale, i18n.DoctorOtherClinic))
	}
	if !doctor.Active {
		return model.Doctor{}, apperr.NotFound(i18n.Message(clinic.Locale, i18n.DoctorInactive))
	}
	return doctor, nil
}

func (s *Service) createReminders(ctx context.Context, appt model.Appointment, loc *time.Location) []string {
	plans := s.reminders.Plan(appt.StartsAt(loc), s.now())
	if len(plans) == 0 {
		return nil
	}
	kinds, err := s.store.CreateReminders(ctx, appt.ID, plans)
	if err != nil {
		s.logger.Warn("reminder insert failed", "appointment_id", appt.ID, "err", err)
		return nil
	}
	for _, kind := range kinds {
		s.metrics.ReminderCreated(kind)
	}
	return kinds
}
