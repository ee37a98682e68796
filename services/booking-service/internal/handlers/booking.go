package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/md-rashed-zaman/clinicbook/libs/httpx"
	"github.com/md-rashed-zaman/clinicbook/libs/i18n"
	"github.com/md-rashed-zaman/clinicbook/services/booking-service/internal/apperr"
	"github.com/md-rashed-zaman/clinicbook/services/booking-service/internal/booking"
	"github.com/md-rashed-zaman/clinicbook/services/booking-service/internal/validation"
)

type Booker interface {
	Book(ctx context.Context, req booking.Request) (booking.Result, error)
}

type BookingHandler struct {
	svc    Booker
	logger *slog.Logger
	locale string
}

// NewBookingHandler renders transport errors (bad JSON, wrong method) in locale.
func NewBookingHandler(svc Booker, logger *slog.Logger, locale string) *BookingHandler {
	return &BookingHandler{svc: svc, logger: logger, locale: locale}
}

type appointmentItem struct {
	ID            string `json:"id"`
	Date          string `json:"date"`
	FormattedDate string `json:"formattedDate"`
	StartTime     string `json:"startTime"`
	EndTime       string `json:"endTime"`
	DoctorID      string `json:"doctorId"`
	DoctorName    string `json:"doctorName"`
	PatientID     string `json:"patientId"`
	PatientName   string `json:"patientName"`
	PatientPhone  string `json:"patientPhone"`
	Type          string `json:"type"`
	Source        string `json:"source"`
}

type createAppointmentResponse struct {
	Success     bool            `json:"success"`
	Appointment appointmentItem `json:"appointment"`
	Reminders   []string        `json:"reminders"`
}

func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost, h.locale)
		return
	}

	var req booking.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, h.logger, h.locale, apperr.Validation(i18n.Message(h.locale, i18n.InvalidJSON)))
		return
	}

	res, err := h.svc.Book(r.Context(), req)
	if err != nil {
		writeError(w, r, h.logger, h.locale, err)
		return
	}

	appt := res.Appointment
	reminders := res.Reminders
	if reminders == nil {
		reminders = []string{}
	}
	httpx.WriteJSON(w, http.StatusCreated, createAppointmentResponse{
		Success: true,
		Appointment: appointmentItem{
			ID:            appt.ID,
			Date:          appt.Date.Format(validation.DateLayout),
			FormattedDate: res.FormattedDate,
			StartTime:     appt.Start.String(),
			EndTime:       appt.End.String(),
			DoctorID:      appt.DoctorID,
			DoctorName:    res.DoctorName,
			PatientID:     appt.PatientID,
			PatientName:   res.PatientName,
			PatientPhone:  res.PatientPhone,
			Type:          appt.Type,
			Source:        string(appt.Source),
		},
		Reminders: reminders,
	})
}
