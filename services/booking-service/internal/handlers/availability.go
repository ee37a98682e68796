package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/md-rashed-zaman/clinicbook/libs/httpx"
	"github.com/md-rashed-zaman/clinicbook/services/booking-service/internal/availability"
	"github.com/md-rashed-zaman/clinicbook/services/booking-service/internal/schedule"
	"github.com/md-rashed-zaman/clinicbook/services/booking-service/internal/validation"
)

type AvailabilityChecker interface {
	CheckSpecificTime(ctx context.Context, q availability.Query, start schedule.Clock) (availability.SpecificResult, error)
	ListDaySlots(ctx context.Context, q availability.Query) (availability.DayResult, error)
}

type AvailabilityHandler struct {
	svc       AvailabilityChecker
	validator *validation.Validator
	logger    *slog.Logger
	locale    string
}

// NewAvailabilityHandler renders query validation errors in locale.
func NewAvailabilityHandler(svc AvailabilityChecker, logger *slog.Logger, locale string) *AvailabilityHandler {
	return &AvailabilityHandler{svc: svc, validator: validation.New(locale), logger: logger, locale: locale}
}

type availabilityQuery struct {
	ClinicID    string `json:"clinicId" validate:"omitempty,uuid"`
	Date        string `json:"date" validate:"required,ymd"`
	DoctorID    string `json:"doctorId" validate:"omitempty,uuid"`
	ServiceType string `json:"serviceType" validate:"max=200"`
	StartTime   string `json:"startTime" validate:"omitempty,hhmm"`
}

type doctorItem struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type slotItem struct {
	StartTime  string `json:"startTime"`
	EndTime    string `json:"endTime"`
	DoctorID   string `json:"doctorId"`
	DoctorName string `json:"doctorName"`
}

type specificAvailableResponse struct {
	Available       bool       `json:"available"`
	RequestedTime   string     `json:"requestedTime"`
	ServiceDuration int        `json:"serviceDuration"`
	EndTime         string     `json:"endTime"`
	Doctor          doctorItem `json:"doctor"`
}

type specificUnavailableResponse struct {
	Available       bool       `json:"available"`
	RequestedTime   string     `json:"requestedTime"`
	ServiceDuration int        `json:"serviceDuration"`
	SuggestedSlots  []slotItem `json:"suggestedSlots"`
}

type dayResponse struct {
	Available       bool         `json:"available"`
	ServiceDuration int          `json:"serviceDuration"`
	SlotsCount      int          `json:"slotsCount"`
	Slots           []slotItem   `json:"slots"`
	Doctors         []doctorItem `json:"doctors"`
}

// Get answers a specific-time check when startTime is present and a day
// listing otherwise.
func (h *AvailabilityHandler) Get(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet, h.locale)
		return
	}

	values := r.URL.Query()
	in := availabilityQuery{
		ClinicID:    strings.TrimSpace(values.Get("clinicId")),
		Date:        strings.TrimSpace(values.Get("date")),
		DoctorID:    strings.TrimSpace(values.Get("doctorId")),
		ServiceType: strings.TrimSpace(values.Get("serviceType")),
		StartTime:   strings.TrimSpace(values.Get("startTime")),
	}
	if err := h.validator.Struct(in); err != nil {
		writeError(w, r, h.logger, h.locale, err)
		return
	}
	date, _ := validation.ParseDate(in.Date)
	q := availability.Query{
		ClinicID:    in.ClinicID,
		Date:        date,
		DoctorID:    in.DoctorID,
		ServiceType: in.ServiceType,
	}

	if in.StartTime != "" {
		start, _ := schedule.ParseClock(in.StartTime)
		res, err := h.svc.CheckSpecificTime(r.Context(), q, start)
		if err != nil {
			writeError(w, r, h.logger, h.locale, err)
			return
		}
		if res.Available {
			httpx.WriteJSON(w, http.StatusOK, specificAvailableResponse{
				Available:       true,
				RequestedTime:   res.Requested.Start.String(),
				ServiceDuration: res.DurationMinutes,
				EndTime:         res.Requested.End.String(),
				Doctor:          doctorItem{ID: res.Doctor.ID, Name: res.Doctor.Name},
			})
			return
		}
		httpx.WriteJSON(w, http.StatusOK, specificUnavailableResponse{
			RequestedTime:   res.Requested.Start.String(),
			ServiceDuration: res.DurationMinutes,
			SuggestedSlots:  slotItems(res.Suggestions),
		})
		return
	}

	res, err := h.svc.ListDaySlots(r.Context(), q)
	if err != nil {
		writeError(w, r, h.logger, h.locale, err)
		return
	}
	doctors := make([]doctorItem, 0, len(res.Doctors))
	for _, d := range res.Doctors {
		doctors = append(doctors, doctorItem{ID: d.ID, Name: d.Name})
	}
	httpx.WriteJSON(w, http.StatusOK, dayResponse{
		Available:       res.Available(),
		ServiceDuration: res.DurationMinutes,
		SlotsCount:      res.Total,
		Slots:           slotItems(res.Slots),
		Doctors:         doctors,
	})
}

func slotItems(opts []availability.SlotOption) []slotItem {
	out := make([]slotItem, 0, len(opts))
	for _, o := range opts {
		out = append(out, slotItem{
			StartTime:  o.Slot.Start.String(),
			EndTime:    o.Slot.End.String(),
			DoctorID:   o.Doctor.ID,
			DoctorName: o.Doctor.Name,
		})
	}
	return out
}
