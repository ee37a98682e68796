package model

import (
	"time"

	"github.com/md-rashed-zaman/clinicbook/services/booking-service/internal/schedule"
)

type AppointmentStatus string

const (
	StatusScheduled AppointmentStatus = "scheduled"
	StatusConfirmed AppointmentStatus = "confirmed"
	StatusCompleted AppointmentStatus = "completed"
	StatusCancelled AppointmentStatus = "cancelled"
	StatusNoShow    AppointmentStatus = "no_show"
)

// Source records how an appointment was created.
type Source string

const (
	SourceManual         Source = "manual"
	SourceWhatsApp       Source = "whatsapp"
	SourceGoogleCalendar Source = "google_calendar"
)

// ParseSource maps an empty value to SourceManual.
func ParseSource(s string) (Source, bool) {
	switch Source(s) {
	case "":
		return SourceManual, true
	case SourceManual, SourceWhatsApp, SourceGoogleCalendar:
		return Source(s), true
	default:
		return "", false
	}
}

type Appointment struct {
	ID             string
	ClinicID       string
	DoctorID       string
	PatientID      string
	Date           time.Time // civil date at UTC midnight
	Start          schedule.Clock
	End            schedule.Clock
	Status         AppointmentStatus
	Type           string
	Notes          string
	Source         Source
	ConversationID string
	CreatedAt      time.Time
}

func (a Appointment) Interval() schedule.Interval {
	return schedule.Interval{Start: a.Start, End: a.End}
}

// StartsAt is the appointment start as an instant in loc.
func (a Appointment) StartsAt(loc *time.Location) time.Time {
	return At(a.Date, a.Start, loc)
}

// At combines a civil date and a time of day in loc.
func At(date time.Time, c schedule.Clock, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return time.Date(date.Year(), date.Month(), date.Day(), int(c)/60, int(c)%60, 0, 0, loc)
}
