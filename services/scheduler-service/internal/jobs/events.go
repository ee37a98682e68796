package jobs

import (
	"errors"
	"fmt"
	"time"

	"github.com/md-rashed-zaman/clinicbook/libs/outbox"
)

const (
	EventReminderDue    = "scheduler.reminder.due.v1"
	EventReminderFailed = "scheduler.reminder.failed.v1"
)

var errMissingRecipient = errors.New("patient has no phone number")

type reminderDuePayload struct {
	ReminderID      string `json:"reminder_id"`
	AppointmentID   string `json:"appointment_id"`
	Kind            string `json:"kind"`
	ScheduledFor    string `json:"scheduled_for"`
	StartsAt        string `json:"starts_at"`
	Date            string `json:"date"`
	StartTime       string `json:"start_time"`
	EndTime         string `json:"end_time"`
	AppointmentType string `json:"type,omitempty"`
	ClinicID        string `json:"clinic_id"`
	ClinicName      string `json:"clinic_name"`
	Timezone        string `json:"timezone"`
	Locale          string `json:"locale"`
	DoctorID        string `json:"doctor_id"`
	DoctorName      string `json:"doctor_name"`
	PatientID       string `json:"patient_id"`
	PatientName     string `json:"patient_name,omitempty"`
	PatientPhone    string `json:"patient_phone"`
}

type reminderFailedPayload struct {
	ReminderID    string `json:"reminder_id"`
	AppointmentID string `json:"appointment_id"`
	Kind          string `json:"kind"`
	Reason        string `json:"reason"`
	FailedAt      string `json:"failed_at"`
}

func dueEvent(rem DueReminder) (outbox.Event, error) {
	if rem.PatientPhone == "" {
		return outbox.Event{}, errMissingRecipient
	}
	loc, err := time.LoadLocation(rem.Timezone)
	if err != nil || rem.Timezone == "" {
		loc = time.UTC
	}
	d := rem.AppointmentDate
	startsAt := time.Date(d.Year(), d.Month(), d.Day(), rem.StartMinute/60, rem.StartMinute%60, 0, 0, loc)

	return outbox.NewEvent("reminder", rem.ID, EventReminderDue, reminderDuePayload{
		ReminderID:      rem.ID,
		AppointmentID:   rem.AppointmentID,
		Kind:            rem.Kind,
		ScheduledFor:    rem.ScheduledFor.UTC().Format(time.RFC3339),
		StartsAt:        startsAt.Format(time.RFC3339),
		Date:            d.Format(time.DateOnly),
		StartTime:       clock(rem.StartMinute),
		EndTime:         clock(rem.EndMinute),
		AppointmentType: rem.AppointmentType,
		ClinicID:        rem.ClinicID,
		ClinicName:      rem.ClinicName,
		Timezone:        loc.String(),
		Locale:          rem.Locale,
		DoctorID:        rem.DoctorID,
		DoctorName:      rem.DoctorName,
		PatientID:       rem.PatientID,
		PatientName:     rem.PatientName,
		PatientPhone:    rem.PatientPhone,
	})
}

func failedEvent(rem DueReminder, reason string, at time.Time) (outbox.Event, error) {
	return outbox.NewEvent("reminder", rem.ID, EventReminderFailed, reminderFailedPayload{
		ReminderID:    rem.ID,
		AppointmentID: rem.AppointmentID,
		Kind:          rem.Kind,
		Reason:        reason,
		FailedAt:      at.UTC().Format(time.RFC3339),
	})
}

func clock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}
