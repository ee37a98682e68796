package notify

import (
	"fmt"
	"strings"
	"time"

	"github.com/md-rashed-zaman/clinicbook/libs/i18n"
)

// ReminderDue is the scheduler.reminder.due.v1 payload.
type ReminderDue struct {
	ReminderID      string `json:"reminder_id"`
	AppointmentID   string `json:"appointment_id"`
	Kind            string `json:"kind"`
	ScheduledFor    string `json:"scheduled_for"`
	StartsAt        string `json:"starts_at"`
	Date            string `json:"date"`
	StartTime       string `json:"start_time"`
	EndTime         string `json:"end_time"`
	AppointmentType string `json:"type"`
	ClinicID        string `json:"clinic_id"`
	ClinicName      string `json:"clinic_name"`
	Timezone        string `json:"timezone"`
	Locale          string `json:"locale"`
	DoctorID        string `json:"doctor_id"`
	DoctorName      string `json:"doctor_name"`
	PatientID       string `json:"patient_id"`
	PatientName     string `json:"patient_name"`
	PatientPhone    string `json:"patient_phone"`
}

type template struct {
	greeting string
	body     string // doctor, clinic, date, time
}

var templates = map[string]template{
	"en": {greeting: "Hi", body: "this is a reminder of your appointment with %s at %s on %s at %s."},
	"es": {greeting: "Hola", body: "te recordamos tu cita con %s en %s el %s a las %s."},
	"pt": {greeting: "Olá", body: "lembramos da sua consulta com %s na %s em %s às %s."},
}

// Render builds the reminder text in the clinic's language.
func Render(due ReminderDue) string {
	tpl := templates[i18n.Language(due.Locale)]

	date := due.Date
	if d, err := time.Parse(time.DateOnly, due.Date); err == nil {
		date = i18n.FormatDate(d, due.Locale)
	}
	greeting := tpl.greeting
	if name := strings.TrimSpace(due.PatientName); name != "" {
		greeting += " " + name
	}
	return greeting + ", " + fmt.Sprintf(tpl.body, due.DoctorName, due.ClinicName, date, due.StartTime)
}
