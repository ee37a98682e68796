package model

import (
	"time"

	"github.com/md-rashed-zaman/clinicbook/services/booking-service/internal/schedule"
)

type Clinic struct {
	ID       string
	Name     string
	Timezone string
	Locale   string
}

// Location falls back to UTC when the stored zone is unknown.
func (c Clinic) Location() *time.Location {
	if c.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

type Doctor struct {
	ID           string
	ClinicID     string
	Name         string
	Active       bool
	WorkingHours schedule.WorkingHours
}

type Patient struct {
	ID       string
	ClinicID string
	Phone    string
	Name     string
}

type ServiceType struct {
	ID              string
	ClinicID        string
	Name            string
	DurationMinutes int
}

type ReminderStatus string

const (
	ReminderPending ReminderStatus = "pending"
	ReminderSent    ReminderStatus = "sent"
	ReminderFailed  ReminderStatus = "failed"
)
