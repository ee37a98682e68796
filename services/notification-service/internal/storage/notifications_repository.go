package storage

import (
	"context"

	"github.com/md-rashed-zaman/clinicbook/libs/outbox"
)

type Notification struct {
	ReminderID    string
	AppointmentID string
	ClinicID      string
	Channel       string
	Recipient     string
	Body          string
	Status        string
	ProviderID    string
	Error         string
}

type Repository struct{}

func NewRepository() *Repository {
	return &Repository{}
}

func (r *Repository) Insert(ctx context.Context, exec outbox.Execer, n Notification) error {
	_, err := exec.Exec(ctx, `
		INSERT INTO notifications (reminder_id, appointment_id, clinic_id, channel, recipient, body, status, provider_id, error)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, n.ReminderID, n.AppointmentID, n.ClinicID, n.Channel, n.Recipient, n.Body, n.Status, n.ProviderID, n.Error)
	return err
}
