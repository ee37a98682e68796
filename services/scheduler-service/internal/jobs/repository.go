package jobs

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/md-rashed-zaman/clinicbook/libs/outbox"
)

// DueReminder is a pending reminder joined with what a notifier needs to
// render it.
type DueReminder struct {
	ID                string
	AppointmentID     string
	Kind              string
	ScheduledFor      time.Time
	Attempts          int
	AppointmentStatus string
	AppointmentDate   time.Time
	StartMinute       int
	EndMinute         int
	AppointmentType   string
	ClinicID          string
	ClinicName        string
	Timezone          string
	Locale            string
	DoctorID          string
	DoctorName        string
	PatientID         string
	PatientName       string
	PatientPhone      string
}

type Repository struct{}

func NewRepository() *Repository {
	return &Repository{}
}

// FetchDue locks up to limit pending reminders whose time (or retry time) has
// come. Rows locked by another worker are skipped.
func (r *Repository) FetchDue(ctx context.Context, tx pgx.Tx, now time.Time, limit int) ([]DueReminder, error) {
	rows, err := tx.Query(ctx, `
		SELECT r.id, r.appointment_id, r.kind, r.scheduled_for, r.attempts,
		       a.status, a.appointment_date, a.start_minute, a.end_minute, a.type,
		       c.id, c.name, c.timezone, c.locale,
		       d.id, d.name,
		       p.id, p.name, p.phone
		FROM reminders r
		JOIN appointments a ON a.id = r.appointment_id
		JOIN clinics c ON c.id = a.clinic_id
		JOIN doctors d ON d.id = a.doctor_id
		JOIN patients p ON p.id = a.patient_id
		WHERE r.status = 'pending' AND COALESCE(r.next_attempt_at, r.scheduled_for) <= $1
		ORDER BY COALESCE(r.next_attempt_at, r.scheduled_for), r.id
		LIMIT $2
		FOR UPDATE OF r SKIP LOCKED
	`, now, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var due []DueReminder
	for rows.Next() {
		var d DueReminder
		if err := rows.Scan(
			&d.ID, &d.AppointmentID, &d.Kind, &d.ScheduledFor, &d.Attempts,
			&d.AppointmentStatus, &d.AppointmentDate, &d.StartMinute, &d.EndMinute, &d.AppointmentType,
			&d.ClinicID, &d.ClinicName, &d.Timezone, &d.Locale,
			&d.DoctorID, &d.DoctorName,
			&d.PatientID, &d.PatientName, &d.PatientPhone,
		); err != nil {
			return nil, err
		}
		due = append(due, d)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return due, nil
}

func (r *Repository) MarkSent(ctx context.Context, tx pgx.Tx, ids []string, sentAt time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := tx.Exec(ctx, `
		UPDATE reminders
		SET status = 'sent', sent_at = $2, last_error = ''
		WHERE id = ANY($1)
	`, ids, sentAt)
	return err
}

// MarkFailed retires a reminder for good.
func (r *Repository) MarkFailed(ctx context.Context, tx pgx.Tx, id, reason string) error {
	_, err := tx.Exec(ctx, `
		UPDATE reminders
		SET status = 'failed', last_error = $2
		WHERE id = $1
	`, id, reason)
	return err
}

// RecordAttempt counts a failed dispatch for ids and defers their next try
// to nextAttemptAt. Reminders reaching maxAttempts are marked failed.
func (r *Repository) RecordAttempt(ctx context.Context, exec outbox.Execer, ids []string, maxAttempts int, nextAttemptAt time.Time, lastError string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := exec.Exec(ctx, `
		UPDATE reminders
		SET attempts = attempts + 1,
		    status = CASE WHEN attempts + 1 >= $2 THEN 'failed' ELSE status END,
		    next_attempt_at = $3,
		    last_error = $4
		WHERE id = ANY($1) AND status = 'pending'
	`, ids, maxAttempts, nextAttemptAt, lastError)
	return err
}
