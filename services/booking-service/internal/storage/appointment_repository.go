package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/md-rashed-zaman/clinicbook/libs/db"
	"github.com/md-rashed-zaman/clinicbook/libs/outbox"
	"github.com/md-rashed-zaman/clinicbook/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/clinicbook/services/booking-service/internal/reminders"
	"github.com/md-rashed-zaman/clinicbook/services/booking-service/internal/schedule"
)

const EventAppointmentBooked = "booking.appointment.booked.v1"

// ListBusyIntervals returns the doctor's non-cancelled appointments on date,
// ordered by start.
func (r *Repository) ListBusyIntervals(ctx context.Context, doctorID string, date time.Time) ([]schedule.Interval, error) {
	rows, err := r.conn.Query(ctx, `
		SELECT start_minute, end_minute
		FROM appointments
		WHERE doctor_id = $1
		  AND appointment_date = $2
		  AND status <> 'cancelled'
		ORDER BY start_minute
	`, doctorID, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var busy []schedule.Interval
	for rows.Next() {
		var start, end int
		if err := rows.Scan(&start, &end); err != nil {
			return nil, err
		}
		busy = append(busy, schedule.Interval{Start: schedule.Clock(start), End: schedule.Clock(end)})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return busy, nil
}

type appointmentBookedPayload struct {
	AppointmentID  string `json:"appointment_id"`
	ClinicID       string `json:"clinic_id"`
	DoctorID       string `json:"doctor_id"`
	PatientID      string `json:"patient_id"`
	Date           string `json:"date"`
	StartTime      string `json:"start_time"`
	EndTime        string `json:"end_time"`
	Type           string `json:"type,omitempty"`
	Source         string `json:"source"`
	ConversationID string `json:"conversation_id,omitempty"`
}

// CreateAppointment inserts appt and its booked event in one transaction.
// appt.ID and appt.CreatedAt are filled in. An overlap with another
// non-cancelled appointment returns ErrSlotTaken.
func (r *Repository) CreateAppointment(ctx context.Context, appt *model.Appointment) error {
	if appt.ID == "" {
		appt.ID = uuid.NewString()
	}
	if appt.Status == "" {
		appt.Status = model.StatusScheduled
	}

	evt, err := outbox.NewEvent("appointment", appt.ID, EventAppointmentBooked, appointmentBookedPayload{
		AppointmentID:  appt.ID,
		ClinicID:       appt.ClinicID,
		DoctorID:       appt.DoctorID,
		PatientID:      appt.PatientID,
		Date:           appt.Date.Format(time.DateOnly),
		StartTime:      appt.Start.String(),
		EndTime:        appt.End.String(),
		Type:           appt.Type,
		Source:         string(appt.Source),
		ConversationID: appt.ConversationID,
	})
	if err != nil {
		return err
	}

	err = db.InTx(ctx, r.conn, func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx, `
			INSERT INTO appointments (id, clinic_id, doctor_id, patient_id, appointment_date, start_minute, end_minute,
				status, type, notes, source, conversation_id)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NULLIF($12, ''))
			RETURNING created_at
		`, appt.ID, appt.ClinicID, appt.DoctorID, appt.PatientID, appt.Date, int(appt.Start), int(appt.End),
			string(appt.Status), appt.Type, appt.Notes, string(appt.Source), appt.ConversationID).Scan(&appt.CreatedAt); err != nil {
			return err
		}
		return r.outbox.Insert(ctx, tx, evt)
	})
	if db.HasCode(err, db.CodeExclusionViolation) {
		return ErrSlotTaken
	}
	if err != nil {
		return fmt.Errorf("insert appointment: %w", err)
	}
	return nil
}

// CreateReminders stores planned reminders as pending. Kinds that already
// exist for the appointment are left alone. It returns the kinds inserted.
func (r *Repository) CreateReminders(ctx context.Context, appointmentID string, plans []reminders.Plan) ([]string, error) {
	if len(plans) == 0 {
		return nil, nil
	}
	var created []string
	err := db.InTx(ctx, r.conn, func(tx pgx.Tx) error {
		created = created[:0]
		for _, p := range plans {
			tag, err := tx.Exec(ctx, `
				INSERT INTO reminders (appointment_id, kind, status, scheduled_for)
				VALUES ($1, $2, 'pending', $3)
				ON CONFLICT (appointment_id, kind) DO NOTHING
			`, appointmentID, p.Kind, p.ScheduledFor)
			if err != nil {
				return fmt.Errorf("insert %s reminder: %w", p.Kind, err)
			}
			if tag.RowsAffected() > 0 {
				created = append(created, p.Kind)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}
