package storage

import (
	"context"

	"github.com/md-rashed-zaman/clinicbook/services/booking-service/internal/model"
)

// UpsertPatient returns the patient identified by (clinic, phone), creating
// it on first contact. An existing blank name is filled in from name.
func (r *Repository) UpsertPatient(ctx context.Context, clinicID, phone, name string) (model.Patient, error) {
	var p model.Patient
	err := r.conn.QueryRow(ctx, `
		INSERT INTO patients (clinic_id, phone, name)
		VALUES ($1, $2, $3)
		ON CONFLICT (clinic_id, phone) DO UPDATE
		SET name = CASE WHEN patients.name = '' THEN EXCLUDED.name ELSE patients.name END,
		    updated_at = now()
		RETURNING id::text, clinic_id::text, phone, name
	`, clinicID, phone, name).Scan(&p.ID, &p.ClinicID, &p.Phone, &p.Name)
	if err != nil {
		return model.Patient{}, err
	}
	return p, nil
}
