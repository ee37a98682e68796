package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/md-rashed-zaman/clinicbook/services/booking-service/internal/model"
)

func (r *Repository) GetClinic(ctx context.Context, clinicID string) (model.Clinic, error) {
	var c model.Clinic
	err := r.conn.QueryRow(ctx, `
		SELECT id::text, name, timezone, locale
		FROM clinics
		WHERE id = $1
	`, clinicID).Scan(&c.ID, &c.Name, &c.Timezone, &c.Locale)
	if err != nil {
		return model.Clinic{}, notFound(err)
	}
	return c, nil
}

func (r *Repository) GetDoctor(ctx context.Context, doctorID string) (model.Doctor, error) {
	var (
		d   model.Doctor
		raw []byte
	)
	err := r.conn.QueryRow(ctx, `
		SELECT id::text, clinic_id::text, name, active, working_hours
		FROM doctors
		WHERE id = $1
	`, doctorID).Scan(&d.ID, &d.ClinicID, &d.Name, &d.Active, &raw)
	if err != nil {
		return model.Doctor{}, notFound(err)
	}
	if err := decodeHours(&d, raw); err != nil {
		return model.Doctor{}, err
	}
	return d, nil
}

// ListActiveDoctors skips doctors whose working hours cannot be decoded.
func (r *Repository) ListActiveDoctors(ctx context.Context, clinicID string) ([]model.Doctor, error) {
	rows, err := r.conn.Query(ctx, `
		SELECT id::text, clinic_id::text, name, active, working_hours
		FROM doctors
		WHERE clinic_id = $1 AND active
		ORDER BY id
	`, clinicID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var doctors []model.Doctor
	for rows.Next() {
		var (
			d   model.Doctor
			raw []byte
		)
		if err := rows.Scan(&d.ID, &d.ClinicID, &d.Name, &d.Active, &raw); err != nil {
			return nil, err
		}
		if err := decodeHours(&d, raw); err != nil {
			r.logger.Error("skipping doctor with malformed working hours",
				"doctor_id", d.ID, "clinic_id", d.ClinicID, "err", err)
			continue
		}
		doctors = append(doctors, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return doctors, nil
}

func (r *Repository) ListServiceTypes(ctx context.Context, clinicID string) ([]model.ServiceType, error) {
	rows, err := r.conn.Query(ctx, `
		SELECT id::text, clinic_id::text, name, duration_minutes
		FROM service_types
		WHERE clinic_id = $1
		ORDER BY name, id
	`, clinicID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var types []model.ServiceType
	for rows.Next() {
		var st model.ServiceType
		if err := rows.Scan(&st.ID, &st.ClinicID, &st.Name, &st.DurationMinutes); err != nil {
			return nil, err
		}
		types = append(types, st)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return types, nil
}

func decodeHours(d *model.Doctor, raw []byte) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, &d.WorkingHours); err != nil {
		return fmt.Errorf("doctor %s: %w", d.ID, err)
	}
	return nil
}
