package appointments

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Querier is the subset of pgxpool.Pool the repository needs. Satisfied
// by *pgxpool.Pool and by pgxmock in tests.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Repository provides persistence for appointments.
type Repository struct {
	db Querier
}

// NewRepository creates an appointment repository.
func NewRepository(db Querier) *Repository {
	if db == nil {
		panic("appointments: querier required")
	}
	return &Repository{db: db}
}

const appointmentColumns = `
	id, clinic_id, patient_name, patient_phone, COALESCE(patient_email, ''),
	service_id, professional_id,
	to_char(scheduled_date, 'YYYY-MM-DD'), to_char(scheduled_time, 'HH24:MI'),
	duration_minutes, status, COALESCE(notes, ''), source, created_at, updated_at`

// Create inserts an appointment and returns the stored row.
func (r *Repository) Create(ctx context.Context, in NewAppointment) (*Appointment, error) {
	if in.Status == "" {
		in.Status = StatusPending
	}
	if in.Source == "" {
		in.Source = "whatsapp"
	}
	if in.DurationMinutes <= 0 {
		in.DurationMinutes = 30
	}

	row := r.db.QueryRow(ctx, `
		INSERT INTO appointments (
			id, clinic_id, patient_name, patient_phone, patient_email,
			service_id, professional_id, scheduled_date, scheduled_time,
			duration_minutes, status, notes, source
		) VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, $7, $8::date, $9::time, $10, $11, $12, $13)
		RETURNING `+appointmentColumns,
		uuid.NewString(), in.ClinicID, in.PatientName, in.PatientPhone, in.PatientEmail,
		in.ServiceID, in.ProfessionalID, in.ScheduledDate, in.ScheduledTime,
		in.DurationMinutes, in.Status, in.Notes, in.Source)

	appt, err := scanAppointment(row)
	if err != nil {
		return nil, fmt.Errorf("appointments: create: %w", err)
	}
	return appt, nil
}

// DailyCount returns how many non-cancelled, non-no-show appointments a
// clinic already has on a date.
func (r *Repository) DailyCount(ctx context.Context, clinicID, date string) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM appointments
		WHERE clinic_id = $1
		  AND scheduled_date = $2::date
		  AND status NOT IN ('cancelled', 'no_show')`, clinicID, date).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("appointments: daily count: %w", err)
	}
	return count, nil
}

// AvailableSlots returns the 30-minute slot grid between 08:00 and 18:00
// for a professional on a date, minus slots already taken by appointments
// still occupying them.
func (r *Repository) AvailableSlots(ctx context.Context, clinicID, serviceID, professionalID, date string) ([]string, error) {
	rows, err := r.db.Query(ctx, `
		SELECT to_char(slot_time, 'HH24:MI') FROM (
			SELECT generate_series(
				'08:00'::time,
				'18:00'::time,
				'30 minutes'::interval
			)::time AS slot_time
			EXCEPT
			SELECT scheduled_time
			FROM appointments
			WHERE clinic_id = $1
			  AND service_id = $2
			  AND professional_id = $3
			  AND scheduled_date = $4::date
			  AND status NOT IN ('cancelled', 'no_show')
		) free ORDER BY slot_time`, clinicID, serviceID, professionalID, date)
	if err != nil {
		return nil, fmt.Errorf("appointments: available slots: %w", err)
	}
	defer rows.Close()

	var slots []string
	for rows.Next() {
		var slot string
		if err := rows.Scan(&slot); err != nil {
			return nil, fmt.Errorf("appointments: scan slot: %w", err)
		}
		slots = append(slots, slot)
	}
	if slots == nil {
		slots = []string{}
	}
	return slots, rows.Err()
}

// UpdateStatus moves an appointment to a new status, optionally
// replacing its notes.
func (r *Repository) UpdateStatus(ctx context.Context, clinicID, appointmentID, status, notes string) (*Appointment, error) {
	row := r.db.QueryRow(ctx, `
		UPDATE appointments
		SET status = $1, notes = COALESCE(NULLIF($2, ''), notes), updated_at = NOW()
		WHERE clinic_id = $3 AND id = $4
		RETURNING `+appointmentColumns,
		status, notes, clinicID, appointmentID)

	appt, err := scanAppointment(row)
	if err == pgx.ErrNoRows {
		return nil, fmt.Errorf("appointments: update status: appointment %s not found", appointmentID)
	}
	if err != nil {
		return nil, fmt.Errorf("appointments: update status: %w", err)
	}
	return appt, nil
}

// ListUpcoming returns a patient's future appointments that are still on
// the books, soonest first.
func (r *Repository) ListUpcoming(ctx context.Context, clinicID, patientPhone string, limit int) ([]Appointment, error) {
	if limit <= 0 {
		limit = 5
	}
	rows, err := r.db.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE clinic_id = $1
		  AND patient_phone = $2
		  AND scheduled_date >= CURRENT_DATE
		  AND status NOT IN ('cancelled', 'no_show', 'completed')
		ORDER BY scheduled_date ASC, scheduled_time ASC
		LIMIT $3`, clinicID, patientPhone, limit)
	if err != nil {
		return nil, fmt.Errorf("appointments: list upcoming: %w", err)
	}
	defer rows.Close()

	var out []Appointment
	for rows.Next() {
		appt, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("appointments: list upcoming: %w", err)
		}
		out = append(out, *appt)
	}
	if out == nil {
		out = []Appointment{}
	}
	return out, rows.Err()
}

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	err := row.Scan(&a.ID, &a.ClinicID, &a.PatientName, &a.PatientPhone, &a.PatientEmail,
		&a.ServiceID, &a.ProfessionalID, &a.ScheduledDate, &a.ScheduledTime,
		&a.DurationMinutes, &a.Status, &a.Notes, &a.Source, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}
