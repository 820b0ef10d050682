package catalog

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// Querier is the subset of pgxpool.Pool the repository needs. Satisfied
// by *pgxpool.Pool and by pgxmock in tests.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository reads the service and professional catalogs.
type Repository struct {
	db Querier
}

// NewRepository creates a catalog repository.
func NewRepository(db Querier) *Repository {
	if db == nil {
		panic("catalog: querier required")
	}
	return &Repository{db: db}
}

// ServicesByClinic lists the active services for a clinic, optionally
// filtered by category, ordered by category then name.
func (r *Repository) ServicesByClinic(ctx context.Context, clinicID, category string) ([]Service, error) {
	query := `
		SELECT id, clinic_id, name, description, category, duration_minutes,
		       price_cents, accepts_insurance, is_active, created_at
		FROM services
		WHERE clinic_id = $1 AND is_active = TRUE`
	args := []any{clinicID}

	if category != "" {
		query += " AND category = $2"
		args = append(args, category)
	}
	query += " ORDER BY category, name"

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("catalog: list services: %w", err)
	}
	defer rows.Close()

	var out []Service
	for rows.Next() {
		var s Service
		if err := rows.Scan(&s.ID, &s.ClinicID, &s.Name, &s.Description, &s.Category,
			&s.DurationMinutes, &s.PriceCents, &s.AcceptsInsurance, &s.IsActive, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("catalog: scan service: %w", err)
		}
		out = append(out, s)
	}
	if out == nil {
		out = []Service{}
	}
	return out, rows.Err()
}

// ProfessionalsByClinic lists active professionals who accept new
// patients for a clinic.
func (r *Repository) ProfessionalsByClinic(ctx context.Context, clinicID string) ([]Professional, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, clinic_id, name, COALESCE(crm, ''), specialties, experience_years,
		       bio, accepts_new_patients, is_active, created_at
		FROM professionals
		WHERE clinic_id = $1 AND is_active = TRUE AND accepts_new_patients = TRUE
		ORDER BY name`, clinicID)
	if err != nil {
		return nil, fmt.Errorf("catalog: list professionals: %w", err)
	}
	defer rows.Close()

	var out []Professional
	for rows.Next() {
		var p Professional
		if err := rows.Scan(&p.ID, &p.ClinicID, &p.Name, &p.CRM, &p.Specialties,
			&p.ExperienceYears, &p.Bio, &p.AcceptsNewPatients, &p.IsActive, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("catalog: scan professional: %w", err)
		}
		if p.Specialties == nil {
			p.Specialties = []string{}
		}
		out = append(out, p)
	}
	if out == nil {
		out = []Professional{}
	}
	return out, rows.Err()
}

// ServiceByID fetches one service scoped to its clinic.
func (r *Repository) ServiceByID(ctx context.Context, clinicID, serviceID string) (*Service, error) {
	var s Service
	err := r.db.QueryRow(ctx, `
		SELECT id, clinic_id, name, description, category, duration_minutes,
		       price_cents, accepts_insurance, is_active, created_at
		FROM services
		WHERE clinic_id = $1 AND id = $2`, clinicID, serviceID).Scan(
		&s.ID, &s.ClinicID, &s.Name, &s.Description, &s.Category,
		&s.DurationMinutes, &s.PriceCents, &s.AcceptsInsurance, &s.IsActive, &s.CreatedAt)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("catalog: get service: %w", err)
	}
	return &s, nil
}
