// Package catalog exposes read models for the per-clinic service and
// professional listings the booking flow presents to patients.
package catalog

import "time"

// Service is a bookable procedure offered by a clinic.
type Service struct {
	ID               string    `json:"id"`
	ClinicID         string    `json:"clinic_id"`
	Name             string    `json:"name"`
	Description      string    `json:"description"`
	Category         string    `json:"category"`
	DurationMinutes  int       `json:"duration_minutes"`
	PriceCents       int       `json:"price_cents"`
	AcceptsInsurance bool      `json:"accepts_insurance"`
	IsActive         bool      `json:"is_active"`
	CreatedAt        time.Time `json:"created_at"`
}

// Professional is a practitioner attached to a clinic. CRM is the
// Brazilian medical-council registration number.
type Professional struct {
	ID                 string    `json:"id"`
	ClinicID           string    `json:"clinic_id"`
	Name               string    `json:"name"`
	CRM                string    `json:"crm"`
	Specialties        []string  `json:"specialties"`
	ExperienceYears    int       `json:"experience_years"`
	Bio                string    `json:"bio"`
	AcceptsNewPatients bool      `json:"accepts_new_patients"`
	IsActive           bool      `json:"is_active"`
	CreatedAt          time.Time `json:"created_at"`
}
