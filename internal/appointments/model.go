// Package appointments persists durable appointment records and answers
// the availability questions the booking flow asks of them.
package appointments

import "time"

// Appointment statuses. An appointment is never hard-deleted in the
// normal lifecycle; staff move it through these instead.
const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
	StatusNoShow    = "no_show"
)

// Appointment is a booked slot for a patient at a clinic.
type Appointment struct {
	ID              string    `json:"id"`
	ClinicID        string    `json:"clinic_id"`
	PatientName     string    `json:"patient_name"`
	PatientPhone    string    `json:"patient_phone"`
	PatientEmail    string    `json:"patient_email,omitempty"`
	ServiceID       string    `json:"service_id"`
	ProfessionalID  string    `json:"professional_id"`
	ScheduledDate   string    `json:"scheduled_date"` // YYYY-MM-DD
	ScheduledTime   string    `json:"scheduled_time"` // HH:MM
	DurationMinutes int       `json:"duration_minutes"`
	Status          string    `json:"status"`
	Notes           string    `json:"notes,omitempty"`
	Source          string    `json:"source"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// NewAppointment carries the fields needed to create an appointment.
type NewAppointment struct {
	ClinicID        string
	PatientName     string
	PatientPhone    string
	PatientEmail    string
	ServiceID       string
	ProfessionalID  string
	ScheduledDate   string
	ScheduledTime   string
	DurationMinutes int
	Status          string
	Notes           string
	Source          string
}
