// Package clinic provides per-clinic scheduling policy and its persistence.
package clinic

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Policy holds the scheduling rules the booking flow enforces for one
// clinic. Advance-notice bounds are asymmetric on purpose: the minimum is
// measured in hours (same-week bookings), the maximum in days.
type Policy struct {
	ClinicID string `json:"clinic_id"`

	// MinAdvanceHours is how far ahead of "now" a slot must start.
	MinAdvanceHours int `json:"min_advance_hours"`
	// MaxAdvanceDays is the furthest bookable day from today.
	MaxAdvanceDays int `json:"max_advance_days"`
	// MaxDailyAppointments caps confirmed bookings per calendar day.
	MaxDailyAppointments int `json:"max_daily_appointments"`
	// DefaultDurationMinutes applies when a service has no duration.
	DefaultDurationMinutes int `json:"default_duration_minutes"`

	// OperatingDays are lowercase English weekday names ("monday").
	OperatingDays []string `json:"operating_days"`
	// Timezone is an IANA zone name used for all date math.
	Timezone string `json:"timezone"`
}

// DefaultPolicy returns the rules used when a clinic has not configured
// its own calendar: weekday operation, two hours minimum notice, ninety
// days maximum, fifty appointments per day.
func DefaultPolicy(clinicID string) *Policy {
	return &Policy{
		ClinicID:               clinicID,
		MinAdvanceHours:        2,
		MaxAdvanceDays:         90,
		MaxDailyAppointments:   50,
		DefaultDurationMinutes: 30,
		OperatingDays:          []string{"monday", "tuesday", "wednesday", "thursday", "friday"},
		Timezone:               "America/Sao_Paulo",
	}
}

// IsOperatingDay reports whether the clinic takes appointments on the
// given weekday.
func (p *Policy) IsOperatingDay(day time.Weekday) bool {
	name := strings.ToLower(day.String())
	for _, d := range p.OperatingDays {
		if d == name {
			return true
		}
	}
	return false
}

// Location resolves the policy timezone, falling back to UTC when the
// configured zone name is invalid.
func (p *Policy) Location() *time.Location {
	loc, err := time.LoadLocation(p.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Store provides persistence for clinic scheduling policies.
type Store struct {
	redis *redis.Client
}

// NewStore creates a new policy store.
func NewStore(redisClient *redis.Client) *Store {
	return &Store{redis: redisClient}
}

func (s *Store) key(clinicID string) string {
	return fmt.Sprintf("clinic:policy:%s", clinicID)
}

// Get retrieves the clinic policy, returning the default if not found.
func (s *Store) Get(ctx context.Context, clinicID string) (*Policy, error) {
	data, err := s.redis.Get(ctx, s.key(clinicID)).Bytes()
	if err == redis.Nil {
		return DefaultPolicy(clinicID), nil
	}
	if err != nil {
		return nil, fmt.Errorf("clinic: get policy: %w", err)
	}

	var p Policy
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("clinic: unmarshal policy: %w", err)
	}
	return &p, nil
}

// Set saves the clinic policy.
func (s *Store) Set(ctx context.Context, p *Policy) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("clinic: marshal policy: %w", err)
	}
	if err := s.redis.Set(ctx, s.key(p.ClinicID), data, 0).Err(); err != nil {
		return fmt.Errorf("clinic: set policy: %w", err)
	}
	return nil
}
