package handlers

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/atendeai/clinic-platform/internal/appointments"
	"github.com/atendeai/clinic-platform/internal/catalog"
	"github.com/atendeai/clinic-platform/internal/clinic"
	"github.com/atendeai/clinic-platform/internal/flow"
	"github.com/atendeai/clinic-platform/pkg/logging"
)

type stubCatalog struct {
	services      []catalog.Service
	professionals []catalog.Professional
}

func (s *stubCatalog) ServicesByClinic(_ context.Context, _ string, _ string) ([]catalog.Service, error) {
	return s.services, nil
}

func (s *stubCatalog) ProfessionalsByClinic(_ context.Context, _ string) ([]catalog.Professional, error) {
	return s.professionals, nil
}

type stubBook struct {
	created *appointments.Appointment
	slots   []string
	daily   int
}

func (s *stubBook) Create(_ context.Context, in appointments.NewAppointment) (*appointments.Appointment, error) {
	appt := &appointments.Appointment{
		ID:              "apt-test",
		ClinicID:        in.ClinicID,
		PatientName:     in.PatientName,
		PatientPhone:    in.PatientPhone,
		ServiceID:       in.ServiceID,
		ProfessionalID:  in.ProfessionalID,
		ScheduledDate:   in.ScheduledDate,
		ScheduledTime:   in.ScheduledTime,
		DurationMinutes: in.DurationMinutes,
		Status:          in.Status,
		Source:          in.Source,
	}
	s.created = appt
	return appt, nil
}

func (s *stubBook) DailyCount(_ context.Context, _ string, _ string) (int, error) {
	return s.daily, nil
}

func (s *stubBook) AvailableSlots(_ context.Context, _, _, _, _ string) ([]string, error) {
	return s.slots, nil
}

type stubPolicies struct {
	policy *clinic.Policy
}

func (s *stubPolicies) Get(_ context.Context, clinicID string) (*clinic.Policy, error) {
	if s.policy != nil {
		return s.policy, nil
	}
	return clinic.DefaultPolicy(clinicID), nil
}

// newTestManager builds a flow manager over miniredis with stub
// downstream dependencies.
func newTestManager(t *testing.T) (*flow.Manager, *stubBook) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	book := &stubBook{slots: []string{"09:00", "09:30"}}
	mgr := flow.NewManager(
		flow.NewSessionStore(client, nil),
		&stubCatalog{},
		book,
		&stubPolicies{},
		nil,
		logging.New("error"),
		nil,
	)
	return mgr, book
}
