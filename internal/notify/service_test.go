package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/atendeai/clinic-platform/internal/appointments"
	"github.com/atendeai/clinic-platform/pkg/logging"
)

type recordingSender struct {
	sent []EmailMessage
	err  error
}

func (r *recordingSender) Send(_ context.Context, msg EmailMessage) error {
	if r.err != nil {
		return r.err
	}
	r.sent = append(r.sent, msg)
	return nil
}

func sampleAppointment() *appointments.Appointment {
	return &appointments.Appointment{
		ID:              "apt-1",
		ClinicID:        "clinic-1",
		PatientName:     "Maria Silva",
		PatientPhone:    "+5511999990000",
		ScheduledDate:   "2026-09-10",
		ScheduledTime:   "14:30",
		DurationMinutes: 30,
		Status:          appointments.StatusConfirmed,
	}
}

func TestAppointmentConfirmedEmailsAllRecipients(t *testing.T) {
	sender := &recordingSender{}
	svc := NewService(sender, []string{"recepcao@clinica.com", "gerente@clinica.com"}, logging.New("error"))

	err := svc.AppointmentConfirmed(context.Background(), sampleAppointment())
	require.NoError(t, err)
	require.Len(t, sender.sent, 2)
	require.Contains(t, sender.sent[0].Subject, "Maria Silva")
	require.Contains(t, sender.sent[0].Body, "2026-09-10")
	require.Contains(t, sender.sent[0].Body, "14:30")
}

func TestAppointmentConfirmedEmailsPatientWhenAddressKnown(t *testing.T) {
	sender := &recordingSender{}
	svc := NewService(sender, []string{"recepcao@clinica.com"}, logging.New("error"))

	appt := sampleAppointment()
	appt.PatientEmail = "maria@example.com"
	require.NoError(t, svc.AppointmentConfirmed(context.Background(), appt))

	require.Len(t, sender.sent, 2)
	require.Equal(t, "maria@example.com", sender.sent[0].To)
	require.Contains(t, sender.sent[0].Subject, "confirmado")
	require.Equal(t, "recepcao@clinica.com", sender.sent[1].To)
}

func TestAppointmentConfirmedSkipsWhenDisabled(t *testing.T) {
	svc := NewService(nil, nil, logging.New("error"))
	require.NoError(t, svc.AppointmentConfirmed(context.Background(), sampleAppointment()))
}

func TestAppointmentConfirmedReportsFailures(t *testing.T) {
	sender := &recordingSender{err: errors.New("smtp down")}
	svc := NewService(sender, []string{"recepcao@clinica.com"}, logging.New("error"))

	err := svc.AppointmentConfirmed(context.Background(), sampleAppointment())
	require.Error(t, err)
	require.Contains(t, err.Error(), "1 of 1")
}

func TestAppointmentConfirmedRequiresAppointment(t *testing.T) {
	svc := NewService(&recordingSender{}, []string{"x@y.com"}, logging.New("error"))
	require.Error(t, svc.AppointmentConfirmed(context.Background(), nil))
}
