package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/atendeai/clinic-platform/internal/appointments"
	"github.com/atendeai/clinic-platform/pkg/logging"
)

// Service emails clinic staff about confirmed bookings. It satisfies
// the booking flow's notifier contract; delivery failures are reported
// to the caller, which treats them as non-fatal.
type Service struct {
	email      EmailSender
	recipients []string
	logger     *logging.Logger
}

// NewService creates a notification service. A nil email sender or an
// empty recipient list disables delivery.
func NewService(email EmailSender, recipients []string, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{email: email, recipients: recipients, logger: logger}
}

// AppointmentConfirmed emails the staff recipients about a new booking,
// plus the patient when they supplied an email address.
func (s *Service) AppointmentConfirmed(ctx context.Context, appt *appointments.Appointment) error {
	if appt == nil {
		return errors.New("notify: appointment required")
	}
	if s.email == nil {
		s.logger.Debug("email notifications disabled, skipping", "appointment_id", appt.ID)
		return nil
	}

	patient := appt.PatientName
	if patient == "" {
		patient = appt.PatientPhone
	}

	var errs []error
	total := len(s.recipients)
	if appt.PatientEmail != "" {
		total++
		if err := s.email.Send(ctx, EmailMessage{
			To:      appt.PatientEmail,
			ToName:  appt.PatientName,
			Subject: "Seu agendamento está confirmado",
			Body: fmt.Sprintf(`Olá, %s!

Seu agendamento está confirmado para %s às %s.

Se precisar remarcar ou cancelar, é só responder pelo WhatsApp.`,
				patient, appt.ScheduledDate, appt.ScheduledTime),
		}); err != nil {
			s.logger.Error("patient confirmation email failed", "error", err, "appointment_id", appt.ID)
			errs = append(errs, err)
		}
	}

	subject := fmt.Sprintf("Novo agendamento confirmado - %s", patient)
	body := fmt.Sprintf(`Um novo agendamento foi confirmado pelo WhatsApp.

Paciente: %s
Telefone: %s
Data: %s
Horário: %s
Duração: %d minutos
Status: %s

Agendamento: %s`,
		patient,
		appt.PatientPhone,
		appt.ScheduledDate,
		appt.ScheduledTime,
		appt.DurationMinutes,
		appt.Status,
		appt.ID,
	)

	for _, to := range s.recipients {
		err := s.email.Send(ctx, EmailMessage{To: to, Subject: subject, Body: body})
		if err != nil {
			s.logger.Error("staff confirmation email failed", "error", err, "to", to, "appointment_id", appt.ID)
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("notify: %d of %d confirmation emails failed: %w", len(errs), total, errs[0])
	}
	s.logger.Info("booking confirmation emails sent", "appointment_id", appt.ID, "recipients", total)
	return nil
}
