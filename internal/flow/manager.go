package flow

import (
	"context"
	"time"

	"github.com/atendeai/clinic-platform/internal/appointments"
	"github.com/atendeai/clinic-platform/internal/catalog"
	"github.com/atendeai/clinic-platform/internal/clinic"
	"github.com/atendeai/clinic-platform/internal/observability/metrics"
	"github.com/atendeai/clinic-platform/pkg/logging"
)

const (
	dateLayout     = "2006-01-02"
	dateTimeLayout = "2006-01-02 15:04"
)

// Catalog lists what a clinic offers. Implemented by catalog.Repository.
type Catalog interface {
	ServicesByClinic(ctx context.Context, clinicID, category string) ([]catalog.Service, error)
	ProfessionalsByClinic(ctx context.Context, clinicID string) ([]catalog.Professional, error)
}

// AppointmentBook is the durable side of booking. Implemented by
// appointments.Repository.
type AppointmentBook interface {
	Create(ctx context.Context, in appointments.NewAppointment) (*appointments.Appointment, error)
	DailyCount(ctx context.Context, clinicID, date string) (int, error)
	AvailableSlots(ctx context.Context, clinicID, serviceID, professionalID, date string) ([]string, error)
}

// PolicySource resolves a clinic's scheduling policy. Implemented by
// clinic.Store.
type PolicySource interface {
	Get(ctx context.Context, clinicID string) (*clinic.Policy, error)
}

// Notifier is told about confirmed bookings. Failures are logged, never
// surfaced to the patient.
type Notifier interface {
	AppointmentConfirmed(ctx context.Context, appt *appointments.Appointment) error
}

// DateOption is one bookable day with its remaining capacity.
type DateOption struct {
	Date           string `json:"date"`
	DayName        string `json:"day_name"`
	AvailableSlots int    `json:"available_slots"`
}

// Manager drives the booking flow. One instance serves every clinic;
// per-conversation state lives in the session store. Concurrent writes
// to the same session are last-write-wins; the messaging channel
// delivers at most one in-flight request per patient conversation.
type Manager struct {
	sessions *SessionStore
	catalog  Catalog
	book     AppointmentBook
	policies PolicySource
	notifier Notifier
	logger   *logging.Logger
	metrics  *metrics.FlowMetrics
	now      func() time.Time
}

// NewManager wires the flow engine. notifier and m may be nil.
func NewManager(sessions *SessionStore, cat Catalog, book AppointmentBook, policies PolicySource, notifier Notifier, logger *logging.Logger, m *metrics.FlowMetrics) *Manager {
	if sessions == nil {
		panic("flow: session store required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Manager{
		sessions: sessions,
		catalog:  cat,
		book:     book,
		policies: policies,
		notifier: notifier,
		logger:   logger,
		metrics:  m,
		now:      time.Now,
	}
}

// StartFlow creates a fresh session in the initial state, replacing any
// session already present under the same key.
func (m *Manager) StartFlow(ctx context.Context, clinicID, patientPhone, patientName string) (*Descriptor, error) {
	now := m.now().UTC()
	sess := &Session{
		State:        StateInit,
		ClinicID:     clinicID,
		PatientPhone: patientPhone,
		PatientName:  patientName,
		Data:         map[string]any{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := m.sessions.Put(ctx, sess); err != nil {
		return nil, err
	}

	flowID := SessionKey(clinicID, patientPhone)
	m.logger.Info("appointment flow started",
		"flow_id", flowID,
		"clinic_id", clinicID,
		"patient_phone", patientPhone,
		"state", StateInit,
	)
	m.metrics.ObserveFlowStarted()
	return sess.descriptor(flowID), nil
}

// CurrentFlow returns the active session descriptor, or nil when none
// exists or it has expired.
func (m *Manager) CurrentFlow(ctx context.Context, clinicID, patientPhone string) (*Descriptor, error) {
	sess, err := m.sessions.Get(ctx, clinicID, patientPhone)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, nil
	}
	return sess.descriptor(SessionKey(clinicID, patientPhone)), nil
}

// Transition moves the session to target, merging patch into the
// accumulated data. State and data are written together as one record.
func (m *Manager) Transition(ctx context.Context, clinicID, patientPhone string, target State, patch map[string]any) (*Descriptor, error) {
	sess, err := m.sessions.Get(ctx, clinicID, patientPhone)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, ErrNoActiveFlow
	}
	if !sess.State.CanTransitionTo(target) {
		return nil, invalidTransition(sess.State, target)
	}

	from := sess.State
	sess.State = target
	sess.merge(patch)
	sess.UpdatedAt = m.now().UTC()
	if err := m.sessions.Put(ctx, sess); err != nil {
		return nil, err
	}

	flowID := SessionKey(clinicID, patientPhone)
	m.logger.Info("appointment flow state transitioned",
		"flow_id", flowID,
		"from_state", from,
		"to_state", target,
		"clinic_id", clinicID,
		"patient_phone", patientPhone,
	)
	m.metrics.ObserveTransition(string(from), string(target))
	return sess.descriptor(flowID), nil
}

// AvailableServices lists the clinic's active services.
func (m *Manager) AvailableServices(ctx context.Context, clinicID, category string) ([]catalog.Service, error) {
	services, err := m.catalog.ServicesByClinic(ctx, clinicID, category)
	if err != nil {
		return nil, err
	}
	m.logger.Info("available services retrieved", "clinic_id", clinicID, "category", category, "count", len(services))
	return services, nil
}

// AvailableProfessionals lists active professionals accepting new
// patients. serviceID is informational for now; the catalog does not
// bind professionals to services.
func (m *Manager) AvailableProfessionals(ctx context.Context, clinicID, serviceID string) ([]catalog.Professional, error) {
	professionals, err := m.catalog.ProfessionalsByClinic(ctx, clinicID)
	if err != nil {
		return nil, err
	}
	m.logger.Info("available professionals retrieved", "clinic_id", clinicID, "service_id", serviceID, "count", len(professionals))
	return professionals, nil
}

// AvailableDates enumerates bookable days between the clinic's minimum
// and maximum advance-notice bounds. The current day is never offered,
// even when the minimum notice would still allow a late slot today.
func (m *Manager) AvailableDates(ctx context.Context, clinicID, serviceID, professionalID string) ([]DateOption, error) {
	pol, err := m.policies.Get(ctx, clinicID)
	if err != nil {
		return nil, err
	}

	loc := pol.Location()
	now := m.now().In(loc)
	today := now.Format(dateLayout)
	lastDay := now.AddDate(0, 0, pol.MaxAdvanceDays).Format(dateLayout)

	out := []DateOption{}
	for day := now.Add(time.Duration(pol.MinAdvanceHours) * time.Hour); ; day = day.AddDate(0, 0, 1) {
		date := day.Format(dateLayout)
		if date > lastDay {
			break
		}
		if date == today || !pol.IsOperatingDay(day.Weekday()) {
			continue
		}
		count, err := m.book.DailyCount(ctx, clinicID, date)
		if err != nil {
			return nil, err
		}
		if count < pol.MaxDailyAppointments {
			out = append(out, DateOption{
				Date:           date,
				DayName:        day.Weekday().String(),
				AvailableSlots: pol.MaxDailyAppointments - count,
			})
		}
	}

	m.logger.Info("available dates retrieved",
		"clinic_id", clinicID,
		"service_id", serviceID,
		"professional_id", professionalID,
		"count", len(out),
	)
	return out, nil
}

// AvailableTimes returns the free slots on a date whose start respects
// the clinic's minimum advance notice at call time. Slots taken by other
// appointments are already removed by the data layer.
func (m *Manager) AvailableTimes(ctx context.Context, clinicID, serviceID, professionalID, date string) ([]string, error) {
	pol, err := m.policies.Get(ctx, clinicID)
	if err != nil {
		return nil, err
	}
	slots, err := m.book.AvailableSlots(ctx, clinicID, serviceID, professionalID, date)
	if err != nil {
		return nil, err
	}

	loc := pol.Location()
	now := m.now().In(loc)
	minNotice := time.Duration(pol.MinAdvanceHours) * time.Hour

	out := []string{}
	for _, slot := range slots {
		start, err := time.ParseInLocation(dateTimeLayout, date+" "+slot, loc)
		if err != nil {
			m.logger.Warn("skipping unparseable slot", "clinic_id", clinicID, "date", date, "slot", slot)
			continue
		}
		if start.Sub(now) >= minNotice {
			out = append(out, slot)
		}
	}

	m.logger.Info("available times retrieved",
		"clinic_id", clinicID,
		"service_id", serviceID,
		"professional_id", professionalID,
		"date", date,
		"count", len(out),
	)
	return out, nil
}

// ConfirmAppointment creates the durable appointment from a session in
// the confirmation state, then completes the session. The completed
// session stays readable for the terminal grace window before expiring.
func (m *Manager) ConfirmAppointment(ctx context.Context, clinicID, patientPhone string, in appointments.NewAppointment) (*appointments.Appointment, error) {
	sess, err := m.sessions.Get(ctx, clinicID, patientPhone)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, ErrNoActiveFlow
	}
	if sess.State != StateConfirmation {
		return nil, notConfirmable(sess.State)
	}

	in.ClinicID = clinicID
	in.PatientPhone = patientPhone
	if in.PatientName == "" {
		in.PatientName = sess.PatientName
	}
	in.Status = appointments.StatusConfirmed

	appt, err := m.book.Create(ctx, in)
	if err != nil {
		return nil, err
	}

	if _, err := m.Transition(ctx, clinicID, patientPhone, StateCompleted, map[string]any{
		"appointment_id": appt.ID,
	}); err != nil {
		// The appointment exists; a stale session is recoverable, a
		// silently lost booking is not.
		m.logger.Error("failed to complete flow after confirmation",
			"clinic_id", clinicID,
			"patient_phone", patientPhone,
			"appointment_id", appt.ID,
			"error", err,
		)
	}

	if m.notifier != nil {
		if err := m.notifier.AppointmentConfirmed(ctx, appt); err != nil {
			m.logger.Warn("confirmation notification failed", "appointment_id", appt.ID, "error", err)
		}
	}

	m.logger.Info("appointment confirmed and created",
		"appointment_id", appt.ID,
		"clinic_id", clinicID,
		"patient_phone", patientPhone,
	)
	m.metrics.ObserveConfirmed()
	return appt, nil
}

// CancelFlow cancels the session from any non-terminal state, recording
// the reason. Like completion, the cancelled session stays readable for
// the grace window.
func (m *Manager) CancelFlow(ctx context.Context, clinicID, patientPhone, reason string) (*Descriptor, error) {
	sess, err := m.sessions.Get(ctx, clinicID, patientPhone)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, ErrNoActiveFlow
	}
	if sess.State.Terminal() {
		return nil, invalidTransition(sess.State, StateCancelled)
	}

	from := sess.State
	sess.State = StateCancelled
	sess.merge(map[string]any{
		"cancellation_reason": reason,
		"cancelled_at":        m.now().UTC().Format(time.RFC3339),
	})
	sess.UpdatedAt = m.now().UTC()
	if err := m.sessions.Put(ctx, sess); err != nil {
		return nil, err
	}

	flowID := SessionKey(clinicID, patientPhone)
	m.logger.Info("appointment flow cancelled",
		"flow_id", flowID,
		"clinic_id", clinicID,
		"patient_phone", patientPhone,
		"from_state", from,
		"reason", reason,
	)
	m.metrics.ObserveTransition(string(from), string(StateCancelled))
	return sess.descriptor(flowID), nil
}

// FlowSummary returns the session with progress and timestamps, or nil
// when no session exists.
func (m *Manager) FlowSummary(ctx context.Context, clinicID, patientPhone string) (*Summary, error) {
	sess, err := m.sessions.Get(ctx, clinicID, patientPhone)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, nil
	}
	return &Summary{
		FlowID:    SessionKey(clinicID, patientPhone),
		State:     sess.State,
		Progress:  sess.State.Progress(),
		NextSteps: sess.State.NextSteps(),
		Data:      sess.Data,
		CreatedAt: sess.CreatedAt,
		UpdatedAt: sess.UpdatedAt,
	}, nil
}
