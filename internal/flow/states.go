// Package flow implements the WhatsApp appointment-booking flow: a
// finite-state session per (clinic, patient) pair persisted in Redis,
// plus the availability rules used while walking a patient from service
// selection to a confirmed appointment.
package flow

import "fmt"

// State is a step in the booking flow.
type State string

const (
	StateInit                  State = "init"
	StateServiceSelection      State = "service_selection"
	StateProfessionalSelection State = "professional_selection"
	StateDateSelection         State = "date_selection"
	StateTimeSelection         State = "time_selection"
	StateConfirmation          State = "confirmation"
	StateCompleted             State = "completed"
	StateCancelled             State = "cancelled"
)

// ParseState validates a wire-format state string.
func ParseState(s string) (State, error) {
	st := State(s)
	switch st {
	case StateInit, StateServiceSelection, StateProfessionalSelection,
		StateDateSelection, StateTimeSelection, StateConfirmation,
		StateCompleted, StateCancelled:
		return st, nil
	}
	return "", fmt.Errorf("flow: unknown state %q", s)
}

// Terminal reports whether the state has no outgoing transitions.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateCancelled
}

// CanTransitionTo reports whether target is reachable from s in one step.
// Professional selection is optional: a patient may go straight from
// service selection to picking a date.
func (s State) CanTransitionTo(target State) bool {
	switch s {
	case StateInit:
		return target == StateServiceSelection
	case StateServiceSelection:
		return target == StateProfessionalSelection || target == StateDateSelection
	case StateProfessionalSelection:
		return target == StateDateSelection
	case StateDateSelection:
		return target == StateTimeSelection
	case StateTimeSelection:
		return target == StateConfirmation
	case StateConfirmation:
		return target == StateCompleted || target == StateCancelled
	case StateCompleted, StateCancelled:
		return false
	default:
		return false
	}
}

// NextSteps returns the patient-facing hints for what comes after s.
func (s State) NextSteps() []string {
	switch s {
	case StateInit:
		return []string{"Selecionar serviço"}
	case StateServiceSelection:
		return []string{"Selecionar profissional", "Selecionar data"}
	case StateProfessionalSelection:
		return []string{"Selecionar data"}
	case StateDateSelection:
		return []string{"Selecionar horário"}
	case StateTimeSelection:
		return []string{"Confirmar agendamento"}
	case StateConfirmation:
		return []string{"Confirmar", "Cancelar"}
	case StateCompleted:
		return []string{"Agendamento finalizado"}
	case StateCancelled:
		return []string{"Fluxo cancelado"}
	default:
		return nil
	}
}

// Progress returns the fixed completion percentage shown for s.
func (s State) Progress() int {
	switch s {
	case StateInit:
		return 0
	case StateServiceSelection:
		return 20
	case StateProfessionalSelection:
		return 40
	case StateDateSelection:
		return 60
	case StateTimeSelection:
		return 80
	case StateConfirmation:
		return 90
	case StateCompleted:
		return 100
	case StateCancelled:
		return 0
	default:
		return 0
	}
}
