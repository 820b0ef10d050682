package flow

import "time"

// Session is the ephemeral booking state for one (clinic, patient) pair.
// It lives in Redis under a composite key and expires on its own; the
// selections the patient has made so far accumulate in Data.
type Session struct {
	State        State          `json:"state"`
	ClinicID     string         `json:"clinic_id"`
	PatientPhone string         `json:"patient_phone"`
	PatientName  string         `json:"patient_name"`
	Data         map[string]any `json:"data"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// merge applies patch onto the session data, newest value winning.
func (s *Session) merge(patch map[string]any) {
	if s.Data == nil {
		s.Data = make(map[string]any, len(patch))
	}
	for k, v := range patch {
		s.Data[k] = v
	}
}

// Descriptor is the view of a session returned to callers.
type Descriptor struct {
	FlowID    string         `json:"flow_id"`
	State     State          `json:"state"`
	NextSteps []string       `json:"next_steps"`
	Data      map[string]any `json:"data"`
}

// Summary extends Descriptor with progress and timestamps.
type Summary struct {
	FlowID    string         `json:"flow_id"`
	State     State          `json:"state"`
	Progress  int            `json:"progress"`
	NextSteps []string       `json:"next_steps"`
	Data      map[string]any `json:"data"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

func (s *Session) descriptor(flowID string) *Descriptor {
	return &Descriptor{
		FlowID:    flowID,
		State:     s.State,
		NextSteps: s.State.NextSteps(),
		Data:      s.Data,
	}
}
