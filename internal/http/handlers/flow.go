// Package handlers exposes the booking flow and webhook HTTP endpoints.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/atendeai/clinic-platform/internal/appointments"
	"github.com/atendeai/clinic-platform/internal/flow"
	"github.com/atendeai/clinic-platform/internal/tenancy"
	"github.com/atendeai/clinic-platform/pkg/logging"
)

// FlowHandler handles the appointment booking flow REST endpoints.
type FlowHandler struct {
	manager *flow.Manager
	logger  *logging.Logger
}

// NewFlowHandler creates a booking flow handler.
func NewFlowHandler(manager *flow.Manager, logger *logging.Logger) *FlowHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &FlowHandler{manager: manager, logger: logger}
}

// Routes returns the flow sub-router. The clinic id is taken from the
// request context, so the tenancy middleware must run first.
func (h *FlowHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/start", h.Start)
	r.Get("/current", h.Current)
	r.Post("/transition", h.TransitionState)
	r.Post("/confirm", h.Confirm)
	r.Post("/cancel", h.Cancel)
	r.Get("/summary", h.GetSummary)
	r.Get("/services", h.Services)
	r.Get("/professionals", h.Professionals)
	r.Get("/dates", h.Dates)
	r.Get("/times", h.Times)
	return r
}

type startFlowRequest struct {
	PatientPhone string `json:"patient_phone"`
	PatientName  string `json:"patient_name"`
}

// Start handles POST /appointments/flow/start.
func (h *FlowHandler) Start(w http.ResponseWriter, r *http.Request) {
	clinicID, ok := tenancy.ClinicIDFromContext(r.Context())
	if !ok {
		http.Error(w, "missing clinic context", http.StatusBadRequest)
		return
	}
	var req startFlowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.PatientPhone == "" {
		http.Error(w, "patient_phone is required", http.StatusBadRequest)
		return
	}
	desc, err := h.manager.StartFlow(r.Context(), clinicID, req.PatientPhone, req.PatientName)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, desc)
}

// Current handles GET /appointments/flow/current?patient_phone=...
func (h *FlowHandler) Current(w http.ResponseWriter, r *http.Request) {
	clinicID, phone, ok := h.clinicAndPhone(w, r)
	if !ok {
		return
	}
	desc, err := h.manager.CurrentFlow(r.Context(), clinicID, phone)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if desc == nil {
		http.Error(w, "no active flow", http.StatusNotFound)
		return
	}
	h.writeJSON(w, http.StatusOK, desc)
}

type transitionRequest struct {
	PatientPhone string         `json:"patient_phone"`
	TargetState  string         `json:"target_state"`
	Data         map[string]any `json:"data"`
}

// TransitionState handles POST /appointments/flow/transition.
func (h *FlowHandler) TransitionState(w http.ResponseWriter, r *http.Request) {
	clinicID, ok := tenancy.ClinicIDFromContext(r.Context())
	if !ok {
		http.Error(w, "missing clinic context", http.StatusBadRequest)
		return
	}
	var req transitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.PatientPhone == "" {
		http.Error(w, "patient_phone is required", http.StatusBadRequest)
		return
	}
	target, err := flow.ParseState(req.TargetState)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	desc, err := h.manager.Transition(r.Context(), clinicID, req.PatientPhone, target, req.Data)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, desc)
}

type confirmRequest struct {
	PatientPhone    string `json:"patient_phone"`
	PatientName     string `json:"patient_name"`
	PatientEmail    string `json:"patient_email"`
	ServiceID       string `json:"service_id"`
	ProfessionalID  string `json:"professional_id"`
	ScheduledDate   string `json:"scheduled_date"`
	ScheduledTime   string `json:"scheduled_time"`
	DurationMinutes int    `json:"duration_minutes"`
	Notes           string `json:"notes"`
}

// Confirm handles POST /appointments/flow/confirm.
func (h *FlowHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	clinicID, ok := tenancy.ClinicIDFromContext(r.Context())
	if !ok {
		http.Error(w, "missing clinic context", http.StatusBadRequest)
		return
	}
	var req confirmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.PatientPhone == "" {
		http.Error(w, "patient_phone is required", http.StatusBadRequest)
		return
	}
	appt, err := h.manager.ConfirmAppointment(r.Context(), clinicID, req.PatientPhone, appointments.NewAppointment{
		ClinicID:        clinicID,
		PatientName:     req.PatientName,
		PatientPhone:    req.PatientPhone,
		PatientEmail:    req.PatientEmail,
		ServiceID:       req.ServiceID,
		ProfessionalID:  req.ProfessionalID,
		ScheduledDate:   req.ScheduledDate,
		ScheduledTime:   req.ScheduledTime,
		DurationMinutes: req.DurationMinutes,
		Notes:           req.Notes,
		Source:          "whatsapp",
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, appt)
}

type cancelRequest struct {
	PatientPhone string `json:"patient_phone"`
	Reason       string `json:"reason"`
}

// Cancel handles POST /appointments/flow/cancel.
func (h *FlowHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	clinicID, ok := tenancy.ClinicIDFromContext(r.Context())
	if !ok {
		http.Error(w, "missing clinic context", http.StatusBadRequest)
		return
	}
	var req cancelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.PatientPhone == "" {
		http.Error(w, "patient_phone is required", http.StatusBadRequest)
		return
	}
	desc, err := h.manager.CancelFlow(r.Context(), clinicID, req.PatientPhone, req.Reason)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, desc)
}

// GetSummary handles GET /appointments/flow/summary?patient_phone=...
func (h *FlowHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	clinicID, phone, ok := h.clinicAndPhone(w, r)
	if !ok {
		return
	}
	summary, err := h.manager.FlowSummary(r.Context(), clinicID, phone)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if summary == nil {
		http.Error(w, "no active flow", http.StatusNotFound)
		return
	}
	h.writeJSON(w, http.StatusOK, summary)
}

// Services handles GET /appointments/flow/services?category=...
func (h *FlowHandler) Services(w http.ResponseWriter, r *http.Request) {
	clinicID, ok := tenancy.ClinicIDFromContext(r.Context())
	if !ok {
		http.Error(w, "missing clinic context", http.StatusBadRequest)
		return
	}
	services, err := h.manager.AvailableServices(r.Context(), clinicID, r.URL.Query().Get("category"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"services": services, "count": len(services)})
}

// Professionals handles GET /appointments/flow/professionals?service_id=...
func (h *FlowHandler) Professionals(w http.ResponseWriter, r *http.Request) {
	clinicID, ok := tenancy.ClinicIDFromContext(r.Context())
	if !ok {
		http.Error(w, "missing clinic context", http.StatusBadRequest)
		return
	}
	pros, err := h.manager.AvailableProfessionals(r.Context(), clinicID, r.URL.Query().Get("service_id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"professionals": pros, "count": len(pros)})
}

// Dates handles GET /appointments/flow/dates?service_id=...&professional_id=...
func (h *FlowHandler) Dates(w http.ResponseWriter, r *http.Request) {
	clinicID, ok := tenancy.ClinicIDFromContext(r.Context())
	if !ok {
		http.Error(w, "missing clinic context", http.StatusBadRequest)
		return
	}
	q := r.URL.Query()
	dates, err := h.manager.AvailableDates(r.Context(), clinicID, q.Get("service_id"), q.Get("professional_id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"dates": dates, "count": len(dates)})
}

// Times handles GET /appointments/flow/times?date=...&service_id=...&professional_id=...
func (h *FlowHandler) Times(w http.ResponseWriter, r *http.Request) {
	clinicID, ok := tenancy.ClinicIDFromContext(r.Context())
	if !ok {
		http.Error(w, "missing clinic context", http.StatusBadRequest)
		return
	}
	q := r.URL.Query()
	date := q.Get("date")
	if date == "" {
		http.Error(w, "date is required", http.StatusBadRequest)
		return
	}
	times, err := h.manager.AvailableTimes(r.Context(), clinicID, q.Get("service_id"), q.Get("professional_id"), date)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"date": date, "times": times, "count": len(times)})
}

func (h *FlowHandler) clinicAndPhone(w http.ResponseWriter, r *http.Request) (string, string, bool) {
	clinicID, ok := tenancy.ClinicIDFromContext(r.Context())
	if !ok {
		http.Error(w, "missing clinic context", http.StatusBadRequest)
		return "", "", false
	}
	phone := r.URL.Query().Get("patient_phone")
	if phone == "" {
		http.Error(w, "patient_phone is required", http.StatusBadRequest)
		return "", "", false
	}
	return clinicID, phone, true
}

func (h *FlowHandler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (h *FlowHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, flow.ErrNoActiveFlow):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, flow.ErrInvalidTransition), errors.Is(err, flow.ErrNotConfirmable):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		h.logger.Error("flow request failed", "error", err, "path", r.URL.Path)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
