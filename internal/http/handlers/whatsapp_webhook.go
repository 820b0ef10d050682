package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/atendeai/clinic-platform/internal/flow"
	"github.com/atendeai/clinic-platform/internal/messaging"
	"github.com/atendeai/clinic-platform/internal/observability/metrics"
	"github.com/atendeai/clinic-platform/pkg/logging"
)

// WebhookVerifier is the slice of the WhatsApp client the webhook
// handler needs.
type WebhookVerifier interface {
	VerifyWebhookSignature(signature string, payload []byte) error
	VerifyHandshake(mode, token, challenge string) (string, error)
}

// ClinicResolver maps the receiving WhatsApp phone number id to the
// owning clinic.
type ClinicResolver func(phoneNumberID string) (string, bool)

// StaticClinicResolver resolves every inbound message to one clinic,
// for single-tenant deployments.
func StaticClinicResolver(clinicID string) ClinicResolver {
	return func(string) (string, bool) {
		return clinicID, clinicID != ""
	}
}

// WhatsAppWebhookHandler receives Meta webhook deliveries: the GET
// subscription handshake and POSTed message events.
type WhatsAppWebhookHandler struct {
	verifier WebhookVerifier
	manager  *flow.Manager
	sender   messaging.Messenger
	resolve  ClinicResolver
	logger   *logging.Logger
	metrics  *metrics.MessagingMetrics
}

// NewWhatsAppWebhookHandler creates the webhook handler. sender and
// metrics may be nil.
func NewWhatsAppWebhookHandler(verifier WebhookVerifier, manager *flow.Manager, sender messaging.Messenger, resolve ClinicResolver, logger *logging.Logger, m *metrics.MessagingMetrics) *WhatsAppWebhookHandler {
	if logger == nil {
		logger = logging.Default()
	}
	if resolve == nil {
		resolve = func(string) (string, bool) { return "", false }
	}
	return &WhatsAppWebhookHandler{
		verifier: verifier,
		manager:  manager,
		sender:   sender,
		resolve:  resolve,
		logger:   logger,
		metrics:  m,
	}
}

// webhookEnvelope mirrors the Meta Cloud API webhook payload, limited
// to the fields the booking flow consumes.
type webhookEnvelope struct {
	Object string `json:"object"`
	Entry  []struct {
		ID      string `json:"id"`
		Changes []struct {
			Field string       `json:"field"`
			Value webhookValue `json:"value"`
		} `json:"changes"`
	} `json:"entry"`
}

type webhookValue struct {
	Metadata struct {
		PhoneNumberID string `json:"phone_number_id"`
	} `json:"metadata"`
	Contacts []struct {
		Profile struct {
			Name string `json:"name"`
		} `json:"profile"`
		WaID string `json:"wa_id"`
	} `json:"contacts"`
	Messages []struct {
		From string `json:"from"`
		ID   string `json:"id"`
		Type string `json:"type"`
		Text struct {
			Body string `json:"body"`
		} `json:"text"`
	} `json:"messages"`
	Statuses []struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	} `json:"statuses"`
}

// HandleVerify answers GET /webhooks/whatsapp, Meta's subscription
// handshake.
func (h *WhatsAppWebhookHandler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	challenge, err := h.verifier.VerifyHandshake(q.Get("hub.mode"), q.Get("hub.verify_token"), q.Get("hub.challenge"))
	if err != nil {
		h.logger.Warn("webhook handshake rejected", "error", err)
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, challenge)
}

// HandleEvents answers POST /webhooks/whatsapp. The body is accepted
// only with a valid X-Hub-Signature-256; Meta retries on non-2xx, so
// per-message processing failures are logged and acknowledged.
func (h *WhatsAppWebhookHandler) HandleEvents(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "read body", http.StatusBadRequest)
		return
	}
	if err := h.verifier.VerifyWebhookSignature(r.Header.Get("X-Hub-Signature-256"), body); err != nil {
		h.logger.Warn("webhook signature rejected", "error", err)
		h.metrics.ObserveInbound("unknown", "rejected")
		http.Error(w, "invalid signature", http.StatusUnauthorized)
		return
	}

	var envelope webhookEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		h.logger.Error("webhook payload malformed", "error", err)
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}

	for _, entry := range envelope.Entry {
		for _, change := range entry.Changes {
			if change.Field != "messages" {
				continue
			}
			h.processValue(r, change.Value)
		}
	}
	w.WriteHeader(http.StatusOK)
}

func (h *WhatsAppWebhookHandler) processValue(r *http.Request, value webhookValue) {
	for _, status := range value.Statuses {
		h.metrics.ObserveInbound("status", status.Status)
	}

	clinicID, ok := h.resolve(value.Metadata.PhoneNumberID)
	if !ok {
		if len(value.Messages) > 0 {
			h.logger.Warn("inbound message for unknown phone number id", "phone_number_id", value.Metadata.PhoneNumberID)
			h.metrics.ObserveInbound("message", "unresolved")
		}
		return
	}

	names := make(map[string]string, len(value.Contacts))
	for _, c := range value.Contacts {
		names[c.WaID] = c.Profile.Name
	}

	for _, msg := range value.Messages {
		if msg.Type != "text" {
			h.metrics.ObserveInbound(msg.Type, "ignored")
			continue
		}
		h.metrics.ObserveInbound("message", "accepted")
		if err := h.handleText(r, clinicID, msg.From, names[msg.From], msg.Text.Body); err != nil {
			h.logger.Error("inbound message processing failed",
				"error", err,
				"clinic_id", clinicID,
				"message_id", msg.ID,
			)
		}
	}
}

// handleText makes sure the patient has an active booking session and
// replies with the prompt for its current state.
func (h *WhatsAppWebhookHandler) handleText(r *http.Request, clinicID, from, name, text string) error {
	ctx := r.Context()
	phone := "+" + strings.TrimPrefix(from, "+")

	desc, err := h.manager.CurrentFlow(ctx, clinicID, phone)
	if err != nil {
		return err
	}
	if desc == nil {
		desc, err = h.manager.StartFlow(ctx, clinicID, phone, name)
		if err != nil {
			return err
		}
	}

	if h.sender == nil {
		return nil
	}
	reply := promptFor(desc, name)
	if reply == "" {
		return nil
	}
	_, err = h.sender.Send(ctx, messaging.OutboundMessage{
		ClinicID: clinicID,
		To:       phone,
		Body:     reply,
	})
	return err
}

// promptFor builds the Portuguese reply for the session's state.
func promptFor(desc *flow.Descriptor, name string) string {
	greeting := "Olá"
	if name != "" {
		greeting = "Olá, " + name
	}
	switch desc.State {
	case flow.StateInit:
		return fmt.Sprintf("%s! Bem-vindo ao agendamento da clínica. Vamos começar: qual serviço você deseja agendar?", greeting)
	case flow.StateCompleted:
		return "Seu agendamento já está confirmado. Até breve!"
	case flow.StateCancelled:
		return "Seu agendamento anterior foi cancelado. Envie uma mensagem para começar um novo."
	}
	if len(desc.NextSteps) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("Próximos passos:\n")
	for i, step := range desc.NextSteps {
		fmt.Fprintf(&b, "%d. %s\n", i+1, step)
	}
	return strings.TrimRight(b.String(), "\n")
}
