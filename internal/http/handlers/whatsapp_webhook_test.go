package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/atendeai/clinic-platform/internal/flow"
	"github.com/atendeai/clinic-platform/internal/messaging"
	"github.com/atendeai/clinic-platform/pkg/logging"
)

type stubVerifier struct {
	signatureErr error
	handshakeErr error
}

func (v *stubVerifier) VerifyWebhookSignature(_ string, _ []byte) error {
	return v.signatureErr
}

func (v *stubVerifier) VerifyHandshake(mode, token, challenge string) (string, error) {
	if v.handshakeErr != nil {
		return "", v.handshakeErr
	}
	return challenge, nil
}

type stubMessenger struct {
	sent []messaging.OutboundMessage
}

func (m *stubMessenger) Send(_ context.Context, msg messaging.OutboundMessage) (string, error) {
	m.sent = append(m.sent, msg)
	return "wamid.OUT", nil
}

func inboundTextPayload(from, body string) string {
	return fmt.Sprintf(`{
		"object": "whatsapp_business_account",
		"entry": [{
			"id": "entry-1",
			"changes": [{
				"field": "messages",
				"value": {
					"metadata": {"phone_number_id": "12345"},
					"contacts": [{"profile": {"name": "Maria"}, "wa_id": "%s"}],
					"messages": [{"from": "%s", "id": "wamid.IN", "type": "text", "text": {"body": "%s"}}]
				}
			}]
		}]
	}`, from, from, body)
}

func newWebhookHandler(t *testing.T, verifier *stubVerifier) (*WhatsAppWebhookHandler, *stubMessenger, *flow.Manager) {
	t.Helper()
	mgr, _ := newTestManager(t)
	sender := &stubMessenger{}
	h := NewWhatsAppWebhookHandler(verifier, mgr, sender, StaticClinicResolver("clinic-1"), logging.New("error"), nil)
	return h, sender, mgr
}

func TestHandleVerifyEchoesChallenge(t *testing.T) {
	h, _, _ := newWebhookHandler(t, &stubVerifier{})
	req := httptest.NewRequest(http.MethodGet, "/webhooks/whatsapp?hub.mode=subscribe&hub.verify_token=tok&hub.challenge=42", nil)
	rec := httptest.NewRecorder()

	h.HandleVerify(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "42", rec.Body.String())
}

func TestHandleVerifyRejectsBadToken(t *testing.T) {
	h, _, _ := newWebhookHandler(t, &stubVerifier{handshakeErr: errors.New("token mismatch")})
	req := httptest.NewRequest(http.MethodGet, "/webhooks/whatsapp?hub.mode=subscribe", nil)
	rec := httptest.NewRecorder()

	h.HandleVerify(rec, req)
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestHandleEventsRejectsBadSignature(t *testing.T) {
	h, sender, _ := newWebhookHandler(t, &stubVerifier{signatureErr: errors.New("signature mismatch")})
	req := httptest.NewRequest(http.MethodPost, "/webhooks/whatsapp", strings.NewReader(inboundTextPayload("5511999990000", "oi")))
	rec := httptest.NewRecorder()

	h.HandleEvents(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Empty(t, sender.sent)
}

func TestHandleEventsStartsFlowAndReplies(t *testing.T) {
	h, sender, mgr := newWebhookHandler(t, &stubVerifier{})
	req := httptest.NewRequest(http.MethodPost, "/webhooks/whatsapp", strings.NewReader(inboundTextPayload("5511999990000", "oi")))
	rec := httptest.NewRecorder()

	h.HandleEvents(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	desc, err := mgr.CurrentFlow(context.Background(), "clinic-1", "+5511999990000")
	require.NoError(t, err)
	require.NotNil(t, desc)
	require.Equal(t, flow.StateInit, desc.State)

	require.Len(t, sender.sent, 1)
	require.Equal(t, "+5511999990000", sender.sent[0].To)
	require.Contains(t, sender.sent[0].Body, "Maria")
}

func TestHandleEventsKeepsExistingFlow(t *testing.T) {
	h, sender, mgr := newWebhookHandler(t, &stubVerifier{})
	_, err := mgr.StartFlow(context.Background(), "clinic-1", "+5511999990000", "Maria")
	require.NoError(t, err)
	_, err = mgr.Transition(context.Background(), "clinic-1", "+5511999990000", flow.StateServiceSelection, nil)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/webhooks/whatsapp", strings.NewReader(inboundTextPayload("5511999990000", "limpeza de pele")))
	rec := httptest.NewRecorder()
	h.HandleEvents(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	desc, err := mgr.CurrentFlow(context.Background(), "clinic-1", "+5511999990000")
	require.NoError(t, err)
	require.Equal(t, flow.StateServiceSelection, desc.State)
	require.Len(t, sender.sent, 1)
}

func TestHandleEventsIgnoresUnknownPhoneNumberID(t *testing.T) {
	mgr, _ := newTestManager(t)
	sender := &stubMessenger{}
	h := NewWhatsAppWebhookHandler(&stubVerifier{}, mgr, sender, StaticClinicResolver(""), logging.New("error"), nil)

	req := httptest.NewRequest(http.MethodPost, "/webhooks/whatsapp", strings.NewReader(inboundTextPayload("5511999990000", "oi")))
	rec := httptest.NewRecorder()
	h.HandleEvents(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Empty(t, sender.sent)
}
