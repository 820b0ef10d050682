package messaging

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/atendeai/clinic-platform/internal/messaging/whatsapp"
	"github.com/atendeai/clinic-platform/internal/observability/metrics"
	"github.com/atendeai/clinic-platform/pkg/logging"
)

type stubTextSender struct {
	calls int
	errs  []error
	id    string
}

func (s *stubTextSender) SendText(_ context.Context, to, body string) (*whatsapp.MessageResponse, error) {
	idx := s.calls
	s.calls++
	if idx < len(s.errs) && s.errs[idx] != nil {
		return nil, s.errs[idx]
	}
	resp := &whatsapp.MessageResponse{}
	resp.Messages = []struct {
		ID string `json:"id"`
	}{{ID: s.id}}
	return resp, nil
}

func newTestSender(client TextSender, breaker *CircuitBreaker, retryer *Retryer) *ResilientSender {
	return NewResilientSender(client, breaker, retryer, logging.New("error"), metrics.NewMessagingMetrics(prometheus.NewRegistry()))
}

func TestSendReturnsProviderMessageID(t *testing.T) {
	stub := &stubTextSender{id: "wamid.ABC123"}
	sender := newTestSender(stub, nil, NewRetryer(0, time.Millisecond, time.Millisecond))

	id, err := sender.Send(context.Background(), OutboundMessage{
		ClinicID: "clinic-1",
		To:       "+5511999990000",
		Body:     "Olá!",
	})
	require.NoError(t, err)
	require.Equal(t, "wamid.ABC123", id)
	require.Equal(t, 1, stub.calls)
}

func TestSendRetriesTransientFailure(t *testing.T) {
	stub := &stubTextSender{id: "wamid.XYZ", errs: []error{errors.New("timeout"), nil}}
	sender := newTestSender(stub, NewCircuitBreaker(5, time.Minute), NewRetryer(2, time.Millisecond, time.Millisecond))

	id, err := sender.Send(context.Background(), OutboundMessage{To: "+5511999990000", Body: "oi"})
	require.NoError(t, err)
	require.Equal(t, "wamid.XYZ", id)
	require.Equal(t, 2, stub.calls)
}

func TestSendFailsFastWhenCircuitOpen(t *testing.T) {
	boom := errors.New("provider down")
	stub := &stubTextSender{errs: []error{boom, boom, boom, boom, boom, boom}}
	breaker := NewCircuitBreaker(2, time.Minute)
	sender := newTestSender(stub, breaker, NewRetryer(4, time.Millisecond, time.Millisecond))

	_, err := sender.Send(context.Background(), OutboundMessage{To: "+5511999990000", Body: "oi"})
	require.Error(t, err)
	// Two attempts trip the breaker, the third is refused and stops the retry loop.
	require.Equal(t, 2, stub.calls)
	require.Equal(t, BreakerOpen, breaker.State())

	_, err = sender.Send(context.Background(), OutboundMessage{To: "+5511999990000", Body: "oi"})
	require.ErrorIs(t, err, ErrCircuitOpen)
	require.Equal(t, 2, stub.calls)
}

func TestSendRequiresRecipient(t *testing.T) {
	sender := newTestSender(&stubTextSender{}, nil, nil)
	_, err := sender.Send(context.Background(), OutboundMessage{Body: "oi"})
	require.Error(t, err)
}
