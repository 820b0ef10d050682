package messaging

import (
	"context"
	"errors"
	"fmt"

	"github.com/atendeai/clinic-platform/internal/messaging/whatsapp"
	"github.com/atendeai/clinic-platform/internal/observability/metrics"
	"github.com/atendeai/clinic-platform/pkg/logging"
)

// TextSender is the slice of the WhatsApp client the sender needs.
type TextSender interface {
	SendText(ctx context.Context, to, body string) (*whatsapp.MessageResponse, error)
}

// ResilientSender delivers outbound messages through a circuit breaker
// and retry policy so that a degraded provider does not stall the
// booking flow.
type ResilientSender struct {
	client  TextSender
	breaker *CircuitBreaker
	retryer *Retryer
	logger  *logging.Logger
	metrics *metrics.MessagingMetrics
}

// NewResilientSender wires a WhatsApp client behind breaker and retry
// policies. Nil breaker or retryer get the defaults.
func NewResilientSender(client TextSender, breaker *CircuitBreaker, retryer *Retryer, logger *logging.Logger, m *metrics.MessagingMetrics) *ResilientSender {
	if breaker == nil {
		breaker = NewCircuitBreaker(0, 0)
	}
	if retryer == nil {
		retryer = NewRetryer(3, 0, 0)
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &ResilientSender{
		client:  client,
		breaker: breaker,
		retryer: retryer,
		logger:  logger,
		metrics: m,
	}
}

// Send implements Messenger. Each attempt runs through the breaker, so
// a provider outage opens the circuit and later attempts fail fast.
func (s *ResilientSender) Send(ctx context.Context, msg OutboundMessage) (string, error) {
	if msg.To == "" {
		return "", errors.New("messaging: recipient phone number required")
	}
	var resp *whatsapp.MessageResponse
	err := s.retryer.Execute(ctx, func() error {
		return s.breaker.Execute(func() error {
			var sendErr error
			resp, sendErr = s.client.SendText(ctx, msg.To, msg.Body)
			return sendErr
		})
	})
	s.observeBreaker()
	if err != nil {
		s.metrics.ObserveOutbound("failed")
		s.logger.Error("outbound message failed",
			"clinic_id", msg.ClinicID,
			"to", msg.To,
			"circuit_state", string(s.breaker.State()),
			"error", err,
		)
		return "", fmt.Errorf("messaging: send whatsapp message: %w", err)
	}
	s.metrics.ObserveOutbound("sent")
	s.logger.Info("outbound message sent",
		"clinic_id", msg.ClinicID,
		"to", msg.To,
		"provider_message_id", resp.MessageID(),
	)
	return resp.MessageID(), nil
}

func (s *ResilientSender) observeBreaker() {
	var v float64
	switch s.breaker.State() {
	case BreakerHalfOpen:
		v = 1
	case BreakerOpen:
		v = 2
	}
	s.metrics.ObserveBreakerState("whatsapp", v)
}
