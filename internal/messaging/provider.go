package messaging

import "context"

// OutboundMessage is a patient-bound text message.
type OutboundMessage struct {
	ClinicID string
	To       string // E.164 phone number
	Body     string
}

// Messenger delivers outbound messages. Send returns the provider's
// message id on success.
type Messenger interface {
	Send(ctx context.Context, msg OutboundMessage) (string, error)
}
