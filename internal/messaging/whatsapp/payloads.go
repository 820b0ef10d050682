package whatsapp

import "errors"

// textPayload is the Cloud API body for a plain text send.
type textPayload struct {
	MessagingProduct string   `json:"messaging_product"`
	RecipientType    string   `json:"recipient_type"`
	To               string   `json:"to"`
	Type             string   `json:"type"`
	Text             textBody `json:"text"`
}

type textBody struct {
	PreviewURL bool   `json:"preview_url"`
	Body       string `json:"body"`
}

// templatePayload is the Cloud API body for a template send, used for
// business-initiated messages outside the 24-hour service window.
type templatePayload struct {
	MessagingProduct string       `json:"messaging_product"`
	To               string       `json:"to"`
	Type             string       `json:"type"`
	Template         templateSpec `json:"template"`
}

type templateSpec struct {
	Name       string              `json:"name"`
	Language   templateLanguage    `json:"language"`
	Components []templateComponent `json:"components,omitempty"`
}

type templateLanguage struct {
	Code string `json:"code"`
}

type templateComponent struct {
	Type       string              `json:"type"`
	Parameters []templateParameter `json:"parameters"`
}

type templateParameter struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// interactivePayload is the Cloud API body for button and list
// messages, used to present flow choices as tappable options.
type interactivePayload struct {
	MessagingProduct string          `json:"messaging_product"`
	RecipientType    string          `json:"recipient_type"`
	To               string          `json:"to"`
	Type             string          `json:"type"`
	Interactive      interactiveSpec `json:"interactive"`
}

type interactiveSpec struct {
	Type   string           `json:"type"`
	Body   interactiveText  `json:"body"`
	Action interactiveParts `json:"action"`
}

type interactiveText struct {
	Text string `json:"text"`
}

type interactiveParts struct {
	Buttons  []interactiveButton `json:"buttons,omitempty"`
	Button   string              `json:"button,omitempty"`
	Sections []ListSection       `json:"sections,omitempty"`
}

type interactiveButton struct {
	Type  string      `json:"type"`
	Reply ButtonReply `json:"reply"`
}

// ButtonReply is one tappable reply button, at most three per message.
type ButtonReply struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// ListSection groups rows in an interactive list message.
type ListSection struct {
	Title string    `json:"title,omitempty"`
	Rows  []ListRow `json:"rows"`
}

// ListRow is one selectable row in an interactive list.
type ListRow struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

// MessageResponse is the Cloud API acknowledgement of an accepted send.
type MessageResponse struct {
	MessagingProduct string `json:"messaging_product"`
	Contacts         []struct {
		Input string `json:"input"`
		WaID  string `json:"wa_id"`
	} `json:"contacts"`
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
}

// MessageID returns the provider id of the first accepted message.
func (r *MessageResponse) MessageID() string {
	if r == nil || len(r.Messages) == 0 {
		return ""
	}
	return r.Messages[0].ID
}

// MessageStatus is the delivery state of a previously sent message.
type MessageStatus struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// CredentialStatus describes the sending phone number registration.
type CredentialStatus struct {
	ID                     string `json:"id"`
	DisplayPhoneNumber     string `json:"display_phone_number"`
	VerifiedName           string `json:"verified_name"`
	CodeVerificationStatus string `json:"code_verification_status"`
	QualityRating          string `json:"quality_rating"`
}

func (p textPayload) validate() error {
	if p.To == "" {
		return errors.New("whatsapp: recipient phone number required")
	}
	if p.Text.Body == "" {
		return errors.New("whatsapp: message body required")
	}
	return nil
}
