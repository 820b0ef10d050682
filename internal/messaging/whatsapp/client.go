package whatsapp

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"log/slog"
)

const (
	defaultBaseURL   = "https://graph.facebook.com/v18.0"
	defaultUserAgent = "atendeai-whatsapp/0.1"
)

// Config controls how the Meta Cloud API client behaves.
type Config struct {
	BaseURL       string
	AccessToken   string
	PhoneNumberID string
	AppSecret     string
	VerifyToken   string
	Timeout       time.Duration
	HTTPClient    *http.Client
	Logger        *slog.Logger
	UserAgent     string
}

// Client wraps the Meta WhatsApp Cloud API endpoints used for patient
// messaging. It makes a single attempt per call; callers that want
// retries or circuit breaking wrap it.
type Client struct {
	accessToken   string
	phoneNumberID string
	appSecret     string
	verifyToken   string
	baseURL       string
	httpClient    *http.Client
	logger        *slog.Logger
	userAgent     string
}

// New creates a configured Client with sane defaults.
func New(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.AccessToken) == "" {
		return nil, errors.New("whatsapp: access token is required")
	}
	if strings.TrimSpace(cfg.PhoneNumberID) == "" {
		return nil, errors.New("whatsapp: phone number id is required")
	}
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	baseURL = strings.TrimRight(baseURL, "/")
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	userAgent := strings.TrimSpace(cfg.UserAgent)
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	return &Client{
		accessToken:   cfg.AccessToken,
		phoneNumberID: cfg.PhoneNumberID,
		appSecret:     cfg.AppSecret,
		verifyToken:   cfg.VerifyToken,
		baseURL:       baseURL,
		httpClient:    httpClient,
		logger:        logger,
		userAgent:     userAgent,
	}, nil
}

// SendText delivers a plain text message to a patient phone number.
func (c *Client) SendText(ctx context.Context, to, body string) (*MessageResponse, error) {
	payload := textPayload{
		MessagingProduct: "whatsapp",
		RecipientType:    "individual",
		To:               to,
		Type:             "text",
		Text:             textBody{Body: body},
	}
	if err := payload.validate(); err != nil {
		return nil, err
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("whatsapp: marshal text payload: %w", err)
	}
	data, err := c.invoke(ctx, http.MethodPost, fmt.Sprintf("/%s/messages", c.phoneNumberID), nil, raw)
	if err != nil {
		return nil, err
	}
	var resp MessageResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("whatsapp: decode send response: %w", err)
	}
	return &resp, nil
}

// SendTemplate delivers an approved template message, used to reach
// patients outside the 24-hour service window.
func (c *Client) SendTemplate(ctx context.Context, to, name, langCode string, bodyParams []string) (*MessageResponse, error) {
	if strings.TrimSpace(to) == "" {
		return nil, errors.New("whatsapp: recipient phone number required")
	}
	if strings.TrimSpace(name) == "" {
		return nil, errors.New("whatsapp: template name required")
	}
	if langCode == "" {
		langCode = "pt_BR"
	}
	payload := templatePayload{
		MessagingProduct: "whatsapp",
		To:               to,
		Type:             "template",
		Template: templateSpec{
			Name:     name,
			Language: templateLanguage{Code: langCode},
		},
	}
	if len(bodyParams) > 0 {
		params := make([]templateParameter, 0, len(bodyParams))
		for _, p := range bodyParams {
			params = append(params, templateParameter{Type: "text", Text: p})
		}
		payload.Template.Components = []templateComponent{{Type: "body", Parameters: params}}
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("whatsapp: marshal template payload: %w", err)
	}
	data, err := c.invoke(ctx, http.MethodPost, fmt.Sprintf("/%s/messages", c.phoneNumberID), nil, raw)
	if err != nil {
		return nil, err
	}
	var resp MessageResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("whatsapp: decode send response: %w", err)
	}
	return &resp, nil
}

// SendButtons delivers an interactive message with up to three tappable
// reply buttons.
func (c *Client) SendButtons(ctx context.Context, to, body string, buttons []ButtonReply) (*MessageResponse, error) {
	if strings.TrimSpace(to) == "" {
		return nil, errors.New("whatsapp: recipient phone number required")
	}
	if len(buttons) == 0 || len(buttons) > 3 {
		return nil, fmt.Errorf("whatsapp: button messages take 1 to 3 buttons, got %d", len(buttons))
	}
	wrapped := make([]interactiveButton, 0, len(buttons))
	for _, b := range buttons {
		wrapped = append(wrapped, interactiveButton{Type: "reply", Reply: b})
	}
	payload := interactivePayload{
		MessagingProduct: "whatsapp",
		RecipientType:    "individual",
		To:               to,
		Type:             "interactive",
		Interactive: interactiveSpec{
			Type:   "button",
			Body:   interactiveText{Text: body},
			Action: interactiveParts{Buttons: wrapped},
		},
	}
	return c.sendInteractive(ctx, payload)
}

// SendList delivers an interactive list message, used when a flow step
// offers more choices than buttons allow.
func (c *Client) SendList(ctx context.Context, to, body, buttonLabel string, sections []ListSection) (*MessageResponse, error) {
	if strings.TrimSpace(to) == "" {
		return nil, errors.New("whatsapp: recipient phone number required")
	}
	if len(sections) == 0 {
		return nil, errors.New("whatsapp: list messages need at least one section")
	}
	if buttonLabel == "" {
		buttonLabel = "Ver opções"
	}
	payload := interactivePayload{
		MessagingProduct: "whatsapp",
		RecipientType:    "individual",
		To:               to,
		Type:             "interactive",
		Interactive: interactiveSpec{
			Type:   "list",
			Body:   interactiveText{Text: body},
			Action: interactiveParts{Button: buttonLabel, Sections: sections},
		},
	}
	return c.sendInteractive(ctx, payload)
}

func (c *Client) sendInteractive(ctx context.Context, payload interactivePayload) (*MessageResponse, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("whatsapp: marshal interactive payload: %w", err)
	}
	data, err := c.invoke(ctx, http.MethodPost, fmt.Sprintf("/%s/messages", c.phoneNumberID), nil, raw)
	if err != nil {
		return nil, err
	}
	var resp MessageResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("whatsapp: decode send response: %w", err)
	}
	return &resp, nil
}

// GetMessageStatus fetches the delivery state of a sent message by its
// provider id.
func (c *Client) GetMessageStatus(ctx context.Context, messageID string) (*MessageStatus, error) {
	if strings.TrimSpace(messageID) == "" {
		return nil, errors.New("whatsapp: message id required")
	}
	data, err := c.invoke(ctx, http.MethodGet, "/"+messageID, nil, nil)
	if err != nil {
		return nil, err
	}
	var status MessageStatus
	if err := json.Unmarshal(data, &status); err != nil {
		return nil, fmt.Errorf("whatsapp: decode message status: %w", err)
	}
	return &status, nil
}

// VerifyCredentials checks that the access token and phone number id
// are valid by fetching the registered number.
func (c *Client) VerifyCredentials(ctx context.Context) (*CredentialStatus, error) {
	data, err := c.invoke(ctx, http.MethodGet, "/"+c.phoneNumberID, nil, nil)
	if err != nil {
		return nil, err
	}
	var status CredentialStatus
	if err := json.Unmarshal(data, &status); err != nil {
		return nil, fmt.Errorf("whatsapp: decode credential status: %w", err)
	}
	return &status, nil
}

// VerifyWebhookSignature validates the X-Hub-Signature-256 header Meta
// sends with every webhook delivery.
func (c *Client) VerifyWebhookSignature(signature string, payload []byte) error {
	if c.appSecret == "" {
		return errors.New("whatsapp: app secret not configured")
	}
	sig := strings.TrimSpace(signature)
	if sig == "" {
		return errors.New("whatsapp: missing signature header")
	}
	sig = strings.TrimPrefix(sig, "sha256=")
	mac := hmac.New(sha256.New, []byte(c.appSecret))
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))
	if !hmac.Equal([]byte(expected), []byte(strings.ToLower(sig))) {
		return errors.New("whatsapp: signature mismatch")
	}
	return nil
}

// VerifyHandshake answers Meta's webhook subscription handshake. It
// returns the challenge to echo back, or an error when the mode or
// token does not match.
func (c *Client) VerifyHandshake(mode, token, challenge string) (string, error) {
	if mode != "subscribe" {
		return "", fmt.Errorf("whatsapp: unexpected hub mode %q", mode)
	}
	if c.verifyToken == "" || token != c.verifyToken {
		return "", errors.New("whatsapp: verify token mismatch")
	}
	return challenge, nil
}

func (c *Client) invoke(ctx context.Context, method, path string, query url.Values, body []byte) ([]byte, error) {
	fullURL := c.buildURL(path, query)
	var bodyReader io.Reader
	if body != nil {
		bodyReader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, fullURL, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("whatsapp: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	req.Header.Set("User-Agent", c.userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("whatsapp: http error: %w", err)
	}
	data, readErr := io.ReadAll(resp.Body)
	resp.Body.Close()
	if readErr != nil {
		return nil, fmt.Errorf("whatsapp: read response: %w", readErr)
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return data, nil
	}
	return nil, decodeAPIError(resp.StatusCode, data)
}

func (c *Client) buildURL(path string, query url.Values) string {
	trimmedPath := "/" + strings.TrimLeft(path, "/")
	full := c.baseURL + trimmedPath
	if len(query) > 0 {
		full = full + "?" + query.Encode()
	}
	return full
}

// APIError carries the Graph API error envelope for a failed call.
type APIError struct {
	StatusCode int    `json:"-"`
	Message    string `json:"message"`
	Type       string `json:"type"`
	Code       int    `json:"code"`
	Subcode    int    `json:"error_subcode,omitempty"`
	TraceID    string `json:"fbtrace_id,omitempty"`
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("whatsapp: %s (status=%d code=%d)", e.Message, e.StatusCode, e.Code)
	}
	return fmt.Sprintf("whatsapp: http status %d", e.StatusCode)
}

func decodeAPIError(status int, body []byte) error {
	var wrapper struct {
		Error APIError `json:"error"`
	}
	if err := json.Unmarshal(body, &wrapper); err != nil {
		return &APIError{StatusCode: status, Message: string(body)}
	}
	wrapper.Error.StatusCode = status
	return &wrapper.Error
}
