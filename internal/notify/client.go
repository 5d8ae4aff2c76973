// Package notify delivers booking receipts through a template-message API.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/iliyamo/park-ledger/internal/model"
)

// DefaultBaseURL is the provider's graph endpoint.
const DefaultBaseURL = "https://graph.facebook.com/v19.0"

// ErrNotConfigured is returned when the settings lack credentials.
var ErrNotConfigured = errors.New("notification credentials not configured")

// Message is one template send.  Params are positional and already ordered.
type Message struct {
	Recipient string
	Template  string
	Locale    string
	Params    []string
}

// Result identifies an accepted message.
type Result struct {
	MessageID string `json:"message_id"`
}

// ProviderError is the provider's structured rejection.
type ProviderError struct {
	Status  int    `json:"-"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("notify: provider rejected message (http %d, code %d): %s", e.Status, e.Code, e.Message)
}

// Client posts template messages.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient builds a client.  An empty baseURL uses DefaultBaseURL and a nil
// hc gets a client with a ten second timeout.
func NewClient(baseURL string, hc *http.Client) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if hc == nil {
		hc = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: hc}
}

type textParam struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type component struct {
	Type       string      `json:"type"`
	Parameters []textParam `json:"parameters"`
}

type templateBody struct {
	Name       string            `json:"name"`
	Language   map[string]string `json:"language"`
	Components []component       `json:"components,omitempty"`
}

type sendRequest struct {
	MessagingProduct string       `json:"messaging_product"`
	To               string       `json:"to"`
	Type             string       `json:"type"`
	Template         templateBody `json:"template"`
}

type sendResponse struct {
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
	Error *ProviderError `json:"error"`
}

// Send posts msg using the credentials in cfg.  A non-2xx reply with a
// structured body is returned as *ProviderError.
func (c *Client) Send(ctx context.Context, cfg model.NotificationConfig, msg Message) (Result, error) {
	if !cfg.Configured() {
		return Result{}, ErrNotConfigured
	}

	body := sendRequest{
		MessagingProduct: "whatsapp",
		To:               msg.Recipient,
		Type:             "template",
		Template: templateBody{
			Name:     msg.Template,
			Language: map[string]string{"code": msg.Locale},
		},
	}
	if len(msg.Params) > 0 {
		params := make([]textParam, len(msg.Params))
		for i, p := range msg.Params {
			params[i] = textParam{Type: "text", Text: p}
		}
		body.Template.Components = []component{{Type: "body", Parameters: params}}
	}
	raw, err := json.Marshal(body)
	if err != nil {
		return Result{}, err
	}

	endpoint := fmt.Sprintf("%s/%s/messages", c.baseURL, cfg.PhoneNumberID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(raw))
	if err != nil {
		return Result{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+cfg.AccessToken)

	resp, err := c.http.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("notify: send: %w", err)
	}
	defer resp.Body.Close()

	var out sendResponse
	decodeErr := json.NewDecoder(resp.Body).Decode(&out)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if decodeErr == nil && out.Error != nil {
			out.Error.Status = resp.StatusCode
			return Result{}, out.Error
		}
		return Result{}, &ProviderError{Status: resp.StatusCode, Message: resp.Status}
	}
	if decodeErr != nil {
		return Result{}, fmt.Errorf("notify: decode response: %w", decodeErr)
	}
	if len(out.Messages) == 0 {
		return Result{}, errors.New("notify: response carried no message id")
	}
	return Result{MessageID: out.Messages[0].ID}, nil
}
