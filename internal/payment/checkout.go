package payment

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// SignatureHeader carries the hex HMAC-SHA256 of the raw webhook body.
const SignatureHeader = "X-Checkout-Signature"

// CheckoutGateway wraps the hosted checkout-session API. Orders are created
// pending before the redirect; confirmation arrives either on the async
// webhook or on the client's confirm call after returning, whichever wins.
type CheckoutGateway struct {
	BaseURL       string
	APIKey        string
	WebhookSecret string
	ClientURL     string
	Client        *http.Client
}

func NewCheckoutGateway(baseURL, apiKey, webhookSecret, clientURL string, timeout time.Duration) *CheckoutGateway {
	return &CheckoutGateway{
		BaseURL:       baseURL,
		APIKey:        apiKey,
		WebhookSecret: webhookSecret,
		ClientURL:     clientURL,
		Client:        &http.Client{Timeout: timeout},
	}
}

type Session struct {
	ID          string `json:"sessionId"`
	CheckoutURL string `json:"checkoutUrl"`
}

type SessionLineItem struct {
	Name      string `json:"name"`
	UnitPrice int64  `json:"unitPrice"`
	Quantity  int32  `json:"quantity"`
}

func (g *CheckoutGateway) CreateSession(ctx context.Context, orderID int64, customerEmail string, amount int64, items []SessionLineItem) (*Session, error) {
	body, err := json.Marshal(map[string]any{
		"mode":           "payment",
		"currency":       "vnd",
		"amount":         amount,
		"line_items":     items,
		"customer_email": customerEmail,
		"success_url":    g.ClientURL + "/payment-success?session_id={CHECKOUT_SESSION_ID}&order_id=" + strconv.FormatInt(orderID, 10),
		"cancel_url":     g.ClientURL + "/cart",
		"metadata": map[string]string{
			"orderId": strconv.FormatInt(orderID, 10),
		},
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.BaseURL+"/checkout/sessions", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.APIKey)

	resp, err := g.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: create session: %v", ErrGateway, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: create session returned status %d", ErrGateway, resp.StatusCode)
	}

	var payload struct {
		ID  string `json:"id"`
		URL string `json:"url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: session response: %v", ErrGateway, err)
	}
	return &Session{ID: payload.ID, CheckoutURL: payload.URL}, nil
}

type SessionStatus struct {
	ID            string `json:"id"`
	PaymentStatus string `json:"payment_status"`
}

func (s SessionStatus) Paid() bool {
	return s.PaymentStatus == "paid"
}

// RetrieveSession backs the client-side confirm path: the frontend returns
// from the hosted page and asks us to verify the session with the provider.
func (g *CheckoutGateway) RetrieveSession(ctx context.Context, sessionID string) (*SessionStatus, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.BaseURL+"/checkout/sessions/"+sessionID, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+g.APIKey)

	resp, err := g.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: retrieve session: %v", ErrGateway, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: retrieve session returned status %d", ErrGateway, resp.StatusCode)
	}

	var status SessionStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return nil, fmt.Errorf("%w: session response: %v", ErrGateway, err)
	}
	return &status, nil
}

// WebhookEvent is the provider's async notification. OrderID comes back via
// the metadata we attached at session creation.
type WebhookEvent struct {
	Type string `json:"type"`
	Data struct {
		SessionID     string `json:"sessionId"`
		OrderID       int64  `json:"orderId"`
		PaymentStatus string `json:"paymentStatus"`
		Amount        int64  `json:"amount"`
	} `json:"data"`
}

// EventCheckoutCompleted is the only webhook event type that drives the
// order state machine.
const EventCheckoutCompleted = "checkout.session.completed"

func (g *CheckoutGateway) sign(payload []byte) string {
	mac := hmac.New(sha256.New, []byte(g.WebhookSecret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature checks the raw body against the signature header value.
func (g *CheckoutGateway) VerifySignature(payload []byte, signature string) bool {
	if g.WebhookSecret == "" || signature == "" {
		return false
	}
	return hmac.Equal([]byte(g.sign(payload)), []byte(signature))
}

// ParseWebhook verifies and decodes an inbound webhook payload. Signature
// failures return ErrBadSignature and the payload content is never trusted.
func (g *CheckoutGateway) ParseWebhook(payload []byte, signature string) (*WebhookEvent, error) {
	if !g.VerifySignature(payload, signature) {
		return nil, ErrBadSignature
	}
	var event WebhookEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, fmt.Errorf("invalid webhook payload: %w", err)
	}
	return &event, nil
}
