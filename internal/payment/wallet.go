package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// WalletGateway talks to a wallet provider whose flow is approve-then-capture:
// the client approves the provider order in the wallet UI, then the server
// captures it. Only a COMPLETED capture counts as payment.
type WalletGateway struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	Client       *http.Client
}

func NewWalletGateway(baseURL, clientID, clientSecret string, timeout time.Duration) *WalletGateway {
	return &WalletGateway{
		BaseURL:      baseURL,
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Client:       &http.Client{Timeout: timeout},
	}
}

type CaptureResult struct {
	TransactionID string `json:"id"`
	Status        string `json:"status"`
	PayerEmail    string `json:"payerEmail"`
}

func (r CaptureResult) Completed() bool {
	return r.Status == "COMPLETED"
}

// Capture captures a previously approved provider order. The provider order id
// comes from the client after wallet approval, not from our own order table.
func (g *WalletGateway) Capture(ctx context.Context, providerOrderID string) (*CaptureResult, error) {
	url := fmt.Sprintf("%s/orders/%s/capture", g.BaseURL, providerOrderID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader([]byte("{}")))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGateway, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(g.ClientID, g.ClientSecret)

	resp, err := g.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGateway, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: capture returned status %d", ErrGateway, resp.StatusCode)
	}

	var result CaptureResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("%w: decode capture response: %v", ErrGateway, err)
	}
	return &result, nil
}
