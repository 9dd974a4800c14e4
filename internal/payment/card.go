package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// CardGateway wraps the synchronous card-present charge API. A charge either
// succeeds before the order is created or the order is never created.
type CardGateway struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
}

func NewCardGateway(baseURL, apiKey string, timeout time.Duration) *CardGateway {
	return &CardGateway{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Client:  &http.Client{Timeout: timeout},
	}
}

type ChargeResult struct {
	TransactionID string
	Succeeded     bool
}

func (g *CardGateway) Charge(ctx context.Context, token string, amount int64, description string) (*ChargeResult, error) {
	body, err := json.Marshal(map[string]any{
		"source":      token,
		"amount":      amount,
		"currency":    "vnd",
		"description": description,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.BaseURL+"/charges", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.APIKey)

	resp, err := g.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: charge: %v", ErrGateway, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: charge returned status %d", ErrGateway, resp.StatusCode)
	}

	var payload struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: charge response: %v", ErrGateway, err)
	}

	return &ChargeResult{
		TransactionID: payload.ID,
		Succeeded:     payload.Status == "succeeded",
	}, nil
}
