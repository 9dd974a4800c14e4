// Package payment holds the gateway adapters and the reconciliation engine
// that folds their results into the order state machine.
package payment

import (
	"errors"
	"time"
)

type Provider string

const (
	ProviderCard     Provider = "card"
	ProviderCheckout Provider = "checkout"
	ProviderWallet   Provider = "wallet"
	ProviderBank     Provider = "bank_redirect"
	ProviderQR       Provider = "qr_transfer"
	ProviderCash     Provider = "cash"
)

type OutcomeStatus string

const (
	OutcomeSucceeded OutcomeStatus = "succeeded"
	OutcomeFailed    OutcomeStatus = "failed"
)

// Outcome is the normalized result every adapter produces, and the only
// input type the reconciliation engine accepts.
type Outcome struct {
	Provider      Provider
	OrderID       int64
	Amount        int64
	Status        OutcomeStatus
	TransactionID string
	ResponseCode  string
	BankCode      string
	PaidAt        time.Time
}

var (
	// ErrGateway wraps provider-side failures and timeouts. The order is
	// left in its pre-attempt state and the payment step is retryable.
	ErrGateway = errors.New("payment gateway error")

	// ErrBadSignature marks webhook or callback payloads that fail
	// signature verification. Nothing is mutated for these.
	ErrBadSignature = errors.New("invalid payment signature")
)
