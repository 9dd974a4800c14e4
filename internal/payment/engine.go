package payment

import (
	"context"
	"fmt"
	"time"

	"restaurant-order-service/internal/store"

	"go.uber.org/zap"
)

// Ledger is the slice of the order store the engine needs. ConfirmPaid must
// be atomic and conditional on the order being unpaid; it reports whether
// this call was the one that flipped the flag. Implementations credit sold
// counters at most once per order, skipping orders already credited when
// they were created.
type Ledger interface {
	ConfirmPaid(ctx context.Context, orderID int64, paidAt time.Time) (bool, error)
	RecordPayment(ctx context.Context, rec store.PaymentRecord) error
}

type Publisher interface {
	PublishJSON(ctx context.Context, exchange, routingKey string, payload any) error
}

// Deduper short-circuits replayed provider events before they reach the
// database. It is an optimization only; ConfirmPaid's conditional update is
// the hard exactly-once guarantee.
type Deduper interface {
	Seen(ctx context.Context, key string) (bool, error)
	Mark(ctx context.Context, key string) error
}

// Engine applies normalized payment outcomes to orders exactly once,
// regardless of which channel delivered them or how many times.
type Engine struct {
	Ledger    Ledger
	Publisher Publisher // optional
	Deduper   Deduper   // optional
	Logger    *zap.Logger
	Exchange  string
}

type orderEvent struct {
	Event    string    `json:"event"`
	OrderID  int64     `json:"orderId"`
	Provider Provider  `json:"provider"`
	Amount   int64     `json:"amount"`
	At       time.Time `json:"at"`
}

// Apply drives one outcome through the order state machine. It returns
// applied=true only when this call confirmed the order; replays and outcomes
// for already-confirmed orders are no-ops, never errors.
func (e *Engine) Apply(ctx context.Context, out Outcome) (applied bool, err error) {
	dedupKey := ""
	if e.Deduper != nil && out.TransactionID != "" {
		dedupKey = string(out.Provider) + ":" + out.TransactionID
		seen, err := e.Deduper.Seen(ctx, dedupKey)
		if err != nil {
			// The cache is advisory; never let it block reconciliation.
			e.Logger.Warn("payment dedup lookup failed", zap.Error(err))
			dedupKey = ""
		} else if seen {
			e.Logger.Info("replayed payment event ignored",
				zap.String("provider", string(out.Provider)),
				zap.String("transactionId", out.TransactionID))
			return false, nil
		}
	}

	switch out.Status {
	case OutcomeSucceeded:
		applied, err = e.applySucceeded(ctx, out)
	case OutcomeFailed:
		applied, err = e.applyFailed(ctx, out)
	default:
		return false, fmt.Errorf("unknown payment outcome status %q", out.Status)
	}
	if err != nil {
		return false, err
	}

	if dedupKey != "" {
		if err := e.Deduper.Mark(ctx, dedupKey); err != nil {
			e.Logger.Warn("payment dedup mark failed", zap.Error(err))
		}
	}
	return applied, nil
}

func (e *Engine) applySucceeded(ctx context.Context, out Outcome) (bool, error) {
	paidAt := out.PaidAt
	if paidAt.IsZero() {
		paidAt = time.Now()
	}

	applied, err := e.Ledger.ConfirmPaid(ctx, out.OrderID, paidAt)
	if err != nil {
		return false, err
	}
	if !applied {
		e.Logger.Info("payment already applied",
			zap.Int64("orderId", out.OrderID),
			zap.String("provider", string(out.Provider)))
		return false, nil
	}

	rec := store.PaymentRecord{
		OrderID:       out.OrderID,
		Amount:        out.Amount,
		Provider:      string(out.Provider),
		Status:        "completed",
		TransactionID: out.TransactionID,
		ResponseCode:  out.ResponseCode,
		BankCode:      out.BankCode,
	}
	if err := e.Ledger.RecordPayment(ctx, rec); err != nil {
		// The order is confirmed; a missing audit row is not a reason to
		// fail the confirmation.
		e.Logger.Error("payment audit record failed", zap.Int64("orderId", out.OrderID), zap.Error(err))
	}

	e.publish(ctx, "order.paid", out, paidAt)
	e.Logger.Info("payment confirmed",
		zap.Int64("orderId", out.OrderID),
		zap.String("provider", string(out.Provider)),
		zap.Int64("amount", out.Amount))
	return true, nil
}

func (e *Engine) applyFailed(ctx context.Context, out Outcome) (bool, error) {
	rec := store.PaymentRecord{
		OrderID:       out.OrderID,
		Amount:        out.Amount,
		Provider:      string(out.Provider),
		Status:        "failed",
		TransactionID: out.TransactionID,
		ResponseCode:  out.ResponseCode,
		BankCode:      out.BankCode,
	}
	if err := e.Ledger.RecordPayment(ctx, rec); err != nil {
		return false, err
	}

	e.publish(ctx, "order.payment_failed", out, time.Now())
	e.Logger.Warn("payment failed",
		zap.Int64("orderId", out.OrderID),
		zap.String("provider", string(out.Provider)),
		zap.String("responseCode", out.ResponseCode))
	return false, nil
}

func (e *Engine) publish(ctx context.Context, event string, out Outcome, at time.Time) {
	if e.Publisher == nil {
		return
	}
	payload := orderEvent{Event: event, OrderID: out.OrderID, Provider: out.Provider, Amount: out.Amount, At: at}
	if err := e.Publisher.PublishJSON(ctx, e.Exchange, event, payload); err != nil {
		e.Logger.Warn("payment event publish failed", zap.String("event", event), zap.Error(err))
	}
}
