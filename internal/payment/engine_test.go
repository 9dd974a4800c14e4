package payment

import (
	"context"
	"errors"
	"testing"
	"time"

	"restaurant-order-service/internal/store"

	"go.uber.org/zap"
)

// fakeLedger mirrors the order store's contract: confirmation is conditional
// on the order being unpaid, and sold counters are credited at most once per
// order, skipping orders already credited at creation.
type fakeLedger struct {
	paid          map[int64]bool
	stockCredited map[int64]bool
	credits       map[int64]int
	records       []store.PaymentRecord
	confirmErr    error
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{
		paid:          make(map[int64]bool),
		stockCredited: make(map[int64]bool),
		credits:       make(map[int64]int),
	}
}

func (f *fakeLedger) ConfirmPaid(ctx context.Context, orderID int64, paidAt time.Time) (bool, error) {
	if f.confirmErr != nil {
		return false, f.confirmErr
	}
	if f.paid[orderID] {
		return false, nil
	}
	f.paid[orderID] = true
	if !f.stockCredited[orderID] {
		f.credits[orderID]++
		f.stockCredited[orderID] = true
	}
	return true, nil
}

func (f *fakeLedger) RecordPayment(ctx context.Context, rec store.PaymentRecord) error {
	f.records = append(f.records, rec)
	return nil
}

type fakePublisher struct {
	events []string
}

func (f *fakePublisher) PublishJSON(ctx context.Context, exchange, routingKey string, payload any) error {
	f.events = append(f.events, routingKey)
	return nil
}

type fakeDeduper struct {
	seen   map[string]bool
	marked []string
}

func newFakeDeduper() *fakeDeduper {
	return &fakeDeduper{seen: make(map[string]bool)}
}

func (f *fakeDeduper) Seen(ctx context.Context, key string) (bool, error) {
	return f.seen[key], nil
}

func (f *fakeDeduper) Mark(ctx context.Context, key string) error {
	f.seen[key] = true
	f.marked = append(f.marked, key)
	return nil
}

func newTestEngine(ledger *fakeLedger, pub *fakePublisher, dedup *fakeDeduper) *Engine {
	e := &Engine{
		Ledger:   ledger,
		Logger:   zap.NewNop(),
		Exchange: "restaurant.events",
	}
	// Assign only when set so a nil fake stays a nil interface.
	if pub != nil {
		e.Publisher = pub
	}
	if dedup != nil {
		e.Deduper = dedup
	}
	return e
}

func TestEngineAppliesSucceededOutcomeOnce(t *testing.T) {
	ledger := newFakeLedger()
	pub := &fakePublisher{}
	engine := newTestEngine(ledger, pub, nil)

	out := Outcome{
		Provider:      ProviderCard,
		OrderID:       42,
		Amount:        150000,
		Status:        OutcomeSucceeded,
		TransactionID: "txn_1",
	}

	applied, err := engine.Apply(context.Background(), out)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if !applied {
		t.Fatal("expected first apply to confirm the order")
	}

	applied, err = engine.Apply(context.Background(), out)
	if err != nil {
		t.Fatalf("Apply replay: %v", err)
	}
	if applied {
		t.Fatal("expected replay to be a no-op")
	}

	if len(ledger.records) != 1 {
		t.Fatalf("expected 1 audit record, got %d", len(ledger.records))
	}
	if ledger.records[0].Status != "completed" {
		t.Fatalf("expected completed audit record, got %q", ledger.records[0].Status)
	}
	if len(pub.events) != 1 || pub.events[0] != "order.paid" {
		t.Fatalf("expected single order.paid event, got %v", pub.events)
	}
	if ledger.credits[42] != 1 {
		t.Fatalf("expected sold credited once, got %d", ledger.credits[42])
	}
}

func TestEngineConfirmSkipsCreditForCashOrder(t *testing.T) {
	ledger := newFakeLedger()
	// Cash orders credit sold counters at creation time.
	ledger.stockCredited[21] = true
	engine := newTestEngine(ledger, nil, nil)

	applied, err := engine.Apply(context.Background(), Outcome{
		Provider: ProviderCash,
		OrderID:  21,
		Amount:   45000,
		Status:   OutcomeSucceeded,
	})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if !applied {
		t.Fatal("expected manual confirm to mark the cash order paid")
	}
	if !ledger.paid[21] {
		t.Fatal("cash order must end up paid")
	}
	if ledger.credits[21] != 0 {
		t.Fatalf("creation-credited order must not be credited again, got %d extra credits", ledger.credits[21])
	}
}

func TestEngineFailedOutcomeLeavesOrderUnpaid(t *testing.T) {
	ledger := newFakeLedger()
	pub := &fakePublisher{}
	engine := newTestEngine(ledger, pub, nil)

	out := Outcome{
		Provider:     ProviderBank,
		OrderID:      7,
		Amount:       90000,
		Status:       OutcomeFailed,
		ResponseCode: "24",
	}

	applied, err := engine.Apply(context.Background(), out)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if applied {
		t.Fatal("failed outcome must not confirm the order")
	}
	if ledger.paid[7] {
		t.Fatal("failed outcome must not mark the order paid")
	}
	if len(ledger.records) != 1 || ledger.records[0].Status != "failed" {
		t.Fatalf("expected single failed audit record, got %+v", ledger.records)
	}
	if len(pub.events) != 1 || pub.events[0] != "order.payment_failed" {
		t.Fatalf("expected order.payment_failed event, got %v", pub.events)
	}
}

func TestEngineDedupShortCircuitsReplay(t *testing.T) {
	ledger := newFakeLedger()
	dedup := newFakeDeduper()
	dedup.seen["checkout:evt_9"] = true
	engine := newTestEngine(ledger, nil, dedup)

	out := Outcome{
		Provider:      ProviderCheckout,
		OrderID:       3,
		Status:        OutcomeSucceeded,
		TransactionID: "evt_9",
	}

	applied, err := engine.Apply(context.Background(), out)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if applied {
		t.Fatal("seen transaction must be ignored")
	}
	if len(ledger.paid) != 0 {
		t.Fatal("seen transaction must not reach the ledger")
	}
}

func TestEngineMarksDedupAfterApply(t *testing.T) {
	ledger := newFakeLedger()
	dedup := newFakeDeduper()
	engine := newTestEngine(ledger, nil, dedup)

	out := Outcome{
		Provider:      ProviderWallet,
		OrderID:       11,
		Status:        OutcomeSucceeded,
		TransactionID: "cap_5",
	}

	if _, err := engine.Apply(context.Background(), out); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if len(dedup.marked) != 1 || dedup.marked[0] != "wallet:cap_5" {
		t.Fatalf("expected dedup key wallet:cap_5 marked, got %v", dedup.marked)
	}
}

func TestEngineDoesNotMarkDedupOnLedgerError(t *testing.T) {
	ledger := newFakeLedger()
	ledger.confirmErr = errors.New("connection reset")
	dedup := newFakeDeduper()
	engine := newTestEngine(ledger, nil, dedup)

	out := Outcome{
		Provider:      ProviderCard,
		OrderID:       5,
		Status:        OutcomeSucceeded,
		TransactionID: "txn_err",
	}

	if _, err := engine.Apply(context.Background(), out); err == nil {
		t.Fatal("expected ledger error to surface")
	}
	if len(dedup.marked) != 0 {
		t.Fatal("a failed apply must stay retryable, not be marked seen")
	}
}

func TestEngineRejectsUnknownStatus(t *testing.T) {
	engine := newTestEngine(newFakeLedger(), nil, nil)

	_, err := engine.Apply(context.Background(), Outcome{OrderID: 1, Status: "refunded"})
	if err == nil {
		t.Fatal("expected error for unknown outcome status")
	}
}
