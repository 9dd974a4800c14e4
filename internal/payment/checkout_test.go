package payment

import (
	"errors"
	"testing"
)

func testCheckoutGateway() *CheckoutGateway {
	return &CheckoutGateway{
		BaseURL:       "https://api.checkout.example.com",
		APIKey:        "sk_test_123",
		WebhookSecret: "whsec_abcdef",
		ClientURL:     "https://shop.example.com",
	}
}

func TestParseWebhookValidSignature(t *testing.T) {
	g := testCheckoutGateway()

	payload := []byte(`{"type":"checkout.session.completed","data":{"sessionId":"cs_1","orderId":88,"paymentStatus":"paid","amount":250000}}`)

	event, err := g.ParseWebhook(payload, g.sign(payload))
	if err != nil {
		t.Fatalf("ParseWebhook: %v", err)
	}
	if event.Type != EventCheckoutCompleted {
		t.Errorf("Type = %q, want %q", event.Type, EventCheckoutCompleted)
	}
	if event.Data.OrderID != 88 {
		t.Errorf("OrderID = %d, want 88", event.Data.OrderID)
	}
	if event.Data.SessionID != "cs_1" {
		t.Errorf("SessionID = %q, want cs_1", event.Data.SessionID)
	}
	if event.Data.PaymentStatus != "paid" {
		t.Errorf("PaymentStatus = %q, want paid", event.Data.PaymentStatus)
	}
}

func TestParseWebhookRejectsBadSignature(t *testing.T) {
	g := testCheckoutGateway()

	payload := []byte(`{"type":"checkout.session.completed","data":{"orderId":88}}`)

	if _, err := g.ParseWebhook(payload, "deadbeef"); !errors.Is(err, ErrBadSignature) {
		t.Fatalf("expected ErrBadSignature, got %v", err)
	}
}

func TestParseWebhookRejectsTamperedBody(t *testing.T) {
	g := testCheckoutGateway()

	payload := []byte(`{"type":"checkout.session.completed","data":{"orderId":88,"amount":250000}}`)
	sig := g.sign(payload)
	tampered := []byte(`{"type":"checkout.session.completed","data":{"orderId":88,"amount":1}}`)

	if _, err := g.ParseWebhook(tampered, sig); !errors.Is(err, ErrBadSignature) {
		t.Fatalf("expected ErrBadSignature, got %v", err)
	}
}

func TestVerifySignatureEmptyInputs(t *testing.T) {
	g := testCheckoutGateway()
	payload := []byte(`{}`)

	if g.VerifySignature(payload, "") {
		t.Error("empty signature must not verify")
	}

	g.WebhookSecret = ""
	if g.VerifySignature(payload, g.sign(payload)) {
		t.Error("empty secret must not verify")
	}
}

func TestSessionStatusPaid(t *testing.T) {
	if !(SessionStatus{PaymentStatus: "paid"}).Paid() {
		t.Error("paid status must report paid")
	}
	if (SessionStatus{PaymentStatus: "unpaid"}).Paid() {
		t.Error("unpaid status must not report paid")
	}
}
