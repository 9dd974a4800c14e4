package payment

import (
	"net/url"
	"strings"
	"testing"
	"time"
)

func testRedirectGateway() *RedirectGateway {
	g := NewRedirectGateway(
		"https://sandbox.example.com/paymentv2/vpcpay.html",
		"TESTTMN1",
		"SECRETSECRETSECRETSECRETSECRETSE",
		"https://api.example.com/api/payments/gateway/return",
	)
	g.Now = func() time.Time {
		return time.Date(2024, 5, 20, 14, 30, 0, 0, time.UTC)
	}
	return g
}

func TestBuildPayURLIsSelfVerifying(t *testing.T) {
	g := testRedirectGateway()

	payURL := g.BuildPayURL(1024, 150000, "Thanh toan don hang ORD-1024", "203.0.113.7")

	parsed, err := url.Parse(payURL)
	if err != nil {
		t.Fatalf("parse pay url: %v", err)
	}
	q := parsed.Query()

	if got := q.Get("vnp_Amount"); got != "15000000" {
		t.Errorf("vnp_Amount = %q, want amount*100", got)
	}
	if got := q.Get("vnp_TxnRef"); got != "1024" {
		t.Errorf("vnp_TxnRef = %q, want 1024", got)
	}
	if q.Get("vnp_SecureHash") == "" {
		t.Fatal("pay url missing vnp_SecureHash")
	}

	// A well-formed return carries the same signed parameter set.
	q.Set("vnp_ResponseCode", "00")
	q.Set("vnp_TransactionNo", "14012345")
	q.Set("vnp_BankCode", "NCB")
	q.Del("vnp_SecureHash")
	q.Set("vnp_SecureHash", g.sign(withoutHash(q)))

	result, err := g.VerifyReturn(q)
	if err != nil {
		t.Fatalf("VerifyReturn: %v", err)
	}
	if !result.Succeeded {
		t.Error("response code 00 must report success")
	}
	if result.OrderID != 1024 {
		t.Errorf("OrderID = %d, want 1024", result.OrderID)
	}
	if result.Amount != 150000 {
		t.Errorf("Amount = %d, want 150000", result.Amount)
	}
	if result.BankCode != "NCB" {
		t.Errorf("BankCode = %q, want NCB", result.BankCode)
	}
}

func withoutHash(q url.Values) url.Values {
	v := url.Values{}
	for key, vals := range q {
		if key == "vnp_SecureHash" || key == "vnp_SecureHashType" {
			continue
		}
		for _, val := range vals {
			v.Add(key, val)
		}
	}
	return v
}

func TestVerifyReturnRejectsTamperedAmount(t *testing.T) {
	g := testRedirectGateway()

	payURL := g.BuildPayURL(55, 80000, "order 55", "198.51.100.1")
	parsed, _ := url.Parse(payURL)
	q := parsed.Query()

	q.Set("vnp_Amount", "100")

	if _, err := g.VerifyReturn(q); err != ErrBadSignature {
		t.Fatalf("expected ErrBadSignature for tampered amount, got %v", err)
	}
}

func TestVerifyReturnRejectsMissingHash(t *testing.T) {
	g := testRedirectGateway()

	q := url.Values{}
	q.Set("vnp_TxnRef", "9")
	q.Set("vnp_ResponseCode", "00")

	_, err := g.VerifyReturn(q)
	if err == nil || !strings.Contains(err.Error(), "missing secure hash") {
		t.Fatalf("expected missing hash error, got %v", err)
	}
}

func TestVerifyReturnNonZeroResponseCodeFails(t *testing.T) {
	g := testRedirectGateway()

	q := url.Values{}
	q.Set("vnp_TxnRef", "77")
	q.Set("vnp_Amount", "5000000")
	q.Set("vnp_ResponseCode", "24")
	q.Set("vnp_SecureHash", g.sign(withoutHash(q)))

	result, err := g.VerifyReturn(q)
	if err != nil {
		t.Fatalf("VerifyReturn: %v", err)
	}
	if result.Succeeded {
		t.Error("response code 24 must not report success")
	}
	if result.ResponseCode != "24" {
		t.Errorf("ResponseCode = %q, want 24", result.ResponseCode)
	}
}
