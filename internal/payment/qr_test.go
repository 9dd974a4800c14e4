package payment

import (
	"net/url"
	"strings"
	"testing"
)

func TestTransferNote(t *testing.T) {
	tests := []struct {
		orderNumber string
		want        string
	}{
		{"ORD-1A2B3C4D5E6F", "DH3C4D5E6F"},
		{"ORD-1", "DHORD-1"},
	}
	for _, tt := range tests {
		if got := TransferNote(tt.orderNumber); got != tt.want {
			t.Errorf("TransferNote(%q) = %q, want %q", tt.orderNumber, got, tt.want)
		}
	}
}

func TestBuildImageURL(t *testing.T) {
	g := NewQRGateway("970422", "0123456789", "RESTAURANT CO", "compact2")

	got := g.BuildImageURL(185000, "DH3C4D5E6F")

	if !strings.HasPrefix(got, "https://img.vietqr.io/image/970422-0123456789-compact2.png?") {
		t.Fatalf("unexpected image url prefix: %s", got)
	}
	parsed, err := url.Parse(got)
	if err != nil {
		t.Fatalf("parse image url: %v", err)
	}
	q := parsed.Query()
	if q.Get("amount") != "185000" {
		t.Errorf("amount = %q, want 185000", q.Get("amount"))
	}
	if q.Get("addInfo") != "DH3C4D5E6F" {
		t.Errorf("addInfo = %q, want DH3C4D5E6F", q.Get("addInfo"))
	}
	if q.Get("accountName") != "RESTAURANT CO" {
		t.Errorf("accountName = %q", q.Get("accountName"))
	}
}
