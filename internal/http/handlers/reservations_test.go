package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"restaurant-order-service/internal/store"

	"go.uber.org/zap"
)

func TestRequestedReservationStatus(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    store.ReservationStatus
		wantErr bool
	}{
		{name: "empty defaults to pending", raw: "", want: store.ReservationPending},
		{name: "pending", raw: "pending", want: store.ReservationPending},
		{name: "confirmed", raw: "confirmed", want: store.ReservationConfirmed},
		{name: "mixed case confirmed", raw: "Confirmed", want: store.ReservationConfirmed},
		{name: "cancelled is not creatable", raw: "cancelled", wantErr: true},
		{name: "completed is not creatable", raw: "completed", wantErr: true},
		{name: "unknown status", raw: "booked", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := requestedReservationStatus(tt.raw)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("requestedReservationStatus(%q) = %q, want error", tt.raw, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("requestedReservationStatus(%q): %v", tt.raw, err)
			}
			if got != tt.want {
				t.Fatalf("requestedReservationStatus(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestReservationCreateRejectsUncreatableStatus(t *testing.T) {
	h := &Handler{Logger: zap.NewNop()}

	for _, status := range []string{"completed", "cancelled", "booked"} {
		body := `{"tableId":1,"reservationDate":"2030-01-01T18:00:00Z","numberOfGuests":2,"status":"` + status + `"}`
		rec := httptest.NewRecorder()
		h.ReservationCreate(rec, authedRequest(http.MethodPost, "/api/reservations", body))

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status %q: got http %d, want %d", status, rec.Code, http.StatusBadRequest)
		}
		if !strings.Contains(rec.Body.String(), "INVALID_STATUS") {
			t.Fatalf("status %q: expected INVALID_STATUS error, got %s", status, rec.Body.String())
		}
	}
}
