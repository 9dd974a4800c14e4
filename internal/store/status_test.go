package store

import "testing"

func TestReservationStatusTransitions(t *testing.T) {
	tests := []struct {
		from    ReservationStatus
		to      ReservationStatus
		allowed bool
	}{
		{ReservationPending, ReservationConfirmed, true},
		{ReservationPending, ReservationCancelled, true},
		{ReservationPending, ReservationCompleted, true},
		{ReservationConfirmed, ReservationCancelled, true},
		{ReservationConfirmed, ReservationCompleted, true},
		{ReservationConfirmed, ReservationPending, false},
		{ReservationCancelled, ReservationConfirmed, false},
		{ReservationCancelled, ReservationCompleted, false},
		{ReservationCompleted, ReservationPending, false},
		{ReservationCompleted, ReservationCancelled, false},
	}
	for _, tt := range tests {
		if got := tt.from.CanTransitionTo(tt.to); got != tt.allowed {
			t.Errorf("%s -> %s: got %v, want %v", tt.from, tt.to, got, tt.allowed)
		}
	}
}

func TestParseReservationStatus(t *testing.T) {
	if s, err := ParseReservationStatus("  Confirmed "); err != nil || s != ReservationConfirmed {
		t.Errorf("ParseReservationStatus normalizes case and space: got %q, %v", s, err)
	}
	if _, err := ParseReservationStatus("archived"); err == nil {
		t.Error("expected error for unknown reservation status")
	}
}

func TestParseOrderStatus(t *testing.T) {
	if s, err := ParseOrderStatus("CONFIRMED"); err != nil || s != OrderConfirmed {
		t.Errorf("ParseOrderStatus: got %q, %v", s, err)
	}
	if _, err := ParseOrderStatus("shipped"); err == nil {
		t.Error("expected error for unknown order status")
	}
}

func TestParseTableStatus(t *testing.T) {
	if s, err := ParseTableStatus("free"); err != nil || s != TableFree {
		t.Errorf("ParseTableStatus: got %q, %v", s, err)
	}
	if _, err := ParseTableStatus("reserved"); err == nil {
		t.Error("expected error for unknown table status")
	}
}
