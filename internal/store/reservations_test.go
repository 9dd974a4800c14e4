package store

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestReservationFilterRange(t *testing.T) {
	tests := []struct {
		name     string
		filter   ReservationFilter
		wantFrom time.Time
		wantTo   time.Time
		wantOK   bool
		wantErr  bool
	}{
		{
			name:     "date filter covers one day",
			filter:   ReservationFilter{Date: "2024-05-20"},
			wantFrom: time.Date(2024, 5, 20, 0, 0, 0, 0, time.UTC),
			wantTo:   time.Date(2024, 5, 21, 0, 0, 0, 0, time.UTC),
			wantOK:   true,
		},
		{
			name:     "month filter covers one month",
			filter:   ReservationFilter{Month: "2024-12"},
			wantFrom: time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC),
			wantTo:   time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
			wantOK:   true,
		},
		{
			name:     "year filter covers one year",
			filter:   ReservationFilter{Year: "2024"},
			wantFrom: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			wantTo:   time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
			wantOK:   true,
		},
		{
			name:     "date takes precedence over month",
			filter:   ReservationFilter{Date: "2024-05-20", Month: "2024-06"},
			wantFrom: time.Date(2024, 5, 20, 0, 0, 0, 0, time.UTC),
			wantTo:   time.Date(2024, 5, 21, 0, 0, 0, 0, time.UTC),
			wantOK:   true,
		},
		{
			name:   "empty filter is unranged",
			filter: ReservationFilter{UserID: "u-1"},
			wantOK: false,
		},
		{
			name:    "malformed date errors",
			filter:  ReservationFilter{Date: "20-05-2024"},
			wantErr: true,
		},
		{
			name:    "malformed month errors",
			filter:  ReservationFilter{Month: "December"},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			from, to, ok, err := tt.filter.Range()
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Range: %v", err)
			}
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if !from.Equal(tt.wantFrom) || !to.Equal(tt.wantTo) {
				t.Errorf("Range() = [%v, %v), want [%v, %v)", from, to, tt.wantFrom, tt.wantTo)
			}
		})
	}
}

func TestReservationCreateValidation(t *testing.T) {
	now := time.Date(2024, 5, 20, 12, 0, 0, 0, time.UTC)
	// Validation runs before any query, so no pool is needed.
	s := &ReservationStore{ServiceDuration: 2 * time.Hour, Now: func() time.Time { return now }}

	tests := []struct {
		name    string
		params  CreateReservationParams
		wantErr error
	}{
		{
			name:    "missing table",
			params:  CreateReservationParams{UserID: "u-1", StartsAt: now.Add(time.Hour), Guests: 2},
			wantErr: ErrInvalidItem,
		},
		{
			name:    "missing start time",
			params:  CreateReservationParams{TableID: 1, UserID: "u-1", Guests: 2},
			wantErr: ErrInvalidItem,
		},
		{
			name:    "zero guests",
			params:  CreateReservationParams{TableID: 1, UserID: "u-1", StartsAt: now.Add(time.Hour)},
			wantErr: ErrInvalidItem,
		},
		{
			name:    "start in the past",
			params:  CreateReservationParams{TableID: 1, UserID: "u-1", StartsAt: now.Add(-time.Minute), Guests: 2},
			wantErr: ErrPastReservation,
		},
		{
			name:    "start exactly now",
			params:  CreateReservationParams{TableID: 1, UserID: "u-1", StartsAt: now, Guests: 2},
			wantErr: ErrPastReservation,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Create(context.Background(), tt.params)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Create() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
