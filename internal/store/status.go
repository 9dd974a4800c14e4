package store

import (
	"fmt"
	"strings"
)

type ReservationStatus string

const (
	ReservationPending   ReservationStatus = "pending"
	ReservationConfirmed ReservationStatus = "confirmed"
	ReservationCancelled ReservationStatus = "cancelled"
	ReservationCompleted ReservationStatus = "completed"
)

// reservationTransitions is the single source of truth for interactive status
// changes. Completion is normally the reconciler's job; an admin moving any
// reservation straight to completed is treated as an override, not a normal
// transition.
var reservationTransitions = map[ReservationStatus][]ReservationStatus{
	ReservationPending:   {ReservationConfirmed, ReservationCancelled, ReservationCompleted},
	ReservationConfirmed: {ReservationCancelled, ReservationCompleted},
	ReservationCancelled: {},
	ReservationCompleted: {},
}

func (s ReservationStatus) CanTransitionTo(next ReservationStatus) bool {
	for _, allowed := range reservationTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func ParseReservationStatus(value string) (ReservationStatus, error) {
	switch ReservationStatus(strings.ToLower(strings.TrimSpace(value))) {
	case ReservationPending:
		return ReservationPending, nil
	case ReservationConfirmed:
		return ReservationConfirmed, nil
	case ReservationCancelled:
		return ReservationCancelled, nil
	case ReservationCompleted:
		return ReservationCompleted, nil
	}
	return "", fmt.Errorf("invalid reservation status %q", value)
}

type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderConfirmed OrderStatus = "confirmed"
	OrderCancelled OrderStatus = "cancelled"
)

func ParseOrderStatus(value string) (OrderStatus, error) {
	switch OrderStatus(strings.ToLower(strings.TrimSpace(value))) {
	case OrderPending:
		return OrderPending, nil
	case OrderConfirmed:
		return OrderConfirmed, nil
	case OrderCancelled:
		return OrderCancelled, nil
	}
	return "", fmt.Errorf("invalid order status %q", value)
}

type TableStatus string

const (
	TableFree     TableStatus = "free"
	TableOccupied TableStatus = "occupied"
)

func ParseTableStatus(value string) (TableStatus, error) {
	switch TableStatus(strings.ToLower(strings.TrimSpace(value))) {
	case TableFree:
		return TableFree, nil
	case TableOccupied:
		return TableOccupied, nil
	}
	return "", fmt.Errorf("invalid table status %q", value)
}
