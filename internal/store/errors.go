package store

import "errors"

var (
	ErrNotFound          = errors.New("record not found")
	ErrTableBooked       = errors.New("table already booked in this window")
	ErrPastReservation   = errors.New("reservation time must be in the future")
	ErrIllegalTransition = errors.New("illegal status transition")
	ErrEmptyOrder        = errors.New("order has no items")
	ErrInvalidItem       = errors.New("order item is invalid")
)
