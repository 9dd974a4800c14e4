package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"restaurant-order-service/internal/middleware"
	"restaurant-order-service/internal/store"
	"restaurant-order-service/pkg/response"

	"go.uber.org/zap"
)

type createReservationPayload struct {
	TableID         int64     `json:"tableId"`
	ReservationDate time.Time `json:"reservationDate"`
	NumberOfGuests  int32     `json:"numberOfGuests"`
	Status          string    `json:"status"`
}

// requestedReservationStatus validates the status a caller asks a new
// reservation to start in. Pending and confirmed are the only creatable
// states; empty means the default.
func requestedReservationStatus(raw string) (store.ReservationStatus, error) {
	if raw == "" {
		return store.ReservationPending, nil
	}
	status, err := store.ParseReservationStatus(raw)
	if err != nil {
		return "", err
	}
	if status != store.ReservationPending && status != store.ReservationConfirmed {
		return "", fmt.Errorf("reservations cannot be created as %s", status)
	}
	return status, nil
}

func (h *Handler) ReservationCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	authCtx, ok := middleware.GetAuthContext(ctx)
	if !ok {
		response.Error(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authorization token required")
		return
	}

	var payload createReservationPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_PAYLOAD", "Invalid request body")
		return
	}

	status, err := requestedReservationStatus(payload.Status)
	if err != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_STATUS", err.Error())
		return
	}

	res, err := h.Reservations.Create(ctx, store.CreateReservationParams{
		TableID:  payload.TableID,
		UserID:   authCtx.UserID,
		StartsAt: payload.ReservationDate,
		Guests:   payload.NumberOfGuests,
		Status:   status,
	})
	if err != nil {
		switch {
		case errors.Is(err, store.ErrInvalidItem):
			response.Error(w, http.StatusBadRequest, "INVALID_PAYLOAD", err.Error())
		case errors.Is(err, store.ErrPastReservation):
			response.Error(w, http.StatusBadRequest, "RESERVATION_IN_PAST", "Reservation time must be in the future")
		case errors.Is(err, store.ErrNotFound):
			response.Error(w, http.StatusNotFound, "TABLE_NOT_FOUND", "Table not found")
		case errors.Is(err, store.ErrTableBooked):
			response.Error(w, http.StatusConflict, "TABLE_BOOKED", "Table is already booked for this time")
		default:
			h.Logger.Error("reservation create failed", zap.Error(err))
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create reservation")
		}
		return
	}

	response.Created(w, res, "Reservation created")
}

func (h *Handler) ReservationsMy(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	authCtx, ok := middleware.GetAuthContext(ctx)
	if !ok {
		response.Error(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authorization token required")
		return
	}

	reservations, err := h.Reservations.List(ctx, store.ReservationFilter{UserID: authCtx.UserID})
	if err != nil {
		h.Logger.Error("reservation list failed", zap.String("userId", authCtx.UserID), zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to retrieve reservations")
		return
	}
	response.Success(w, reservations, "")
}

func (h *Handler) ReservationsList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	filter := store.ReservationFilter{
		Date:  q.Get("date"),
		Month: q.Get("month"),
		Year:  q.Get("year"),
	}
	reservations, err := h.Reservations.List(ctx, filter)
	if err != nil {
		if _, _, _, rangeErr := filter.Range(); rangeErr != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_FILTER", rangeErr.Error())
			return
		}
		h.Logger.Error("reservation list failed", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to retrieve reservations")
		return
	}
	response.Success(w, reservations, "")
}

type updateReservationPayload struct {
	Status string `json:"status"`
}

func (h *Handler) ReservationUpdateStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := readPathInt64(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_ID", "Invalid reservation id")
		return
	}

	var payload updateReservationPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_PAYLOAD", "Invalid request body")
		return
	}
	status, err := store.ParseReservationStatus(payload.Status)
	if err != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_STATUS", err.Error())
		return
	}

	res, overridden, err := h.Reservations.UpdateStatus(ctx, id, status)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			response.Error(w, http.StatusNotFound, "RESERVATION_NOT_FOUND", "Reservation not found")
		case errors.Is(err, store.ErrIllegalTransition):
			response.Error(w, http.StatusBadRequest, "INVALID_TRANSITION", err.Error())
		default:
			h.Logger.Error("reservation status update failed", zap.Int64("reservationId", id), zap.Error(err))
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to update reservation")
		}
		return
	}
	if overridden {
		h.Logger.Warn("reservation completed by admin override",
			zap.Int64("reservationId", id), zap.String("status", string(status)))
	}

	response.Success(w, res, "Reservation updated")
}

func (h *Handler) ReservationDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := readPathInt64(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_ID", "Invalid reservation id")
		return
	}

	if err := h.Reservations.Delete(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			response.Error(w, http.StatusNotFound, "RESERVATION_NOT_FOUND", "Reservation not found")
			return
		}
		h.Logger.Error("reservation delete failed", zap.Int64("reservationId", id), zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to delete reservation")
		return
	}
	response.Success(w, nil, "Reservation deleted")
}
