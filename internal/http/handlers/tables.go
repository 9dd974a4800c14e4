package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"restaurant-order-service/internal/store"
	"restaurant-order-service/internal/timewindow"
	"restaurant-order-service/pkg/response"

	"go.uber.org/zap"
)

func (h *Handler) TablesList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tables, err := h.Tables.List(ctx)
	if err != nil {
		h.Logger.Error("table list failed", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to retrieve tables")
		return
	}
	response.Success(w, tables, "")
}

// TablesAvailable answers "which tables are free for a party arriving at T".
// The requested instant is expanded to the full service window before the
// overlap check.
func (h *Handler) TablesAvailable(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	raw := r.URL.Query().Get("reservationDate")
	if raw == "" {
		response.Error(w, http.StatusBadRequest, "RESERVATION_DATE_REQUIRED", "reservationDate query parameter is required")
		return
	}
	from, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_RESERVATION_DATE", "reservationDate must be RFC3339")
		return
	}
	to := timewindow.DeriveEnd(from, h.Config.ServiceDuration)

	tables, err := h.Tables.ListAvailable(ctx, from, to)
	if err != nil {
		h.Logger.Error("available table lookup failed", zap.Time("from", from), zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to retrieve available tables")
		return
	}
	response.Success(w, tables, "")
}

type createTablePayload struct {
	TableNumber int32  `json:"tableNumber"`
	Capacity    int32  `json:"capacity"`
	Location    string `json:"location"`
	Status      string `json:"status"`
}

func (h *Handler) TableCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var payload createTablePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_PAYLOAD", "Invalid request body")
		return
	}
	if payload.TableNumber < 1 || payload.Capacity < 1 {
		response.Error(w, http.StatusBadRequest, "INVALID_PAYLOAD", "tableNumber and capacity must be positive")
		return
	}

	status := store.TableStatus("")
	if payload.Status != "" {
		parsed, err := store.ParseTableStatus(payload.Status)
		if err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_STATUS", err.Error())
			return
		}
		status = parsed
	}

	table, err := h.Tables.Create(ctx, payload.TableNumber, payload.Capacity, payload.Location, status)
	if err != nil {
		h.Logger.Error("table create failed", zap.Int32("tableNumber", payload.TableNumber), zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create table")
		return
	}
	response.Created(w, table, "Table created")
}

type updateTablePayload struct {
	TableNumber *int32  `json:"tableNumber"`
	Capacity    *int32  `json:"capacity"`
	Location    *string `json:"location"`
	Status      *string `json:"status"`
}

func (h *Handler) TableUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := readPathInt64(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_ID", "Invalid table id")
		return
	}

	var payload updateTablePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_PAYLOAD", "Invalid request body")
		return
	}

	params := store.UpdateTableParams{
		TableNumber: payload.TableNumber,
		Capacity:    payload.Capacity,
		Location:    payload.Location,
	}
	if payload.Status != nil {
		parsed, err := store.ParseTableStatus(*payload.Status)
		if err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_STATUS", err.Error())
			return
		}
		params.Status = &parsed
	}

	table, err := h.Tables.Update(ctx, id, params)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			response.Error(w, http.StatusNotFound, "TABLE_NOT_FOUND", "Table not found")
			return
		}
		h.Logger.Error("table update failed", zap.Int64("tableId", id), zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to update table")
		return
	}
	response.Success(w, table, "Table updated")
}

func (h *Handler) TableDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := readPathInt64(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_ID", "Invalid table id")
		return
	}

	if err := h.Tables.Delete(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			response.Error(w, http.StatusNotFound, "TABLE_NOT_FOUND", "Table not found")
			return
		}
		h.Logger.Error("table delete failed", zap.Int64("tableId", id), zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to delete table")
		return
	}
	response.Success(w, nil, "Table deleted")
}
