package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"restaurant-order-service/internal/store"
	"restaurant-order-service/pkg/response"

	"go.uber.org/zap"
)

func (h *Handler) MenuList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	items, err := h.Menu.List(ctx)
	if err != nil {
		h.Logger.Error("menu list failed", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to retrieve menu")
		return
	}
	response.Success(w, items, "")
}

func (h *Handler) MenuGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := readPathInt64(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_ID", "Invalid menu item id")
		return
	}

	item, err := h.Menu.Get(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			response.Error(w, http.StatusNotFound, "MENU_ITEM_NOT_FOUND", "Menu item not found")
			return
		}
		h.Logger.Error("menu item lookup failed", zap.Int64("menuItemId", id), zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to retrieve menu item")
		return
	}
	response.Success(w, item, "")
}

type createMenuItemPayload struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Price       int64    `json:"price"`
	Category    string   `json:"category"`
	ImageURLs   []string `json:"imageUrls"`
	Stock       int32    `json:"stock"`
}

func (h *Handler) MenuCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var payload createMenuItemPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_PAYLOAD", "Invalid request body")
		return
	}

	item, err := h.Menu.Create(ctx, store.CreateMenuItemParams{
		Name:        payload.Name,
		Description: payload.Description,
		Price:       payload.Price,
		Category:    payload.Category,
		ImageURLs:   payload.ImageURLs,
		Stock:       payload.Stock,
	})
	if err != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_PAYLOAD", err.Error())
		return
	}
	response.Created(w, item, "Menu item created")
}

type updateMenuItemPayload struct {
	Name        *string  `json:"name"`
	Description *string  `json:"description"`
	Price       *int64   `json:"price"`
	Category    *string  `json:"category"`
	ImageURLs   []string `json:"imageUrls"`
	Stock       *int32   `json:"stock"`
	Sold        *int32   `json:"sold"`
}

func (h *Handler) MenuUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := readPathInt64(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_ID", "Invalid menu item id")
		return
	}

	var payload updateMenuItemPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_PAYLOAD", "Invalid request body")
		return
	}

	item, err := h.Menu.Update(ctx, id, store.UpdateMenuItemParams{
		Name:        payload.Name,
		Description: payload.Description,
		Price:       payload.Price,
		Category:    payload.Category,
		ImageURLs:   payload.ImageURLs,
		Stock:       payload.Stock,
		Sold:        payload.Sold,
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			response.Error(w, http.StatusNotFound, "MENU_ITEM_NOT_FOUND", "Menu item not found")
			return
		}
		h.Logger.Error("menu item update failed", zap.Int64("menuItemId", id), zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to update menu item")
		return
	}
	response.Success(w, item, "Menu item updated")
}

func (h *Handler) MenuDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := readPathInt64(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_ID", "Invalid menu item id")
		return
	}

	if err := h.Menu.Delete(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			response.Error(w, http.StatusNotFound, "MENU_ITEM_NOT_FOUND", "Menu item not found")
			return
		}
		h.Logger.Error("menu item delete failed", zap.Int64("menuItemId", id), zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to delete menu item")
		return
	}
	response.Success(w, nil, "Menu item deleted")
}
