package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"restaurant-order-service/internal/middleware"
	"restaurant-order-service/internal/payment"
	"restaurant-order-service/internal/store"
	"restaurant-order-service/pkg/response"

	"go.uber.org/zap"
)

type createOrderPayload struct {
	OrderItems    []store.OrderItem `json:"orderItems"`
	TotalPrice    int64             `json:"totalPrice"`
	PaymentMethod string            `json:"paymentMethod"`
}

func (h *Handler) OrderCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	authCtx, ok := middleware.GetAuthContext(ctx)
	if !ok {
		response.Error(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authorization token required")
		return
	}

	var payload createOrderPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_PAYLOAD", "Invalid request body")
		return
	}
	// Cash orders credit stock at creation, which only the cod flow does.
	if payload.PaymentMethod == "cash" {
		response.Error(w, http.StatusBadRequest, "USE_COD_ENDPOINT", "Cash orders must be created through /api/payments/cod")
		return
	}

	order, err := h.Orders.Create(ctx, store.CreateOrderParams{
		UserID:        authCtx.UserID,
		Items:         payload.OrderItems,
		TotalPrice:    payload.TotalPrice,
		PaymentMethod: payload.PaymentMethod,
	})
	if err != nil {
		switch {
		case errors.Is(err, store.ErrEmptyOrder), errors.Is(err, store.ErrInvalidItem):
			response.Error(w, http.StatusBadRequest, "INVALID_PAYLOAD", err.Error())
		default:
			h.Logger.Error("order create failed", zap.String("userId", authCtx.UserID), zap.Error(err))
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create order")
		}
		return
	}

	response.Created(w, order, "Order created")
}

func (h *Handler) OrdersMy(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	authCtx, ok := middleware.GetAuthContext(ctx)
	if !ok {
		response.Error(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authorization token required")
		return
	}

	page, limit := readPagination(r)
	orders, err := h.Orders.ListForUser(ctx, authCtx.UserID, page, limit)
	if err != nil {
		h.Logger.Error("order list failed", zap.String("userId", authCtx.UserID), zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to retrieve orders")
		return
	}
	response.Success(w, orders, "")
}

func (h *Handler) OrdersList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	page, limit := readPagination(r)

	orders, err := h.Orders.ListAll(ctx, page, limit)
	if err != nil {
		h.Logger.Error("order list failed", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to retrieve orders")
		return
	}
	response.Success(w, orders, "")
}

func (h *Handler) OrderGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	authCtx, ok := middleware.GetAuthContext(ctx)
	if !ok {
		response.Error(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authorization token required")
		return
	}

	id, err := readPathInt64(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_ID", "Invalid order id")
		return
	}

	order, err := h.Orders.Get(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			response.Error(w, http.StatusNotFound, "ORDER_NOT_FOUND", "Order not found")
			return
		}
		h.Logger.Error("order lookup failed", zap.Int64("orderId", id), zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to retrieve order")
		return
	}
	if !authCtx.IsAdmin && order.UserID != authCtx.UserID {
		response.Error(w, http.StatusForbidden, "FORBIDDEN", "Not your order")
		return
	}
	response.Success(w, order, "")
}

type updateOrderPayload struct {
	Status string `json:"status"`
}

func (h *Handler) OrderUpdateStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := readPathInt64(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_ID", "Invalid order id")
		return
	}

	var payload updateOrderPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_PAYLOAD", "Invalid request body")
		return
	}
	status, err := store.ParseOrderStatus(payload.Status)
	if err != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_STATUS", err.Error())
		return
	}

	order, err := h.Orders.UpdateStatus(ctx, id, status)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			response.Error(w, http.StatusNotFound, "ORDER_NOT_FOUND", "Order not found")
			return
		}
		h.Logger.Error("order status update failed", zap.Int64("orderId", id), zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to update order")
		return
	}
	response.Success(w, order, "Order updated")
}

// OrderConfirmPayment is the manual settlement path: an admin checked the
// bank statement (QR transfers) or the cash drawer and confirms the order was
// paid. It goes through the same engine as every provider callback, so a
// manual confirm racing a webhook still credits stock once.
func (h *Handler) OrderConfirmPayment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := readPathInt64(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_ID", "Invalid order id")
		return
	}

	order, err := h.Orders.Get(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			response.Error(w, http.StatusNotFound, "ORDER_NOT_FOUND", "Order not found")
			return
		}
		h.Logger.Error("order lookup failed", zap.Int64("orderId", id), zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to retrieve order")
		return
	}

	applied, err := h.Engine.Apply(ctx, payment.Outcome{
		Provider: providerForMethod(order.PaymentMethod),
		OrderID:  order.ID,
		Amount:   order.TotalPrice,
		Status:   payment.OutcomeSucceeded,
		PaidAt:   time.Now(),
	})
	if err != nil {
		h.Logger.Error("manual payment confirm failed", zap.Int64("orderId", id), zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to confirm payment")
		return
	}

	order, err = h.Orders.Get(ctx, id)
	if err != nil {
		h.Logger.Error("order reload failed", zap.Int64("orderId", id), zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to retrieve order")
		return
	}
	if applied {
		response.Success(w, order, "Payment confirmed")
		return
	}
	response.Success(w, order, "Order was already paid")
}

func providerForMethod(method string) payment.Provider {
	switch method {
	case "card":
		return payment.ProviderCard
	case "checkout":
		return payment.ProviderCheckout
	case "wallet":
		return payment.ProviderWallet
	case "bank_redirect":
		return payment.ProviderBank
	case "qr_transfer":
		return payment.ProviderQR
	default:
		return payment.ProviderCash
	}
}

func (h *Handler) OrderDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := readPathInt64(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_ID", "Invalid order id")
		return
	}

	if err := h.Orders.Delete(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			response.Error(w, http.StatusNotFound, "ORDER_NOT_FOUND", "Order not found")
			return
		}
		h.Logger.Error("order delete failed", zap.Int64("orderId", id), zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to delete order")
		return
	}
	response.Success(w, nil, "Order deleted")
}
