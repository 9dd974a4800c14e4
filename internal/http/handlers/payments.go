package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"restaurant-order-service/internal/middleware"
	"restaurant-order-service/internal/payment"
	"restaurant-order-service/internal/store"
	"restaurant-order-service/pkg/response"

	"go.uber.org/zap"
)

type cardPaymentPayload struct {
	CardToken  string            `json:"cardToken"`
	OrderItems []store.OrderItem `json:"orderItems"`
	TotalPrice int64             `json:"totalPrice"`
}

// PaymentCard is the synchronous rail: the charge happens first and the order
// is only created once the provider said yes.
func (h *Handler) PaymentCard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	authCtx, ok := middleware.GetAuthContext(ctx)
	if !ok {
		response.Error(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authorization token required")
		return
	}

	var payload cardPaymentPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_PAYLOAD", "Invalid request body")
		return
	}
	if payload.CardToken == "" {
		response.Error(w, http.StatusBadRequest, "CARD_TOKEN_REQUIRED", "cardToken is required")
		return
	}

	charge, err := h.Card.Charge(ctx, payload.CardToken, payload.TotalPrice, "Restaurant order for "+authCtx.Email)
	if err != nil {
		h.Logger.Error("card charge failed", zap.String("userId", authCtx.UserID), zap.Error(err))
		response.Error(w, http.StatusBadGateway, "GATEWAY_ERROR", "Card provider is unavailable")
		return
	}
	if !charge.Succeeded {
		response.Error(w, http.StatusPaymentRequired, "PAYMENT_FAILED", "Card was declined")
		return
	}

	order, err := h.Orders.Create(ctx, store.CreateOrderParams{
		UserID:        authCtx.UserID,
		Items:         payload.OrderItems,
		TotalPrice:    payload.TotalPrice,
		PaymentMethod: "card",
	})
	if err != nil {
		// The charge went through but the order did not. Surface loudly so
		// support can refund against the transaction id.
		h.Logger.Error("order create failed after successful charge",
			zap.String("userId", authCtx.UserID),
			zap.String("transactionId", charge.TransactionID),
			zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create order")
		return
	}

	if _, err := h.Engine.Apply(ctx, payment.Outcome{
		Provider:      payment.ProviderCard,
		OrderID:       order.ID,
		Amount:        payload.TotalPrice,
		Status:        payment.OutcomeSucceeded,
		TransactionID: charge.TransactionID,
		PaidAt:        time.Now(),
	}); err != nil {
		h.Logger.Error("card payment reconcile failed", zap.Int64("orderId", order.ID), zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to confirm payment")
		return
	}

	order, err = h.Orders.Get(ctx, order.ID)
	if err != nil {
		h.Logger.Error("order reload failed", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to retrieve order")
		return
	}
	response.Created(w, order, "Payment successful")
}

type checkoutCreatePayload struct {
	OrderItems []store.OrderItem `json:"orderItems"`
	TotalPrice int64             `json:"totalPrice"`
}

func (h *Handler) PaymentCheckoutCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	authCtx, ok := middleware.GetAuthContext(ctx)
	if !ok {
		response.Error(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authorization token required")
		return
	}

	var payload checkoutCreatePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_PAYLOAD", "Invalid request body")
		return
	}

	order, err := h.Orders.Create(ctx, store.CreateOrderParams{
		UserID:        authCtx.UserID,
		Items:         payload.OrderItems,
		TotalPrice:    payload.TotalPrice,
		PaymentMethod: "checkout",
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

	lineItems := make([]payment.SessionLineItem, 0, len(payload.OrderItems))
	for _, item := range payload.OrderItems {
		name := fmt.Sprintf("Item #%d", item.MenuItemID)
		if menuItem, err := h.Menu.Get(ctx, item.MenuItemID); err == nil {
			name = menuItem.Name
		}
		lineItems = append(lineItems, payment.SessionLineItem{
			Name:      name,
			UnitPrice: item.UnitPrice,
			Quantity:  item.Quantity,
		})
	}

	session, err := h.Checkout.CreateSession(ctx, order.ID, authCtx.Email, payload.TotalPrice, lineItems)
	if err != nil {
		h.Logger.Error("checkout session create failed", zap.Int64("orderId", order.ID), zap.Error(err))
		response.Error(w, http.StatusBadGateway, "GATEWAY_ERROR", "Checkout provider is unavailable")
		return
	}

	response.Created(w, map[string]any{
		"order":       order,
		"sessionId":   session.ID,
		"checkoutUrl": session.CheckoutURL,
	}, "Checkout session created")
}

type checkoutConfirmPayload struct {
	OrderID   int64  `json:"orderId"`
	SessionID string `json:"sessionId"`
}

// PaymentCheckoutConfirm is the client half of the checkout race. The session
// is verified with the provider before anything is applied, so a forged
// confirm call cannot mark an order paid.
func (h *Handler) PaymentCheckoutConfirm(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var payload checkoutConfirmPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_PAYLOAD", "Invalid request body")
		return
	}
	if payload.SessionID == "" || payload.OrderID == 0 {
		response.Error(w, http.StatusBadRequest, "INVALID_PAYLOAD", "orderId and sessionId are required")
		return
	}

	status, err := h.Checkout.RetrieveSession(ctx, payload.SessionID)
	if err != nil {
		h.Logger.Error("checkout session verify failed", zap.String("sessionId", payload.SessionID), zap.Error(err))
		response.Error(w, http.StatusBadGateway, "GATEWAY_ERROR", "Checkout provider is unavailable")
		return
	}
	if !status.Paid() {
		response.Error(w, http.StatusPaymentRequired, "PAYMENT_NOT_COMPLETED", "Session is not paid")
		return
	}

	order, err := h.Orders.Get(ctx, payload.OrderID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			response.Error(w, http.StatusNotFound, "ORDER_NOT_FOUND", "Order not found")
			return
		}
		h.Logger.Error("order lookup failed", zap.Int64("orderId", payload.OrderID), zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to retrieve order")
		return
	}

	if _, err := h.Engine.Apply(ctx, payment.Outcome{
		Provider:      payment.ProviderCheckout,
		OrderID:       order.ID,
		Amount:        order.TotalPrice,
		Status:        payment.OutcomeSucceeded,
		TransactionID: payload.SessionID,
		PaidAt:        time.Now(),
	}); err != nil {
		h.Logger.Error("checkout confirm reconcile failed", zap.Int64("orderId", order.ID), zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to confirm payment")
		return
	}

	order, err = h.Orders.Get(ctx, order.ID)
	if err != nil {
		h.Logger.Error("order reload failed", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to retrieve order")
		return
	}
	response.Success(w, order, "Payment confirmed")
}

// PaymentCheckoutWebhook is the provider half of the checkout race. It is a
// public route; the HMAC signature is the only authentication.
func (h *Handler) PaymentCheckoutWebhook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_PAYLOAD", "Failed to read body")
		return
	}

	event, err := h.Checkout.ParseWebhook(body, r.Header.Get(payment.SignatureHeader))
	if err != nil {
		if errors.Is(err, payment.ErrBadSignature) {
			h.Logger.Warn("checkout webhook rejected", zap.String("ip", clientIP(r)))
			response.Error(w, http.StatusBadRequest, "INVALID_SIGNATURE", "Webhook signature verification failed")
			return
		}
		response.Error(w, http.StatusBadRequest, "INVALID_PAYLOAD", "Invalid webhook payload")
		return
	}

	if event.Type != payment.EventCheckoutCompleted || event.Data.PaymentStatus != "paid" {
		response.Success(w, map[string]bool{"received": true}, "")
		return
	}

	if _, err := h.Engine.Apply(ctx, payment.Outcome{
		Provider:      payment.ProviderCheckout,
		OrderID:       event.Data.OrderID,
		Amount:        event.Data.Amount,
		Status:        payment.OutcomeSucceeded,
		TransactionID: event.Data.SessionID,
		PaidAt:        time.Now(),
	}); err != nil {
		// Non-2xx makes the provider retry the delivery.
		h.Logger.Error("checkout webhook reconcile failed", zap.Int64("orderId", event.Data.OrderID), zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to apply payment")
		return
	}
	response.Success(w, map[string]bool{"received": true}, "")
}

type walletPaymentPayload struct {
	ProviderOrderID string            `json:"providerOrderId"`
	OrderItems      []store.OrderItem `json:"orderItems"`
	TotalPrice      int64             `json:"totalPrice"`
}

// PaymentWallet captures a wallet order the client already approved.
func (h *Handler) PaymentWallet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	authCtx, ok := middleware.GetAuthContext(ctx)
	if !ok {
		response.Error(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authorization token required")
		return
	}

	var payload walletPaymentPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_PAYLOAD", "Invalid request body")
		return
	}
	if payload.ProviderOrderID == "" {
		response.Error(w, http.StatusBadRequest, "PROVIDER_ORDER_REQUIRED", "providerOrderId is required")
		return
	}

	capture, err := h.Wallet.Capture(ctx, payload.ProviderOrderID)
	if err != nil {
		h.Logger.Error("wallet capture failed", zap.String("providerOrderId", payload.ProviderOrderID), zap.Error(err))
		response.Error(w, http.StatusBadGateway, "GATEWAY_ERROR", "Wallet provider is unavailable")
		return
	}
	if !capture.Completed() {
		response.Error(w, http.StatusPaymentRequired, "PAYMENT_FAILED", "Wallet capture was not completed")
		return
	}

	order, err := h.Orders.Create(ctx, store.CreateOrderParams{
		UserID:        authCtx.UserID,
		Items:         payload.OrderItems,
		TotalPrice:    payload.TotalPrice,
		PaymentMethod: "wallet",
	})
	if err != nil {
		h.Logger.Error("order create failed after wallet capture",
			zap.String("userId", authCtx.UserID),
			zap.String("transactionId", capture.TransactionID),
			zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create order")
		return
	}

	if _, err := h.Engine.Apply(ctx, payment.Outcome{
		Provider:      payment.ProviderWallet,
		OrderID:       order.ID,
		Amount:        payload.TotalPrice,
		Status:        payment.OutcomeSucceeded,
		TransactionID: capture.TransactionID,
		PaidAt:        time.Now(),
	}); err != nil {
		h.Logger.Error("wallet payment reconcile failed", zap.Int64("orderId", order.ID), zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to confirm payment")
		return
	}

	order, err = h.Orders.Get(ctx, order.ID)
	if err != nil {
		h.Logger.Error("order reload failed", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to retrieve order")
		return
	}
	response.Created(w, order, "Payment successful")
}

type qrPaymentPayload struct {
	OrderItems []store.OrderItem `json:"orderItems"`
	TotalPrice int64             `json:"totalPrice"`
}

// PaymentQR creates a confirmed but unpaid order and hands the customer a
// transfer QR. Settlement happens when an admin matches the incoming
// transfer and calls the confirm-payment route.
func (h *Handler) PaymentQR(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	authCtx, ok := middleware.GetAuthContext(ctx)
	if !ok {
		response.Error(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authorization token required")
		return
	}

	var payload qrPaymentPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_PAYLOAD", "Invalid request body")
		return
	}

	order, err := h.Orders.Create(ctx, store.CreateOrderParams{
		UserID:        authCtx.UserID,
		Items:         payload.OrderItems,
		TotalPrice:    payload.TotalPrice,
		PaymentMethod: "qr_transfer",
		Status:        store.OrderConfirmed,
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

	note := payment.TransferNote(order.OrderNumber)
	response.Created(w, map[string]any{
		"order":        order,
		"qrImageUrl":   h.QR.BuildImageURL(payload.TotalPrice, note),
		"transferNote": note,
	}, "Order created, awaiting transfer")
}

type codPaymentPayload struct {
	OrderItems []store.OrderItem `json:"orderItems"`
	TotalPrice int64             `json:"totalPrice"`
}

// PaymentCOD accounts stock at creation. Cash orders have no provider event
// to wait for, so the sold credit happens exactly here and nowhere else.
func (h *Handler) PaymentCOD(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	authCtx, ok := middleware.GetAuthContext(ctx)
	if !ok {
		response.Error(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authorization token required")
		return
	}

	var payload codPaymentPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_PAYLOAD", "Invalid request body")
		return
	}

	order, err := h.Orders.Create(ctx, store.CreateOrderParams{
		UserID:        authCtx.UserID,
		Items:         payload.OrderItems,
		TotalPrice:    payload.TotalPrice,
		PaymentMethod: "cash",
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

	if err := h.Orders.IncrementSold(ctx, order.ID); err != nil {
		h.Logger.Error("sold credit failed for cash order", zap.Int64("orderId", order.ID), zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to account order stock")
		return
	}

	response.Created(w, order, "Order created, pay on delivery")
}

type redirectPaymentPayload struct {
	OrderItems []store.OrderItem `json:"orderItems"`
	TotalPrice int64             `json:"totalPrice"`
}

func (h *Handler) PaymentRedirectCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	authCtx, ok := middleware.GetAuthContext(ctx)
	if !ok {
		response.Error(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authorization token required")
		return
	}

	var payload redirectPaymentPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_PAYLOAD", "Invalid request body")
		return
	}

	order, err := h.Orders.Create(ctx, store.CreateOrderParams{
		UserID:        authCtx.UserID,
		Items:         payload.OrderItems,
		TotalPrice:    payload.TotalPrice,
		PaymentMethod: "bank_redirect",
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

	payURL := h.Redirect.BuildPayURL(order.ID, payload.TotalPrice,
		"Thanh toan don hang "+order.OrderNumber, clientIP(r))

	response.Created(w, map[string]any{
		"order":  order,
		"payUrl": payURL,
	}, "Redirect to the payment gateway")
}

// PaymentGatewayReturn is where the bank redirects the customer's browser
// after payment. It is public; the signed query string is the only
// authentication. The browser always ends up back on the storefront.
func (h *Handler) PaymentGatewayReturn(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	result, err := h.Redirect.VerifyReturn(r.URL.Query())
	if err != nil {
		h.Logger.Warn("gateway return rejected", zap.String("ip", clientIP(r)), zap.Error(err))
		http.Redirect(w, r, h.Config.ClientURL+"/payment-result?status=invalid_signature", http.StatusFound)
		return
	}

	status := payment.OutcomeFailed
	if result.Succeeded {
		status = payment.OutcomeSucceeded
	}
	if _, err := h.Engine.Apply(ctx, payment.Outcome{
		Provider:      payment.ProviderBank,
		OrderID:       result.OrderID,
		Amount:        result.Amount,
		Status:        status,
		TransactionID: result.TransactionID,
		ResponseCode:  result.ResponseCode,
		BankCode:      result.BankCode,
		PaidAt:        time.Now(),
	}); err != nil {
		h.Logger.Error("gateway return reconcile failed", zap.Int64("orderId", result.OrderID), zap.Error(err))
		http.Redirect(w, r, h.Config.ClientURL+"/payment-result?status=error", http.StatusFound)
		return
	}

	outcome := "failed"
	if result.Succeeded {
		outcome = "success"
	}
	target := fmt.Sprintf("%s/payment-result?orderId=%d&status=%s&code=%s",
		h.Config.ClientURL, result.OrderID, outcome, result.ResponseCode)
	http.Redirect(w, r, target, http.StatusFound)
}
