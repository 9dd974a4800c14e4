package handlers

import (
	"restaurant-order-service/internal/config"
	"restaurant-order-service/internal/payment"
	"restaurant-order-service/internal/queue"
	"restaurant-order-service/internal/store"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type Handler struct {
	DB     *pgxpool.Pool
	Logger *zap.Logger
	Config config.Config
	Queue  *queue.Client

	Reservations *store.ReservationStore
	Tables       *store.TableStore
	Menu         *store.MenuStore
	Orders       *store.OrderStore

	Engine   *payment.Engine
	Card     *payment.CardGateway
	Checkout *payment.CheckoutGateway
	Wallet   *payment.WalletGateway
	Redirect *payment.RedirectGateway
	QR       *payment.QRGateway
}
