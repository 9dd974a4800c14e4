package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"restaurant-order-service/internal/cache"
	"restaurant-order-service/internal/config"
	"restaurant-order-service/internal/db"
	httpapi "restaurant-order-service/internal/http"
	"restaurant-order-service/internal/http/handlers"
	"restaurant-order-service/internal/logger"
	"restaurant-order-service/internal/payment"
	"restaurant-order-service/internal/queue"
	"restaurant-order-service/internal/reconciler"
	"restaurant-order-service/internal/store"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	log, err := logger.New(cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal("database connection failed", zap.Error(err))
	}
	defer pool.Close()

	var queueClient *queue.Client
	if cfg.RabbitMQURL != "" {
		qc, err := queue.New(cfg.RabbitMQURL)
		if err != nil {
			if cfg.Env == "production" {
				log.Fatal("rabbitmq connection failed", zap.Error(err))
			}
			log.Warn("rabbitmq connection failed; continuing without events", zap.Error(err))
			qc = nil
		}
		if qc != nil {
			if err := queue.EnsureEventTopology(ctx, qc); err != nil {
				if cfg.Env == "production" {
					log.Fatal("rabbitmq topology failed", zap.Error(err))
				}
				log.Warn("rabbitmq topology failed; continuing without events", zap.Error(err))
				_ = qc.Close()
				qc = nil
			}
		}

		queueClient = qc
		if qc != nil {
			defer qc.Close()
		}

		if queueClient != nil {
			if cfg.RabbitMQWorkerMode == "daemon" {
				log.Info("notification worker enabled", zap.String("queue", queue.NotificationsQueue))
				go func() {
					err := queueClient.ConsumeWithRetry(queue.NotificationsQueue, func(ctx context.Context, body []byte) error {
						return queue.ProcessEvent(ctx, pool, body)
					}, 5, 5*time.Second)
					if err != nil {
						log.Error("consumer stopped", zap.Error(err))
					}
				}()
			} else {
				log.Info("notification worker disabled", zap.String("mode", cfg.RabbitMQWorkerMode))
			}
		}
	} else {
		log.Info("event publishing disabled (RABBITMQ_URL is empty)")
	}

	var deduper payment.Deduper
	if cfg.RedisAddr != "" {
		redisClient, err := cache.New(ctx, cfg.RedisAddr)
		if err != nil {
			if cfg.Env == "production" {
				log.Fatal("redis connection failed", zap.Error(err))
			}
			log.Warn("redis connection failed; payment dedup cache disabled", zap.Error(err))
		} else {
			defer redisClient.Close()
			deduper = redisClient
		}
	} else {
		log.Info("payment dedup cache disabled (REDIS_ADDR is empty)")
	}

	reservations := store.NewReservationStore(pool, cfg.ServiceDuration)
	tables := store.NewTableStore(pool)
	menu := store.NewMenuStore(pool)
	orders := store.NewOrderStore(pool)

	var publisher payment.Publisher
	if queueClient != nil {
		publisher = queueClient
	}
	engine := &payment.Engine{
		Ledger:    orders,
		Publisher: publisher,
		Deduper:   deduper,
		Logger:    log,
		Exchange:  queue.EventsExchange,
	}

	sweeper := reconciler.New(
		reconciler.SweepStore{Reservations: reservations, Tables: tables},
		publisher,
		log,
		cfg.ReconcilerInterval,
		queue.EventsExchange,
	)
	go sweeper.Run(ctx)

	h := &handlers.Handler{
		DB:     pool,
		Logger: log,
		Config: cfg,
		Queue:  queueClient,

		Reservations: reservations,
		Tables:       tables,
		Menu:         menu,
		Orders:       orders,

		Engine:   engine,
		Card:     payment.NewCardGateway(cfg.CardGatewayURL, cfg.CardGatewayKey, cfg.GatewayTimeout),
		Checkout: payment.NewCheckoutGateway(cfg.CheckoutGatewayURL, cfg.CheckoutGatewayKey, cfg.CheckoutWebhookSecret, cfg.ClientURL, cfg.GatewayTimeout),
		Wallet:   payment.NewWalletGateway(cfg.WalletGatewayURL, cfg.WalletClientID, cfg.WalletClientSecret, cfg.GatewayTimeout),
		Redirect: payment.NewRedirectGateway(cfg.BankGatewayURL, cfg.BankGatewayTmnCode, cfg.BankGatewayHashSecret, cfg.BankGatewayReturnURL),
		QR:       payment.NewQRGateway(cfg.VietQRBankID, cfg.VietQRAccountNo, cfg.VietQRAccountName, cfg.VietQRTemplate),
	}

	apiServer := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      httpapi.NewRouter(h),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("restaurant api ready", zap.String("base", "/api"))
		log.Info("restaurant service listening", zap.String("addr", cfg.HTTPAddr))
		if err := apiServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("http server failed", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	cancel()

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := apiServer.Shutdown(ctxShutdown); err != nil {
		log.Error("http server shutdown failed", zap.Error(err))
	}
}
