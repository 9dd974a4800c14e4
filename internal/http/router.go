package httpapi

import (
	"net/http"
	"time"

	"restaurant-order-service/internal/http/handlers"
	"restaurant-order-service/internal/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

func NewRouter(h *handlers.Handler) http.Handler {
	cfg := h.Config
	r := chi.NewRouter()
	r.Use(requestLogger(h.Logger))
	r.Use(middleware.RequestID())

	if cfg.Env == "development" || len(cfg.CorsAllowedOrigins) > 0 {
		options := cors.Options{
			AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{
				"Accept",
				"Authorization",
				"Content-Type",
				"X-Requested-With",
				"Cache-Control",
				"Pragma",
			},
			AllowCredentials: true,
			MaxAge:           300,
		}

		if cfg.Env == "development" {
			options.AllowOriginFunc = func(_ *http.Request, origin string) bool {
				return true
			}
		} else {
			options.AllowedOrigins = cfg.CorsAllowedOrigins
		}

		r.Use(cors.Handler(options))
	}

	r.Get("/api/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	// Provider callbacks carry their own authentication (signatures), never
	// a bearer token.
	r.Post("/api/payments/checkout/webhook", h.PaymentCheckoutWebhook)
	r.Get("/api/payments/gateway/return", h.PaymentGatewayReturn)

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.RequireUser(cfg.JWTSecret))

		r.Route("/reservations", func(r chi.Router) {
			r.Post("/", h.ReservationCreate)
			r.Get("/my", h.ReservationsMy)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAdmin())
				r.Get("/", h.ReservationsList)
				r.Put("/{id}", h.ReservationUpdateStatus)
				r.Delete("/{id}", h.ReservationDelete)
			})
		})

		r.Route("/tables", func(r chi.Router) {
			r.Get("/available", h.TablesAvailable)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAdmin())
				r.Get("/", h.TablesList)
				r.Post("/create", h.TableCreate)
				r.Put("/{id}", h.TableUpdate)
				r.Delete("/{id}", h.TableDelete)
			})
		})

		r.Route("/menu", func(r chi.Router) {
			r.Get("/", h.MenuList)
			r.Get("/{id}", h.MenuGet)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAdmin())
				r.Post("/create", h.MenuCreate)
				r.Put("/{id}", h.MenuUpdate)
				r.Delete("/{id}", h.MenuDelete)
			})
		})

		r.Route("/orders", func(r chi.Router) {
			r.Post("/create", h.OrderCreate)
			r.Get("/myorders", h.OrdersMy)
			r.Get("/{id}", h.OrderGet)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAdmin())
				r.Get("/", h.OrdersList)
				r.Put("/confirm-payment/{id}", h.OrderConfirmPayment)
				r.Put("/{id}", h.OrderUpdateStatus)
				r.Delete("/{id}", h.OrderDelete)
			})
		})

		r.Route("/payments", func(r chi.Router) {
			r.Post("/card", h.PaymentCard)
			r.Post("/checkout", h.PaymentCheckoutCreate)
			r.Post("/checkout/confirm", h.PaymentCheckoutConfirm)
			r.Post("/wallet", h.PaymentWallet)
			r.Post("/qr", h.PaymentQR)
			r.Post("/cod", h.PaymentCOD)
			r.Post("/gateway", h.PaymentRedirectCreate)
		})
	})

	return r
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)
			logger.Info("",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", rec.status),
				zap.Duration("duration", time.Since(start)),
			)
		})
	}
}
