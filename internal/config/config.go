package config

import (
	"os"
	"strings"
	"time"
)

type Config struct {
	Env         string
	HTTPAddr    string
	DatabaseURL string
	JWTSecret   string
	ClientURL   string

	RabbitMQURL        string
	RabbitMQWorkerMode string
	RedisAddr          string
	CorsAllowedOrigins []string

	ServiceDuration    time.Duration
	ReconcilerInterval time.Duration
	GatewayTimeout     time.Duration

	CardGatewayURL string
	CardGatewayKey string

	CheckoutGatewayURL    string
	CheckoutGatewayKey    string
	CheckoutWebhookSecret string

	WalletGatewayURL   string
	WalletClientID     string
	WalletClientSecret string

	BankGatewayURL        string
	BankGatewayTmnCode    string
	BankGatewayHashSecret string
	BankGatewayReturnURL  string

	VietQRBankID      string
	VietQRAccountNo   string
	VietQRAccountName string
	VietQRTemplate    string
}

func Load() Config {
	return Config{
		Env:         getEnv("APP_ENV", "development"),
		HTTPAddr:    getEnv("HTTP_ADDR", ":8080"),
		DatabaseURL: getEnv("DATABASE_URL", ""),
		JWTSecret:   getEnv("JWT_SECRET", ""),
		ClientURL:   getEnv("CLIENT_URL", "http://localhost:3000"),

		RabbitMQURL:        getEnv("RABBITMQ_URL", ""),
		RabbitMQWorkerMode: getEnv("RABBITMQ_WORKER_MODE", "daemon"),
		RedisAddr:          getEnv("REDIS_ADDR", ""),
		CorsAllowedOrigins: splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "")),

		ServiceDuration:    getEnvDuration("SERVICE_DURATION", 2*time.Hour),
		ReconcilerInterval: getEnvDuration("RECONCILER_INTERVAL", 60*time.Second),
		GatewayTimeout:     getEnvDuration("GATEWAY_TIMEOUT", 10*time.Second),

		CardGatewayURL: getEnv("CARD_GATEWAY_URL", ""),
		CardGatewayKey: getEnv("CARD_GATEWAY_KEY", ""),

		CheckoutGatewayURL:    getEnv("CHECKOUT_GATEWAY_URL", ""),
		CheckoutGatewayKey:    getEnv("CHECKOUT_GATEWAY_KEY", ""),
		CheckoutWebhookSecret: getEnv("CHECKOUT_WEBHOOK_SECRET", ""),

		WalletGatewayURL:   getEnv("WALLET_GATEWAY_URL", ""),
		WalletClientID:     getEnv("WALLET_CLIENT_ID", ""),
		WalletClientSecret: getEnv("WALLET_CLIENT_SECRET", ""),

		BankGatewayURL:        getEnv("BANK_GATEWAY_URL", "https://sandbox.vnpayment.vn/paymentv2/vpcpay.html"),
		BankGatewayTmnCode:    getEnv("BANK_GATEWAY_TMN_CODE", ""),
		BankGatewayHashSecret: getEnv("BANK_GATEWAY_HASH_SECRET", ""),
		BankGatewayReturnURL:  getEnv("BANK_GATEWAY_RETURN_URL", ""),

		VietQRBankID:      getEnv("VIETQR_BANK_ID", "970422"),
		VietQRAccountNo:   getEnv("VIETQR_ACCOUNT_NO", ""),
		VietQRAccountName: getEnv("VIETQR_ACCOUNT_NAME", ""),
		VietQRTemplate:    getEnv("VIETQR_TEMPLATE", "compact2"),
	}
}

func getEnv(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func splitCSV(value string) []string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
