package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the application configuration loaded from files and environment variables.
type Config struct {
	AppName          string        `mapstructure:"app_name"`
	Env              string        `mapstructure:"app_env"`
	LogLevel         string        `mapstructure:"log_level"`
	PaymentBaseURL   string        `mapstructure:"payment_base_url"`
	PaymentTimeoutMS int64         `mapstructure:"payment_timeout_ms"`
	PaymentTimeout   time.Duration `mapstructure:"-"`
	NotifiersFile    string        `mapstructure:"notifiers_file"`

	ReceiptsType            string        `mapstructure:"receipts_type"`
	ReceiptsPath            string        `mapstructure:"receipts_path"`
	ReceiptsTTLSeconds      int64         `mapstructure:"receipts_ttl_seconds"`
	ReceiptsCleanupSeconds  int64         `mapstructure:"receipts_cleanup_interval_seconds"`
	ReceiptsTTL             time.Duration `mapstructure:"-"`
	ReceiptsCleanupInterval time.Duration `mapstructure:"-"`
}

// Load reads configuration from environment variables and config files.
func Load() (*Config, error) {
	_ = godotenv.Load("configs/.env")

	v := viper.New()

	v.SetDefault("app_name", "reach-paymentctl")
	v.SetDefault("app_env", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("payment_base_url", "http://localhost:8084")
	v.SetDefault("payment_timeout_ms", 10000)
	v.SetDefault("notifiers_file", "./configs/notifiers.yaml")
	v.SetDefault("receipts_type", "bbolt")
	v.SetDefault("receipts_path", "./data/receipts.db")
	v.SetDefault("receipts_ttl_seconds", int64((30*24*time.Hour)/time.Second))
	v.SetDefault("receipts_cleanup_interval_seconds", int64((24*time.Hour)/time.Second))

	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.PaymentBaseURL = strings.TrimSpace(cfg.PaymentBaseURL)
	if cfg.PaymentBaseURL == "" {
		return nil, fmt.Errorf("payment_base_url must not be empty")
	}
	if cfg.PaymentTimeoutMS <= 0 {
		return nil, fmt.Errorf("invalid payment_timeout_ms (must be positive milliseconds)")
	}
	cfg.PaymentTimeout = time.Duration(cfg.PaymentTimeoutMS) * time.Millisecond

	if cfg.ReceiptsTTLSeconds <= 0 {
		return nil, fmt.Errorf("invalid receipts_ttl_seconds (must be positive seconds)")
	}
	if cfg.ReceiptsCleanupSeconds <= 0 {
		return nil, fmt.Errorf("invalid receipts_cleanup_interval_seconds (must be positive seconds)")
	}
	cfg.ReceiptsTTL = time.Duration(cfg.ReceiptsTTLSeconds) * time.Second
	cfg.ReceiptsCleanupInterval = time.Duration(cfg.ReceiptsCleanupSeconds) * time.Second

	return &cfg, nil
}
