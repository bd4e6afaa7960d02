// Package config loads environment-driven settings for the execution core,
// following the teacher repo's pkg/config (.env via godotenv, plain
// os.Getenv with typed defaults, no hot-reload).
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds everything the composition root needs at startup. Values load
// once; there is no hot-reload.
type Config struct {
	// Lagger venue credentials
	LaggerAPIKey    string
	LaggerAPISecret string

	// Lagger venue endpoints
	LaggerRESTBaseURL string
	LaggerWSURL       string

	// Instrument
	Asset          string
	ProductID      int
	ProductSymbol  string
	Leverage       float64
	OrderSize      float64
	TickSize       float64
	LotSize        float64
	PriceDecimals  int
	SizeDecimals   int

	// Strategy thresholds
	PriceThreshold      float64
	UrgencyWindow       time.Duration
	CooldownSeconds     time.Duration
	TakeProfitOffset    float64
	StopLossOffset      float64
	TrailingAmount      float64
	SlippageOffset      float64
	PriceAggression     float64
	TimeInForce         string

	// Connection discipline
	ReconnectInterval       time.Duration
	PingInterval            time.Duration
	HeartbeatTimeout        time.Duration
	CancelOnDisconnectSecs  int

	// Leader venues to ingest from, e.g. "bybit,binance_futures,okx,gateio,bitget"
	LeaderVenues []string

	// Local control-plane
	ControlPort      string
	ControlJWTSecret string

	// Asset instrument metadata file
	AssetConfigPath string

	// Optional external strategy process (gRPC)
	StrategyGRPCAddr string
	UseGRPCStrategy  bool
}

// Load reads environment variables (optionally via .env) into Config.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		LaggerAPIKey:      os.Getenv("LAGGER_API_KEY"),
		LaggerAPISecret:   os.Getenv("LAGGER_API_SECRET"),
		LaggerRESTBaseURL: getEnv("LAGGER_REST_BASE_URL", "https://api.lagger.example/v2"),
		LaggerWSURL:       getEnv("LAGGER_WS_URL", "wss://ws.lagger.example/v2/live"),

		Asset:         getEnv("ASSET", "BTC"),
		ProductID:     getEnvInt("PRODUCT_ID", 0),
		ProductSymbol: getEnv("PRODUCT_SYMBOL", "BTC-PERP"),
		Leverage:      getEnvFloat("LEVERAGE", 1.0),
		OrderSize:     getEnvFloat("ORDER_SIZE", 0.001),
		TickSize:      getEnvFloat("TICK_SIZE", 0.5),
		LotSize:       getEnvFloat("LOT_SIZE", 0.001),
		PriceDecimals: getEnvInt("PRICE_DECIMALS", 1),
		SizeDecimals:  getEnvInt("SIZE_DECIMALS", 3),

		PriceThreshold:   getEnvFloat("PRICE_THRESHOLD", 2.0),
		UrgencyWindow:    getEnvDuration("URGENCY_WINDOW_MS", 1000*time.Millisecond, time.Millisecond),
		CooldownSeconds:  getEnvDuration("COOLDOWN_SECONDS", 30*time.Second, time.Second),
		TakeProfitOffset: getEnvFloat("TAKE_PROFIT_OFFSET", 100.0),
		StopLossOffset:   getEnvFloat("STOP_LOSS_OFFSET", 50.0),
		TrailingAmount:   getEnvFloat("TRAILING_AMOUNT", 0.0),
		SlippageOffset:   getEnvFloat("SLIPPAGE_OFFSET", 0.0),
		PriceAggression:  getEnvFloat("PRICE_AGGRESSION_OFFSET", 0.0),
		TimeInForce:      getEnv("TIME_IN_FORCE", "GTC"),

		ReconnectInterval:      getEnvDuration("RECONNECT_INTERVAL_SECONDS", 5*time.Second, time.Second),
		PingInterval:           getEnvDuration("PING_INTERVAL_SECONDS", 30*time.Second, time.Second),
		HeartbeatTimeout:       getEnvDuration("HEARTBEAT_TIMEOUT_SECONDS", 40*time.Second, time.Second),
		CancelOnDisconnectSecs: getEnvInt("CANCEL_ON_DISCONNECT_SECONDS", 60),

		LeaderVenues: splitAndTrim(getEnv("LEADER_VENUES", "bybit,binance_futures,okx,gateio,bitget")),

		ControlPort:      getEnv("CONTROL_PORT", "8082"),
		ControlJWTSecret: getEnv("CONTROL_JWT_SECRET", ""),

		AssetConfigPath: getEnv("ASSET_CONFIG_PATH", "./assets.yaml"),

		StrategyGRPCAddr: getEnv("STRATEGY_GRPC_ADDR", ""),
		UseGRPCStrategy:  getEnv("USE_GRPC_STRATEGY", "false") == "true",
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate enforces the fatal-at-startup error class: missing credentials or
// required instrument configuration must exit nonzero with a plain message,
// never start a half-configured session.
func (c *Config) validate() error {
	if c.LaggerAPIKey == "" || c.LaggerAPISecret == "" {
		return fmt.Errorf("config: LAGGER_API_KEY and LAGGER_API_SECRET are required")
	}
	if c.ProductID == 0 {
		return fmt.Errorf("config: PRODUCT_ID is required")
	}
	if c.Asset == "" {
		return fmt.Errorf("config: ASSET is required")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func splitAndTrim(val string) []string {
	parts := strings.Split(val, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func getEnvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getEnvDuration(key string, def time.Duration, unit time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return time.Duration(i) * unit
		}
	}
	return def
}
