package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// TradingMode selects where approved orders go.
type TradingMode string

const (
	ModePaper   TradingMode = "PAPER"
	ModeTestnet TradingMode = "TESTNET"
	ModeLive    TradingMode = "LIVE"
)

// ErrMissingCredentials is returned when a broker mode has no API key pair.
var ErrMissingCredentials = errors.New("missing exchange credentials")

// Config holds environment-driven settings for the signal engine.
type Config struct {
	Port       string `validate:"required,numeric"`
	HealthAddr string

	TradingMode TradingMode `validate:"oneof=PAPER TESTNET LIVE"`
	LogLevel    string      `validate:"oneof=trace debug info warn error"`
	LogFile     string
	Language    string `validate:"oneof=en zh"`

	// Binance
	Symbols                 []string `validate:"min=1,dive,required,uppercase"`
	BinanceAPIKey           string
	BinanceAPISecret        string
	BinanceTestnetAPIKey    string
	BinanceTestnetAPISecret string
	StreamURL               string
	UseMockFeed             bool
	WarmupKlines            int `validate:"gte=0,lte=1000"`
	WarmupInterval          string

	// Ingestion
	LivenessTimeout  time.Duration `validate:"gt=0"`
	ReconnectInitial time.Duration `validate:"gt=0"`
	ReconnectMax     time.Duration `validate:"gtefield=ReconnectInitial"`

	// Statistics
	HistoryCapacity   int `validate:"gte=20"`
	CorrelationWindow int `validate:"gte=10"`

	// Risk
	MaxPositionSizeUSD    float64 `validate:"gt=0"`
	MaxDrawdownPct        float64 `validate:"gt=0,lt=1"`
	StartingEquity        float64 `validate:"gt=0"`
	TargetRisk            float64 `validate:"gt=0"`
	FloorVolatility       float64 `validate:"gt=0"`
	DefaultVolatility     float64 `validate:"gt=0"`
	UseRealizedVolatility bool

	// Strategies
	StrategiesFile string

	// Execution
	PaperFeeRate  float64 `validate:"gte=0,lt=0.1"` // decimal (e.g. 0.0004 = 4 bps)
	ExecWorkers   int     `validate:"gte=1"`
	ExecQueueSize int     `validate:"gte=1"`

	// Journal
	DBPath        string
	EnableJournal bool

	// Notifications
	TelegramBotToken string
	TelegramChatID   string
}

// Load reads environment variables (optionally via .env) into Config.
func Load() (*Config, error) {
	// Ignore error so the app still starts when .env is missing.
	_ = godotenv.Load()

	cfg := &Config{
		Port:                    getEnv("PORT", "8080"),
		HealthAddr:              getEnv("HEALTH_ADDR", ":9091"),
		TradingMode:             TradingMode(strings.ToUpper(getEnv("TRADING_MODE", string(ModePaper)))),
		LogLevel:                strings.ToLower(getEnv("LOG_LEVEL", "info")),
		LogFile:                 os.Getenv("LOG_FILE"),
		Language:                getEnv("LANGUAGE", "en"),
		Symbols:                 splitAndTrim(strings.ToUpper(getEnv("BINANCE_SYMBOLS", "BTCUSDT,ETHUSDT,SOLUSDT,BNBUSDT,XRPUSDT"))),
		BinanceAPIKey:           os.Getenv("BINANCE_API_KEY"),
		BinanceAPISecret:        os.Getenv("BINANCE_API_SECRET"),
		BinanceTestnetAPIKey:    os.Getenv("BINANCE_TESTNET_API_KEY"),
		BinanceTestnetAPISecret: os.Getenv("BINANCE_TESTNET_API_SECRET"),
		StreamURL:               os.Getenv("STREAM_URL"),
		UseMockFeed:             getEnv("USE_MOCK_FEED", "false") == "true",
		WarmupKlines:            getEnvInt("WARMUP_KLINES", 100),
		WarmupInterval:          getEnv("WARMUP_INTERVAL", "1m"),
		LivenessTimeout:         getEnvDuration("LIVENESS_TIMEOUT", 20*time.Second),
		ReconnectInitial:        getEnvDuration("RECONNECT_INITIAL", 5*time.Second),
		ReconnectMax:            getEnvDuration("RECONNECT_MAX", 60*time.Second),
		HistoryCapacity:         getEnvInt("HISTORY_CAPACITY", 500),
		CorrelationWindow:       getEnvInt("CORRELATION_WINDOW", 50),
		MaxPositionSizeUSD:      getEnvFloat("MAX_POSITION_SIZE_USD", 1000),
		MaxDrawdownPct:          getEnvFloat("MAX_DRAWDOWN_PCT", 0.05),
		StartingEquity:          getEnvFloat("STARTING_EQUITY", 10000),
		TargetRisk:              getEnvFloat("TARGET_RISK", 0.02),
		FloorVolatility:         getEnvFloat("FLOOR_VOLATILITY", 0.01),
		DefaultVolatility:       getEnvFloat("DEFAULT_VOLATILITY", 0.01),
		UseRealizedVolatility:   getEnv("USE_REALIZED_VOLATILITY", "false") == "true",
		StrategiesFile:          getEnv("STRATEGIES_FILE", "strategies.yaml"),
		PaperFeeRate:            getEnvFloat("PAPER_FEE_RATE", 0.0004),
		ExecWorkers:             getEnvInt("EXEC_WORKERS", 4),
		ExecQueueSize:           getEnvInt("EXEC_QUEUE_SIZE", 200),
		DBPath:                  getEnv("DB_PATH", "./data/signal-core.db"),
		EnableJournal:           getEnv("ENABLE_JOURNAL", "true") == "true",
		TelegramBotToken:        os.Getenv("TELEGRAM_BOT_TOKEN"),
		TelegramChatID:          os.Getenv("TELEGRAM_CHAT_ID"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field constraints and broker credentials.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.TradingMode != ModePaper {
		key, secret := c.Credentials()
		if key == "" || secret == "" {
			return fmt.Errorf("%s mode: %w", c.TradingMode, ErrMissingCredentials)
		}
	}
	return nil
}

// Credentials returns the key pair matching the trading mode.
func (c *Config) Credentials() (key, secret string) {
	if c.TradingMode == ModeTestnet {
		return c.BinanceTestnetAPIKey, c.BinanceTestnetAPISecret
	}
	return c.BinanceAPIKey, c.BinanceAPISecret
}

// Testnet reports whether exchange endpoints should point at the testnet.
func (c *Config) Testnet() bool { return c.TradingMode == ModeTestnet }

// Masked returns a copy safe to print.
func (c Config) Masked() Config {
	c.BinanceAPIKey = mask(c.BinanceAPIKey)
	c.BinanceAPISecret = mask(c.BinanceAPISecret)
	c.BinanceTestnetAPIKey = mask(c.BinanceTestnetAPIKey)
	c.BinanceTestnetAPISecret = mask(c.BinanceTestnetAPISecret)
	c.TelegramBotToken = mask(c.TelegramBotToken)
	return c
}

func mask(s string) string {
	if len(s) <= 4 {
		if s == "" {
			return ""
		}
		return "****"
	}
	return s[:4] + strings.Repeat("*", len(s)-4)
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

func getEnvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
