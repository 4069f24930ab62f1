package pumpbot

import (
	"errors"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pumpwatch/pumpbot/scraper"
	"github.com/pumpwatch/pumpbot/solana"
)

// Config holds the bot configuration
// Structured using composition for better organization and maintainability
type Config struct {
	// Token is the Telegram bot token (required)
	Token string

	// Debug enables verbose logging in both the bot and the Telegram client
	Debug bool

	// Security holds abuse-prevention settings
	Security SecurityConfig

	// Scraper holds pump.fun board fetch settings
	Scraper ScraperConfig

	// RPC holds Solana lookup settings
	RPC RPCConfig

	// StatsLogInterval is how often the periodic security stats line is
	// emitted. Default: 10 minutes.
	StatsLogInterval time.Duration

	// Logger for structured logging (optional, uses default if not provided)
	Logger *slog.Logger
}

// SecurityConfig holds abuse-prevention settings. Text commands and inline
// button callbacks carry separate limits; button presses are cheaper to spam,
// so their default budget is tighter.
type SecurityConfig struct {
	// CommandMaxRequests is the per-user request budget for text commands
	// within CommandWindow. Default: 5.
	CommandMaxRequests int

	// CommandWindow is the sliding window for text commands. Default: 1 minute.
	CommandWindow time.Duration

	// CallbackMaxRequests is the per-user budget for inline button presses
	// within CallbackWindow. Default: 3.
	CallbackMaxRequests int

	// CallbackWindow is the sliding window for button presses. Default: 1 minute.
	CallbackWindow time.Duration

	// MaxTrackedUsers bounds how many users have live activity records.
	// Zero uses the security package default.
	MaxTrackedUsers int

	// Retention is how long an idle user's record is kept.
	// Zero uses the security package default.
	Retention time.Duration

	// SweepInterval is how often idle records are swept.
	// Zero uses the security package default.
	SweepInterval time.Duration

	// EnableAuditLogging enables structured security audit events
	// (blocks, rate-limit hits, suspicion flags).
	EnableAuditLogging bool
}

// ScraperConfig holds pump.fun board fetch settings
type ScraperConfig struct {
	// BoardURL overrides the board endpoint (optional)
	BoardURL string

	// Timeout is the per-fetch HTTP timeout. Default: 30 seconds.
	Timeout time.Duration
}

// RPCConfig holds Solana lookup settings
type RPCConfig struct {
	// URL overrides the JSON-RPC endpoint (optional)
	URL string

	// ProgramID overrides the looked-up program account (optional)
	ProgramID string

	// CacheTTL is how long lookups stay cached. Default: 5 minutes.
	CacheTTL time.Duration
}

// Defaults for SecurityConfig and StatsLogInterval.
const (
	DefaultCommandMaxRequests  = 5
	DefaultCommandWindow       = time.Minute
	DefaultCallbackMaxRequests = 3
	DefaultCallbackWindow      = time.Minute
	DefaultStatsLogInterval    = 10 * time.Minute
)

// ErrMissingToken is returned by Validate when no bot token is configured
var ErrMissingToken = errors.New("TELEGRAM_BOT_TOKEN is required")

// ConfigFromEnv builds a Config from environment variables. Unset variables
// leave the corresponding field at its zero value so defaults apply.
//
// Recognized variables: TELEGRAM_BOT_TOKEN, DEBUG, PUMP_FUN_URL,
// SOLANA_RPC_URL, SOLANA_PROGRAM_ID, STATS_LOG_INTERVAL,
// SECURITY_AUDIT_LOGGING.
func ConfigFromEnv() *Config {
	cfg := &Config{
		Token: os.Getenv("TELEGRAM_BOT_TOKEN"),
		Debug: envBool("DEBUG"),
		Security: SecurityConfig{
			EnableAuditLogging: envBoolDefault("SECURITY_AUDIT_LOGGING", true),
		},
		Scraper: ScraperConfig{
			BoardURL: os.Getenv("PUMP_FUN_URL"),
		},
		RPC: RPCConfig{
			URL:       os.Getenv("SOLANA_RPC_URL"),
			ProgramID: os.Getenv("SOLANA_PROGRAM_ID"),
		},
	}

	if v := os.Getenv("STATS_LOG_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.StatsLogInterval = d
		}
	}

	return cfg
}

// Validate checks that required configuration is present
func (c *Config) Validate() error {
	if c.Token == "" {
		return ErrMissingToken
	}
	return nil
}

// applyDefaults fills unset fields in place
func (c *Config) applyDefaults() {
	if c.Security.CommandMaxRequests <= 0 {
		c.Security.CommandMaxRequests = DefaultCommandMaxRequests
	}
	if c.Security.CommandWindow <= 0 {
		c.Security.CommandWindow = DefaultCommandWindow
	}
	if c.Security.CallbackMaxRequests <= 0 {
		c.Security.CallbackMaxRequests = DefaultCallbackMaxRequests
	}
	if c.Security.CallbackWindow <= 0 {
		c.Security.CallbackWindow = DefaultCallbackWindow
	}
	if c.StatsLogInterval <= 0 {
		c.StatsLogInterval = DefaultStatsLogInterval
	}
	if c.Scraper.Timeout <= 0 {
		c.Scraper.Timeout = scraper.DefaultTimeout
	}
	if c.RPC.CacheTTL <= 0 {
		c.RPC.CacheTTL = solana.DefaultCacheTTL
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

func envBool(name string) bool {
	return strings.EqualFold(os.Getenv(name), "true")
}

func envBoolDefault(name string, def bool) bool {
	v := os.Getenv(name)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}
