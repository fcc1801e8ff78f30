package config

import (
	"os"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies CHASER_* environment variable overrides, and
// returns the final Config. The returned Config has NOT been validated; the
// caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known CHASER_* environment variables and
// overwrites the corresponding Config fields when a variable is set. This
// lets operators inject secrets at deploy time without touching the TOML
// file.
func applyEnvOverrides(cfg *Config) {
	setStr(&cfg.LogLevel, "CHASER_LOG_LEVEL")

	// ── Venue ──
	setStr(&cfg.Venue.BaseURL, "CHASER_VENUE_BASE_URL")
	setStr(&cfg.Venue.APIKey, "CHASER_VENUE_API_KEY")
	setStr(&cfg.Venue.APISecret, "CHASER_VENUE_API_SECRET")
	setStr(&cfg.Venue.Pair, "CHASER_VENUE_PAIR")

	// ── Fx ──
	setStr(&cfg.Fx.BaseURL, "CHASER_FX_BASE_URL")
	setDecimal(&cfg.Fx.Margin, "CHASER_FX_MARGIN")

	// ── Trading ──
	setDecimal(&cfg.Trading.PriceAcceptabilityRatio, "CHASER_TRADING_PRICE_ACCEPTABILITY_RATIO")
	setDecimal(&cfg.Trading.PriceAddition, "CHASER_TRADING_PRICE_ADDITION")
	setDecimal(&cfg.Trading.MaxPrice, "CHASER_TRADING_MAX_PRICE")
	setDecimal(&cfg.Trading.MinOrderVolume, "CHASER_TRADING_MIN_ORDER_VOLUME")

	// ── Notify ──
	setStr(&cfg.Notify.TelegramToken, "CHASER_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "CHASER_NOTIFY_TELEGRAM_CHAT_ID")
}

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setDecimal(dst *decimal.Decimal, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := decimal.NewFromString(v); err == nil {
			*dst = d
		}
	}
}
