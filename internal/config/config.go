// Package config defines the bot configuration and its validation. Values are
// read from a TOML file and can be overridden by CHASER_* environment
// variables. All monetary knobs are decimal strings; they never pass through
// binary floating point.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/quantfield/chaser/internal/domain"
)

// Config is the root configuration structure.
type Config struct {
	Venue     VenueConfig     `toml:"venue"`
	Reference ReferenceConfig `toml:"reference"`
	Feeds     []FeedConfig    `toml:"feeds"`
	Fx        FxConfig        `toml:"fx"`
	Trading   TradingConfig   `toml:"trading"`
	Retry     RetryConfig     `toml:"retry"`
	Notify    NotifyConfig    `toml:"notify"`
	LogLevel  string          `toml:"log_level"`
}

// VenueConfig holds the target venue endpoint, credentials and traded pair.
type VenueConfig struct {
	BaseURL   string `toml:"base_url"`
	APIKey    string `toml:"api_key"`
	APISecret string `toml:"api_secret"`
	Pair      string `toml:"pair"` // e.g. "BTC/USD"
}

// ReferenceConfig describes the reference price computation.
type ReferenceConfig struct {
	// Pair is the instrument quoted by the external feeds; it may differ from
	// the venue pair in quote currency, in which case FX conversion applies.
	Pair              string   `toml:"pair"`
	RecomputeInterval duration `toml:"recompute_interval"`
	StalenessWindow   duration `toml:"staleness_window"`
}

// FeedConfig is one external reference venue. Name selects the binding:
// kraken, bitfinex, bitstamp, or binance (websocket).
type FeedConfig struct {
	Name         string   `toml:"name"`
	BaseURL      string   `toml:"base_url"` // empty = production endpoint
	PollInterval duration `toml:"poll_interval"`
}

// FxConfig configures the FX rate refresher used when the venue pair and the
// reference pair settle in different currencies.
type FxConfig struct {
	BaseURL         string          `toml:"base_url"`
	RefreshInterval duration        `toml:"refresh_interval"`
	StalenessWindow duration        `toml:"staleness_window"`
	Margin          decimal.Decimal `toml:"margin"`
}

// TradingConfig holds the trading core knobs.
type TradingConfig struct {
	PriceAcceptabilityRatio decimal.Decimal `toml:"price_acceptability_ratio"`
	PriceScale              int32           `toml:"price_scale"`
	VolumeScale             int32           `toml:"volume_scale"`
	PriceAddition           decimal.Decimal `toml:"price_addition"`
	MaxPrice                decimal.Decimal `toml:"max_price"` // "0" = unlimited
	StepToMove              decimal.Decimal `toml:"step_to_move"`
	VolumeToMove            decimal.Decimal `toml:"volume_to_move"`
	Sensitivity             decimal.Decimal `toml:"sensitivity"`
	OrderCheckInterval      duration        `toml:"order_check_interval"`
	InterCycleWait          duration        `toml:"inter_cycle_wait"`
	MinOrderVolume          decimal.Decimal `toml:"min_order_volume"`
}

// RetryConfig holds the remote-call retry delays.
type RetryConfig struct {
	TransientDelay duration `toml:"transient_delay"`
	RateLimitDelay duration `toml:"rate_limit_delay"`
}

// NotifyConfig holds notification channel credentials.
type NotifyConfig struct {
	TelegramToken  string `toml:"telegram_token"`
	TelegramChatID string `toml:"telegram_chat_id"`
}

// duration is a wrapper around time.Duration that supports TOML string
// decoding (e.g. "5m", "30s").
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler so the TOML decoder can
// parse duration strings like "5m" or "30s".
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Defaults returns the built-in configuration. The trading knobs mirror the
// conservative stock values the bot has always shipped with.
func Defaults() Config {
	return Config{
		LogLevel: "info",
		Venue: VenueConfig{
			Pair: "BTC/USD",
		},
		Reference: ReferenceConfig{
			Pair:              "BTC/USD",
			RecomputeInterval: duration{2 * time.Second},
			StalenessWindow:   duration{10 * time.Second},
		},
		Feeds: []FeedConfig{
			{Name: "kraken", PollInterval: duration{6 * time.Second}},
			{Name: "bitfinex", PollInterval: duration{6 * time.Second}},
			{Name: "bitstamp", PollInterval: duration{6 * time.Second}},
		},
		Fx: FxConfig{
			RefreshInterval: duration{60 * time.Second},
			StalenessWindow: duration{5 * time.Minute},
			Margin:          decimal.RequireFromString("1"),
		},
		Trading: TradingConfig{
			PriceAcceptabilityRatio: decimal.RequireFromString("1.01"),
			PriceScale:              5,
			VolumeScale:             4,
			PriceAddition:           decimal.RequireFromString("0.01"),
			MaxPrice:                decimal.Zero,
			StepToMove:              decimal.RequireFromString("0.001"),
			VolumeToMove:            decimal.RequireFromString("0.05"),
			Sensitivity:             decimal.RequireFromString("5"),
			OrderCheckInterval:      duration{5 * time.Second},
			InterCycleWait:          duration{5 * time.Minute},
			MinOrderVolume:          decimal.RequireFromString("0.1"),
		},
		Retry: RetryConfig{
			TransientDelay: duration{10 * time.Second},
			RateLimitDelay: duration{60 * time.Second},
		},
	}
}

// Validate checks the configuration for internal consistency. It returns a
// single error naming every violation.
func (c *Config) Validate() error {
	var errs []string

	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	if c.Venue.BaseURL == "" {
		errs = append(errs, "venue: base_url must not be empty")
	}
	if c.Venue.APIKey == "" || c.Venue.APISecret == "" {
		errs = append(errs, "venue: api_key and api_secret must both be set")
	}
	if _, err := ParsePair(c.Venue.Pair); err != nil {
		errs = append(errs, fmt.Sprintf("venue: %v", err))
	}
	if _, err := ParsePair(c.Reference.Pair); err != nil {
		errs = append(errs, fmt.Sprintf("reference: %v", err))
	}
	if c.Reference.RecomputeInterval.Duration <= 0 {
		errs = append(errs, "reference: recompute_interval must be positive")
	}
	if c.Reference.StalenessWindow.Duration <= 0 {
		errs = append(errs, "reference: staleness_window must be positive")
	}

	if len(c.Feeds) == 0 {
		errs = append(errs, "feeds: at least one reference feed is required")
	}
	seen := map[string]bool{}
	for i, f := range c.Feeds {
		if !validFeeds[f.Name] {
			errs = append(errs, fmt.Sprintf("feeds[%d]: unknown feed %q (valid: kraken, bitfinex, bitstamp, binance)", i, f.Name))
		}
		if seen[f.Name] {
			errs = append(errs, fmt.Sprintf("feeds[%d]: duplicate feed %q", i, f.Name))
		}
		seen[f.Name] = true
		if f.PollInterval.Duration <= 0 {
			errs = append(errs, fmt.Sprintf("feeds[%d]: poll_interval must be positive", i))
		}
	}

	if c.CrossCurrency() {
		if c.Fx.RefreshInterval.Duration <= 0 {
			errs = append(errs, "fx: refresh_interval must be positive")
		}
		if c.Fx.StalenessWindow.Duration <= 0 {
			errs = append(errs, "fx: staleness_window must be positive")
		}
		if c.Fx.Margin.Sign() <= 0 {
			errs = append(errs, "fx: margin must be positive")
		}
	}

	t := c.Trading
	if t.PriceAcceptabilityRatio.Sign() <= 0 {
		errs = append(errs, "trading: price_acceptability_ratio must be positive")
	}
	if t.PriceScale < 0 || t.VolumeScale < 0 {
		errs = append(errs, "trading: price_scale and volume_scale must not be negative")
	}
	if t.PriceAddition.Sign() < 0 {
		errs = append(errs, "trading: price_addition must not be negative")
	}
	if t.MaxPrice.Sign() < 0 {
		errs = append(errs, "trading: max_price must not be negative")
	}
	if t.StepToMove.Sign() <= 0 || t.VolumeToMove.Sign() <= 0 || t.Sensitivity.Sign() <= 0 {
		errs = append(errs, "trading: step_to_move, volume_to_move and sensitivity must be positive")
	}
	if t.OrderCheckInterval.Duration <= 0 {
		errs = append(errs, "trading: order_check_interval must be positive")
	}
	if t.InterCycleWait.Duration <= 0 {
		errs = append(errs, "trading: inter_cycle_wait must be positive")
	}
	if t.MinOrderVolume.Sign() <= 0 {
		errs = append(errs, "trading: min_order_volume must be positive")
	}

	if (c.Notify.TelegramToken == "") != (c.Notify.TelegramChatID == "") {
		errs = append(errs, "notify: telegram_token and telegram_chat_id must be set together")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}

var validLogLevels = map[string]bool{
	"debug": true, "info": true, "warn": true, "error": true,
}

var validFeeds = map[string]bool{
	"kraken": true, "bitfinex": true, "bitstamp": true, "binance": true,
}

// CrossCurrency reports whether the venue and reference pairs settle in
// different quote currencies, requiring FX conversion.
func (c *Config) CrossCurrency() bool {
	venue, err1 := ParsePair(c.Venue.Pair)
	ref, err2 := ParsePair(c.Reference.Pair)
	if err1 != nil || err2 != nil {
		return false
	}
	return !strings.EqualFold(venue.Quote, ref.Quote)
}

// TradingParameters converts the validated config into the immutable
// parameter set the trading core consumes. The FX margin collapses to one
// when no conversion is needed.
func (c *Config) TradingParameters() domain.TradingParameters {
	margin := decimal.NewFromInt(1)
	if c.CrossCurrency() {
		margin = c.Fx.Margin
	}
	return domain.TradingParameters{
		PriceAcceptabilityRatio: c.Trading.PriceAcceptabilityRatio,
		PriceScale:              c.Trading.PriceScale,
		VolumeScale:             c.Trading.VolumeScale,
		PriceAddition:           c.Trading.PriceAddition,
		MaxPrice:                c.Trading.MaxPrice,
		StalenessWindow:         c.Reference.StalenessWindow.Duration,
		RecomputeInterval:       c.Reference.RecomputeInterval.Duration,
		StepToMove:              c.Trading.StepToMove,
		VolumeToMove:            c.Trading.VolumeToMove,
		Sensitivity:             c.Trading.Sensitivity,
		OrderCheckInterval:      c.Trading.OrderCheckInterval.Duration,
		InterCycleWait:          c.Trading.InterCycleWait.Duration,
		MinOrderVolume:          c.Trading.MinOrderVolume,
		FxMargin:                margin,
	}
}

// ParsePair parses "BASE/QUOTE" into a domain.Pair.
func ParsePair(s string) (domain.Pair, error) {
	base, quote, ok := strings.Cut(s, "/")
	if !ok || base == "" || quote == "" {
		return domain.Pair{}, fmt.Errorf("invalid pair %q (expected BASE/QUOTE)", s)
	}
	return domain.Pair{
		Base:  strings.ToUpper(base),
		Quote: strings.ToUpper(quote),
	}, nil
}
