package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"

	"github.com/quantfield/chaser/internal/domain"
)

const (
	defaultBinanceWSURL = "wss://stream.binance.com:9443/ws"

	handshakeTimeout  = 15 * time.Second
	reconnectDelay    = 2 * time.Second
	maxReconnectDelay = 60 * time.Second
)

// BinanceStream consumes the Binance bookTicker websocket stream and caches
// the most recent best bid. Unlike the REST feeds it keeps its own long-lived
// connection; Run must be started for BestBidPrice to return data.
type BinanceStream struct {
	wsURL  string
	pair   domain.Pair
	logger *slog.Logger

	bid atomic.Pointer[decimal.Decimal]
}

// NewBinanceStream creates a streaming feed for pair. An empty wsURL uses the
// production endpoint.
func NewBinanceStream(wsURL string, pair domain.Pair, logger *slog.Logger) *BinanceStream {
	if wsURL == "" {
		wsURL = defaultBinanceWSURL
	}
	return &BinanceStream{
		wsURL: strings.TrimRight(wsURL, "/"),
		pair:  pair,
		logger: logger.With(
			slog.String("component", "feed"),
			slog.String("feed", "binance"),
		),
	}
}

func (s *BinanceStream) Name() string { return "binance" }

// BestBidPrice returns the last streamed best bid. It never blocks on the
// network; before the first message it reports the feed as unavailable and
// the poller keeps the source empty.
func (s *BinanceStream) BestBidPrice(_ context.Context, pair domain.Pair) (decimal.Decimal, error) {
	if pair != s.pair {
		return decimal.Decimal{}, fmt.Errorf("binance: stream subscribed to %s, not %s", s.pair, pair)
	}
	bid := s.bid.Load()
	if bid == nil {
		return decimal.Decimal{}, fmt.Errorf("binance: no book ticker received yet")
	}
	return *bid, nil
}

// Run maintains the websocket connection until ctx is cancelled, reconnecting
// with capped exponential backoff.
func (s *BinanceStream) Run(ctx context.Context) error {
	delay := reconnectDelay
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := s.consume(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		s.logger.Warn("stream disconnected, reconnecting",
			slog.String("error", err.Error()),
			slog.Duration("delay", delay),
		)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		delay *= 2
		if delay > maxReconnectDelay {
			delay = maxReconnectDelay
		}
	}
}

// bookTicker is the Binance bookTicker stream payload.
type bookTicker struct {
	Symbol string `json:"s"`
	Bid    string `json:"b"`
}

func (s *BinanceStream) consume(ctx context.Context) error {
	symbol := strings.ToLower(s.pair.Base + s.pair.Quote)
	url := fmt.Sprintf("%s/%s@bookTicker", s.wsURL, symbol)

	dialer := websocket.Dialer{HandshakeTimeout: handshakeTimeout}
	conn, _, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		return fmt.Errorf("binance: connect: %w", err)
	}
	defer conn.Close()
	s.logger.Info("stream connected", slog.String("url", url))

	// Unblock the read loop when ctx is cancelled.
	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("binance: read: %w", err)
		}

		var tick bookTicker
		if err := json.Unmarshal(message, &tick); err != nil {
			s.logger.Warn("skipping malformed message", slog.String("error", err.Error()))
			continue
		}
		if tick.Bid == "" {
			continue
		}
		bid, err := decimal.NewFromString(tick.Bid)
		if err != nil {
			s.logger.Warn("skipping unparseable bid", slog.String("bid", tick.Bid))
			continue
		}
		s.bid.Store(&bid)
	}
}
