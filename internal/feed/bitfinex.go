package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/quantfield/chaser/internal/domain"
)

const defaultBitfinexURL = "https://api.bitfinex.com/v1"

// Bitfinex reads the best bid from the Bitfinex public ticker.
type Bitfinex struct {
	baseURL string
	client  *http.Client
}

// NewBitfinex creates a Bitfinex feed. An empty baseURL uses the production
// API.
func NewBitfinex(baseURL string) *Bitfinex {
	if baseURL == "" {
		baseURL = defaultBitfinexURL
	}
	return &Bitfinex{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  newHTTPClient(),
	}
}

func (b *Bitfinex) Name() string { return "bitfinex" }

func (b *Bitfinex) BestBidPrice(ctx context.Context, pair domain.Pair) (decimal.Decimal, error) {
	symbol := strings.ToLower(pair.Base + pair.Quote)
	body, err := getJSON(ctx, b.client, fmt.Sprintf("%s/pubticker/%s", b.baseURL, symbol))
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("bitfinex: %w", err)
	}

	var resp struct {
		Bid string `json:"bid"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return decimal.Decimal{}, fmt.Errorf("bitfinex: decode ticker: %w", err)
	}
	bid, err := decimal.NewFromString(resp.Bid)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("bitfinex: parse bid %q: %w", resp.Bid, err)
	}
	return bid, nil
}
