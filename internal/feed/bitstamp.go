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

const defaultBitstampURL = "https://www.bitstamp.net/api/v2"

// Bitstamp reads the best bid from the Bitstamp public ticker.
type Bitstamp struct {
	baseURL string
	client  *http.Client
}

// NewBitstamp creates a Bitstamp feed. An empty baseURL uses the production
// API.
func NewBitstamp(baseURL string) *Bitstamp {
	if baseURL == "" {
		baseURL = defaultBitstampURL
	}
	return &Bitstamp{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  newHTTPClient(),
	}
}

func (b *Bitstamp) Name() string { return "bitstamp" }

func (b *Bitstamp) BestBidPrice(ctx context.Context, pair domain.Pair) (decimal.Decimal, error) {
	symbol := strings.ToLower(pair.Base + pair.Quote)
	body, err := getJSON(ctx, b.client, fmt.Sprintf("%s/ticker/%s/", b.baseURL, symbol))
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("bitstamp: %w", err)
	}

	var resp struct {
		Bid string `json:"bid"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return decimal.Decimal{}, fmt.Errorf("bitstamp: decode ticker: %w", err)
	}
	bid, err := decimal.NewFromString(resp.Bid)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("bitstamp: parse bid %q: %w", resp.Bid, err)
	}
	return bid, nil
}
