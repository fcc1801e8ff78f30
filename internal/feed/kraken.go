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

const defaultKrakenURL = "https://api.kraken.com/0/public"

// Kraken reads the best bid from the Kraken public ticker.
type Kraken struct {
	baseURL string
	client  *http.Client
}

// NewKraken creates a Kraken feed. An empty baseURL uses the production API.
func NewKraken(baseURL string) *Kraken {
	if baseURL == "" {
		baseURL = defaultKrakenURL
	}
	return &Kraken{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  newHTTPClient(),
	}
}

func (k *Kraken) Name() string { return "kraken" }

// krakenTicker is the per-pair ticker payload; b is [price, whole lot volume,
// lot volume].
type krakenTicker struct {
	Bid []string `json:"b"`
}

func (k *Kraken) BestBidPrice(ctx context.Context, pair domain.Pair) (decimal.Decimal, error) {
	symbol := krakenSymbol(pair)
	body, err := getJSON(ctx, k.client, fmt.Sprintf("%s/Ticker?pair=%s", k.baseURL, symbol))
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("kraken: %w", err)
	}

	var resp struct {
		Error  []string                `json:"error"`
		Result map[string]krakenTicker `json:"result"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return decimal.Decimal{}, fmt.Errorf("kraken: decode ticker: %w", err)
	}
	if len(resp.Error) > 0 {
		return decimal.Decimal{}, fmt.Errorf("kraken: api error: %s", strings.Join(resp.Error, "; "))
	}

	// The result key is Kraken's internal pair name; with a single requested
	// pair there is exactly one entry.
	for _, ticker := range resp.Result {
		if len(ticker.Bid) == 0 {
			return decimal.Decimal{}, fmt.Errorf("kraken: ticker for %s has no bid", symbol)
		}
		bid, err := decimal.NewFromString(ticker.Bid[0])
		if err != nil {
			return decimal.Decimal{}, fmt.Errorf("kraken: parse bid %q: %w", ticker.Bid[0], err)
		}
		return bid, nil
	}
	return decimal.Decimal{}, fmt.Errorf("kraken: no ticker for %s", symbol)
}

// krakenSymbol maps a pair to Kraken's naming, which spells bitcoin XBT.
func krakenSymbol(pair domain.Pair) string {
	base := strings.ToUpper(pair.Base)
	if base == "BTC" {
		base = "XBT"
	}
	return base + strings.ToUpper(pair.Quote)
}
