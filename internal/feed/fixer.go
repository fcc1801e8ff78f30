package feed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/quantfield/chaser/internal/domain"
)

const defaultFixerURL = "https://api.fixer.io"

// Fixer is the FX rate provider used for cross-currency normalization of the
// reference price.
type Fixer struct {
	baseURL string
	client  *http.Client
}

// NewFixer creates a Fixer client. An empty baseURL uses the public API.
func NewFixer(baseURL string) *Fixer {
	if baseURL == "" {
		baseURL = defaultFixerURL
	}
	return &Fixer{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  newHTTPClient(),
	}
}

// Rate returns how many units of quote one unit of base buys.
func (f *Fixer) Rate(ctx context.Context, base, quote string) (decimal.Decimal, error) {
	base = strings.ToUpper(base)
	quote = strings.ToUpper(quote)

	body, err := getJSON(ctx, f.client, fmt.Sprintf("%s/latest?base=%s&symbols=%s", f.baseURL, base, quote))
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("fixer: %w", err)
	}

	// Rates arrive as JSON numbers; decode through json.Number so the value
	// never passes through a float.
	var resp struct {
		Rates map[string]json.Number `json:"rates"`
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&resp); err != nil {
		return decimal.Decimal{}, fmt.Errorf("fixer: decode rates: %w", err)
	}

	raw, ok := resp.Rates[quote]
	if !ok {
		return decimal.Decimal{}, fmt.Errorf("fixer: %w: no %s rate in response", domain.ErrNoFxRate, quote)
	}
	rate, err := decimal.NewFromString(raw.String())
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("fixer: parse rate %q: %w", raw.String(), err)
	}
	return rate, nil
}
