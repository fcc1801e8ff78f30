// Package venue is the REST binding for the target trading venue. It
// implements the domain TradeService, MarketDataService and AccountService
// interfaces and maps venue error responses onto the domain error taxonomy so
// the retry layer can classify them.
package venue

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/quantfield/chaser/internal/domain"
)

// Client is the REST client for the target venue. Private endpoints are
// signed with HMAC-SHA256 over nonce+method+path+body.
type Client struct {
	baseURL    string
	apiKey     string
	apiSecret  string
	httpClient *http.Client

	// nonce must be strictly increasing per API key; seeded from the wall
	// clock so restarts do not replay.
	nonce atomic.Int64
}

// NewClient creates a venue client for the given API root, e.g.
// "https://api.example-exchange.com/v1".
func NewClient(baseURL, apiKey, apiSecret string) *Client {
	c := &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		apiKey:    apiKey,
		apiSecret: apiSecret,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	c.nonce.Store(time.Now().UnixMilli())
	return c
}

// PlaceLimitOrder submits a limit order and returns the venue order ID. A
// fresh client order ID makes accidental resubmission detectable venue-side.
func (c *Client) PlaceLimitOrder(ctx context.Context, side domain.OrderSide, volume decimal.Decimal, pair domain.Pair, price decimal.Decimal) (string, error) {
	reqBody := placeOrderRequest{
		ClientOrderID: uuid.NewString(),
		Pair:          pairSymbol(pair),
		Side:          string(side),
		Type:          "limit",
		Price:         price.String(),
		Volume:        volume.String(),
	}

	body, err := c.doSignedRequest(ctx, http.MethodPost, "/orders", reqBody)
	if err != nil {
		return "", fmt.Errorf("venue: place limit order: %w", err)
	}

	var resp orderResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("venue: decode order: %w", err)
	}
	return resp.OrderID, nil
}

// CancelOrder cancels a single order. The venue reporting the order as
// already filled or killed surfaces as domain.ErrOrderFinal.
func (c *Client) CancelOrder(ctx context.Context, orderID string) error {
	_, err := c.doSignedRequest(ctx, http.MethodDelete, "/orders/"+url.PathEscape(orderID), nil)
	if err != nil {
		return fmt.Errorf("venue: cancel order %s: %w", orderID, err)
	}
	return nil
}

// CancelAllOrders cancels every open order on the account.
func (c *Client) CancelAllOrders(ctx context.Context) error {
	_, err := c.doSignedRequest(ctx, http.MethodDelete, "/orders", nil)
	if err != nil {
		return fmt.Errorf("venue: cancel all orders: %w", err)
	}
	return nil
}

// GetOrderStatus returns the current remote state of an order.
func (c *Client) GetOrderStatus(ctx context.Context, orderID string) (domain.Order, error) {
	body, err := c.doSignedRequest(ctx, http.MethodGet, "/orders/"+url.PathEscape(orderID), nil)
	if err != nil {
		return domain.Order{}, fmt.Errorf("venue: get order status %s: %w", orderID, err)
	}

	var resp orderResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return domain.Order{}, fmt.Errorf("venue: decode order: %w", err)
	}
	order, err := resp.toDomain()
	if err != nil {
		return domain.Order{}, fmt.Errorf("venue: order %s: %w", orderID, err)
	}
	return order, nil
}

// GetOrderBook returns a fresh snapshot of the public book for pair.
func (c *Client) GetOrderBook(ctx context.Context, pair domain.Pair) (domain.OrderBook, error) {
	body, err := c.doPublicRequest(ctx, "/orderbook/"+pairSymbol(pair))
	if err != nil {
		return domain.OrderBook{}, fmt.Errorf("venue: get orderbook: %w", err)
	}

	var resp bookResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return domain.OrderBook{}, fmt.Errorf("venue: decode orderbook: %w", err)
	}
	bids, err := parseLevels(resp.Bids)
	if err != nil {
		return domain.OrderBook{}, fmt.Errorf("venue: orderbook bids: %w", err)
	}
	asks, err := parseLevels(resp.Asks)
	if err != nil {
		return domain.OrderBook{}, fmt.Errorf("venue: orderbook asks: %w", err)
	}

	return domain.OrderBook{
		Pair:      pair,
		Bids:      bids,
		Asks:      asks,
		Timestamp: time.Now().UTC(),
	}, nil
}

// GetTicker returns the last traded price for pair.
func (c *Client) GetTicker(ctx context.Context, pair domain.Pair) (decimal.Decimal, error) {
	body, err := c.doPublicRequest(ctx, "/ticker/"+pairSymbol(pair))
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("venue: get ticker: %w", err)
	}

	var resp tickerResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return decimal.Decimal{}, fmt.Errorf("venue: decode ticker: %w", err)
	}
	last, err := decimal.NewFromString(resp.Last)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("venue: parse last price %q: %w", resp.Last, err)
	}
	return last, nil
}

// GetBalance returns the account balance for one currency.
func (c *Client) GetBalance(ctx context.Context, currency string) (domain.Balance, error) {
	body, err := c.doSignedRequest(ctx, http.MethodGet, "/balances/"+url.PathEscape(currency), nil)
	if err != nil {
		return domain.Balance{}, fmt.Errorf("venue: get balance %s: %w", currency, err)
	}

	var resp balanceResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return domain.Balance{}, fmt.Errorf("venue: decode balance: %w", err)
	}
	balance, err := resp.toDomain()
	if err != nil {
		return domain.Balance{}, fmt.Errorf("venue: balance %s: %w", currency, err)
	}
	return balance, nil
}

func (c *Client) doPublicRequest(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	return c.do(req)
}

func (c *Client) doSignedRequest(ctx context.Context, method, path string, reqBody any) ([]byte, error) {
	var bodyBytes []byte
	if reqBody != nil {
		var err error
		bodyBytes, err = json.Marshal(reqBody)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	c.signRequest(req, method, path, bodyBytes)

	return c.do(req)
}

// signRequest adds HMAC authentication headers. The signature covers
// nonce+method+path+body so a captured request cannot be replayed.
func (c *Client) signRequest(req *http.Request, method, path string, body []byte) {
	nonce := strconv.FormatInt(c.nonce.Add(1), 10)

	mac := hmac.New(sha256.New, []byte(c.apiSecret))
	mac.Write([]byte(nonce + method + path))
	mac.Write(body)
	sig := hex.EncodeToString(mac.Sum(nil))

	req.Header.Set("X-API-KEY", c.apiKey)
	req.Header.Set("X-API-NONCE", nonce)
	req.Header.Set("X-API-SIGNATURE", sig)
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if err := checkStatus(resp.StatusCode, respBody); err != nil {
		return nil, err
	}
	return respBody, nil
}

// checkStatus maps non-2xx responses onto the domain error taxonomy. The
// mapping decides downstream retry behavior, so nonce rejections and rate
// limits must come through as their sentinel errors.
func checkStatus(statusCode int, body []byte) error {
	if statusCode >= 200 && statusCode < 300 {
		return nil
	}

	var apiErr errorResponse
	_ = json.Unmarshal(body, &apiErr)

	switch {
	case statusCode == http.StatusTooManyRequests || apiErr.Code == "rate_limit_exceeded":
		return fmt.Errorf("%w: %s", domain.ErrRateLimited, apiErr.Message)
	case apiErr.Code == "invalid_nonce":
		return fmt.Errorf("%w: %s", domain.ErrNonceRejected, apiErr.Message)
	case apiErr.Code == "order_not_active":
		return fmt.Errorf("%w: %s", domain.ErrOrderFinal, apiErr.Message)
	case statusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %s", domain.ErrOrderNotFound, apiErr.Message)
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
		return fmt.Errorf("%w: %s", domain.ErrUnauthorized, apiErr.Message)
	case statusCode == http.StatusBadRequest:
		return fmt.Errorf("%w: %s (%s)", domain.ErrInvalidOrder, apiErr.Message, apiErr.Code)
	default:
		return fmt.Errorf("venue: HTTP %d: %s (%s)", statusCode, apiErr.Message, apiErr.Code)
	}
}

// pairSymbol renders a pair in the venue's lowercase concatenated form,
// e.g. BTC/USD -> btcusd.
func pairSymbol(pair domain.Pair) string {
	return strings.ToLower(pair.Base + pair.Quote)
}
