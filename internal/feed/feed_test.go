package feed

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantfield/chaser/internal/domain"
)

var btcusd = domain.Pair{Base: "BTC", Quote: "USD"}

func TestKrakenBestBid(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/Ticker", r.URL.Path)
		require.Equal(t, "XBTUSD", r.URL.Query().Get("pair"))
		io.WriteString(w, `{
			"error": [],
			"result": {
				"XXBTZUSD": {"b": ["64123.40000", "1", "1.000"]}
			}
		}`)
	}))
	defer srv.Close()

	bid, err := NewKraken(srv.URL).BestBidPrice(context.Background(), btcusd)
	require.NoError(t, err)
	assert.Equal(t, "64123.4", bid.String())
}

func TestKrakenAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"error": ["EQuery:Unknown asset pair"], "result": {}}`)
	}))
	defer srv.Close()

	_, err := NewKraken(srv.URL).BestBidPrice(context.Background(), btcusd)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Unknown asset pair")
}

func TestKrakenSymbolSpellsBitcoinXBT(t *testing.T) {
	assert.Equal(t, "XBTUSD", krakenSymbol(btcusd))
	assert.Equal(t, "ETHEUR", krakenSymbol(domain.Pair{Base: "ETH", Quote: "EUR"}))
}

func TestBitfinexBestBid(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/pubticker/btcusd", r.URL.Path)
		io.WriteString(w, `{"bid": "64120.0", "ask": "64121.0", "last_price": "64120.5"}`)
	}))
	defer srv.Close()

	bid, err := NewBitfinex(srv.URL).BestBidPrice(context.Background(), btcusd)
	require.NoError(t, err)
	assert.Equal(t, "64120", bid.String())
}

func TestBitstampBestBid(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v2/ticker/btcusd/", r.URL.Path)
		io.WriteString(w, `{"bid": "64118.34", "ask": "64119.00"}`)
	}))
	defer srv.Close()

	bid, err := NewBitstamp(srv.URL).BestBidPrice(context.Background(), btcusd)
	require.NoError(t, err)
	assert.Equal(t, "64118.34", bid.String())
}

func TestFeedReportsHTTPFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := NewBitstamp(srv.URL).BestBidPrice(context.Background(), btcusd)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestFixerRate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/latest", r.URL.Path)
		require.Equal(t, "USD", r.URL.Query().Get("base"))
		require.Equal(t, "EUR", r.URL.Query().Get("symbols"))
		io.WriteString(w, `{"base": "USD", "rates": {"EUR": 0.92735}}`)
	}))
	defer srv.Close()

	rate, err := NewFixer(srv.URL).Rate(context.Background(), "usd", "eur")
	require.NoError(t, err)
	assert.Equal(t, "0.92735", rate.String())
}

func TestFixerMissingRate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"base": "USD", "rates": {}}`)
	}))
	defer srv.Close()

	_, err := NewFixer(srv.URL).Rate(context.Background(), "USD", "EUR")
	require.ErrorIs(t, err, domain.ErrNoFxRate)
}
