package venue

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/quantfield/chaser/internal/domain"
)

// errorResponse is the venue's error envelope.
type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// placeOrderRequest is the payload for POST /orders.
type placeOrderRequest struct {
	ClientOrderID string `json:"client_order_id"`
	Pair          string `json:"pair"`
	Side          string `json:"side"`
	Type          string `json:"type"`
	Price         string `json:"price"`
	Volume        string `json:"volume"`
}

// orderResponse is the venue's order representation.
type orderResponse struct {
	OrderID         string `json:"order_id"`
	Side            string `json:"side"`
	Price           string `json:"price"`
	Volume          string `json:"volume"`
	RemainingVolume string `json:"remaining_volume"`
	Status          string `json:"status"`
}

func (r orderResponse) toDomain() (domain.Order, error) {
	price, err := decimal.NewFromString(r.Price)
	if err != nil {
		return domain.Order{}, fmt.Errorf("parse price %q: %w", r.Price, err)
	}
	volume, err := decimal.NewFromString(r.Volume)
	if err != nil {
		return domain.Order{}, fmt.Errorf("parse volume %q: %w", r.Volume, err)
	}
	remaining := volume
	if r.RemainingVolume != "" {
		remaining, err = decimal.NewFromString(r.RemainingVolume)
		if err != nil {
			return domain.Order{}, fmt.Errorf("parse remaining volume %q: %w", r.RemainingVolume, err)
		}
	}

	var status domain.OrderStatus
	switch r.Status {
	case "active", "open":
		status = domain.OrderStatusActive
	case "filled":
		status = domain.OrderStatusFilled
	case "killed", "cancelled":
		status = domain.OrderStatusKilled
	default:
		return domain.Order{}, fmt.Errorf("unknown order status %q", r.Status)
	}

	return domain.Order{
		ID:              r.OrderID,
		Side:            domain.OrderSide(r.Side),
		Price:           price,
		Volume:          volume,
		RemainingVolume: remaining,
		Status:          status,
	}, nil
}

// bookResponse is the venue orderbook payload; levels are [price, volume]
// string pairs, bids descending and asks ascending.
type bookResponse struct {
	Bids [][2]string `json:"bids"`
	Asks [][2]string `json:"asks"`
}

func parseLevels(raw [][2]string) ([]domain.PriceLevel, error) {
	levels := make([]domain.PriceLevel, 0, len(raw))
	for _, entry := range raw {
		price, err := decimal.NewFromString(entry[0])
		if err != nil {
			return nil, fmt.Errorf("parse level price %q: %w", entry[0], err)
		}
		volume, err := decimal.NewFromString(entry[1])
		if err != nil {
			return nil, fmt.Errorf("parse level volume %q: %w", entry[1], err)
		}
		levels = append(levels, domain.PriceLevel{Price: price, Volume: volume})
	}
	return levels, nil
}

// tickerResponse is the venue ticker payload.
type tickerResponse struct {
	Last string `json:"last"`
}

// balanceResponse is one currency balance.
type balanceResponse struct {
	Currency  string `json:"currency"`
	Available string `json:"available"`
	Total     string `json:"total"`
}

func (r balanceResponse) toDomain() (domain.Balance, error) {
	available, err := decimal.NewFromString(r.Available)
	if err != nil {
		return domain.Balance{}, fmt.Errorf("parse available %q: %w", r.Available, err)
	}
	total, err := decimal.NewFromString(r.Total)
	if err != nil {
		return domain.Balance{}, fmt.Errorf("parse total %q: %w", r.Total, err)
	}
	return domain.Balance{Currency: r.Currency, Available: available, Total: total}, nil
}
