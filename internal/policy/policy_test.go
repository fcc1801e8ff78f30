package policy

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/quantfield/chaser/internal/domain"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func bids(levels ...[2]string) domain.OrderBook {
	ob := domain.OrderBook{}
	for _, l := range levels {
		ob.Bids = append(ob.Bids, domain.PriceLevel{
			Price:  dec(l[0]),
			Volume: dec(l[1]),
		})
	}
	return ob
}

func orderAt(price string) domain.Order {
	return domain.Order{
		ID:     "42",
		Side:   domain.OrderSideBuy,
		Price:  dec(price),
		Volume: dec("1"),
		Status: domain.OrderStatusActive,
	}
}

func TestSingleBidRow(t *testing.T) {
	p := SingleBidRow{}

	assert.True(t, p.ShouldCancel(orderAt("100"), domain.OrderBook{}),
		"empty book means no counterparties")
	assert.True(t, p.ShouldCancel(orderAt("100"), bids([2]string{"100", "1"})),
		"a single row is our own order")
	assert.False(t, p.ShouldCancel(orderAt("100"), bids([2]string{"100", "1"}, [2]string{"99", "1"})))
}

func TestStepToMove(t *testing.T) {
	tests := []struct {
		name      string
		bestBid   string
		order     string
		threshold string
		want      bool
	}{
		{"far behind top of book", "110", "100", "5", true},
		{"within threshold", "103", "100", "5", false},
		{"exactly at threshold", "105", "100", "5", false},
		{"own order on top", "100", "100", "5", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := StepToMove{Threshold: dec(tt.threshold)}
			ob := bids([2]string{tt.bestBid, "1"}, [2]string{"50", "1"})
			assert.Equal(t, tt.want, p.ShouldCancel(orderAt(tt.order), ob))
		})
	}
}

func TestStepToMoveEmptyBook(t *testing.T) {
	p := StepToMove{Threshold: dec("5")}
	assert.False(t, p.ShouldCancel(orderAt("100"), domain.OrderBook{}))
}

func TestVolumeToMove(t *testing.T) {
	ob := bids(
		[2]string{"2412", "2400"},
		[2]string{"2411", "1"},
		[2]string{"2410.01", "3"},
		[2]string{"2400", "9"},
	)

	tests := []struct {
		name      string
		order     string
		threshold string
		want      bool
	}{
		{"volume pressure above order", "2410.01", "0.05", true},
		{"threshold met exactly", "2410.01", "2401", true},
		{"threshold not reached", "2410.01", "2401.1", false},
		{"order on top of book", "2412", "0.05", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := VolumeToMove{Threshold: dec(tt.threshold)}
			assert.Equal(t, tt.want, p.ShouldCancel(orderAt(tt.order), ob))
		})
	}
}

func TestSensitivity(t *testing.T) {
	tests := []struct {
		name      string
		ob        domain.OrderBook
		order     string
		threshold string
		want      bool
	}{
		{
			name:      "isolated order far above next bid",
			ob:        bids([2]string{"2410", "1"}, [2]string{"2400", "1"}),
			order:     "2410",
			threshold: "5",
			want:      true,
		},
		{
			name:      "next bid close underneath",
			ob:        bids([2]string{"2410", "1"}, [2]string{"2408", "1"}),
			order:     "2410",
			threshold: "5",
			want:      false,
		},
		{
			name:      "no bid below order",
			ob:        bids([2]string{"2410", "1"}),
			order:     "2410",
			threshold: "5",
			want:      false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Sensitivity{Threshold: dec(tt.threshold)}
			assert.Equal(t, tt.want, p.ShouldCancel(orderAt(tt.order), tt.ob))
		})
	}
}

func TestReferenceInvalidated(t *testing.T) {
	holdsAbove := func(limit decimal.Decimal) func(decimal.Decimal) bool {
		return func(bestBid decimal.Decimal) bool {
			return bestBid.Cmp(limit) <= 0
		}
	}

	p := ReferenceInvalidated{Holds: holdsAbove(dec("2400"))}

	assert.False(t, p.ShouldCancel(orderAt("2390"), bids([2]string{"2395", "1"}, [2]string{"2390", "1"})),
		"entry condition still holds")
	assert.True(t, p.ShouldCancel(orderAt("2390"), bids([2]string{"2405", "1"}, [2]string{"2390", "1"})),
		"entry condition no longer holds")
	assert.False(t, p.ShouldCancel(orderAt("2390"), domain.OrderBook{}),
		"empty book is SingleBidRow's business")
}

func TestFirstFiring(t *testing.T) {
	ob := bids([2]string{"2500", "100"}, [2]string{"2400", "1"})
	order := orderAt("2400")

	policies := []Policy{
		SingleBidRow{},
		StepToMove{Threshold: dec("5")},
		VolumeToMove{Threshold: dec("1000")},
	}

	name, fired := FirstFiring(policies, order, ob)
	assert.True(t, fired)
	assert.Equal(t, "step_to_move", name)

	calm := bids([2]string{"2401", "0.1"}, [2]string{"2400", "1"})
	_, fired = FirstFiring(policies, order, calm)
	assert.False(t, fired)
}
