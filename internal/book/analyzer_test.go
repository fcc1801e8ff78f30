package book

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantfield/chaser/internal/domain"
)

// bids builds a descending bid book from price/volume string pairs.
func bids(levels ...[2]string) domain.OrderBook {
	ob := domain.OrderBook{}
	for _, l := range levels {
		ob.Bids = append(ob.Bids, domain.PriceLevel{
			Price:  decimal.RequireFromString(l[0]),
			Volume: decimal.RequireFromString(l[1]),
		})
	}
	return ob
}

func TestBestBidPrice(t *testing.T) {
	tests := []struct {
		name string
		ob   domain.OrderBook
		want string
		ok   bool
	}{
		{
			name: "top of a populated book",
			ob:   bids([2]string{"2400", "1.5"}, [2]string{"2399.5", "3"}),
			want: "2400",
			ok:   true,
		},
		{
			name: "single level",
			ob:   bids([2]string{"100.01", "0.2"}),
			want: "100.01",
			ok:   true,
		},
		{
			name: "empty book",
			ob:   domain.OrderBook{},
			ok:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := BestBidPrice(tt.ob)
			require.Equal(t, tt.ok, ok)
			if ok {
				assert.Equal(t, tt.want, got.String())
			}
		})
	}
}

func TestVolumeAbove(t *testing.T) {
	ob := bids(
		[2]string{"2410", "1.5"},
		[2]string{"2405", "0.25"},
		[2]string{"2400", "10"},
		[2]string{"2390", "4"},
	)

	tests := []struct {
		name  string
		price string
		want  string
	}{
		{"below all levels", "2380", "15.75"},
		{"between levels", "2400", "1.75"},
		{"equal price excluded", "2405", "1.5"},
		{"above all levels", "2500", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := VolumeAbove(ob, decimal.RequireFromString(tt.price))
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestVolumeAboveEmptyBook(t *testing.T) {
	got := VolumeAbove(domain.OrderBook{}, decimal.RequireFromString("2400"))
	assert.True(t, got.IsZero(), "empty book must yield zero, got %s", got)
}

func TestNextBidBelow(t *testing.T) {
	ob := bids(
		[2]string{"2410", "1"},
		[2]string{"2405", "1"},
		[2]string{"2400", "1"},
	)

	tests := []struct {
		name  string
		price string
		want  string
		ok    bool
	}{
		{"strictly below only", "2405", "2400", true},
		{"between levels", "2407", "2405", true},
		{"above everything", "3000", "2410", true},
		{"below everything", "2000", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := NextBidBelow(ob, decimal.RequireFromString(tt.price))
			require.Equal(t, tt.ok, ok)
			if ok {
				assert.Equal(t, tt.want, got.String())
			}
		})
	}
}

func TestNextBidBelowEmptyBook(t *testing.T) {
	_, ok := NextBidBelow(domain.OrderBook{}, decimal.RequireFromString("1"))
	assert.False(t, ok)
}
