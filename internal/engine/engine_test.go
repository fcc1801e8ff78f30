package engine

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantfield/chaser/internal/clock"
	"github.com/quantfield/chaser/internal/domain"
	"github.com/quantfield/chaser/internal/request"
)

// cancelAfterSleeps wraps a fake clock and cancels the run context on the
// n-th sleep, so a loop that would otherwise spin forever terminates the way
// a real shutdown signal would terminate it.
type cancelAfterSleeps struct {
	*clock.Fake
	mu        sync.Mutex
	remaining int
	cancel    context.CancelFunc
}

func (c *cancelAfterSleeps) Sleep(ctx context.Context, d time.Duration) error {
	c.mu.Lock()
	c.remaining--
	if c.remaining <= 0 {
		c.cancel()
	}
	c.mu.Unlock()
	return c.Fake.Sleep(ctx, d)
}

type recordingNotifier struct {
	mu     sync.Mutex
	titles []string
}

func (n *recordingNotifier) Notify(_ context.Context, title, _ string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.titles = append(n.titles, title)
}

func TestEngineCancelsAllOnStartAndShutdown(t *testing.T) {
	venue := newFakeVenue("20000",
		bidsAt([2]string{"2400", "1"}, [2]string{"2399", "5"}),
	)
	venue.scriptStatuses("1", domain.OrderStatusFilled)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// One sleep inside monitoring, then the inter-cycle wait triggers the
	// shutdown.
	clk := &cancelAfterSleeps{
		Fake:      clock.NewFake(time.Unix(1_700_000_000, 0)),
		remaining: 2,
		cancel:    cancel,
	}
	exec := request.NewExecutor(10*time.Second, time.Minute, clk, testLogger())
	ctrl := NewController(venue, venue, venue, exec, refAt("2500"), testParams(), testPair, clk, testLogger())

	notifier := &recordingNotifier{}
	eng := NewEngine(ctrl, venue, exec, testParams(), clk, notifier, testLogger())

	err := eng.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)

	// Once before the cycle, once on the way out.
	assert.Equal(t, 2, venue.cancelAlls)
	require.Len(t, venue.placed, 1)
	assert.Equal(t, []string{"order filled"}, notifier.titles)
}

func TestEngineRunsWithoutNotifier(t *testing.T) {
	venue := newFakeVenue("0.5",
		bidsAt([2]string{"2400", "1"}, [2]string{"2399", "5"}),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// The only sleep is the inter-cycle wait after "nothing to do".
	clk := &cancelAfterSleeps{
		Fake:      clock.NewFake(time.Unix(1_700_000_000, 0)),
		remaining: 1,
		cancel:    cancel,
	}
	exec := request.NewExecutor(10*time.Second, time.Minute, clk, testLogger())
	ctrl := NewController(venue, venue, venue, exec, refAt("2500"), testParams(), testPair, clk, testLogger())
	eng := NewEngine(ctrl, venue, exec, testParams(), clk, nil, testLogger())

	err := eng.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, venue.placed)
	assert.Equal(t, 2, venue.cancelAlls)
}
