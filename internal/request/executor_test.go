package request

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantfield/chaser/internal/clock"
	"github.com/quantfield/chaser/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestDoRetriesTransientFailures(t *testing.T) {
	const failures = 3
	clk := clock.NewFake(time.Unix(1_700_000_000, 0))
	exec := NewExecutor(10*time.Second, time.Minute, clk, testLogger())

	calls := 0
	result, err := Do(context.Background(), exec, "getOrderBook", func(context.Context) (string, error) {
		calls++
		if calls <= failures {
			return "", fmt.Errorf("dial: %w", syscall.ECONNREFUSED)
		}
		return "ok", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", result)
	assert.Equal(t, failures+1, calls, "k failures then success means k+1 invocations")
	assert.GreaterOrEqual(t, clk.Slept(), time.Duration(failures)*10*time.Second,
		"at least k retry delays must elapse")
}

func TestDoRateLimitUsesLongCooldown(t *testing.T) {
	clk := clock.NewFake(time.Unix(1_700_000_000, 0))
	exec := NewExecutor(10*time.Second, time.Minute, clk, testLogger())

	calls := 0
	_, err := Do(context.Background(), exec, "placeLimitOrder", func(context.Context) (string, error) {
		calls++
		if calls == 1 {
			return "", fmt.Errorf("venue: %w", domain.ErrRateLimited)
		}
		return "order-1", nil
	})

	require.NoError(t, err)
	require.Equal(t, []time.Duration{time.Minute}, clk.Sleeps())
}

func TestDoFatalErrorNotRetried(t *testing.T) {
	clk := clock.NewFake(time.Unix(1_700_000_000, 0))
	exec := NewExecutor(10*time.Second, time.Minute, clk, testLogger())

	fatal := errors.New("malformed order")
	calls := 0
	_, err := Do(context.Background(), exec, "placeLimitOrder", func(context.Context) (string, error) {
		calls++
		return "", fatal
	})

	assert.ErrorIs(t, err, fatal)
	assert.Equal(t, 1, calls)
	assert.Empty(t, clk.Sleeps())
}

func TestDoReportsCancellation(t *testing.T) {
	clk := clock.NewFake(time.Unix(1_700_000_000, 0))
	exec := NewExecutor(10*time.Second, time.Minute, clk, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	_, err := Do(ctx, exec, "getTicker", func(context.Context) (string, error) {
		calls++
		cancel()
		return "", fmt.Errorf("read: %w", syscall.ECONNRESET)
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls, "no retry once cancelled")
}

func TestRunWrapsVoidCalls(t *testing.T) {
	clk := clock.NewFake(time.Unix(1_700_000_000, 0))
	exec := NewExecutor(10*time.Second, time.Minute, clk, testLogger())

	calls := 0
	err := exec.Run(context.Background(), "cancelAllOrders", func(context.Context) error {
		calls++
		if calls == 1 {
			return fmt.Errorf("venue: %w", domain.ErrNonceRejected)
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestTransientClassification(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"dns failure", &net.DNSError{Err: "no such host", Name: "api.example.com"}, true},
		{"connection refused", fmt.Errorf("dial: %w", syscall.ECONNREFUSED), true},
		{"connection reset", fmt.Errorf("read: %w", syscall.ECONNRESET), true},
		{"unexpected eof", io.ErrUnexpectedEOF, true},
		{"nonce rejection", fmt.Errorf("venue: %w", domain.ErrNonceRejected), true},
		{"timeout", &net.OpError{Op: "read", Err: &timeoutError{}}, true},
		{"rate limit is not transient", domain.ErrRateLimited, false},
		{"venue rejection", domain.ErrInvalidOrder, false},
		{"plain error", errors.New("boom"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Transient(tt.err))
		})
	}
}

// timeoutError implements net.Error with Timeout() == true.
type timeoutError struct{}

func (timeoutError) Error() string   { return "i/o timeout" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }
