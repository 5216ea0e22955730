package engine

import (
	"bytes"
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewIOLimiter(t *testing.T) {
	t.Parallel()

	t.Run("unlimited when rate is zero", func(t *testing.T) {
		t.Parallel()
		assert.Nil(t, NewIOLimiter(0))
		assert.Nil(t, NewIOLimiter(-5))
	})

	t.Run("burst capped to rate when rate < 1MiB", func(t *testing.T) {
		t.Parallel()
		lim := NewIOLimiter(1024)
		require.NotNil(t, lim)
		assert.Equal(t, 1024, lim.Burst())
	})

	t.Run("burst is 1MiB when rate >= 1MiB", func(t *testing.T) {
		t.Parallel()
		lim := NewIOLimiter(10 * 1024 * 1024)
		require.NotNil(t, lim)
		assert.Equal(t, 1<<20, lim.Burst())
	})
}

func TestRateLimitedReader(t *testing.T) {
	t.Parallel()

	t.Run("reads all data", func(t *testing.T) {
		t.Parallel()
		data := bytes.Repeat([]byte("x"), 4096)
		rl := newRateLimitedReader(context.Background(), bytes.NewReader(data), NewIOLimiter(1<<20))

		got, err := io.ReadAll(rl)
		require.NoError(t, err)
		assert.Equal(t, data, got)
	})

	t.Run("nil limiter passes through", func(t *testing.T) {
		t.Parallel()
		data := bytes.Repeat([]byte("y"), 100_000)
		rl := newRateLimitedReader(context.Background(), bytes.NewReader(data), nil)

		got, err := io.ReadAll(rl)
		require.NoError(t, err)
		assert.Equal(t, data, got)
	})

	t.Run("enforces rate limit", func(t *testing.T) {
		t.Parallel()
		// 10 KiB at 5 KiB/s should take ~1s once the burst is spent.
		dataSize := 10 * 1024
		data := bytes.Repeat([]byte("a"), dataSize)
		lim := NewIOLimiter(5 * 1024)

		start := time.Now()
		got, err := io.ReadAll(newRateLimitedReader(context.Background(), bytes.NewReader(data), lim))
		elapsed := time.Since(start)

		require.NoError(t, err)
		assert.Len(t, got, dataSize)
		assert.GreaterOrEqual(t, elapsed, 800*time.Millisecond)
	})

	t.Run("stops on cancelled context", func(t *testing.T) {
		t.Parallel()
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		rl := newRateLimitedReader(ctx, bytes.NewReader([]byte("data")), nil)
		_, err := io.ReadAll(rl)
		assert.ErrorIs(t, err, context.Canceled)
	})
}
