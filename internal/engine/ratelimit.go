package engine

import (
	"context"
	"io"

	"golang.org/x/time/rate"
)

// NewIOLimiter creates a rate.Limiter that caps aggregate read throughput
// across all hash workers to bytesPerSec. It returns nil for a non-positive
// rate, meaning unlimited. The burst is 1 MiB so a full read buffer passes
// without blocking on small reads.
func NewIOLimiter(bytesPerSec int64) *rate.Limiter {
	if bytesPerSec <= 0 {
		return nil
	}
	burst := 1 << 20
	if bytesPerSec < int64(burst) {
		burst = int(bytesPerSec)
	}
	return rate.NewLimiter(rate.Limit(bytesPerSec), burst)
}

// rateLimitedReader wraps an io.Reader and enforces a shared rate limit.
type rateLimitedReader struct {
	r       io.Reader
	limiter *rate.Limiter
	ctx     context.Context
}

// newRateLimitedReader wraps r so reads are throttled by limiter and stop
// once ctx is cancelled. A nil limiter only adds the cancellation check.
func newRateLimitedReader(ctx context.Context, r io.Reader, limiter *rate.Limiter) *rateLimitedReader {
	return &rateLimitedReader{r: r, limiter: limiter, ctx: ctx}
}

func (rl *rateLimitedReader) Read(p []byte) (int, error) {
	if err := rl.ctx.Err(); err != nil {
		return 0, err
	}
	if rl.limiter != nil && len(p) > rl.limiter.Burst() {
		p = p[:rl.limiter.Burst()]
	}
	n, err := rl.r.Read(p)
	if n > 0 && rl.limiter != nil {
		if waitErr := rl.limiter.WaitN(rl.ctx, n); waitErr != nil {
			return n, waitErr
		}
	}
	return n, err
}
