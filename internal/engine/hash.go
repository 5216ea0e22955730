package engine

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/cespare/xxhash/v2"
	"github.com/zeebo/blake3"
	"golang.org/x/time/rate"
)

const hashBufSize = 32 * 1024

// HashFile computes the BLAKE3 digest of the file at path and returns it
// with the number of bytes read. Reads are throttled by limiter when it is
// non-nil and abort when ctx is cancelled.
func HashFile(ctx context.Context, path string, limiter *rate.Limiter) (Fingerprint, int64, error) {
	var fp Fingerprint

	f, err := os.Open(path)
	if err != nil {
		return fp, 0, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	adviseSequential(f)

	h := blake3.New()
	buf := make([]byte, hashBufSize)
	n, err := io.CopyBuffer(h, newRateLimitedReader(ctx, f, limiter), buf)
	if err != nil {
		return fp, n, fmt.Errorf("hash %s: %w", path, err)
	}

	copy(fp[:], h.Sum(nil))
	return fp, n, nil
}

// prefixHash returns a fast non-cryptographic hash of the first n bytes of
// the file at path. It only narrows buckets; equality is always settled by
// HashFile.
func prefixHash(ctx context.Context, path string, n int64, limiter *rate.Limiter) (uint64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	h := xxhash.New()
	if _, err := io.CopyN(h, newRateLimitedReader(ctx, f, limiter), n); err != nil {
		return 0, fmt.Errorf("read prefix %s: %w", path, err)
	}
	return h.Sum64(), nil
}
