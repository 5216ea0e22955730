package engine

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashFile(t *testing.T) {
	dir := t.TempDir()
	p1 := writeFile(t, dir, "test.txt", "hello world")
	p2 := writeFile(t, dir, "test2.txt", "hello world")
	p3 := writeFile(t, dir, "test3.txt", "different content")
	ctx := context.Background()

	h1, n, err := HashFile(ctx, p1, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(11), n)
	assert.False(t, h1.IsZero())

	// Same content should produce the same hash.
	h2, _, err := HashFile(ctx, p2, nil)
	require.NoError(t, err)
	assert.Equal(t, h1, h2)

	// Different content should produce a different hash.
	h3, _, err := HashFile(ctx, p3, nil)
	require.NoError(t, err)
	assert.NotEqual(t, h1, h3)
}

func TestHashFile_KnownDigest(t *testing.T) {
	p := writeFile(t, t.TempDir(), "empty", "")

	fp, n, err := HashFile(context.Background(), p, nil)
	require.NoError(t, err)
	assert.Zero(t, n)
	// BLAKE3 of the empty input.
	assert.Equal(t, "af1349b9f5f9a1a6a0404dea36dcc9499bcb25c9adc112b7cc9a93cae41f3262", fp.String())
}

func TestHashFile_LargerThanBuffer(t *testing.T) {
	dir := t.TempDir()
	content := strings.Repeat("0123456789abcdef", hashBufSize/8)
	a := writeFile(t, dir, "a", content)
	b := writeFile(t, dir, "b", content[:len(content)-1]+"X")

	ha, n, err := HashFile(context.Background(), a, NewIOLimiter(64<<20))
	require.NoError(t, err)
	assert.Equal(t, int64(len(content)), n)

	hb, _, err := HashFile(context.Background(), b, nil)
	require.NoError(t, err)
	assert.NotEqual(t, ha, hb, "differ only in the last byte")
}

func TestHashFile_NotExist(t *testing.T) {
	_, _, err := HashFile(context.Background(), "/nonexistent/file", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestHashFile_Cancelled(t *testing.T) {
	p := writeFile(t, t.TempDir(), "f", "content")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := HashFile(ctx, p, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPrefixHash(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a", "same-prefix-AAAA")
	b := writeFile(t, dir, "b", "same-prefix-BBBB")
	c := writeFile(t, dir, "c", "other-prefix-CCC")
	ctx := context.Background()

	ha, err := prefixHash(ctx, a, 11, nil)
	require.NoError(t, err)
	hb, err := prefixHash(ctx, b, 11, nil)
	require.NoError(t, err)
	hc, err := prefixHash(ctx, c, 11, nil)
	require.NoError(t, err)

	assert.Equal(t, ha, hb)
	assert.NotEqual(t, ha, hc)
}

func TestPrefixHash_ShortFile(t *testing.T) {
	p := writeFile(t, t.TempDir(), "short", "abc")

	_, err := prefixHash(context.Background(), p, 10, nil)
	assert.Error(t, err, "file shrank below the prefix length")
}
