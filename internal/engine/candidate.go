package engine

import (
	"encoding/hex"
	"fmt"
)

// FingerprintSize is the width of a content fingerprint in bytes.
const FingerprintSize = 32

// Fingerprint is the BLAKE3-256 digest of a file's full content.
type Fingerprint [FingerprintSize]byte

// String returns the lowercase hex encoding of the digest.
func (f Fingerprint) String() string {
	return hex.EncodeToString(f[:])
}

// Short returns the first 12 hex digits, for display.
func (f Fingerprint) Short() string {
	return f.String()[:12]
}

// IsZero reports whether f is unset.
func (f Fingerprint) IsZero() bool {
	return f == Fingerprint{}
}

// MarshalText implements encoding.TextMarshaler so reports carry hex digests.
func (f Fingerprint) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (f *Fingerprint) UnmarshalText(text []byte) error {
	if hex.DecodedLen(len(text)) != FingerprintSize {
		return fmt.Errorf("fingerprint: want %d hex digits, got %d", 2*FingerprintSize, len(text))
	}
	_, err := hex.Decode(f[:], text)
	return err
}

// DevIno uniquely identifies an inode. Paths that share one are the same
// file on disk (hardlinks, or a symlink and its target).
type DevIno struct {
	Dev uint64
	Ino uint64
}

func (d DevIno) isZero() bool { return d == DevIno{} }

// Candidate is a regular file discovered by the indexer.
type Candidate struct {
	Path string // absolute, symlinks resolved
	// Links holds the other names of the same inode, sorted. Removing the
	// file means removing every one of them.
	Links       []string
	Size        int64
	DevIno      DevIno
	Fingerprint Fingerprint
	hashed      bool
}

// Hashed reports whether the fingerprint has been computed.
func (c Candidate) Hashed() bool { return c.hashed }

// withFingerprint returns a copy of c carrying fp. A candidate is never
// re-fingerprinted.
func (c Candidate) withFingerprint(fp Fingerprint) Candidate {
	if c.hashed {
		return c
	}
	c.Fingerprint = fp
	c.hashed = true
	return c
}
