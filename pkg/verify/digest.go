package verify

import (
	"crypto/sha1" //nolint:gosec // equality fingerprint, not a security boundary
	"encoding/hex"
)

// DefaultWindowSize is the number of leading and trailing bytes digested separately.
const DefaultWindowSize = 20

// DigestResult fingerprints one response body.
type DigestResult struct {
	// Full is the hex SHA-1 of the whole body.
	Full string `json:"full" yaml:"full"`

	// Prefix is the hex SHA-1 of the first window bytes.
	Prefix string `json:"prefix" yaml:"prefix"`

	// Suffix is the hex SHA-1 of the last window bytes.
	Suffix string `json:"suffix" yaml:"suffix"`

	// Length is the body length in bytes.
	Length int64 `json:"length" yaml:"length"`
}

// Digest hashes b in full and over its leading and trailing window.
// Bodies shorter than the window are hashed whole for both windows.
func Digest(b []byte, window int) DigestResult {
	if window <= 0 {
		window = DefaultWindowSize
	}
	return DigestResult{
		Full:   Sum(b),
		Prefix: Sum(leading(b, window)),
		Suffix: Sum(trailing(b, window)),
		Length: int64(len(b)),
	}
}

// Sum returns the hex encoded SHA-1 of b.
func Sum(b []byte) string {
	sum := sha1.Sum(b) //nolint:gosec
	return hex.EncodeToString(sum[:])
}

func leading(b []byte, n int) []byte {
	if len(b) < n {
		return b
	}
	return b[:n]
}

func trailing(b []byte, n int) []byte {
	if len(b) < n {
		return b
	}
	return b[len(b)-n:]
}

// firstDifference returns the offset of the first differing byte, or -1 when
// a and b are equal. A strict prefix differs at the shorter length.
func firstDifference(a, b []byte) int64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return int64(i)
		}
	}
	if len(a) != len(b) {
		return int64(n)
	}
	return -1
}
