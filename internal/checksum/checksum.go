// Package checksum computes content digests for the snapshot artifact and loaded media.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
)

// Sum returns the hex-encoded SHA-256 digest of data.
func Sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// SumReader drains r and returns its digest and length.
func SumReader(r io.Reader) (string, int64, error) {
	h := sha256.New()
	n, err := io.Copy(h, r)
	if err != nil {
		return "", n, err
	}
	return hex.EncodeToString(h.Sum(nil)), n, nil
}

// ETag formats a digest as a strong HTTP entity tag using its first 16 hex digits.
func ETag(sum string) string {
	if len(sum) > 16 {
		sum = sum[:16]
	}
	return `"` + sum + `"`
}
