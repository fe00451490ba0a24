package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
)

// ShortHash returns the first 16 hex characters of a SHA256 over the given
// parts, sorted and newline-joined. The same set of parts produces the same
// hash regardless of input order.
func ShortHash(parts []string) string {
	sorted := make([]string, len(parts))
	copy(sorted, parts)
	sort.Strings(sorted)

	sum := sha256.Sum256([]byte(strings.Join(sorted, "\n")))
	return hex.EncodeToString(sum[:])[:16]
}

// HexDigest returns the full hex-encoded SHA256 of data.
func HexDigest(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
