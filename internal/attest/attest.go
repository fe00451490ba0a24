// Package attest signs scan results so cached copies can be checked for
// tampering. The canonical content is the item set sorted by path, each
// projected to path and size only; the digest over it is stable under any
// permutation of the input.
package attest

import (
	"crypto/ed25519"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/fenilsonani/storage-intel/internal/model"
)

// canonicalEntry is the two-field projection of an item.
type canonicalEntry struct {
	Path string `json:"path"`
	Size int64  `json:"size"`
}

// CanonicalContent serializes items to the byte string that gets hashed and
// signed. Items are sorted by path ascending; keys serialize in a fixed
// order.
func CanonicalContent(items []model.Item) []byte {
	entries := make([]canonicalEntry, 0, len(items))
	for _, it := range items {
		entries = append(entries, canonicalEntry{Path: it.Path, Size: it.Size})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Path < entries[j].Path })

	data, err := json.Marshal(entries)
	if err != nil {
		// Two string/int fields cannot fail to marshal.
		panic(err)
	}
	return data
}

// ContentHash returns the hex SHA256 of the canonical content.
func ContentHash(items []model.Item) string {
	sum := sha256.Sum256(CanonicalContent(items))
	return hex.EncodeToString(sum[:])
}

// Signer produces attestations with whichever primitive its keystore holds.
type Signer struct {
	algorithm model.SigningAlgorithm
	priv      ed25519.PrivateKey
	pub       ed25519.PublicKey
	secret    []byte
	now       func() time.Time
}

// Sign attests to the given item set.
func (s *Signer) Sign(items []model.Item) (model.Attestation, error) {
	content := CanonicalContent(items)
	sum := sha256.Sum256(content)

	att := model.Attestation{
		Algorithm:   s.algorithm,
		ContentHash: hex.EncodeToString(sum[:]),
		Timestamp:   s.now(),
		KeyID:       s.KeyID(),
	}

	switch s.algorithm {
	case model.AlgorithmEd25519:
		att.Signature = base64.StdEncoding.EncodeToString(ed25519.Sign(s.priv, content))
	case model.AlgorithmHMACSHA256:
		mac := hmac.New(sha256.New, s.secret)
		mac.Write(content)
		att.Signature = hex.EncodeToString(mac.Sum(nil))
	default:
		return model.Attestation{}, fmt.Errorf("unknown signing algorithm %q", s.algorithm)
	}
	return att, nil
}

// Verify checks an attestation against an item set.
func (s *Signer) Verify(att model.Attestation, items []model.Item) bool {
	content := CanonicalContent(items)
	sum := sha256.Sum256(content)
	if att.ContentHash != hex.EncodeToString(sum[:]) {
		return false
	}

	switch att.Algorithm {
	case model.AlgorithmEd25519:
		sig, err := base64.StdEncoding.DecodeString(att.Signature)
		if err != nil {
			return false
		}
		return ed25519.Verify(s.pub, content, sig)
	case model.AlgorithmHMACSHA256:
		mac := hmac.New(sha256.New, s.secret)
		mac.Write(content)
		want := hex.EncodeToString(mac.Sum(nil))
		return hmac.Equal([]byte(att.Signature), []byte(want))
	default:
		return false
	}
}

// Algorithm reports which primitive this signer uses.
func (s *Signer) Algorithm() model.SigningAlgorithm {
	return s.algorithm
}

// KeyID returns the first 16 hex characters of a SHA256 over the signer's
// public key material (the public key for Ed25519, the secret for HMAC).
func (s *Signer) KeyID() string {
	var material []byte
	if s.algorithm == model.AlgorithmEd25519 {
		material = s.pub
	} else {
		material = s.secret
	}
	sum := sha256.Sum256(material)
	return hex.EncodeToString(sum[:])[:16]
}
