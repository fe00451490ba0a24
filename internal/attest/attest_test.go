package attest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/fenilsonani/storage-intel/internal/model"
)

func items() []model.Item {
	return []model.Item{
		{Path: "/b", Size: 2, Name: "B", Risk: model.RiskSafe},
		{Path: "/a", Size: 1, Name: "A", Risk: model.RiskCaution},
		{Path: "/c", Size: 3, Name: "C", Risk: model.RiskSafe},
	}
}

func TestContentHashPermutationInvariant(t *testing.T) {
	a := items()
	b := []model.Item{a[2], a[0], a[1]}

	if ContentHash(a) != ContentHash(b) {
		t.Error("content hash changed under permutation")
	}
}

func TestContentHashIgnoresDisplayFields(t *testing.T) {
	a := items()
	b := items()
	b[0].Name = "renamed"
	b[0].Description = "different"

	if ContentHash(a) != ContentHash(b) {
		t.Error("content hash must project to {path, size} only")
	}
}

func TestContentHashSensitiveToSize(t *testing.T) {
	a := items()
	b := items()
	b[0].Size++

	if ContentHash(a) == ContentHash(b) {
		t.Error("content hash must change when a size changes")
	}
}

func TestEd25519SignAndVerify(t *testing.T) {
	signer, err := NewSigner(t.TempDir(), model.AlgorithmEd25519)
	if err != nil {
		t.Fatal(err)
	}
	if signer.Algorithm() != model.AlgorithmEd25519 {
		t.Fatalf("algorithm = %q", signer.Algorithm())
	}

	att, err := signer.Sign(items())
	if err != nil {
		t.Fatal(err)
	}
	if att.ContentHash != ContentHash(items()) {
		t.Error("attestation hash differs from recomputed hash")
	}
	if !signer.Verify(att, items()) {
		t.Error("signature did not verify")
	}

	tampered := items()
	tampered[0].Size = 999
	if signer.Verify(att, tampered) {
		t.Error("tampered items verified")
	}
}

func TestHMACSignAndVerify(t *testing.T) {
	signer, err := NewSigner(t.TempDir(), model.AlgorithmHMACSHA256)
	if err != nil {
		t.Fatal(err)
	}
	if signer.Algorithm() != model.AlgorithmHMACSHA256 {
		t.Fatalf("algorithm = %q", signer.Algorithm())
	}

	att, err := signer.Sign(items())
	if err != nil {
		t.Fatal(err)
	}
	if !signer.Verify(att, items()) {
		t.Error("HMAC signature did not verify")
	}
	if len(att.KeyID) != 16 {
		t.Errorf("key id length = %d", len(att.KeyID))
	}
}

func TestEmptyItemListSigns(t *testing.T) {
	signer, err := NewSigner(t.TempDir(), "")
	if err != nil {
		t.Fatal(err)
	}
	att, err := signer.Sign(nil)
	if err != nil {
		t.Fatal(err)
	}
	if att.Signature == "" || att.ContentHash == "" {
		t.Error("empty item list must still produce a full envelope")
	}
	if !signer.Verify(att, nil) {
		t.Error("empty-content signature did not verify")
	}
}

func TestKeystorePersistsAcrossSigners(t *testing.T) {
	dir := t.TempDir()

	s1, err := NewSigner(dir, model.AlgorithmEd25519)
	if err != nil {
		t.Fatal(err)
	}
	att, err := s1.Sign(items())
	if err != nil {
		t.Fatal(err)
	}

	// A second signer over the same state dir loads the same key.
	s2, err := NewSigner(dir, model.AlgorithmEd25519)
	if err != nil {
		t.Fatal(err)
	}
	if s1.KeyID() != s2.KeyID() {
		t.Error("key id changed across keystore reopen")
	}
	if !s2.Verify(att, items()) {
		t.Error("reloaded key failed to verify prior attestation")
	}
}

func TestPrivateKeyFileMode(t *testing.T) {
	dir := t.TempDir()
	if _, err := NewSigner(dir, model.AlgorithmEd25519); err != nil {
		t.Fatal(err)
	}

	fi, err := os.Stat(filepath.Join(dir, "keys", "scan_signing.key"))
	if err != nil {
		t.Fatal(err)
	}
	if fi.Mode().Perm() != 0o600 {
		t.Errorf("private key mode = %o, want 600", fi.Mode().Perm())
	}
}
