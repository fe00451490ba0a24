package attest

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fenilsonani/storage-intel/internal/model"
)

// Key file names under <state_root>/keys.
const (
	privateKeyFile = "scan_signing.key"
	publicKeyFile  = "scan_signing.pub"
	hmacSecretFile = "hmac_secret.key"
)

// NewSigner opens (or creates) the keystore under stateDir and returns a
// signer for the requested algorithm. An empty algorithm selects Ed25519;
// when the Ed25519 keystore cannot be established the signer falls back to
// HMAC-SHA256 so a scan always produces a verifiable envelope.
func NewSigner(stateDir string, algorithm model.SigningAlgorithm) (*Signer, error) {
	keysDir := filepath.Join(stateDir, "keys")
	if err := os.MkdirAll(keysDir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create keystore: %w", err)
	}

	if algorithm == "" || algorithm == model.AlgorithmEd25519 {
		signer, err := loadOrCreateEd25519(keysDir)
		if err == nil {
			return signer, nil
		}
		if algorithm == model.AlgorithmEd25519 {
			return nil, err
		}
		// Fall through to HMAC.
	}

	return loadOrCreateHMAC(keysDir)
}

// loadOrCreateEd25519 reads the PEM key pair, generating one with 0600
// permissions on first use.
func loadOrCreateEd25519(keysDir string) (*Signer, error) {
	privPath := filepath.Join(keysDir, privateKeyFile)
	pubPath := filepath.Join(keysDir, publicKeyFile)

	if data, err := os.ReadFile(privPath); err == nil {
		priv, err := parsePrivateKeyPEM(data)
		if err != nil {
			return nil, err
		}
		return &Signer{
			algorithm: model.AlgorithmEd25519,
			priv:      priv,
			pub:       priv.Public().(ed25519.PublicKey),
			now:       time.Now,
		}, nil
	}

	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("failed to generate signing key: %w", err)
	}

	privDER, err := x509.MarshalPKCS8PrivateKey(priv)
	if err != nil {
		return nil, err
	}
	privPEM := pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: privDER})
	if err := os.WriteFile(privPath, privPEM, 0o600); err != nil {
		return nil, fmt.Errorf("failed to write signing key: %w", err)
	}

	pubDER, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		return nil, err
	}
	pubPEM := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubDER})
	if err := os.WriteFile(pubPath, pubPEM, 0o644); err != nil {
		return nil, fmt.Errorf("failed to write public key: %w", err)
	}

	return &Signer{
		algorithm: model.AlgorithmEd25519,
		priv:      priv,
		pub:       pub,
		now:       time.Now,
	}, nil
}

// parsePrivateKeyPEM decodes an unencrypted PKCS8 Ed25519 private key.
func parsePrivateKeyPEM(data []byte) (ed25519.PrivateKey, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, fmt.Errorf("keystore holds no PEM block")
	}
	key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse signing key: %w", err)
	}
	priv, ok := key.(ed25519.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("keystore holds a non-Ed25519 key")
	}
	return priv, nil
}

// loadOrCreateHMAC reads the 32-byte secret, generating it with 0600
// permissions on first use.
func loadOrCreateHMAC(keysDir string) (*Signer, error) {
	secretPath := filepath.Join(keysDir, hmacSecretFile)

	secret, err := os.ReadFile(secretPath)
	if err != nil || len(secret) != 32 {
		secret = make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return nil, fmt.Errorf("failed to generate HMAC secret: %w", err)
		}
		if err := os.WriteFile(secretPath, secret, 0o600); err != nil {
			return nil, fmt.Errorf("failed to write HMAC secret: %w", err)
		}
	}

	return &Signer{
		algorithm: model.AlgorithmHMACSHA256,
		secret:    secret,
		now:       time.Now,
	}, nil
}
