package circle

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/hex"
	"encoding/pem"
	"errors"
	"fmt"
)

type publicKeyResponse struct {
	Data struct {
		PublicKey string `json:"publicKey"`
	} `json:"data"`
}

// entityPublicKey fetches and caches the RSA key Circle publishes for entity secret encryption.
func (w *WalletClient) entityPublicKey(ctx context.Context) (*rsa.PublicKey, error) {
	w.keyMu.Lock()
	defer w.keyMu.Unlock()

	if w.publicKey != nil {
		return w.publicKey, nil
	}

	var res publicKeyResponse
	if _, err := w.client.R().
		SetContext(ctx).
		SetResult(&res).
		Get("/v1/w3s/config/entity/publicKey"); err != nil {
		return nil, fmt.Errorf("unable to fetch entity public key: %w", err)
	}

	key, err := parsePublicKey(res.Data.PublicKey)
	if err != nil {
		return nil, err
	}
	w.publicKey = key
	return key, nil
}

func parsePublicKey(data string) (*rsa.PublicKey, error) {
	block, _ := pem.Decode([]byte(data))
	if block == nil {
		return nil, errors.New("entity public key is not pem encoded")
	}
	parsed, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("unable to parse entity public key: %w", err)
	}
	key, ok := parsed.(*rsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("entity public key is %T, expected rsa", parsed)
	}
	return key, nil
}

// entitySecretCiphertext encrypts the entity secret for a single request.
// Circle rejects reused ciphertexts, so one is produced per call.
func (w *WalletClient) entitySecretCiphertext(ctx context.Context) (string, error) {
	secret, err := hex.DecodeString(w.entitySecret)
	if err != nil || len(secret) != 32 {
		return "", errors.New("entity secret must be 32 bytes hex encoded")
	}

	key, err := w.entityPublicKey(ctx)
	if err != nil {
		return "", err
	}

	ciphertext, err := rsa.EncryptOAEP(sha256.New(), rand.Reader, key, secret, nil)
	if err != nil {
		return "", fmt.Errorf("unable to encrypt entity secret: %w", err)
	}
	return base64.StdEncoding.EncodeToString(ciphertext), nil
}
