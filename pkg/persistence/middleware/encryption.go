package middleware

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/UAlbertaALTLab/hfst-altlab/pkg/fst"
	"github.com/UAlbertaALTLab/hfst-altlab/pkg/ports"
)

// envelopeMarker flags a cache entry whose real payload is encrypted.
const envelopeMarker = "@_ENCRYPTED_@"

// EncryptionConfig holds the keys for encrypting cached entries.
type EncryptionConfig struct {
	// ActiveKey is the key used for encrypting new entries.
	// Must be 32 bytes for AES-256.
	ActiveKey []byte

	// FallbackKeys is a list of old keys to try when decryption fails.
	// This enables zero-downtime key rotation.
	FallbackKeys [][]byte
}

type encryptionMiddleware struct {
	next   ports.AnalysisCache
	config EncryptionConfig
}

// NewEncryptionMiddleware creates a middleware that encrypts cached
// result sets with AES-GCM before they reach the backend, for cache
// instances shared beyond this service.
func NewEncryptionMiddleware(config EncryptionConfig) Middleware {
	if len(config.ActiveKey) != 32 {
		panic("active key must be 32 bytes (AES-256)")
	}
	return func(next ports.AnalysisCache) ports.AnalysisCache {
		return &encryptionMiddleware{next: next, config: config}
	}
}

func (m *encryptionMiddleware) Set(ctx context.Context, key string, analyses []fst.Analysis) error {
	plainText, err := json.Marshal(analyses)
	if err != nil {
		return fmt.Errorf("failed to marshal analyses: %w", err)
	}

	cipherText, err := encrypt(plainText, m.config.ActiveKey)
	if err != nil {
		return fmt.Errorf("failed to encrypt analyses: %w", err)
	}

	// The envelope rides in the ordinary value type so any backend can
	// store it unchanged.
	envelope := []fst.Analysis{{
		Symbols: []string{envelopeMarker, base64.StdEncoding.EncodeToString(cipherText)},
	}}
	return m.next.Set(ctx, key, envelope)
}

func (m *encryptionMiddleware) Get(ctx context.Context, key string) ([]fst.Analysis, bool, error) {
	envelope, found, err := m.next.Get(ctx, key)
	if err != nil || !found {
		return nil, found, err
	}

	encoded, ok := unwrapEnvelope(envelope)
	if !ok {
		// Fail secure: with encryption configured, a plain entry is
		// either foreign or tampered with.
		return nil, false, errors.New("cached entry is missing the encryption envelope")
	}

	cipherText, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, false, fmt.Errorf("failed to decode ciphertext base64: %w", err)
	}

	plainText, err := decryptWithRotation(cipherText, m.config.ActiveKey, m.config.FallbackKeys)
	if err != nil {
		return nil, false, fmt.Errorf("failed to decrypt cached entry: %w", err)
	}

	var analyses []fst.Analysis
	if err := json.Unmarshal(plainText, &analyses); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal decrypted analyses: %w", err)
	}
	return analyses, true, nil
}

func (m *encryptionMiddleware) Delete(ctx context.Context, key string) error {
	return m.next.Delete(ctx, key)
}

func unwrapEnvelope(envelope []fst.Analysis) (string, bool) {
	if len(envelope) != 1 || len(envelope[0].Symbols) != 2 || envelope[0].Symbols[0] != envelopeMarker {
		return "", false
	}
	return envelope[0].Symbols[1], true
}

// Helpers

func encrypt(plaintext []byte, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}

	return gcm.Seal(nonce, nonce, plaintext, nil), nil
}

func decryptWithRotation(ciphertext []byte, activeKey []byte, fallbackKeys [][]byte) ([]byte, error) {
	// Try active key first
	if plain, err := decrypt(ciphertext, activeKey); err == nil {
		return plain, nil
	}

	// Try fallbacks in order
	for _, key := range fallbackKeys {
		if plain, err := decrypt(ciphertext, key); err == nil {
			return plain, nil
		}
	}

	return nil, errors.New("decryption failed with all available keys")
}

func decrypt(ciphertext []byte, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	if len(ciphertext) < gcm.NonceSize() {
		return nil, errors.New("ciphertext too short")
	}

	nonce := ciphertext[:gcm.NonceSize()]
	ciphertextBytes := ciphertext[gcm.NonceSize():]

	return gcm.Open(nil, nonce, ciphertextBytes, nil)
}
