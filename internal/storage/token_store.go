package storage

import (
	"context"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

const (
	TokenKey = "AUTH_TOKEN"

	masterKeyLength = 32
)

var (
	ErrInvalidMasterKey = errors.New("master key must be 32 bytes (64 hex chars)")
	ErrCorruptToken     = errors.New("sealed token is corrupt")
)

// SecureTokenStore keeps a single auth token sealed with XChaCha20-Poly1305
type SecureTokenStore struct {
	kv     KV
	aead   cipher.AEAD
	logger *zap.Logger
}

// NewSecureTokenStore derives the sealing key from masterKey with HKDF-SHA256
func NewSecureTokenStore(kv KV, masterKey []byte, logger *zap.Logger) (*SecureTokenStore, error) {
	if len(masterKey) != masterKeyLength {
		return nil, ErrInvalidMasterKey
	}

	key := make([]byte, chacha20poly1305.KeySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, masterKey, nil, []byte("storefront-auth-token")), key); err != nil {
		return nil, fmt.Errorf("failed to derive token key: %w", err)
	}

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	return &SecureTokenStore{kv: kv, aead: aead, logger: logger}, nil
}

// SaveToken seals and persists the token
func (s *SecureTokenStore) SaveToken(ctx context.Context, token string) error {
	nonce := make([]byte, s.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return fmt.Errorf("failed to generate nonce: %w", err)
	}

	sealed := s.aead.Seal(nonce, nonce, []byte(token), []byte(TokenKey))
	if err := s.kv.Set(ctx, TokenKey, sealed); err != nil {
		s.logger.Error("Error saving token", zap.Error(err))
		return err
	}

	s.logger.Debug("Token saved securely")
	return nil
}

// Token returns the persisted token. Read or decrypt failures are logged and
// reported as absent.
func (s *SecureTokenStore) Token(ctx context.Context) (string, bool) {
	sealed, err := s.kv.Get(ctx, TokenKey)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.logger.Error("Error retrieving token", zap.Error(err))
		}
		return "", false
	}

	token, err := s.open(sealed)
	if err != nil {
		s.logger.Error("Error retrieving token", zap.Error(err))
		return "", false
	}
	return token, true
}

// RemoveToken deletes the persisted token
func (s *SecureTokenStore) RemoveToken(ctx context.Context) error {
	if err := s.kv.Delete(ctx, TokenKey); err != nil {
		s.logger.Error("Error removing token", zap.Error(err))
		return err
	}
	s.logger.Debug("Token removed")
	return nil
}

func (s *SecureTokenStore) open(sealed []byte) (string, error) {
	n := s.aead.NonceSize()
	if len(sealed) < n {
		return "", ErrCorruptToken
	}
	plain, err := s.aead.Open(nil, sealed[:n], sealed[n:], []byte(TokenKey))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrCorruptToken, err)
	}
	return string(plain), nil
}

// LoadMasterKey reads the master key from keyHex, falling back to keyFile.
// A missing key file is created with a fresh random key.
func LoadMasterKey(keyHex, keyFile string) ([]byte, error) {
	keyHex = strings.TrimSpace(keyHex)
	if keyHex == "" {
		data, err := os.ReadFile(keyFile)
		if err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed to read key file: %w", err)
			}
			return generateMasterKey(keyFile)
		}
		keyHex = strings.TrimSpace(string(data))
	}

	key, err := hex.DecodeString(keyHex)
	if err != nil {
		return nil, fmt.Errorf("master key hex decode error: %w", err)
	}
	if len(key) != masterKeyLength {
		return nil, ErrInvalidMasterKey
	}
	return key, nil
}

func generateMasterKey(keyFile string) ([]byte, error) {
	key := make([]byte, masterKeyLength)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return nil, fmt.Errorf("failed to generate master key: %w", err)
	}
	if err := os.WriteFile(keyFile, []byte(hex.EncodeToString(key)), 0600); err != nil {
		return nil, fmt.Errorf("failed to write key file: %w", err)
	}
	return key, nil
}
