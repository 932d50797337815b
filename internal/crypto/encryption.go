package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

// ErrEncryption is the only error surfaced for cipher failures. Tampered,
// truncated, and malformed inputs are indistinguishable to callers.
var ErrEncryption = errors.New("encryption operation failed")

const (
	// kdfSalt is fixed for consistency across restarts; a per-installation
	// salt would invalidate previously encrypted columns.
	kdfSalt       = "carddemo_salt_2024"
	kdfIterations = 100_000
	keyLength     = 32

	// Any base64 ciphertext is longer than this; plaintext card numbers are
	// not. Used to tell encrypted values from legacy plaintext rows.
	encryptedLengthThreshold = 20

	fullyMaskedCard = "**** **** **** ****"
)

// Service provides authenticated encryption and masking for sensitive
// fields. The key is derived once at construction; every Encrypt call uses a
// fresh nonce so identical plaintexts are not linkable.
type Service struct {
	aead   cipher.AEAD
	logger *slog.Logger
}

// New derives an AES-256-GCM key from secret via PBKDF2 and returns a ready
// Service. An empty secret generates a temporary random key, which only
// makes sense in development: nothing encrypted with it survives a restart.
func New(secret string, logger *slog.Logger) (*Service, error) {
	keyMaterial := []byte(secret)
	if secret == "" {
		keyMaterial = make([]byte, keyLength)
		if _, err := rand.Read(keyMaterial); err != nil {
			return nil, fmt.Errorf("failed to generate temporary encryption key: %w", err)
		}
		logger.Warn("using temporary encryption key, set ENCRYPTION_KEY for production")
	}

	key := pbkdf2.Key(keyMaterial, []byte(kdfSalt), kdfIterations, keyLength, sha256.New)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cipher: %w", err)
	}

	return &Service{aead: aead, logger: logger}, nil
}

// Encrypt seals plaintext under a fresh random nonce and returns
// base64url(nonce || ciphertext || tag). Empty input passes through.
func (s *Service) Encrypt(plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}

	nonce := make([]byte, s.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		s.logger.Error("failed to generate nonce", slog.Any("error", err))
		return "", ErrEncryption
	}

	sealed := s.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.URLEncoding.EncodeToString(sealed), nil
}

// Decrypt reverses Encrypt. Every failure mode returns ErrEncryption.
func (s *Service) Decrypt(encrypted string) (string, error) {
	if encrypted == "" {
		return "", nil
	}

	sealed, err := base64.URLEncoding.DecodeString(encrypted)
	if err != nil {
		s.logger.Error("failed to decode encrypted data")
		return "", ErrEncryption
	}
	if len(sealed) < s.aead.NonceSize() {
		return "", ErrEncryption
	}

	nonce, ciphertext := sealed[:s.aead.NonceSize()], sealed[s.aead.NonceSize():]
	plaintext, err := s.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		s.logger.Error("failed to decrypt data")
		return "", ErrEncryption
	}

	return string(plaintext), nil
}

// EncryptCardNumber strips formatting and encrypts the digit-only number.
func (s *Service) EncryptCardNumber(cardNumber string) (string, error) {
	return s.Encrypt(digitsOnly(cardNumber))
}

// DecryptCardNumber reverses EncryptCardNumber.
func (s *Service) DecryptCardNumber(encryptedCardNumber string) (string, error) {
	return s.Decrypt(encryptedCardNumber)
}

// LooksEncrypted reports whether a stored value appears to be ciphertext.
// Plaintext card numbers never exceed the threshold even fully formatted,
// while a base64url nonce plus ciphertext always does.
func LooksEncrypted(value string) bool {
	return len(value) > encryptedLengthThreshold
}

// MaskCardNumber renders a card number for display, revealing only the last
// 4 digits in space-separated blocks of 4. Values longer than the plaintext
// threshold are treated as ciphertext and decrypted first; if that fails the
// fully masked placeholder is returned rather than an error.
func (s *Service) MaskCardNumber(cardNumber string) string {
	value := cardNumber
	if len(cardNumber) > encryptedLengthThreshold {
		decrypted, err := s.DecryptCardNumber(cardNumber)
		if err != nil {
			return fullyMaskedCard
		}
		value = decrypted
	}

	clean := digitsOnly(value)
	if len(clean) < 4 {
		return strings.Repeat("*", len(clean))
	}

	masked := strings.Repeat("*", len(clean)-4) + clean[len(clean)-4:]

	var blocks []string
	for i := 0; i < len(masked); i += 4 {
		end := i + 4
		if end > len(masked) {
			end = len(masked)
		}
		blocks = append(blocks, masked[i:end])
	}
	return strings.Join(blocks, " ")
}

func digitsOnly(value string) string {
	var b strings.Builder
	for _, r := range value {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
