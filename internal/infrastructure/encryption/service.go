package encryption

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"

	"partner-edge/internal/domain"
	"partner-edge/internal/ports"

	"github.com/google/uuid"
)

const (
	keySize   = 32
	nonceSize = 12
)

// deriveKey pads the secret with '0' and truncates it to 32 bytes.
func deriveKey(secret string) []byte {
	if len(secret) < keySize {
		secret += strings.Repeat("0", keySize-len(secret))
	}
	return []byte(secret[:keySize])
}

func newGCM(secret string) (cipher.AEAD, error) {
	block, err := aes.NewCipher(deriveKey(secret))
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	gcm, err := cipher.NewGCMWithNonceSize(block, nonceSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return gcm, nil
}

// Encrypt seals plaintext with AES-256-GCM and returns base64(nonce || ciphertext).
func Encrypt(plaintext, secret string) (string, error) {
	gcm, err := newGCM(secret)
	if err != nil {
		return "", err
	}
	nonce := make([]byte, nonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}
	sealed := gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt reverses Encrypt. Any malformed input or failed tag check yields domain.ErrDecryption.
func Decrypt(blob, secret string) (string, error) {
	data, err := base64.StdEncoding.DecodeString(blob)
	if err != nil {
		return "", fmt.Errorf("%w: invalid encoding", domain.ErrDecryption)
	}
	if len(data) < nonceSize {
		return "", fmt.Errorf("%w: ciphertext too short", domain.ErrDecryption)
	}
	gcm, err := newGCM(secret)
	if err != nil {
		return "", err
	}
	plaintext, err := gcm.Open(nil, data[:nonceSize], data[nonceSize:], nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrDecryption, err)
	}
	return string(plaintext), nil
}

// ComputeHMAC returns the hex-encoded HMAC-SHA256 of body.
func ComputeHMAC(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// ValidateHMAC reports whether signature is the hex HMAC-SHA256 of body. It never errors.
func ValidateHMAC(body []byte, signature, secret string) bool {
	if signature == "" {
		return false
	}
	got, err := hex.DecodeString(strings.TrimSpace(signature))
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hmac.Equal(got, mac.Sum(nil))
}

// GenerateID returns a random v4 UUID.
func GenerateID() string {
	return uuid.NewString()
}

// Service binds the package functions to a single secret.
type Service struct {
	secret string
}

// NewService creates an encryption service for the given secret
func NewService(secret string) (ports.EncryptionService, error) {
	if secret == "" {
		return nil, domain.NewServerConfigError(fmt.Errorf("encryption secret is empty"))
	}
	return &Service{secret: secret}, nil
}

func (s *Service) Encrypt(plaintext string) (string, error) {
	return Encrypt(plaintext, s.secret)
}

func (s *Service) Decrypt(ciphertext string) (string, error) {
	return Decrypt(ciphertext, s.secret)
}

// SignatureVerifier validates partner webhook signatures. An empty secret disables verification.
type SignatureVerifier struct {
	secret string
}

// NewSignatureVerifier creates a webhook signature verifier
func NewSignatureVerifier(secret string) *SignatureVerifier {
	return &SignatureVerifier{secret: secret}
}

// Enabled reports whether signatures are checked at all.
func (v *SignatureVerifier) Enabled() bool {
	return v.secret != ""
}

func (v *SignatureVerifier) Verify(body []byte, signature string) bool {
	if !v.Enabled() {
		return true
	}
	return ValidateHMAC(body, signature, v.secret)
}
