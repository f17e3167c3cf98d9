package auth

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"errors"
	"fmt"
	"strings"
	"time"

	"partner-edge/internal/domain"

	"github.com/golang-jwt/jwt/v5"
)

const signingAlgorithm = "ES256"

// tokenClaims is the wire shape of the identity service's access token.
type tokenClaims struct {
	jwt.RegisteredClaims
	UserClaims *domain.UserClaims `json:"userClaims,omitempty"`
}

// TokenVerifier validates ES256 bearer tokens against one public key, issuer and audience.
type TokenVerifier struct {
	key      *ecdsa.PublicKey
	keyErr   error
	issuer   string
	audience string
	now      func() time.Time
}

// NewTokenVerifier parses the PEM once. A missing or unusable key does not fail construction;
// every Verify call then reports a server configuration error.
func NewTokenVerifier(publicKeyPEM, issuer, audience string) *TokenVerifier {
	v := &TokenVerifier{issuer: issuer, audience: audience, now: time.Now}
	v.key, v.keyErr = parsePublicKey(publicKeyPEM)
	return v
}

// WithClock replaces the verifier's time source.
func (v *TokenVerifier) WithClock(now func() time.Time) *TokenVerifier {
	v.now = now
	return v
}

// Verify checks the signature, algorithm, issuer, audience and temporal claims of token.
func (v *TokenVerifier) Verify(token string) (*domain.Claims, error) {
	if token == "" {
		return nil, domain.NewClientAuthError("Token not provided", domain.ErrTokenNotProvided)
	}
	if v.keyErr != nil {
		return nil, domain.NewServerConfigError(v.keyErr)
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{signingAlgorithm}),
		jwt.WithTimeFunc(v.now),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}
	if v.audience != "" {
		opts = append(opts, jwt.WithAudience(v.audience))
	}

	parsed, err := jwt.ParseWithClaims(token, &tokenClaims{}, func(t *jwt.Token) (interface{}, error) {
		return v.key, nil
	}, opts...)
	if err != nil {
		return nil, domain.NewClientAuthError(err.Error(), err)
	}

	tc, ok := parsed.Claims.(*tokenClaims)
	if !ok || !parsed.Valid {
		return nil, domain.NewClientAuthError("Invalid token", nil)
	}
	return tc.toDomain(), nil
}

// Verify is a one-shot helper around TokenVerifier.
func Verify(token, publicKeyPEM, issuer, audience string) (*domain.Claims, error) {
	return NewTokenVerifier(publicKeyPEM, issuer, audience).Verify(token)
}

func (c *tokenClaims) toDomain() *domain.Claims {
	claims := &domain.Claims{
		Subject:    c.Subject,
		Issuer:     c.Issuer,
		Audience:   []string(c.Audience),
		UserClaims: c.UserClaims,
	}
	if c.ExpiresAt != nil {
		exp := c.ExpiresAt.Time
		claims.ExpiresAt = &exp
	}
	return claims
}

func parsePublicKey(publicKeyPEM string) (*ecdsa.PublicKey, error) {
	if strings.TrimSpace(publicKeyPEM) == "" {
		return nil, domain.ErrMissingPublicKey
	}
	// keys pasted into env vars often carry literal \n sequences
	normalized := strings.ReplaceAll(publicKeyPEM, `\n`, "\n")

	key, err := jwt.ParseECPublicKeyFromPEM([]byte(normalized))
	if err != nil {
		return nil, fmt.Errorf("failed to parse public key: %w", err)
	}
	if key.Curve.Params().Name != elliptic.P256().Params().Name {
		return nil, errors.New("public key is not on curve P-256")
	}
	return key, nil
}
