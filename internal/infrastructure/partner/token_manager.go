package partner

import (
	"context"
	"fmt"
	"time"

	"partner-edge/internal/domain"
	"partner-edge/internal/ports"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"
)

// refreshSkew refreshes tokens slightly before their recorded expiry.
const refreshSkew = time.Minute

// TokenManager encrypts partner tokens at rest and hands out live tokens for outbound calls.
type TokenManager struct {
	encryptionSvc ports.EncryptionService
	oauth         ports.PartnerOAuth
	repo          ports.ConnectionRepository
	logger        zerolog.Logger
	now           func() time.Time

	// deduplicates concurrent refreshes for the same organization
	refreshGroup singleflight.Group
}

// NewTokenManager creates a new token manager
func NewTokenManager(
	encryptionSvc ports.EncryptionService,
	oauth ports.PartnerOAuth,
	repo ports.ConnectionRepository,
	logger zerolog.Logger,
) *TokenManager {
	return &TokenManager{
		encryptionSvc: encryptionSvc,
		oauth:         oauth,
		repo:          repo,
		logger:        logger,
		now:           time.Now,
	}
}

// EncryptToken encrypts a token before storage. An empty token stays empty.
func (tm *TokenManager) EncryptToken(token string) (string, error) {
	if token == "" {
		return "", nil
	}
	return tm.encryptionSvc.Encrypt(token)
}

// DecryptToken decrypts a stored token
func (tm *TokenManager) DecryptToken(encryptedToken string) (string, error) {
	if encryptedToken == "" {
		return "", nil
	}
	return tm.encryptionSvc.Decrypt(encryptedToken)
}

// Seal encrypts both tokens of a grant.
func (tm *TokenManager) Seal(accessToken, refreshToken string) (accessEnc, refreshEnc string, err error) {
	if accessToken == "" {
		return "", "", fmt.Errorf("access token cannot be empty")
	}
	if accessEnc, err = tm.EncryptToken(accessToken); err != nil {
		return "", "", fmt.Errorf("failed to encrypt access token: %w", err)
	}
	if refreshEnc, err = tm.EncryptToken(refreshToken); err != nil {
		return "", "", fmt.Errorf("failed to encrypt refresh token: %w", err)
	}
	return accessEnc, refreshEnc, nil
}

// ShouldRefresh reports whether the connection's access token is expired or about to expire.
func (tm *TokenManager) ShouldRefresh(conn *domain.Connection) bool {
	if conn.TokenExpiresAt.IsZero() {
		return false
	}
	return !tm.now().Add(refreshSkew).Before(conn.TokenExpiresAt)
}

// Token returns a usable access token for conn. Expired tokens are refreshed and the new pair is
// re-encrypted and stored. If refreshing fails the stored token is returned and the partner decides.
func (tm *TokenManager) Token(ctx context.Context, conn *domain.Connection) (*oauth2.Token, error) {
	access, err := tm.DecryptToken(conn.AccessTokenEnc)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt access token: %w", err)
	}
	refresh, err := tm.DecryptToken(conn.RefreshTokenEnc)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt refresh token: %w", err)
	}

	stored := &oauth2.Token{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		Expiry:       conn.TokenExpiresAt,
	}
	if !tm.ShouldRefresh(conn) || refresh == "" {
		return stored, nil
	}

	v, err, _ := tm.refreshGroup.Do(conn.OrganizationID, func() (any, error) {
		return tm.refresh(ctx, conn, stored)
	})
	if err != nil {
		return nil, err
	}
	return v.(*oauth2.Token), nil
}

func (tm *TokenManager) refresh(ctx context.Context, conn *domain.Connection, stored *oauth2.Token) (*oauth2.Token, error) {
	// force the source to refresh even if oauth2's own expiry delta has not elapsed
	expired := *stored
	expired.Expiry = tm.now().Add(-time.Second)

	fresh, err := tm.oauth.TokenSource(ctx, &expired).Token()
	if err != nil {
		tm.logger.Warn().
			Err(err).
			Str("organizationId", conn.OrganizationID).
			Msg("Failed to refresh partner token, using stored token")
		return stored, nil
	}
	if fresh.RefreshToken == "" {
		fresh.RefreshToken = stored.RefreshToken
	}
	if fresh.Expiry.IsZero() {
		fresh.Expiry = tm.now().Add(DefaultTokenLifetime)
	}

	accessEnc, refreshEnc, err := tm.Seal(fresh.AccessToken, fresh.RefreshToken)
	if err != nil {
		return nil, err
	}
	if err := tm.repo.UpdateTokens(ctx, conn.OrganizationID, accessEnc, refreshEnc, fresh.Expiry); err != nil {
		tm.logger.Error().
			Err(err).
			Str("organizationId", conn.OrganizationID).
			Msg("Failed to store refreshed partner token")
	} else {
		conn.AccessTokenEnc, conn.RefreshTokenEnc, conn.TokenExpiresAt = accessEnc, refreshEnc, fresh.Expiry
		tm.logger.Info().
			Str("organizationId", conn.OrganizationID).
			Time("expiresAt", fresh.Expiry).
			Msg("Refreshed partner access token")
	}
	return fresh, nil
}
