package ports

import (
	"context"

	"partner-edge/internal/domain"

	"golang.org/x/oauth2"
)

// PartnerOAuth performs the authorization code flow against the partner.
type PartnerOAuth interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (*domain.TokenGrant, error)

	// TokenSource returns a source that refreshes the given token when it expires
	TokenSource(ctx context.Context, token *oauth2.Token) oauth2.TokenSource
}

// PartnerAPI defines the partner REST operations used by the integration.
type PartnerAPI interface {
	GetAccount(ctx context.Context, token *oauth2.Token, accountID string) (*domain.PartnerAccount, error)
	PutCatalog(ctx context.Context, token *oauth2.Token, locationID string, catalog *domain.Catalog) error
	UpdateOrder(ctx context.Context, token *oauth2.Token, orderID string, update domain.OrderStatusUpdate) error
	CreateCallback(ctx context.Context, token *oauth2.Token, locationID, callbackURL string, events []string) error
}

// PartnerTokens seals tokens for storage and resolves live tokens for outbound calls.
type PartnerTokens interface {
	Seal(accessToken, refreshToken string) (accessEnc, refreshEnc string, err error)
	Token(ctx context.Context, conn *domain.Connection) (*oauth2.Token, error)
}
