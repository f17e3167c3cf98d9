package application

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"partner-edge/internal/domain"
	"partner-edge/internal/ports"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
)

const (
	integrationsPath = "/admin/settings/integrations"
	webhookPath      = "/api/partner/webhook"

	defaultAccountName = "Unknown"
)

// WebhookEvents are the partner events the webhook callback subscribes to.
var WebhookEvents = []string{domain.EventOrderCreate, domain.EventOrderUpdate}

// IntegrationService manages the lifecycle of an organization's partner connection
type IntegrationService struct {
	repo        ports.ConnectionRepository
	oauth       ports.PartnerOAuth
	api         ports.PartnerAPI
	tokens      ports.PartnerTokens
	logger      zerolog.Logger
	appURL      string
	apiEndpoint string
}

// NewIntegrationService creates a new integration service
func NewIntegrationService(
	repo ports.ConnectionRepository,
	oauth ports.PartnerOAuth,
	api ports.PartnerAPI,
	tokens ports.PartnerTokens,
	logger zerolog.Logger,
	appURL string,
	apiEndpoint string,
) *IntegrationService {
	return &IntegrationService{
		repo:        repo,
		oauth:       oauth,
		api:         api,
		tokens:      tokens,
		logger:      logger,
		appURL:      strings.TrimRight(appURL, "/"),
		apiEndpoint: strings.TrimRight(apiEndpoint, "/"),
	}
}

// ConnectResult tells the dashboard where to send the user
type ConnectResult struct {
	AuthURL string `json:"authUrl"`
	Message string `json:"message"`
}

// Connect builds the partner authorization URL. The organization id travels in the state parameter.
func (s *IntegrationService) Connect(ctx context.Context, organizationID string) (*ConnectResult, error) {
	if organizationID == "" {
		return nil, domain.NewBadRequestError("Organization ID not found")
	}
	return &ConnectResult{
		AuthURL: s.oauth.AuthCodeURL(organizationID),
		Message: "Redirect user to this URL to connect the partner account",
	}, nil
}

// CallbackInput holds the query parameters of the OAuth redirect
type CallbackInput struct {
	Code  string
	State string
	Error string
}

// HandleCallback completes the OAuth flow and returns the dashboard URL to redirect to.
// Only malformed callbacks return an error; every other failure is reported through the redirect.
func (s *IntegrationService) HandleCallback(ctx context.Context, in CallbackInput) (string, error) {
	if in.Error != "" {
		s.logger.Warn().Str("error", in.Error).Msg("Partner authorization was refused")
		return s.redirectURL("error", in.Error), nil
	}
	if in.Code == "" || in.State == "" {
		return "", domain.NewBadRequestError("Invalid callback parameters")
	}

	if err := s.connect(ctx, in.State, in.Code); err != nil {
		s.logger.Error().Err(err).Str("organizationId", in.State).Msg("OAuth callback failed")
		return s.redirectURL("error", "callback_failed"), nil
	}
	return s.redirectURL("connected", "true"), nil
}

func (s *IntegrationService) connect(ctx context.Context, organizationID, code string) error {
	grant, err := s.oauth.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("failed to exchange code: %w", err)
	}
	token := &oauth2.Token{AccessToken: grant.AccessToken, TokenType: "Bearer", Expiry: grant.ExpiresAt}

	accountName := defaultAccountName
	if grant.AccountID != "" {
		account, err := s.api.GetAccount(ctx, token, grant.AccountID)
		switch {
		case err != nil:
			s.logger.Warn().Err(err).Str("organizationId", organizationID).Msg("Failed to fetch partner account name")
		case account.Name != "":
			accountName = account.Name
		}
	}

	accessEnc, refreshEnc, err := s.tokens.Seal(grant.AccessToken, grant.RefreshToken)
	if err != nil {
		return err
	}

	conn := &domain.Connection{
		OrganizationID:   organizationID,
		RemoteAccountID:  grant.AccountID,
		RemoteLocationID: grant.LocationID,
		AccessTokenEnc:   accessEnc,
		RefreshTokenEnc:  refreshEnc,
		TokenExpiresAt:   grant.ExpiresAt,
		AccountName:      accountName,
	}
	if err := s.repo.Upsert(ctx, conn); err != nil {
		return fmt.Errorf("failed to store connection: %w", err)
	}

	s.logger.Info().
		Str("organizationId", organizationID).
		Str("accountId", grant.AccountID).
		Str("locationId", grant.LocationID).
		Msg("Partner connection stored")

	if grant.LocationID != "" {
		callbackURL := s.apiEndpoint + webhookPath
		if err := s.api.CreateCallback(ctx, token, grant.LocationID, callbackURL, WebhookEvents); err != nil {
			s.logger.Warn().Err(err).Str("organizationId", organizationID).Msg("Failed to register webhook callback")
		}
	}
	return nil
}

func (s *IntegrationService) redirectURL(key, value string) string {
	q := url.Values{}
	q.Set(key, value)
	return s.appURL + integrationsPath + "?" + q.Encode()
}

// Status returns connection metadata without touching the stored tokens
func (s *IntegrationService) Status(ctx context.Context, organizationID string) (*domain.ConnectionStatus, error) {
	if organizationID == "" {
		return nil, domain.NewBadRequestError("Organization ID not found")
	}
	conn, err := s.repo.GetByOrganization(ctx, organizationID)
	if err != nil {
		return nil, fmt.Errorf("failed to get connection: %w", err)
	}
	if conn == nil {
		return &domain.ConnectionStatus{Connected: false, Message: "No partner connection found"}, nil
	}

	connectedAt := conn.ConnectedAt
	return &domain.ConnectionStatus{
		Connected:    conn.IsActive,
		AccountName:  conn.AccountName,
		AccountID:    conn.RemoteAccountID,
		ConnectedAt:  &connectedAt,
		LastSyncedAt: conn.LastSyncedAt,
	}, nil
}

// Disconnect deactivates the connection. The row is kept so a reconnect reuses it.
func (s *IntegrationService) Disconnect(ctx context.Context, organizationID string) error {
	if organizationID == "" {
		return domain.NewBadRequestError("Organization ID not found")
	}
	if err := s.repo.Deactivate(ctx, organizationID); err != nil {
		return fmt.Errorf("failed to deactivate connection: %w", err)
	}
	s.logger.Info().Str("organizationId", organizationID).Msg("Partner connection deactivated")
	return nil
}
