package partner

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"partner-edge/internal/domain"
	"partner-edge/internal/infrastructure/observability"

	"golang.org/x/oauth2"
)

// DefaultTokenLifetime applies when the token endpoint omits expires_in.
const DefaultTokenLifetime = time.Hour

// OAuthConfig holds the partner application's OAuth settings.
type OAuthConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	Scope        string
	AuthURL      string
	TokenURL     string
}

// OAuth runs the authorization code flow and token refreshes against the partner.
type OAuth struct {
	config     oauth2.Config
	httpClient *http.Client
	metrics    *observability.Metrics
	now        func() time.Time
}

// NewOAuth creates the partner OAuth adapter. Credentials are sent as form parameters.
func NewOAuth(cfg OAuthConfig, httpClient *http.Client, metrics *observability.Metrics) *OAuth {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	var scopes []string
	if cfg.Scope != "" {
		scopes = []string{cfg.Scope}
	}
	return &OAuth{
		config: oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURI,
			Scopes:       scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:   cfg.AuthURL,
				TokenURL:  cfg.TokenURL,
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		httpClient: httpClient,
		metrics:    metrics,
		now:        time.Now,
	}
}

// AuthCodeURL builds the consent URL. state carries the organization id.
func (o *OAuth) AuthCodeURL(state string) string {
	return o.config.AuthCodeURL(state)
}

// Exchange trades an authorization code for tokens plus the account and location the user selected.
func (o *OAuth) Exchange(ctx context.Context, code string) (*domain.TokenGrant, error) {
	tok, err := o.config.Exchange(o.withClient(ctx), code)
	if err != nil {
		o.metrics.PartnerRequest("exchange", "error")
		return nil, upstreamFromOAuth("Token exchange failed", err)
	}
	o.metrics.PartnerRequest("exchange", "ok")

	expiresAt := tok.Expiry
	if expiresAt.IsZero() {
		expiresAt = o.now().Add(DefaultTokenLifetime)
	}
	return &domain.TokenGrant{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		ExpiresAt:    expiresAt,
		AccountID:    extraString(tok, "account_id"),
		LocationID:   extraString(tok, "location_id"),
	}, nil
}

// TokenSource returns a source that refreshes token with grant_type=refresh_token once it expires.
func (o *OAuth) TokenSource(ctx context.Context, token *oauth2.Token) oauth2.TokenSource {
	return o.config.TokenSource(o.withClient(ctx), token)
}

func (o *OAuth) withClient(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, o.httpClient)
}

// extraString reads a non-standard token response field. Numeric ids are rendered without exponent.
func extraString(tok *oauth2.Token, key string) string {
	switch v := tok.Extra(key).(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

func upstreamFromOAuth(message string, err error) error {
	var re *oauth2.RetrieveError
	if errors.As(err, &re) {
		return domain.NewUpstreamError(message, string(re.Body), err)
	}
	return domain.NewUpstreamError(message, "", err)
}
