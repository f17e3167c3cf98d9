package auth

import (
	"context"
	"errors"
	"net/http"
	"time"

	"partner-edge/internal/domain"
	"partner-edge/internal/infrastructure/observability"
	"partner-edge/internal/infrastructure/respond"

	"github.com/rs/zerolog"
)

// Policy is the authentication requirement attached to a route.
type Policy string

const (
	PolicyNone         Policy = "none"
	PolicyBotChallenge Policy = "bot-challenge"
	PolicyToken        Policy = "token"
)

const licenseMessage = "License expired or missing. Please purchase a plan."

// Verifier validates bearer credentials.
type Verifier interface {
	Verify(token string) (*domain.Claims, error)
}

// ChallengeVerifier validates bot-challenge tokens.
type ChallengeVerifier interface {
	Verify(ctx context.Context, token string) (*ChallengeResult, error)
}

// Gate decides, once per request, whether the caller may reach the route handler.
type Gate struct {
	verifier   Verifier
	challenge  ChallengeVerifier
	production bool
	metrics    *observability.Metrics
	logger     zerolog.Logger
	now        func() time.Time
}

// NewGate creates an authentication gate
func NewGate(
	verifier Verifier,
	challenge ChallengeVerifier,
	production bool,
	metrics *observability.Metrics,
	logger zerolog.Logger,
) *Gate {
	return &Gate{
		verifier:   verifier,
		challenge:  challenge,
		production: production,
		metrics:    metrics,
		logger:     logger,
		now:        time.Now,
	}
}

// Authenticate applies policy to r. It returns the verified claims for PolicyToken and nil otherwise.
func (g *Gate) Authenticate(r *http.Request, policy Policy) (*domain.Claims, error) {
	switch policy {
	case PolicyNone:
		return nil, nil

	case PolicyBotChallenge:
		token := ChallengeToken(r.Header)
		if token == "" {
			return nil, domain.NewLicenseError("Turnstile token missing")
		}
		if _, err := g.challenge.Verify(r.Context(), token); err != nil {
			return nil, err
		}
		return nil, nil

	case PolicyToken:
		token := ExtractCredential(r.Header, g.production)
		claims, err := g.verifier.Verify(token)
		if err != nil {
			return nil, err
		}
		validUntil, ok := claims.LicenceValidUntil()
		if !ok || validUntil <= g.now().Unix() {
			return nil, domain.NewLicenseError(licenseMessage)
		}
		return claims, nil

	default:
		return nil, domain.NewServerConfigError(errors.New("unknown route policy " + string(policy)))
	}
}

// Require returns middleware enforcing policy. Verified claims are stored in the request context.
func (g *Gate) Require(policy Policy) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := g.Authenticate(r, policy)
			if err != nil {
				g.metrics.AuthDecision(string(policy), outcome(err))
				g.logDenied(r, policy, err)
				respond.Err(w, err)
				return
			}
			g.metrics.AuthDecision(string(policy), "allow")

			if claims != nil {
				r = r.WithContext(domain.WithClaims(r.Context(), claims))
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (g *Gate) logDenied(r *http.Request, policy Policy, err error) {
	event := g.logger.Warn()
	if domain.KindOf(err) == domain.KindServerConfig {
		event = g.logger.Error()
	}
	event.Err(err).
		Str("policy", string(policy)).
		Str("path", r.URL.Path).
		Int("status", domain.StatusOf(err)).
		Msg("Request denied by authentication gate")
}

func outcome(err error) string {
	switch domain.KindOf(err) {
	case domain.KindClientAuth:
		return "deny_credential"
	case domain.KindLicense:
		return "deny_forbidden"
	case domain.KindServerConfig:
		return "deny_config"
	default:
		return "deny_error"
	}
}
