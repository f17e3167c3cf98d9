package domain

import (
	"bytes"
	"context"
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

type contextKey string

const claimsKey contextKey = "auth_claims"

// UserClaims are the application-specific claims minted by the identity service.
// LicenceValidity is a Unix timestamp (seconds); nil means the claim is absent.
type UserClaims struct {
	LicenceValidity *int64 `json:"LicenceValidity,omitempty"`
	MotelID         string `json:"MotelID,omitempty"`
}

// UnmarshalJSON accepts MotelID as a string or number and LicenceValidity as a number or numeric string.
// A LicenceValidity that is not numeric decodes as absent.
func (u *UserClaims) UnmarshalJSON(data []byte) error {
	var raw struct {
		LicenceValidity json.RawMessage `json:"LicenceValidity"`
		MotelID         FlexString      `json:"MotelID"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	u.MotelID = string(raw.MotelID)
	u.LicenceValidity = unixSeconds(raw.LicenceValidity)
	return nil
}

func unixSeconds(raw json.RawMessage) *int64 {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}
	text := string(raw)
	if raw[0] == '"' {
		if err := json.Unmarshal(raw, &text); err != nil {
			return nil
		}
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	v := int64(f)
	return &v
}

// Claims is the verified content of a bearer credential.
type Claims struct {
	Subject    string
	Issuer     string
	Audience   []string
	ExpiresAt  *time.Time
	UserClaims *UserClaims
}

// OrganizationID returns the organization the caller belongs to, or "" when absent.
func (c *Claims) OrganizationID() string {
	if c == nil || c.UserClaims == nil {
		return ""
	}
	return c.UserClaims.MotelID
}

// LicenceValidUntil returns the licence expiry and whether the claim was present.
func (c *Claims) LicenceValidUntil() (int64, bool) {
	if c == nil || c.UserClaims == nil || c.UserClaims.LicenceValidity == nil {
		return 0, false
	}
	return *c.UserClaims.LicenceValidity, true
}

// WithClaims stores verified claims in the request context.
func WithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

// ClaimsFromContext returns the claims stored by the authentication gate, or nil.
func ClaimsFromContext(ctx context.Context) *Claims {
	claims, _ := ctx.Value(claimsKey).(*Claims)
	return claims
}
