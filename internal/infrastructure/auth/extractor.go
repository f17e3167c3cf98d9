package auth

import (
	"net/http"
	"net/url"
	"strings"
)

const (
	AccessTokenCookie    = "accessToken"
	ChallengeTokenHeader = "turnstileToken"
)

// ExtractCredential returns the caller's bearer token, or "" when none is present.
// The cookie always wins. Outside production the Authorization header is accepted as a fallback,
// with or without the "Bearer " prefix.
func ExtractCredential(h http.Header, production bool) string {
	if token := CookieValue(h.Get("Cookie"), AccessTokenCookie); token != "" {
		return token
	}
	if production {
		return ""
	}
	authHeader := h.Get("Authorization")
	if token, ok := strings.CutPrefix(authHeader, "Bearer "); ok {
		return token
	}
	return authHeader
}

// CookieValue finds name in a raw Cookie header. The first match wins; '=' inside the value is kept
// and the value is percent-decoded. A value that fails to decode is treated as absent.
func CookieValue(header, name string) string {
	for _, part := range strings.Split(header, ";") {
		pieces := strings.Split(strings.TrimSpace(part), "=")
		if pieces[0] != name {
			continue
		}
		raw := strings.Join(pieces[1:], "=")
		if raw == "" {
			return ""
		}
		value, err := url.PathUnescape(raw)
		if err != nil {
			return ""
		}
		return value
	}
	return ""
}

// ChallengeToken reads the bot-challenge token header.
func ChallengeToken(h http.Header) string {
	return h.Get(ChallengeTokenHeader)
}
