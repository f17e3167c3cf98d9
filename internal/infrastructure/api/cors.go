package api

import (
	"net/http"
	"strings"

	"github.com/go-chi/cors"
)

// preflightMaxAge is how long browsers may cache a preflight answer, in seconds.
const preflightMaxAge = 300

var (
	corsMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsHeaders = []string{"Content-Type", "Authorization", "X-Turnstile-Token", "X-Code-Token", "turnstileToken", "code"}
)

// CORSPolicy answers cross-origin requests from an allow-list. Entries may use one wildcard,
// e.g. "https://*.example.com". Callers outside the list get the default origin, so every response,
// denials included, carries CORS headers.
type CORSPolicy struct {
	AllowedOrigins []string
	DefaultOrigin  string
}

// FallbackHeaders returns the headers sent to callers whose origin is not on the allow-list.
func (p CORSPolicy) FallbackHeaders() http.Header {
	h := http.Header{}
	h.Set("Access-Control-Allow-Origin", p.DefaultOrigin)
	h.Set("Access-Control-Allow-Methods", strings.Join(corsMethods, ", "))
	h.Set("Access-Control-Allow-Headers", strings.Join(corsHeaders, ", "))
	h.Set("Access-Control-Allow-Credentials", "true")
	return h
}

// Handler writes the fallback headers, then lets go-chi/cors match the origin and answer
// preflights for allowed origins. Every OPTIONS request ends with 204.
func (p CORSPolicy) Handler() func(http.Handler) http.Handler {
	matcher := func(next http.Handler) http.Handler { return next }
	// go-chi/cors treats an empty list as "allow all"
	if len(p.AllowedOrigins) > 0 {
		matcher = cors.New(cors.Options{
			AllowedOrigins:     p.AllowedOrigins,
			AllowedMethods:     corsMethods,
			AllowedHeaders:     corsHeaders,
			AllowCredentials:   true,
			MaxAge:             preflightMaxAge,
			OptionsPassthrough: true,
		}).Handler
	}
	fallback := p.FallbackHeaders()

	return func(next http.Handler) http.Handler {
		terminal := matcher(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		}))

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for k, v := range fallback {
				w.Header()[k] = append([]string(nil), v...)
			}
			terminal.ServeHTTP(w, r)
		})
	}
}
