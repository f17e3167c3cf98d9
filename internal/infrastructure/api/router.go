package api

import (
	"fmt"
	"net/http"

	"partner-edge/docs"
	"partner-edge/internal/infrastructure/auth"
	"partner-edge/internal/infrastructure/respond"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	httpSwagger "github.com/swaggo/http-swagger"
)

// Route binds a path to its handler and its authentication policy.
type Route struct {
	Method  string
	Path    string
	Policy  auth.Policy
	Handler http.HandlerFunc
}

// Routes is the route table of the service.
func (h *Handlers) Routes(metrics http.Handler) []Route {
	routes := []Route{
		{http.MethodGet, "/api/partner/connect", auth.PolicyToken, h.Connect},
		{http.MethodGet, "/api/partner/callback", auth.PolicyNone, h.Callback},
		{http.MethodGet, "/api/partner/status", auth.PolicyToken, h.Status},
		{http.MethodPost, "/api/partner/disconnect", auth.PolicyToken, h.Disconnect},
		{http.MethodPost, "/api/partner/sync-menu", auth.PolicyToken, h.SyncMenu},
		{http.MethodPost, "/api/partner/webhook", auth.PolicyNone, h.Webhook},
		{http.MethodPost, "/api/partner/update-order-status", auth.PolicyToken, h.UpdateOrderStatus},
		{http.MethodGet, "/api/partner/orders", auth.PolicyToken, h.Orders},
		{http.MethodPost, "/api/devices/register", auth.PolicyBotChallenge, h.RegisterDevice},
		{http.MethodGet, "/health", auth.PolicyNone, Health},
		{http.MethodGet, "/swagger/doc.json", auth.PolicyNone, swaggerDoc},
		{http.MethodGet, "/swagger/*", auth.PolicyNone, httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json"))},
	}
	if metrics != nil {
		routes = append(routes, Route{http.MethodGet, "/metrics", auth.PolicyNone, metrics.ServeHTTP})
	}
	return routes
}

func swaggerDoc(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(docs.SwaggerJSON)
}

// NewRouter mounts routes behind the CORS policy and the authentication gate.
// It panics if a path is bound twice, since a path must have exactly one policy.
func NewRouter(routes []Route, gate *auth.Gate, corsPolicy CORSPolicy, logger zerolog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{Logger: zerologPrinter{logger}, NoColor: true}))
	r.Use(middleware.Recoverer)
	r.Use(corsPolicy.Handler())

	policies := make(map[string]auth.Policy, len(routes))
	for _, route := range routes {
		if existing, dup := policies[route.Path]; dup {
			panic(fmt.Sprintf("route %s registered twice (policies %s and %s)", route.Path, existing, route.Policy))
		}
		policies[route.Path] = route.Policy
		r.With(gate.Require(route.Policy)).Method(route.Method, route.Path, route.Handler)
	}

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		respond.Error(w, http.StatusNotFound, "Path not found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		respond.Error(w, http.StatusMethodNotAllowed, "Method not allowed", nil)
	})
	return r
}

// zerologPrinter routes chi's access log lines through zerolog.
type zerologPrinter struct {
	logger zerolog.Logger
}

func (p zerologPrinter) Print(v ...interface{}) {
	p.logger.Info().Msg(fmt.Sprint(v...))
}
