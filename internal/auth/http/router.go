package http

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/aussiebroadwan/gatekeeper/internal/auth/service"
	"github.com/aussiebroadwan/gatekeeper/internal/auth/store"
	"github.com/aussiebroadwan/gatekeeper/pkg/httpx"
	"github.com/aussiebroadwan/gatekeeper/pkg/slogx"

	_ "github.com/aussiebroadwan/gatekeeper/api/auth" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// DefaultPublicPaths are reachable without a bearer token. Tokens sent to
// them are ignored.
var DefaultPublicPaths = []string{
	"/api/v1/auth/**",
	"/api/v1/test/**",
	"/livez",
	"/readyz",
	"/swagger/**",
}

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	buildVersion string
	startTime    time.Time
	logger       *slog.Logger
	publicPaths  *httpx.PathMatcher
	limits       httpx.RateLimitProfiles

	store         store.Store
	AuthService   *service.AuthService
	TokenService  *service.TokenService
	UserService   *service.UserService
	Authenticator httpx.TokenAuthenticator
	// ThrottlePing is optional: set when the login throttle is shared (redis).
	ThrottlePing PingFunc

	once    sync.Once
	handler http.Handler
}

func NewRouter(
	buildVersion string,
	st store.Store,
	publicPaths *httpx.PathMatcher,
	limits httpx.RateLimitProfiles,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		buildVersion: buildVersion,
		startTime:    time.Now(),
		logger:       logger,
		publicPaths:  publicPaths,
		limits:       limits,
		store:        st,
	}

	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

// ApplyRoutes registers every endpoint. Services must be set first.
func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerUsers()
	r.registerAdmin()
	r.registerTest()
	r.registerSystem()

	r.Mux.Handle("GET /swagger/", httpSwagger.Handler())

	// The request filter runs on every request, inside the logging middleware
	// so the request logger picks up the principal.
	r.middlewares = append(r.middlewares, httpx.AuthnMiddleware(r.Authenticator, r.publicPaths))
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			Gatekeeper Authentication Service API
//	@version		0.1.0
//	@description	Stateless bearer-token authentication. Register or log in to obtain an HS256 signed token, then send it as "Authorization: Bearer {token}".
//	@description
//	@description				Tokens are short-lived and cannot be refreshed.
//
//	@contact.name				AussieBroadWAN Team
//	@contact.url				https://github.com/aussiebroadwan/gatekeeper
//
//	@license.name				MIT
//	@license.url				https://opensource.org/licenses/MIT
//
//	@host						localhost:8080
//	@BasePath					/
//
//	@schemes					http https
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token. Format: "Bearer {token}".
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.once.Do(func() {
		r.handler = httpx.Chain(r.Mux, r.middlewares...)
	})
	r.handler.ServeHTTP(w, req)
}

func (r *Router) registerAuth() {
	registerHandler := &RegisterHandler{AuthService: r.AuthService}
	loginHandler := &LoginHandler{AuthService: r.AuthService}

	// Credential endpoints - strict rate limit by IP
	r.Mux.Handle("POST /api/v1/auth/register",
		httpx.Chain(registerHandler,
			httpx.RateLimitByIP(r.limits.Strict),
		),
	)
	r.Mux.Handle("POST /api/v1/auth/login",
		httpx.Chain(loginHandler,
			httpx.RateLimitByIP(r.limits.Strict),
		),
	)
}

func (r *Router) registerUsers() {
	h := &UserInfoHandler{UserService: r.UserService}

	secured := httpx.Chain(h,
		httpx.RequireAuthenticated(),
		httpx.RateLimitByPrincipal(r.limits.Moderate),
	)

	r.Mux.Handle("GET /api/v1/users/me", secured)
}

func (r *Router) registerAdmin() {
	h := &AdminHandler{UserService: r.UserService}

	securedPing := httpx.Chain(http.HandlerFunc(h.HandlePing),
		httpx.RequireAnyAuthority(AuthorityAdmin),
		httpx.RateLimitByPrincipal(r.limits.Moderate),
	)
	securedSetActive := httpx.Chain(http.HandlerFunc(h.HandleSetActive),
		httpx.RequireAnyAuthority(AuthorityAdmin),
		httpx.RateLimitByPrincipal(r.limits.Moderate),
	)

	r.Mux.Handle("GET /api/v1/admin/ping", securedPing)
	r.Mux.Handle("PUT /api/v1/admin/principals/{id}/active", securedSetActive)
}

// registerTest mounts a public endpoint under the whitelisted test prefix.
func (r *Router) registerTest() {
	r.Mux.Handle("GET /api/v1/test/ping",
		httpx.Chain(http.HandlerFunc(handleTestPing),
			httpx.RateLimitByIP(r.limits.Public),
		),
	)
}

func (r *Router) registerSystem() {
	// Monitoring systems may poll frequently
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(r.limits.Public),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store, r.TokenService, r.ThrottlePing),
			httpx.RateLimitByIP(r.limits.Public),
		),
	)
}

// handleTestPing godoc
//
//	@Summary	Public test endpoint
//	@Tags		Test
//	@Produce	json
//	@Success	200	{object}	map[string]string	"status"
//	@Router		/api/v1/test/ping [get].
func handleTestPing(w http.ResponseWriter, _ *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
