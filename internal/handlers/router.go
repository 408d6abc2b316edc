package handlers

import (
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/xelth-com/eckbiz/internal/access"
	"github.com/xelth-com/eckbiz/internal/buildinfo"
	"github.com/xelth-com/eckbiz/internal/lifecycle"
	"github.com/xelth-com/eckbiz/internal/metrics"
	"github.com/xelth-com/eckbiz/internal/middleware"
	"github.com/xelth-com/eckbiz/internal/services"
	"github.com/xelth-com/eckbiz/internal/services/tickets"
	"github.com/xelth-com/eckbiz/internal/tenant"
	"github.com/xelth-com/eckbiz/internal/utils"
	"github.com/xelth-com/eckbiz/internal/websocket"
)

// Deps are the long-lived collaborators of the HTTP layer.
type Deps struct {
	Resolver    middleware.DBResolver
	Issuer      *utils.TokenIssuer
	Hub         *websocket.Hub
	Log         *zap.Logger
	Dedup       *utils.Deduplicator
	Limiter     *middleware.RateLimiter
	Links       *utils.ShareLinks
	Proxies     middleware.TrustedProxies
	CORSOrigins []string
	// Now overrides the service clock; nil means wall-clock UTC.
	Now func() time.Time
}

// Router wraps the mux router and its dependencies
type Router struct {
	*mux.Router
	deps     Deps
	validate *validator.Validate
}

// NewRouter creates a new HTTP router with all routes
func NewRouter(deps Deps) *Router {
	if deps.Log == nil {
		deps.Log = zap.NewNop()
	}
	if deps.Dedup == nil {
		deps.Dedup = utils.NewDeduplicator(tickets.DedupWindow)
	}
	r := &Router{
		Router:   mux.NewRouter(),
		deps:     deps,
		validate: newValidator(),
	}
	r.Use(middleware.RealIP(deps.Proxies), middleware.Recover, middleware.RequestLogger(deps.Log), metrics.InstrumentHandler)
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		respondJSON(w, http.StatusNotFound, map[string]string{"error": "route not found"})
	})

	// Health check endpoint
	r.HandleFunc("/health", r.healthCheck).Methods(http.MethodGet)
	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)
	if deps.Hub != nil {
		r.Handle("/ws", websocket.Handler(deps.Hub, deps.Issuer, deps.CORSOrigins)).Methods(http.MethodGet)
	}

	// Auth routes
	auth := r.PathPrefix("/auth").Subrouter()
	var login http.Handler = http.HandlerFunc(r.login)
	if deps.Limiter != nil {
		login = deps.Limiter.Handler(login)
	}
	auth.Handle("/login", login).Methods(http.MethodPost)
	auth.HandleFunc("/refresh", r.refresh).Methods(http.MethodPost)
	auth.Handle("/me", middleware.Auth(deps.Issuer)(middleware.Tenant(deps.Resolver)(http.HandlerFunc(r.me)))).Methods(http.MethodGet)

	// Public ticket intake and shared documents
	public := r.PathPrefix("/public").Subrouter()
	if deps.Limiter != nil {
		public.Use(deps.Limiter.Handler)
	}
	public.Handle("/tickets", middleware.PublicTenant(deps.Resolver)(http.HandlerFunc(r.intakeTicket))).Methods(http.MethodPost)
	if deps.Links != nil {
		public.HandleFunc("/quotes/{token}", r.sharedQuote).Methods(http.MethodGet)
	}

	// Tenant API (protected)
	api := r.PathPrefix("").Subrouter()
	api.Use(middleware.Auth(deps.Issuer), middleware.Tenant(deps.Resolver))
	r.routeCompanies(api)
	r.routeEmployees(api)
	r.routeSuppliers(api)
	r.routeProducts(api)
	r.routeContacts(api)
	r.routeQuotes(api)
	r.routeSalesOrders(api)
	r.routeExpenses(api)
	r.routeContent(api)
	r.routeCalendar(api)
	r.routeOnboarding(api)
	r.routePerformance(api)
	r.routeShifts(api)
	r.routeTickets(api)
	r.routeDashboard(api)
	r.routeUsers(api)

	return r
}

// Handler returns the router behind CORS. Preflight requests never match a
// route, so CORS has to sit outside mux.
func (r *Router) Handler() http.Handler {
	return middleware.CORS(r.deps.CORSOrigins)(r)
}

// guarded registers h on path behind a permission check.
func guarded(sr *mux.Router, path, method, resource string, action access.Action, h http.HandlerFunc) {
	sr.Handle(path, middleware.Require(resource, action)(h)).Methods(method)
}

// base returns the service base bound to the request's tenant.
func (r *Router) base(req *http.Request) services.Base {
	var events lifecycle.Notifier
	if r.deps.Hub != nil {
		events = r.deps.Hub
	}
	b := services.NewBase(tenant.DBFrom(req.Context()), events)
	if r.deps.Now != nil {
		b.Now = r.deps.Now
	}
	return b
}

// userID is the authenticated caller, or "" on public routes.
func userID(req *http.Request) string {
	if c := middleware.ClaimsFrom(req.Context()); c != nil {
		return c.UserID
	}
	return ""
}

// healthCheck returns the health status of the API
func (r *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	respondJSON(w, http.StatusOK, struct {
		Status string `json:"status"`
		buildinfo.Info
	}{"ok", buildinfo.Current(time.Now())})
}
