package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"math"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"fundwatch-hq/fundwatch/pkg/api/middleware"
	"fundwatch-hq/fundwatch/pkg/gate"
	"fundwatch-hq/fundwatch/pkg/holdings"
	"fundwatch-hq/fundwatch/pkg/limits/ratelimit"
	"fundwatch-hq/fundwatch/pkg/snapshot"
	"fundwatch-hq/fundwatch/pkg/telemetry/logging"
)

// Source is the authoritative data behind the gated routes.
// *holdings.Repository implements it.
type Source interface {
	Search(ctx context.Context, query string) (*holdings.SearchResult, error)
	SearchInFund(ctx context.Context, query, fund string) (*holdings.SearchResult, error)
	ListFunds(ctx context.Context) (*holdings.FundList, error)
	TopHoldings(ctx context.Context, fund string, limit int) (*holdings.TopHoldings, error)
	FundsContaining(ctx context.Context, ticker string) (*holdings.StockFunds, error)
	Stats(ctx context.Context) (*holdings.Stats, error)
}

// Gate answers keyed lookups. *gate.Gate[holdings.Payload] implements it.
type Gate interface {
	Handle(ctx context.Context, clientID, key string, compute gate.ComputeFunc[holdings.Payload]) (gate.Result[holdings.Payload], error)
	ServiceLevel() gate.ServiceLevel
	InFlight() int64
}

// Config wires an API. Gate and Source are required.
type Config struct {
	Gate   Gate
	Source Source

	// Limiter is the per-client limiter the gate admits with. It feeds the
	// X-RateLimit-* headers and /api/usage.
	Limiter gate.Limiter

	// Backend is the shared backend budget, reported by /api/usage.
	Backend gate.Limiter

	// Snapshots serves raw snapshots under StaticPath. Nil disables the
	// route.
	Snapshots snapshot.Store

	// StaticPath is the URL prefix of the raw snapshots.
	// Default: "/static/cache"
	StaticPath string

	// CacheStats reports the response cache for /api/usage.
	CacheStats func() CacheStats

	// Clients resolves the caller when no client is in the context.
	Clients middleware.ClientResolver

	Logger *slog.Logger
}

// API holds the route handlers.
type API struct {
	gate       Gate
	source     Source
	limiter    gate.Limiter
	backend    gate.Limiter
	snapshots  snapshot.Store
	staticPath string
	cacheStats func() CacheStats
	clients    middleware.ClientResolver
	logger     *slog.Logger
}

// Route is one registered endpoint. Path doubles as the metrics and span
// label.
type Route struct {
	Method  string
	Path    string
	Handler http.Handler
}

// Pattern returns the ServeMux pattern of the route.
func (rt Route) Pattern() string {
	return rt.Method + " " + rt.Path
}

// New creates an API.
func New(cfg Config) (*API, error) {
	if cfg.Gate == nil {
		return nil, errors.New("api: gate is required")
	}
	if cfg.Source == nil {
		return nil, errors.New("api: source is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	cfg.StaticPath = strings.TrimRight(cfg.StaticPath, "/")
	if cfg.StaticPath == "" {
		cfg.StaticPath = "/static/cache"
	}

	return &API{
		gate:       cfg.Gate,
		source:     cfg.Source,
		limiter:    cfg.Limiter,
		backend:    cfg.Backend,
		snapshots:  cfg.Snapshots,
		staticPath: cfg.StaticPath,
		cacheStats: cfg.CacheStats,
		clients:    cfg.Clients,
		logger:     cfg.Logger.With("component", "api"),
	}, nil
}

// Routes returns every endpoint of the API.
func (a *API) Routes() []Route {
	routes := []Route{
		{http.MethodGet, "/api/search", http.HandlerFunc(a.handleSearch)},
		{http.MethodGet, "/api/funds", http.HandlerFunc(a.handleFunds)},
		{http.MethodGet, "/api/holdings/{fund}/top", http.HandlerFunc(a.handleTopHoldings)},
		{http.MethodGet, "/api/stock/{ticker}/funds", http.HandlerFunc(a.handleStockFunds)},
		{http.MethodGet, "/api/stats", http.HandlerFunc(a.handleStats)},
		{http.MethodGet, "/api/health", http.HandlerFunc(a.handleHealth)},
		{http.MethodGet, "/api/usage", http.HandlerFunc(a.handleUsage)},
	}
	if a.snapshots != nil {
		routes = append(routes, Route{http.MethodGet, a.staticPath + "/{key}", http.HandlerFunc(a.handleStatic)})
	}
	return routes
}

// Register mounts the routes on mux, passing each through wrap when it is
// not nil. Unknown /api/ paths get a JSON 404.
func (a *API) Register(mux *http.ServeMux, wrap func(route string, h http.Handler) http.Handler) {
	if wrap == nil {
		wrap = func(_ string, h http.Handler) http.Handler { return h }
	}
	for _, rt := range a.Routes() {
		mux.Handle(rt.Pattern(), wrap(rt.Path, rt.Handler))
	}
	mux.Handle("/api/", wrap("/api/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "Endpoint not found")
	})))
}

func (a *API) clientID(r *http.Request) string {
	if id := logging.GetClient(r.Context()); id != "" {
		return id
	}
	return a.clients.Resolve(r)
}

// serveGated answers r with the gated value for key.
func (a *API) serveGated(w http.ResponseWriter, r *http.Request, key string, compute gate.ComputeFunc[holdings.Payload]) {
	clientID := a.clientID(r)

	res, err := a.gate.Handle(r.Context(), clientID, key, compute)
	a.setRateLimitHeaders(w, clientID)
	if err != nil {
		a.writeGateError(w, r, key, err)
		return
	}

	body := res.Value.Body()
	if body == nil {
		a.logger.ErrorContext(r.Context(), "gate returned an empty payload", "key", key, "source", res.Source)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	w.Header().Set("X-Cache-Source", string(res.Source))
	w.Header().Set("X-Service-Level", res.Level.String())
	writeJSON(w, http.StatusOK, body)
}

// setRateLimitHeaders reports the caller's most constrained tier: the one
// with the fewest remaining requests, ties broken by the later reset.
func (a *API) setRateLimitHeaders(w http.ResponseWriter, clientID string) {
	if a.limiter == nil {
		return
	}

	usage := a.limiter.Usage(clientID)
	if len(usage) == 0 {
		return
	}

	names := make([]string, 0, len(usage))
	for name := range usage {
		names = append(names, name)
	}
	sort.Strings(names)

	var tightest ratelimit.TierUsage
	for i, name := range names {
		u := usage[name]
		if i == 0 || u.Remaining < tightest.Remaining ||
			(u.Remaining == tightest.Remaining && u.ResetIn > tightest.ResetIn) {
			tightest = u
		}
	}

	h := w.Header()
	h.Set("X-RateLimit-Limit", strconv.Itoa(tightest.Max))
	h.Set("X-RateLimit-Remaining", strconv.Itoa(tightest.Remaining))
	h.Set("X-RateLimit-Reset", strconv.Itoa(int(math.Ceil(tightest.ResetIn.Seconds()))))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
