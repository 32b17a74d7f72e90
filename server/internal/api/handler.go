package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/inonewetrust/signalapi/server/internal/auth"
	"github.com/inonewetrust/signalapi/server/internal/middleware"
	"github.com/inonewetrust/signalapi/server/internal/query"
	"github.com/inonewetrust/signalapi/server/internal/signal"
)

// WelcomeMessage is returned by GET / in the dev profile.
const WelcomeMessage = "Welcome to In One We Trust API"

// Route labels reported by RouteOf.
const (
	RouteRoot    = "/"
	RouteHealth  = "/health"
	RouteSearch  = "/search"
	RouteSignal  = "/signal/{symbol}"
	RouteLucky   = "/lucky"
	RouteMetrics = "/metrics"
	RouteStream  = "/stream"
	RouteOther   = "other"
)

const signalPrefix = "/signal/"

// Handler serves the signal API. It holds no mutable state of its own.
type Handler struct {
	src     signal.Source
	mux     *http.ServeMux
	guard   *auth.Guard
	limit   middleware.Middleware
	stream  http.Handler
	metrics http.Handler
	version string
	root    bool
	now     func() time.Time
}

// Option configures a Handler.
type Option func(*Handler)

// WithGuard gates /search, /signal, /lucky and /stream with g.
func WithGuard(g *auth.Guard) Option {
	return func(h *Handler) { h.guard = g }
}

// WithRateLimit applies mw to the guarded routes. A nil mw is ignored.
func WithRateLimit(mw middleware.Middleware) Option {
	return func(h *Handler) { h.limit = mw }
}

// WithStream mounts s at /stream.
func WithStream(s http.Handler) Option {
	return func(h *Handler) { h.stream = s }
}

// WithMetrics mounts m at /metrics.
func WithMetrics(m http.Handler) Option {
	return func(h *Handler) { h.metrics = m }
}

// WithVersion sets the version reported by /health.
func WithVersion(v string) Option {
	return func(h *Handler) { h.version = v }
}

// WithRoot enables the welcome route at "/".
func WithRoot(enabled bool) Option {
	return func(h *Handler) { h.root = enabled }
}

// WithClock overrides the time source used by /health.
func WithClock(now func() time.Time) Option {
	return func(h *Handler) { h.now = now }
}

// New creates a Handler backed by src and registers all routes.
func New(src signal.Source, opts ...Option) http.Handler {
	h := &Handler{
		src:     src,
		mux:     http.NewServeMux(),
		version: "0.1.0",
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}

	h.mux.HandleFunc("/", h.index)
	h.mux.HandleFunc(RouteHealth, h.health)
	h.mux.Handle(RouteSearch, h.protect(http.HandlerFunc(h.search)))
	h.mux.Handle(signalPrefix, h.protect(http.HandlerFunc(h.getSignal))) // subtree, extracts {symbol}
	h.mux.Handle(RouteLucky, h.protect(http.HandlerFunc(h.lucky)))
	if h.metrics != nil {
		h.mux.Handle(RouteMetrics, getOnly(h.metrics))
	}
	if h.stream != nil {
		h.mux.Handle(RouteStream, h.protect(getOnly(h.stream)))
	}

	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// RouteOf maps a request path to the route label used in logs and metrics.
func RouteOf(path string) string {
	switch path {
	case RouteRoot, RouteHealth, RouteSearch, RouteLucky, RouteMetrics, RouteStream:
		return path
	}
	if strings.HasPrefix(path, signalPrefix) {
		return RouteSignal
	}
	return RouteOther
}

// protect applies the rate limit and then the access guard to next.
func (h *Handler) protect(next http.Handler) http.Handler {
	var gate middleware.Middleware
	if h.guard != nil {
		gate = h.guard.Wrap
	}
	return middleware.Chain(next, h.limit, gate)
}

// --- route handlers ---------------------------------------------------------

// index returns GET / in the dev profile and 404 for every unmatched path.
func (h *Handler) index(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != RouteRoot || !h.root {
		jsonErr(w, http.StatusNotFound, "not found")
		return
	}
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	jsonResp(w, http.StatusOK, RootResponse{Message: WelcomeMessage})
}

// health returns GET /health. It is never guarded.
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	jsonResp(w, http.StatusOK, HealthResponse{
		Status:     "ok",
		ServerTime: h.now().UTC().Format(time.RFC3339),
		Version:    h.version,
	})
}

// search returns GET /search?q= classified as ticker or company.
func (h *Handler) search(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	values, ok := r.URL.Query()["q"]
	if !ok {
		validationErr(w, query.Missing("q"))
		return
	}

	// A repeated q takes its last value.
	res, err := query.Classify(values[len(values)-1])
	if err != nil {
		var ve *query.ValidationError
		if errors.As(err, &ve) {
			validationErr(w, ve)
			return
		}
		jsonErr(w, http.StatusInternalServerError, "classification failed")
		return
	}
	jsonResp(w, http.StatusOK, res)
}

// getSignal returns GET /signal/{symbol}.
func (h *Handler) getSignal(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	symbol := strings.TrimPrefix(r.URL.Path, signalPrefix)
	if symbol == "" || strings.Contains(symbol, "/") {
		jsonErr(w, http.StatusNotFound, "not found")
		return
	}

	sig, err := h.src.Signal(r.Context(), symbol)
	if err != nil {
		slog.ErrorContext(r.Context(), "api: signal failed",
			"request_id", middleware.RequestIDFrom(r.Context()),
			"symbol", symbol,
			"err", err,
		)
		jsonErr(w, http.StatusInternalServerError, "signal source failed")
		return
	}
	jsonResp(w, http.StatusOK, sig)
}

// lucky returns GET /lucky, the demo picks.
func (h *Handler) lucky(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	resp, err := signal.Lucky(r.Context(), h.src)
	if err != nil {
		slog.ErrorContext(r.Context(), "api: lucky failed",
			"request_id", middleware.RequestIDFrom(r.Context()),
			"err", err,
		)
		jsonErr(w, http.StatusInternalServerError, "signal source failed")
		return
	}
	jsonResp(w, http.StatusOK, resp)
}

// --- helpers ----------------------------------------------------------------

func getOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func jsonResp(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func jsonErr(w http.ResponseWriter, code int, msg string) {
	jsonResp(w, code, errorResponse{Error: msg})
}

// validationErr writes a 422 naming the offending query parameter.
func validationErr(w http.ResponseWriter, ve *query.ValidationError) {
	detail := FieldError{
		Loc:  []string{"query", ve.Field},
		Msg:  ve.Msg,
		Type: ve.Kind,
	}
	jsonResp(w, http.StatusUnprocessableEntity, errorResponse{Error: "validation failed", Detail: []FieldError{detail}})
}
