package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/inonewetrust/signalapi/server/internal/api"
	"github.com/inonewetrust/signalapi/server/internal/auth"
	"github.com/inonewetrust/signalapi/server/internal/metrics"
	"github.com/inonewetrust/signalapi/server/internal/middleware"
	"github.com/inonewetrust/signalapi/server/internal/signal"
)

// --- test helpers -----------------------------------------------------------

const testKey = "s3cret"

type failingSource struct{}

func (failingSource) Signal(context.Context, string) (signal.Signal, error) {
	return signal.Signal{}, errors.New("model offline")
}

func newHandler(opts ...api.Option) http.Handler {
	return api.New(signal.NewPlaceholder(), opts...)
}

func guarded(opts ...api.Option) http.Handler {
	return newHandler(append(opts, api.WithGuard(auth.New("X-API-Key", testKey)))...)
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
	return rr
}

func getWithKey(t *testing.T, h http.Handler, path, key string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.Header.Set("X-API-Key", key)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decode(t *testing.T, rr *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(rr.Body).Decode(v); err != nil {
		t.Fatalf("decode JSON: %v (body: %s)", err, rr.Body.String())
	}
}

type errorBody struct {
	Error  string           `json:"error"`
	Detail []api.FieldError `json:"detail"`
}

// --- / ----------------------------------------------------------------------

func TestRoot_DevProfile(t *testing.T) {
	rr := get(t, newHandler(api.WithRoot(true)), "/")
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rr.Code)
	}
	var resp api.RootResponse
	decode(t, rr, &resp)
	if resp.Message != api.WelcomeMessage {
		t.Errorf("message: got %q", resp.Message)
	}
}

func TestRoot_DisabledReturns404(t *testing.T) {
	rr := get(t, newHandler(), "/")
	if rr.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want 404", rr.Code)
	}
}

func TestUnknownPath_Returns404(t *testing.T) {
	rr := get(t, newHandler(api.WithRoot(true)), "/nope")
	if rr.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want 404", rr.Code)
	}
}

// --- /health ----------------------------------------------------------------

func TestHealth_OK(t *testing.T) {
	fixed := time.Date(2024, 3, 1, 12, 30, 0, 0, time.FixedZone("X", 3600))
	h := newHandler(api.WithVersion("1.2.3"), api.WithClock(func() time.Time { return fixed }))
	rr := get(t, h, "/health")

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type: got %q", ct)
	}
	var resp api.HealthResponse
	decode(t, rr, &resp)
	if resp.Status != "ok" {
		t.Errorf("status: got %q, want ok", resp.Status)
	}
	if resp.ServerTime != "2024-03-01T11:30:00Z" {
		t.Errorf("server_time: got %q, want 2024-03-01T11:30:00Z", resp.ServerTime)
	}
	if resp.Version != "1.2.3" {
		t.Errorf("version: got %q, want 1.2.3", resp.Version)
	}
}

func TestHealth_NeverGuarded(t *testing.T) {
	rr := get(t, guarded(), "/health")
	if rr.Code != http.StatusOK {
		t.Errorf("status: got %d, want 200", rr.Code)
	}
}

func TestHealth_NeverRateLimited(t *testing.T) {
	h := newHandler(api.WithRateLimit(middleware.RateLimit(0.001, 1)))
	for i := 0; i < 3; i++ {
		if rr := get(t, h, "/health"); rr.Code != http.StatusOK {
			t.Fatalf("request %d: got %d, want 200", i, rr.Code)
		}
	}
}

func TestHealth_MethodNotAllowed(t *testing.T) {
	rr := httptest.NewRecorder()
	newHandler().ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/health", nil))
	if rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("status: got %d, want 405", rr.Code)
	}
}

// --- /search ----------------------------------------------------------------

func TestSearch_Ticker(t *testing.T) {
	rr := get(t, newHandler(), "/search?q=aapl")
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200 (body: %s)", rr.Code, rr.Body.String())
	}
	var resp map[string]interface{}
	decode(t, rr, &resp)
	if resp["query"] != "aapl" {
		t.Errorf("query: got %v", resp["query"])
	}
	if resp["normalized"] != "AAPL" {
		t.Errorf("normalized: got %v, want AAPL", resp["normalized"])
	}
	if resp["type"] != "ticker" {
		t.Errorf("type: got %v, want ticker", resp["type"])
	}
	sugg, _ := resp["suggestions"].([]interface{})
	if len(sugg) != 1 || sugg[0] != "AAPL" {
		t.Errorf("suggestions: got %v, want [AAPL]", resp["suggestions"])
	}
}

func TestSearch_Company(t *testing.T) {
	rr := get(t, newHandler(), "/search?q=apple+inc")
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rr.Code)
	}
	var resp map[string]interface{}
	decode(t, rr, &resp)
	if resp["normalized"] != "Apple Inc" {
		t.Errorf("normalized: got %v, want Apple Inc", resp["normalized"])
	}
	if resp["type"] != "company" {
		t.Errorf("type: got %v, want company", resp["type"])
	}
	sugg, ok := resp["suggestions"].([]interface{})
	if !ok || len(sugg) != 0 {
		t.Errorf("suggestions: got %v, want []", resp["suggestions"])
	}
}

func TestSearch_ValidationErrors(t *testing.T) {
	tests := []struct {
		name, path, wantType string
	}{
		{"missing", "/search", "missing"},
		{"empty", "/search?q=", "string_too_short"},
		{"too long", "/search?q=" + strings.Repeat("a", 21), "string_too_long"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rr := get(t, newHandler(), tc.path)
			if rr.Code != http.StatusUnprocessableEntity {
				t.Fatalf("status: got %d, want 422", rr.Code)
			}
			var body errorBody
			decode(t, rr, &body)
			if len(body.Detail) != 1 {
				t.Fatalf("detail: got %d entries, want 1", len(body.Detail))
			}
			d := body.Detail[0]
			if d.Type != tc.wantType {
				t.Errorf("type: got %q, want %q", d.Type, tc.wantType)
			}
			if len(d.Loc) != 2 || d.Loc[0] != "query" || d.Loc[1] != "q" {
				t.Errorf("loc: got %v, want [query q]", d.Loc)
			}
			if d.Msg == "" {
				t.Error("msg: empty")
			}
		})
	}
}

func TestSearch_RepeatedQueryUsesLast(t *testing.T) {
	rr := get(t, newHandler(), "/search?q=a&q=bb+cc")
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rr.Code)
	}
	var resp map[string]interface{}
	decode(t, rr, &resp)
	if resp["type"] != "company" || resp["normalized"] != "Bb Cc" {
		t.Errorf("got type=%v normalized=%v, want company Bb Cc", resp["type"], resp["normalized"])
	}
}

func TestSearch_ExpandingTicker(t *testing.T) {
	rr := get(t, newHandler(), "/search?q=%C3%9F")
	var resp map[string]interface{}
	decode(t, rr, &resp)
	if resp["type"] != "ticker" || resp["normalized"] != "SS" {
		t.Errorf("got type=%v normalized=%v, want ticker SS", resp["type"], resp["normalized"])
	}
}

func TestSearch_MaxLengthAccepted(t *testing.T) {
	rr := get(t, newHandler(), "/search?q="+strings.Repeat("a", 20))
	if rr.Code != http.StatusOK {
		t.Errorf("status: got %d, want 200", rr.Code)
	}
}

func TestSearch_MethodNotAllowed(t *testing.T) {
	rr := httptest.NewRecorder()
	newHandler().ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/search?q=aapl", nil))
	if rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("status: got %d, want 405", rr.Code)
	}
}

// --- /signal/{symbol} -------------------------------------------------------

func TestSignal_EvenLengthBuy(t *testing.T) {
	rr := get(t, newHandler(), "/signal/aapl")
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rr.Code)
	}
	var sig signal.Signal
	decode(t, rr, &sig)
	if sig.Symbol != "AAPL" {
		t.Errorf("symbol: got %q, want AAPL", sig.Symbol)
	}
	if sig.Action != signal.ActionBuy {
		t.Errorf("action: got %q, want BUY", sig.Action)
	}
	if sig.Score != 1.0 {
		t.Errorf("score: got %v, want 1.0", sig.Score)
	}
	want := []string{"Placeholder engine: deterministic demo", "Symbol length = 4 → score 1.00"}
	if len(sig.Reasons) != 2 || sig.Reasons[0] != want[0] || sig.Reasons[1] != want[1] {
		t.Errorf("reasons: got %v, want %v", sig.Reasons, want)
	}
}

func TestSignal_OddLengthHold(t *testing.T) {
	rr := get(t, newHandler(), "/signal/GOOGL")
	var sig signal.Signal
	decode(t, rr, &sig)
	if sig.Action != signal.ActionHold {
		t.Errorf("action: got %q, want HOLD", sig.Action)
	}
	if sig.Score != 1.5 {
		t.Errorf("score: got %v, want 1.5", sig.Score)
	}
}

func TestSignal_EmptySymbolNotFound(t *testing.T) {
	rr := get(t, newHandler(), "/signal/")
	if rr.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want 404", rr.Code)
	}
}

func TestSignal_SourceFailure(t *testing.T) {
	h := api.New(failingSource{})
	rr := get(t, h, "/signal/AAPL")
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status: got %d, want 500", rr.Code)
	}
	var body errorBody
	decode(t, rr, &body)
	if body.Error != "signal source failed" {
		t.Errorf("error: got %q", body.Error)
	}
}

func TestSignal_MethodNotAllowed(t *testing.T) {
	rr := httptest.NewRecorder()
	newHandler().ServeHTTP(rr, httptest.NewRequest(http.MethodDelete, "/signal/AAPL", nil))
	if rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("status: got %d, want 405", rr.Code)
	}
}

// --- /lucky -----------------------------------------------------------------

func TestLucky_FixedPicks(t *testing.T) {
	rr := get(t, newHandler(), "/lucky")
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rr.Code)
	}
	var resp signal.LuckyResponse
	decode(t, rr, &resp)

	want := []string{"AAPL", "MSFT", "NVDA", "GOOGL", "AMZN"}
	if len(resp.Picks) != len(want) {
		t.Fatalf("picks: got %d, want %d", len(resp.Picks), len(want))
	}
	for i, sym := range want {
		if resp.Picks[i].Symbol != sym {
			t.Errorf("pick %d: got %q, want %q", i, resp.Picks[i].Symbol, sym)
		}
		if resp.Picks[i].Action == signal.ActionSell {
			t.Errorf("pick %d: unexpected SELL", i)
		}
	}
	if resp.Note != signal.LuckyNote {
		t.Errorf("note: got %q", resp.Note)
	}
}

func TestLucky_SourceFailure(t *testing.T) {
	rr := get(t, api.New(failingSource{}), "/lucky")
	if rr.Code != http.StatusInternalServerError {
		t.Errorf("status: got %d, want 500", rr.Code)
	}
}

// --- access guard -----------------------------------------------------------

func TestGuard_ProtectedRoutes(t *testing.T) {
	h := guarded()
	paths := []string{"/search?q=aapl", "/signal/AAPL", "/lucky"}

	for _, p := range paths {
		t.Run(p, func(t *testing.T) {
			rr := get(t, h, p)
			if rr.Code != http.StatusUnauthorized {
				t.Errorf("no key: got %d, want 401", rr.Code)
			}
			var body errorBody
			decode(t, rr, &body)
			if body.Error != auth.ErrMissingKey.Error() {
				t.Errorf("no key error: got %q", body.Error)
			}

			if rr := getWithKey(t, h, p, "wrong"); rr.Code != http.StatusUnauthorized {
				t.Errorf("wrong key: got %d, want 401", rr.Code)
			}
			if rr := getWithKey(t, h, p, testKey); rr.Code != http.StatusOK {
				t.Errorf("right key: got %d, want 200", rr.Code)
			}
		})
	}
}

func TestGuard_DisabledPassesThrough(t *testing.T) {
	h := newHandler(api.WithGuard(auth.New("X-API-Key", "")))
	if rr := get(t, h, "/lucky"); rr.Code != http.StatusOK {
		t.Errorf("status: got %d, want 200", rr.Code)
	}
}

// --- rate limit -------------------------------------------------------------

func TestRateLimit_AppliesToProtectedRoutes(t *testing.T) {
	h := newHandler(api.WithRateLimit(middleware.RateLimit(0.001, 1)))
	if rr := get(t, h, "/lucky"); rr.Code != http.StatusOK {
		t.Fatalf("first: got %d, want 200", rr.Code)
	}
	if rr := get(t, h, "/signal/AAPL"); rr.Code != http.StatusTooManyRequests {
		t.Errorf("second: got %d, want 429", rr.Code)
	}
}

// --- /metrics ---------------------------------------------------------------

func TestMetrics_Mounted(t *testing.T) {
	reg := metrics.New()
	reg.ObserveRequest(api.RouteLucky, http.StatusOK)
	h := guarded(api.WithMetrics(reg))

	rr := get(t, h, "/metrics")
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), metrics.RequestsTotal) {
		t.Errorf("body missing %s:\n%s", metrics.RequestsTotal, rr.Body.String())
	}
}

func TestMetrics_MethodNotAllowedIsJSON(t *testing.T) {
	h := newHandler(api.WithMetrics(metrics.New()))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/metrics", nil))
	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status: got %d, want 405", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type: got %q, want application/json", ct)
	}
	var body errorBody
	decode(t, rr, &body)
	if body.Error != "method not allowed" {
		t.Errorf("error: got %q", body.Error)
	}
}

func TestMetrics_NotMountedReturns404(t *testing.T) {
	if rr := get(t, newHandler(), "/metrics"); rr.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want 404", rr.Code)
	}
}

// --- /stream ----------------------------------------------------------------

func TestStream_GuardedAndGetOnly(t *testing.T) {
	var hits int
	stream := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.WriteHeader(http.StatusNoContent)
	})
	h := guarded(api.WithStream(stream))

	if rr := get(t, h, "/stream"); rr.Code != http.StatusUnauthorized {
		t.Errorf("no key: got %d, want 401", rr.Code)
	}
	if rr := getWithKey(t, h, "/stream", testKey); rr.Code != http.StatusNoContent {
		t.Errorf("right key: got %d, want 204", rr.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/stream", nil)
	req.Header.Set("X-API-Key", testKey)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("POST: got %d, want 405", rr.Code)
	}
	if hits != 1 {
		t.Errorf("stream hits: got %d, want 1", hits)
	}
}

// --- RouteOf ----------------------------------------------------------------

func TestRouteOf(t *testing.T) {
	tests := map[string]string{
		"/":            api.RouteRoot,
		"/health":      api.RouteHealth,
		"/search":      api.RouteSearch,
		"/signal/AAPL": api.RouteSignal,
		"/signal/":     api.RouteSignal,
		"/lucky":       api.RouteLucky,
		"/metrics":     api.RouteMetrics,
		"/stream":      api.RouteStream,
		"/wp-admin":    api.RouteOther,
	}
	for path, want := range tests {
		if got := api.RouteOf(path); got != want {
			t.Errorf("RouteOf(%q): got %q, want %q", path, got, want)
		}
	}
}
