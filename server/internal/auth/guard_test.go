package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

// passHandler answers 200 "ok".
var passHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok")) //nolint:errcheck
})

func callWithKey(t *testing.T, g *Guard, header, key string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/lucky", nil)
	if key != "" {
		req.Header.Set(header, key)
	}
	rr := httptest.NewRecorder()
	g.Wrap(passHandler).ServeHTTP(rr, req)
	return rr
}

func TestGuard_EmptySecret_PassesThrough(t *testing.T) {
	g := New("X-API-Key", "")
	if g.Enabled() {
		t.Fatal("Enabled: got true, want false")
	}
	rr := callWithKey(t, g, "X-API-Key", "")
	if rr.Code != http.StatusOK {
		t.Errorf("status: got %d, want 200", rr.Code)
	}
	// Any key is accepted while disabled.
	rr = callWithKey(t, g, "X-API-Key", "whatever")
	if rr.Code != http.StatusOK {
		t.Errorf("status with key: got %d, want 200", rr.Code)
	}
}

func TestGuard_CorrectKey_Passes(t *testing.T) {
	g := New("X-API-Key", "supersecret")
	rr := callWithKey(t, g, "X-API-Key", "supersecret")
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rr.Code)
	}
	if rr.Body.String() != "ok" {
		t.Errorf("body: got %q, want ok", rr.Body.String())
	}
}

func TestGuard_WrongKey_Unauthorized(t *testing.T) {
	g := New("X-API-Key", "supersecret")
	rr := callWithKey(t, g, "X-API-Key", "wrong")
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status: got %d, want 401", rr.Code)
	}
	var body map[string]string
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["error"] != "invalid api key" {
		t.Errorf("error: got %q, want invalid api key", body["error"])
	}
}

func TestGuard_MissingHeader_Unauthorized(t *testing.T) {
	g := New("X-API-Key", "supersecret")
	rr := callWithKey(t, g, "X-API-Key", "")
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status: got %d, want 401", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type: got %q, want application/json", ct)
	}
}

func TestGuard_PrefixOfSecret_Unauthorized(t *testing.T) {
	// Exact match only: neither a prefix nor an extension of the secret passes.
	g := New("X-API-Key", "supersecret")
	for _, k := range []string{"super", "supersecret2", "SUPERSECRET", " supersecret"} {
		if rr := callWithKey(t, g, "X-API-Key", k); rr.Code != http.StatusUnauthorized {
			t.Errorf("key %q: got %d, want 401", k, rr.Code)
		}
	}
}

func TestGuard_CustomHeader(t *testing.T) {
	g := New("X-Trust-Token", "mytoken")
	if rr := callWithKey(t, g, "X-Trust-Token", "mytoken"); rr.Code != http.StatusOK {
		t.Errorf("status: got %d, want 200", rr.Code)
	}
	// The default header name is not consulted.
	if rr := callWithKey(t, g, "X-API-Key", "mytoken"); rr.Code != http.StatusUnauthorized {
		t.Errorf("status via other header: got %d, want 401", rr.Code)
	}
}

func TestGuard_HeaderCaseInsensitive(t *testing.T) {
	g := New("x-api-key", "k")
	if rr := callWithKey(t, g, "X-Api-Key", "k"); rr.Code != http.StatusOK {
		t.Errorf("status: got %d, want 200", rr.Code)
	}
}

func TestGuard_Check(t *testing.T) {
	g := New("X-API-Key", "s3")
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if err := g.Check(req); !errors.Is(err, ErrMissingKey) {
		t.Errorf("no header: got %v, want ErrMissingKey", err)
	}
	req.Header.Set("X-API-Key", "nope")
	if err := g.Check(req); !errors.Is(err, ErrInvalidKey) {
		t.Errorf("wrong header: got %v, want ErrInvalidKey", err)
	}
	req.Header.Set("X-API-Key", "s3")
	if err := g.Check(req); err != nil {
		t.Errorf("right header: got %v, want nil", err)
	}
}
