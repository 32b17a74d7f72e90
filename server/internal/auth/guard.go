package auth

import (
	"crypto/subtle"
	"encoding/json"
	"log/slog"
	"net/http"
)

// Guard enforces a shared-secret API key on the handlers it wraps.
//
// Behaviour:
//   - If secret == "", the guard is disabled and every request passes.
//   - Otherwise the value of header must equal secret exactly.
//   - A missing or incorrect key is answered with 401 and never reaches
//     the wrapped handler.
//
// A Guard is immutable; its state is fixed when it is built.
type Guard struct {
	header string
	secret string
}

// New returns a Guard reading the key from header. An empty secret yields a
// disabled guard.
func New(header, secret string) *Guard {
	return &Guard{header: header, secret: secret}
}

// Enabled reports whether a secret is configured.
func (g *Guard) Enabled() bool {
	return g.secret != ""
}

// Header returns the name of the header the key is read from.
func (g *Guard) Header() string {
	return g.header
}

// Check reports whether r carries the expected key. It always succeeds when
// the guard is disabled.
func (g *Guard) Check(r *http.Request) error {
	if !g.Enabled() {
		return nil
	}
	got := r.Header.Get(g.header)
	if got == "" {
		return ErrMissingKey
	}
	if subtle.ConstantTimeCompare([]byte(got), []byte(g.secret)) != 1 {
		return ErrInvalidKey
	}
	return nil
}

// Wrap returns next gated by the guard.
func (g *Guard) Wrap(next http.Handler) http.Handler {
	if !g.Enabled() {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := g.Check(r); err != nil {
			slog.WarnContext(r.Context(), "auth: rejected request",
				"path", r.URL.Path,
				"remote", r.RemoteAddr,
				"reason", err.Error(),
			)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"error": err.Error()}) //nolint:errcheck
			return
		}
		next.ServeHTTP(w, r)
	})
}
