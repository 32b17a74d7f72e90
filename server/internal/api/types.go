package api

// HealthResponse is the payload for GET /health.
type HealthResponse struct {
	Status     string `json:"status"`
	ServerTime string `json:"server_time"` // RFC3339, UTC
	Version    string `json:"version"`
}

// RootResponse is the payload for GET / in the dev profile.
type RootResponse struct {
	Message string `json:"message"`
}

// FieldError describes one invalid request field.
type FieldError struct {
	Loc  []string `json:"loc"`
	Msg  string   `json:"msg"`
	Type string   `json:"type"`
}

// errorResponse is a generic JSON error body. Detail is set only for
// validation failures.
type errorResponse struct {
	Error  string       `json:"error"`
	Detail []FieldError `json:"detail,omitempty"`
}
