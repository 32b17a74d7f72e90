// Package config loads the server configuration from the `server:` section of
// a YAML file.
//
// Config fields:
//   - HTTPPort        — port for the REST API and WebSocket stream (default 8000)
//   - Profile         — "dev" or "prod"; selects CORS defaults and the "/" route
//   - Version         — reported by GET /health
//   - Auth.KeyEnv     — environment variable holding the shared secret (default SIGNALAPI_API_KEY)
//   - Auth.Header     — HTTP header carrying the key (default "X-API-Key")
//   - CORS            — explicit origin allow-list; empty means profile default
//   - RateLimit       — token bucket rps/burst; rps 0 disables
//   - Stream.Interval — /stream broadcast period (default 30s)
//   - Tracing.Enabled — OpenTelemetry stdout exporter
//   - Log.Level       — slog level
//
// Load(path) applies defaults before unmarshalling, then validates. An empty
// path returns the defaults. Watch(ctx, path, fn) reports file changes.
package config
