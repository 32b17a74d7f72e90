// Package api implements the HTTP API of signalapi.
//
// New(src, opts...) returns an http.Handler that serves:
//
//	GET /                  — welcome message (dev profile only, else 404)
//	GET /health            — liveness, server time and version; never guarded
//	GET /search?q=         — ticker/company classification; 422 on bad q
//	GET /signal/{symbol}   — placeholder signal for one symbol
//	GET /lucky             — five demo picks with a disclaimer note
//	GET /metrics           — Prometheus text exposition (WithMetrics)
//	GET /stream            — WebSocket push of /lucky (WithStream)
//
// All endpoints:
//   - Respond with Content-Type: application/json (except /metrics and /stream)
//   - Return 405 for non-GET methods
//   - Pass through the rate limit and access guard when they are configured,
//     except /, /health and /metrics
//
// JSON types are defined in types.go and in the query and signal packages.
// No external HTTP framework is used.
package api
