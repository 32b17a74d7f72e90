// Package middleware holds the HTTP wrappers shared by every route:
// request IDs, access logging with metrics, CORS and rate limiting.
//
// Chain(h, RequestID, Observe(...), CORS(...)) applies the list outermost
// first. RateLimit is applied per route by the api package so /health stays
// unthrottled.
package middleware
