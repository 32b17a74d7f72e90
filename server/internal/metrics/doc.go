// Package metrics keeps request and signal counters for the /metrics endpoint.
//
// Counters are built as prometheus client_model families and encoded with
// prometheus/common/expfmt, so any Prometheus scraper can read them:
//
//	signalapi_http_requests_total{code="200",route="/lucky"} 3
//	signalapi_signals_generated_total{action="BUY"} 7
package metrics
