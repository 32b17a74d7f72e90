package metrics

import (
	"bytes"
	"log/slog"
	"net/http"
	"sort"
	"strconv"
	"sync"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
	"google.golang.org/protobuf/proto"
)

// Metric family names exposed on /metrics.
const (
	RequestsTotal = "signalapi_http_requests_total"
	SignalsTotal  = "signalapi_signals_generated_total"
)

type requestKey struct {
	route string
	code  int
}

// Registry is a thread-safe set of in-process counters rendered in the
// Prometheus text exposition format.
type Registry struct {
	mu       sync.Mutex
	requests map[requestKey]uint64
	signals  map[string]uint64
}

// New returns an empty Registry.
func New() *Registry {
	return &Registry{
		requests: make(map[requestKey]uint64),
		signals:  make(map[string]uint64),
	}
}

// ObserveRequest counts one completed HTTP request.
func (r *Registry) ObserveRequest(route string, code int) {
	r.mu.Lock()
	r.requests[requestKey{route: route, code: code}]++
	r.mu.Unlock()
}

// ObserveSignal counts one generated signal by action.
func (r *Registry) ObserveSignal(action string) {
	r.mu.Lock()
	r.signals[action]++
	r.mu.Unlock()
}

// Families returns the current counters as metric families, sorted by
// label values so output is stable.
func (r *Registry) Families() []*dto.MetricFamily {
	r.mu.Lock()
	defer r.mu.Unlock()

	reqKeys := make([]requestKey, 0, len(r.requests))
	for k := range r.requests {
		reqKeys = append(reqKeys, k)
	}
	sort.Slice(reqKeys, func(i, j int) bool {
		if reqKeys[i].route != reqKeys[j].route {
			return reqKeys[i].route < reqKeys[j].route
		}
		return reqKeys[i].code < reqKeys[j].code
	})
	reqs := &dto.MetricFamily{
		Name: proto.String(RequestsTotal),
		Help: proto.String("HTTP requests handled, by route and status code."),
		Type: dto.MetricType_COUNTER.Enum(),
	}
	for _, k := range reqKeys {
		reqs.Metric = append(reqs.Metric, counter(float64(r.requests[k]),
			"code", strconv.Itoa(k.code),
			"route", k.route,
		))
	}

	actions := make([]string, 0, len(r.signals))
	for a := range r.signals {
		actions = append(actions, a)
	}
	sort.Strings(actions)
	sigs := &dto.MetricFamily{
		Name: proto.String(SignalsTotal),
		Help: proto.String("Signals produced by the signal source, by action."),
		Type: dto.MetricType_COUNTER.Enum(),
	}
	for _, a := range actions {
		sigs.Metric = append(sigs.Metric, counter(float64(r.signals[a]), "action", a))
	}

	return []*dto.MetricFamily{reqs, sigs}
}

// ServeHTTP renders all families in the text exposition format.
func (r *Registry) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var buf bytes.Buffer
	for _, mf := range r.Families() {
		// Families without samples are skipped by the text format anyway.
		if len(mf.Metric) == 0 {
			continue
		}
		if _, err := expfmt.MetricFamilyToText(&buf, mf); err != nil {
			slog.Error("metrics: encode failed", "family", mf.GetName(), "err", err)
			http.Error(w, "encode metrics", http.StatusInternalServerError)
			return
		}
	}

	w.Header().Set("Content-Type", string(expfmt.NewFormat(expfmt.TypeTextPlain)))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes()) //nolint:errcheck
}

// counter builds a counter sample; labels are name/value pairs in
// lexicographic order of name.
func counter(v float64, labels ...string) *dto.Metric {
	m := &dto.Metric{Counter: &dto.Counter{Value: proto.Float64(v)}}
	for i := 0; i+1 < len(labels); i += 2 {
		m.Label = append(m.Label, &dto.LabelPair{
			Name:  proto.String(labels[i]),
			Value: proto.String(labels[i+1]),
		})
	}
	return m
}
