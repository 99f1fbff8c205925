package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/ValentinKolb/rwKV/lib/store"
	"github.com/VictoriaMetrics/metrics"
)

// serverMetrics holds the metrics of one server instance. A separate set is
// used so that several servers (e.g. in tests) do not share counters.
type serverMetrics struct {
	set *metrics.Set
}

func newServerMetrics(c *store.Container) *serverMetrics {
	set := metrics.NewSet()

	set.NewGauge("rwkv_sessions", func() float64 {
		return float64(c.Len())
	})
	set.NewGauge("rwkv_sessions_max", func() float64 {
		return float64(c.MaxSessions())
	})
	set.NewGauge("rwkv_sessions_created_total", func() float64 {
		created, _ := c.Counters()
		return float64(created)
	})
	set.NewGauge("rwkv_sessions_evicted_total", func() float64 {
		_, evicted := c.Counters()
		return float64(evicted)
	})

	return &serverMetrics{set: set}
}

// observe records a finished request. route is the chi route pattern so the
// number of time series stays bounded.
func (m *serverMetrics) observe(method, route string, status int, took time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	m.set.GetOrCreateCounter(fmt.Sprintf(`rwkv_http_requests_total{method=%q,route=%q,code="%d"}`, method, route, status)).Inc()
	m.set.GetOrCreateHistogram(fmt.Sprintf(`rwkv_http_request_duration_seconds{method=%q,route=%q}`, method, route)).Update(took.Seconds())
}

// rejectedSession counts requests refused by the session rate limit.
func (m *serverMetrics) rejectedSession() {
	m.set.GetOrCreateCounter("rwkv_sessions_rejected_total").Inc()
}

// ServeHTTP writes all metrics in the Prometheus text format.
func (m *serverMetrics) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	m.set.WritePrometheus(w)
	metrics.WriteProcessMetrics(w)
}
