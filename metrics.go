package mwapi

import "sync/atomic"

// MetricID identifies one internal counter.
type MetricID uint8

const (
	// MetricRequests counts every HTTP exchange, retries included.
	MetricRequests MetricID = iota
	// MetricTransportFailures counts exchanges that died below the API layer.
	MetricTransportFailures
	// MetricTokenFetches counts meta=tokens round trips.
	MetricTokenFetches
	// MetricBadTokenRetries counts forced refetches after a badtoken reject.
	MetricBadTokenRetries
	// MetricTokenRetryExhausted counts token flows that ran out of attempts.
	MetricTokenRetryExhausted
	// MetricLoginSuccess counts completed logins, relogins included.
	MetricLoginSuccess
	// MetricLoginFailure counts rejected logins.
	MetricLoginFailure
	// MetricRelogins counts automatic relogin attempts.
	MetricRelogins
	// MetricLogouts counts Logout calls.
	MetricLogouts

	metricCount
)

var metricNames = [metricCount]string{
	MetricRequests:            "requests",
	MetricTransportFailures:   "transport_failures",
	MetricTokenFetches:        "token_fetches",
	MetricBadTokenRetries:     "bad_token_retries",
	MetricTokenRetryExhausted: "token_retry_exhausted",
	MetricLoginSuccess:        "login_success",
	MetricLoginFailure:        "login_failure",
	MetricRelogins:            "relogins",
	MetricLogouts:             "logouts",
}

// String returns the stable snapshot key for the metric.
func (id MetricID) String() string {
	if id >= metricCount {
		return "unknown"
	}
	return metricNames[id]
}

// Metrics is a fixed set of lock-free counters.
type Metrics struct {
	counters [metricCount]atomic.Uint64
}

func newMetrics() *Metrics {
	return &Metrics{}
}

func (m *Metrics) inc(id MetricID) {
	m.counters[id].Add(1)
}

// Value reads one counter.
func (m *Metrics) Value(id MetricID) uint64 {
	if id >= metricCount {
		return 0
	}
	return m.counters[id].Load()
}

// Snapshot copies all counters keyed by name.
func (m *Metrics) Snapshot() map[string]uint64 {
	out := make(map[string]uint64, metricCount)
	for id := MetricID(0); id < metricCount; id++ {
		out[id.String()] = m.counters[id].Load()
	}
	return out
}

// Metrics exposes the client's counters for polling.
func (c *Client) Metrics() *Metrics { return c.metrics }

// MetricsSnapshot copies the client's counters keyed by name.
func (c *Client) MetricsSnapshot() map[string]uint64 { return c.metrics.Snapshot() }
