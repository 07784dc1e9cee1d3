package acnet

import (
	"io"

	"github.com/VictoriaMetrics/metrics"
)

// connMetrics holds the VictoriaMetrics instruments for one Connection.
// Counters are labelled result="..." in the style of a request outcome
// breakdown; reconnects and in-flight gauges stand alone.
type connMetrics struct {
	set *metrics.Set

	dials_total struct {
		success *metrics.Counter
		fail    *metrics.Counter
	}
	reconnects_total  *metrics.Counter
	requests_total    *metrics.Counter
	replies_total     struct {
		success *metrics.Counter
		bad     *metrics.Counter
		timeout *metrics.Counter
	}
	requests_inflight *metrics.Counter
	frames_dropped_total *metrics.Counter
}

func newConnMetrics(prefix string) *connMetrics {
	m := &connMetrics{set: metrics.NewSet()}

	m.dials_total.success = m.set.NewCounter(prefix + `_dials_total{result="success"}`)
	m.dials_total.fail = m.set.NewCounter(prefix + `_dials_total{result="fail"}`)
	m.reconnects_total = m.set.NewCounter(prefix + `_reconnects_total`)
	m.requests_total = m.set.NewCounter(prefix + `_requests_total`)
	m.replies_total.success = m.set.NewCounter(prefix + `_replies_total{result="success"}`)
	m.replies_total.bad = m.set.NewCounter(prefix + `_replies_total{result="bad"}`)
	m.replies_total.timeout = m.set.NewCounter(prefix + `_replies_total{result="timeout"}`)
	m.requests_inflight = m.set.NewCounter(prefix + `_requests_inflight`)
	m.frames_dropped_total = m.set.NewCounter(prefix + `_frames_dropped_total`)

	return m
}

// WritePrometheus renders this connection's metrics in exposition
// format, for embedding in a caller-owned /metrics handler.
func (m *connMetrics) WritePrometheus(w io.Writer) {
	m.set.WritePrometheus(w)
}
