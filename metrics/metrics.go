/*
Package metrics exposes wallet activity as prometheus metrics.

A Collector owns all metric vectors and registers them with the given
registerer. Use Sink to count multisig events and Instrument to measure
handler processing time.
*/
package metrics

import (
	"time"

	"github.com/iov-one/smallet"
	"github.com/iov-one/smallet/x/multisig"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "smallet"

// Collector holds the metric vectors of a single application.
type Collector struct {
	events   *prometheus.CounterVec
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewCollector creates all metrics and registers them with reg. Pass a
// dedicated prometheus.NewRegistry() in tests so that collectors do not
// clash.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	c := &Collector{
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "multisig",
			Name:      "events_total",
			Help:      "Count of emitted wallet events.",
		}, []string{"kind"}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "handler",
			Name:      "requests_total",
			Help:      "Count of processed messages.",
		}, []string{"phase", "path", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "handler",
			Name:      "duration_seconds",
			Help:      "Duration of processing a message.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"phase", "path", "status"}),
	}
	for _, m := range []prometheus.Collector{c.events, c.requests, c.duration} {
		if err := reg.Register(m); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Sink returns an event sink counting events by kind.
func (c *Collector) Sink() multisig.EventSink {
	return sink{events: c.events}
}

type sink struct {
	events *prometheus.CounterVec
}

func (s sink) Emit(_ smallet.Context, e multisig.Event) {
	s.events.WithLabelValues(string(e.Kind)).Inc()
}

// Instrument returns a decorator observing every message passing through
// it.
func (c *Collector) Instrument() smallet.Decorator {
	return instrument{c: c}
}

type instrument struct {
	c *Collector
}

var _ smallet.Decorator = instrument{}

func (i instrument) Check(ctx smallet.Context, store smallet.KVStore, tx smallet.Tx, next smallet.Checker) (*smallet.CheckResult, error) {
	started := time.Now()
	res, err := next.Check(ctx, store, tx)
	i.c.observe("check", smallet.GetPath(tx), err, started)
	return res, err
}

func (i instrument) Deliver(ctx smallet.Context, store smallet.KVStore, tx smallet.Tx, next smallet.Deliverer) (*smallet.DeliverResult, error) {
	started := time.Now()
	res, err := next.Deliver(ctx, store, tx)
	i.c.observe("deliver", smallet.GetPath(tx), err, started)
	return res, err
}

func (c *Collector) observe(phase, path string, err error, started time.Time) {
	status := "success"
	if err != nil {
		status = "error"
	}
	c.requests.WithLabelValues(phase, path, status).Inc()
	c.duration.WithLabelValues(phase, path, status).Observe(time.Since(started).Seconds())
}
