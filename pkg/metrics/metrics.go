// Package metrics exposes the server's Prometheus collectors.
//
// Grounded on linkerd/linkerd2's use of github.com/prometheus/client_golang
// for its proxy metrics; gives the core event loop an observability
// surface without it ever touching the HTTP layer itself (see
// SPEC_FULL.md §5, §13).
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds every collector the event loop updates. It is safe
// for concurrent use: Prometheus collectors are internally
// synchronized, which is what lets the metrics HTTP server run on its
// own goroutine outside the single-threaded core (SPEC_FULL.md §5).
type Registry struct {
	reg *prometheus.Registry

	SourcesActive      prometheus.Gauge
	SinksActive        prometheus.Gauge
	SlotsFree          prometheus.Gauge
	InputsFree         prometheus.Gauge
	DatagramsForwarded prometheus.Counter
	DatagramsFannedOut prometheus.Counter
	ClientsEvicted     prometheus.Counter
	SweepDuration      prometheus.Histogram
}

// NewRegistry builds and registers every collector listed in
// SPEC_FULL.md §13.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Registry{
		reg: reg,
		SourcesActive: factory.NewGauge(prometheus.GaugeOpts{
			Name: "gridmeet_sources_active",
			Help: "Number of clients currently publishing video.",
		}),
		SinksActive: factory.NewGauge(prometheus.GaugeOpts{
			Name: "gridmeet_sinks_active",
			Help: "Number of clients currently receiving the composite.",
		}),
		SlotsFree: factory.NewGauge(prometheus.GaugeOpts{
			Name: "gridmeet_slots_free",
			Help: "Number of unassigned grid slots.",
		}),
		InputsFree: factory.NewGauge(prometheus.GaugeOpts{
			Name: "gridmeet_inputs_free",
			Help: "Number of unbound pipeline input ports.",
		}),
		DatagramsForwarded: factory.NewCounter(prometheus.CounterOpts{
			Name: "gridmeet_datagrams_forwarded_total",
			Help: "Datagrams forwarded from a SOURCE client to its pipeline input.",
		}),
		DatagramsFannedOut: factory.NewCounter(prometheus.CounterOpts{
			Name: "gridmeet_datagrams_fanned_out_total",
			Help: "Composite datagrams sent to a SINK client.",
		}),
		ClientsEvicted: factory.NewCounter(prometheus.CounterOpts{
			Name: "gridmeet_clients_evicted_total",
			Help: "Clients removed by a liveness sweep.",
		}),
		SweepDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "gridmeet_sweep_duration_seconds",
			Help:    "Wall-clock time spent running one liveness sweep.",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

// Handler returns the HTTP handler to serve on the metrics address.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}
