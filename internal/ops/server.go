// Package ops exposes the optional debug HTTP listener: Prometheus metrics
// and pprof. The listener is off unless an address is configured; it is an
// observer of the run, never a dependency of it.
package ops

import (
	"net/http"
	"time"

	"domainwatch/pkg/controller"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Options holds configuration for the ops listener.
type Options struct {
	// Addr is the TCP address the listener binds, e.g. ":9090".
	Addr string
	// MetricsPath is the HTTP path at which Prometheus metrics are
	// served.
	MetricsPath string
}

// NewServer wires up and returns the ops *http.Server serving the given
// metrics registry and the pprof endpoints, wrapped in the access-log
// middleware.
func NewServer(reg *prometheus.Registry, opts Options) *http.Server {
	mux := http.NewServeMux()

	mux.Handle(opts.MetricsPath, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	mux.Handle("/debug/pprof/", http.StripPrefix("/debug/pprof", controller.PprofMux()))

	handler := controller.WithLogger(mux)

	return &http.Server{
		Addr:              opts.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
}
