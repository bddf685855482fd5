// Package metrics wires the prometheus registry and HTTP server shared
// by both binaries, generalized from the teacher's main.go.
package metrics

import (
	"net"
	"net/http"

	"github.com/oklog/run"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRegistry builds a registry preloaded with the standard Go and
// process collectors, matching the teacher's main.go.
func NewRegistry() *prometheus.Registry {
	r := prometheus.NewRegistry()
	r.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

// AddHTTPServer registers a health+metrics HTTP server on listen as an
// actor in g, following the teacher's run.Group actor shape.
func AddHTTPServer(g *run.Group, listen string, r prometheus.Gatherer) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.Handle("/metrics", promhttp.HandlerFor(r, promhttp.HandlerOpts{}))

	l, err := net.Listen("tcp", listen)
	if err != nil {
		return err
	}

	g.Add(func() error {
		if err := http.Serve(l, mux); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	}, func(error) {
		_ = l.Close()
	})
	return nil
}
