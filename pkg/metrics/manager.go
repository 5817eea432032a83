package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

const shutdownTimeout = 5 * time.Second

// CollectorManager serves the metrics of the monitored devices
type CollectorManager struct {
	logger   *log.Entry
	registry *prometheus.Registry
}

// NewCollectorManager registers the collectors of source
func NewCollectorManager(source SummarySource) *CollectorManager {
	registry := prometheus.NewRegistry()
	registry.MustRegister(NewSMARTCollector(source))
	return &CollectorManager{
		logger:   log.WithField("Module", "Metrics"),
		registry: registry,
	}
}

// Handler returns the /metrics handler
func (mc *CollectorManager) Handler() http.Handler {
	return promhttp.HandlerFor(mc.registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is done
func (mc *CollectorManager) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", mc.Handler())
	server := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			mc.logger.WithError(err).Warning("Failed to shutdown metrics server")
		}
	}()

	mc.logger.WithField("addr", addr).Info("Serving metrics")
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
