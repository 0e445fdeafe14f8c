// Package metrics exposes prometheus collectors for uploads, account
// retries and requests to the remote instance.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/custodia-labs/usermgr/internal/core/domain"
	"github.com/custodia-labs/usermgr/internal/core/ports/driven"
	"github.com/custodia-labs/usermgr/internal/logger"
)

// Ensure Metrics implements the interface.
var _ driven.UploadRecorder = (*Metrics)(nil)

const namespace = "usermgr"

// Metrics holds the collectors of one process.
type Metrics struct {
	placesFinished *prometheus.CounterVec
	placeDuration  *prometheus.HistogramVec
	accountRetries *prometheus.CounterVec
	remoteRequests *prometheus.CounterVec
	remoteDuration *prometheus.HistogramVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		placesFinished: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "upload",
				Name:      "places_total",
				Help:      "Places that reached a terminal upload state.",
			},
			[]string{"state"},
		),
		placeDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "upload",
				Name:      "place_duration_seconds",
				Help:      "Time spent uploading one place.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"state"},
		),
		accountRetries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "upload",
				Name:      "account_retries_total",
				Help:      "Recoverable user account rejections.",
			},
			[]string{"reason"},
		),
		remoteRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "remote",
				Name:      "requests_total",
				Help:      "Requests sent to the remote instance.",
			},
			[]string{"method", "status"},
		),
		remoteDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "remote",
				Name:      "request_duration_seconds",
				Help:      "Remote request duration in seconds.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method"},
		),
	}

	reg.MustRegister(m.placesFinished, m.placeDuration, m.accountRetries, m.remoteRequests, m.remoteDuration)
	return m
}

// PlaceFinished records a place reaching a terminal state.
func (m *Metrics) PlaceFinished(state domain.UploadState, elapsed time.Duration) {
	m.placesFinished.WithLabelValues(string(state)).Inc()
	m.placeDuration.WithLabelValues(string(state)).Observe(elapsed.Seconds())
}

// AccountRetry records a recoverable account rejection.
func (m *Metrics) AccountRetry(reason domain.RejectionReason) {
	m.accountRetries.WithLabelValues(reason.String()).Inc()
}

// ObserveRequest records a remote request. A zero status means no
// response was received.
func (m *Metrics) ObserveRequest(method string, status int, elapsed time.Duration) {
	statusLabel := "error"
	if status > 0 {
		statusLabel = strconv.Itoa(status)
	}
	m.remoteRequests.WithLabelValues(method, statusLabel).Inc()
	m.remoteDuration.WithLabelValues(method).Observe(elapsed.Seconds())
}

// Handler serves g under /metrics.
func Handler(g prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(g, promhttp.HandlerOpts{}))
	return mux
}

// Serve exposes g on addr until ctx is done.
func Serve(ctx context.Context, addr string, g prometheus.Gatherer) error {
	mux := Handler(g)

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Debug("serving metrics on %s", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
