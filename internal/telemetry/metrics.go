// Package telemetry exports Prometheus metrics for catalog requests and favorites.
package telemetry

import (
	"errors"
	"time"

	"github.com/dnswlt/pokedex/internal/favorites"
	"github.com/dnswlt/pokedex/internal/pokeapi"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics is the set of observations the application reports.
type Metrics interface {
	pokeapi.Observer
	ObserveFavorites(ev favorites.Event)
}

type PrometheusMetrics struct {
	catalogRequests  *prometheus.CounterVec
	catalogDuration  *prometheus.HistogramVec
	favorites        prometheus.Gauge
	favoriteMutation *prometheus.CounterVec
}

func NewPrometheusMetrics(registerer prometheus.Registerer) *PrometheusMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	factory := promauto.With(registerer)

	return &PrometheusMetrics{
		catalogRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pokedex_catalog_requests_total",
				Help: "Total number of requests to the remote catalog",
			},
			[]string{"op", "status"},
		),
		catalogDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pokedex_catalog_request_duration_seconds",
				Help:    "Duration of remote catalog requests in seconds",
				Buckets: []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"op"},
		),
		favorites: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "pokedex_favorites",
				Help: "Current number of favorites",
			},
		),
		favoriteMutation: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pokedex_favorite_mutations_total",
				Help: "Total number of favorites mutations",
			},
			[]string{"op"},
		),
	}
}

// RequestStatus returns the status label for a catalog request error.
func RequestStatus(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, pokeapi.ErrNotFound):
		return "not_found"
	case errors.Is(err, pokeapi.ErrParse):
		return "parse_error"
	}
	return "unavailable"
}

func (p *PrometheusMetrics) ObserveCatalogRequest(op string, duration time.Duration, err error) {
	p.catalogRequests.WithLabelValues(op, RequestStatus(err)).Inc()
	p.catalogDuration.WithLabelValues(op).Observe(duration.Seconds())
}

// ObserveFavorites has the signature of a favorites.Observer.
func (p *PrometheusMetrics) ObserveFavorites(ev favorites.Event) {
	p.favoriteMutation.WithLabelValues(ev.Op.String()).Inc()
	p.favorites.Set(float64(len(ev.Favorites)))
}

var _ Metrics = (*PrometheusMetrics)(nil)

type NoopMetrics struct{}

func (NoopMetrics) ObserveCatalogRequest(string, time.Duration, error) {}

func (NoopMetrics) ObserveFavorites(favorites.Event) {}

var _ Metrics = NoopMetrics{}
