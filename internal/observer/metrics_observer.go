package observer

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricsNamespace = "image_augmentor"

// MetricsObserver exports augmentation events as Prometheus metrics
type MetricsObserver struct {
	registry    *prometheus.Registry
	events      *prometheus.CounterVec
	durations   *prometheus.HistogramVec
	fetchFailed prometheus.Counter
}

// NewMetricsObserver creates an observer with its own registry
func NewMetricsObserver() *MetricsObserver {
	o := &MetricsObserver{
		registry: prometheus.NewRegistry(),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "augmentations_total",
			Help:      "Augmentations by technique and outcome.",
		}, []string{"technique", "outcome"}),
		durations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "augmentation_duration_seconds",
			Help:      "Time spent applying a technique.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}, []string{"technique"}),
		fetchFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "image_fetch_failures_total",
			Help:      "Source images that could not be fetched.",
		}),
	}
	o.registry.MustRegister(o.events, o.durations, o.fetchFailed)
	return o
}

// OnEvent records completed and failed augmentations
func (o *MetricsObserver) OnEvent(ctx context.Context, event AugmentationEvent) {
	switch event.EventType {
	case AugmentationCompleted:
		o.events.WithLabelValues(event.Technique, "success").Inc()
		o.durations.WithLabelValues(event.Technique).Observe(event.ProcessingTime.Seconds())
	case AugmentationFailed:
		o.events.WithLabelValues(event.Technique, "failure").Inc()
	case ImageFetchFailed:
		o.fetchFailed.Inc()
	}
}

// GetObserverName returns the observer name
func (o *MetricsObserver) GetObserverName() string {
	return "metrics_observer"
}

// Registry returns the registry holding the observer's collectors
func (o *MetricsObserver) Registry() *prometheus.Registry {
	return o.registry
}

// Handler serves the metrics in the Prometheus text format
func (o *MetricsObserver) Handler() http.Handler {
	return promhttp.HandlerFor(o.registry, promhttp.HandlerOpts{})
}
