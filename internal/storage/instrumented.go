package storage

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"s3gateway/internal/domain"
	"s3gateway/internal/port"
)

// Metrics records storage backend call outcomes.
type Metrics struct {
	operations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
}

// NewMetrics registers the storage collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Metrics{
		operations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "s3gateway",
			Subsystem: "storage",
			Name:      "operations_total",
			Help:      "Storage backend calls by operation and result",
		}, []string{"op", "result"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "s3gateway",
			Subsystem: "storage",
			Name:      "operation_duration_seconds",
			Help:      "Latency of storage backend calls",
			Buckets:   prometheus.DefBuckets,
		}, []string{"op"}),
	}
}

func (m *Metrics) observe(op string, start time.Time, err error) {
	m.duration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	m.operations.WithLabelValues(op, ResultLabel(err)).Inc()
}

// ResultLabel names the outcome of a storage call for metric labels.
func ResultLabel(err error) string {
	if err == nil {
		return "ok"
	}
	switch kind := domain.StorageKind(err); {
	case errors.Is(kind, domain.ErrStorageAccessDenied):
		return "access_denied"
	case errors.Is(kind, domain.ErrStorageNotFound):
		return "not_found"
	case errors.Is(kind, domain.ErrStorageInvalidRequest):
		return "invalid_request"
	case errors.Is(kind, domain.ErrStorageUnavailable):
		return "unavailable"
	default:
		return "failure"
	}
}

type instrumented struct {
	next    port.ObjectStorage
	metrics *Metrics
}

// Instrument wraps next so that every call is counted and timed.
func Instrument(next port.ObjectStorage, m *Metrics) port.ObjectStorage {
	return &instrumented{next: next, metrics: m}
}

func (i *instrumented) Put(ctx context.Context, input port.PutInput) (*port.PutOutput, error) {
	start := time.Now()
	out, err := i.next.Put(ctx, input)
	i.metrics.observe("put", start, err)
	return out, err
}

func (i *instrumented) PresignGet(ctx context.Context, key string, expires time.Duration) (string, error) {
	start := time.Now()
	u, err := i.next.PresignGet(ctx, key, expires)
	i.metrics.observe("presign_get", start, err)
	return u, err
}

func (i *instrumented) Delete(ctx context.Context, key string) error {
	start := time.Now()
	err := i.next.Delete(ctx, key)
	i.metrics.observe("delete", start, err)
	return err
}

func (i *instrumented) Ping(ctx context.Context) error {
	start := time.Now()
	err := i.next.Ping(ctx)
	i.metrics.observe("ping", start, err)
	return err
}
