package db

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/tordrt/prismagen/internal/schema"
)

// StoreMetrics holds the collectors of an ObservableStore
type StoreMetrics struct {
	operations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
}

// NewStoreMetrics creates the store collectors and registers them with reg
func NewStoreMetrics(reg prometheus.Registerer) *StoreMetrics {
	m := &StoreMetrics{
		operations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "prismagen_store_operations_total",
				Help: "Total number of document store operations",
			},
			[]string{"operation", "status"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "prismagen_store_operation_duration_seconds",
				Help:    "Duration of document store operations in seconds",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 5.0},
			},
			[]string{"operation"},
		),
	}
	reg.MustRegister(m.operations, m.duration)
	return m
}

// TracerName names the tracer of ObservableStore spans
const TracerName = "github.com/tordrt/prismagen/internal/db"

// ObservableStore decorates a Store with metrics, logging and tracing.
// Spans go to the global OpenTelemetry tracer provider.
type ObservableStore struct {
	store   Store
	metrics *StoreMetrics
	logger  *slog.Logger
	tracer  trace.Tracer
}

// NewObservableStore wraps store. metrics and logger may be nil.
func NewObservableStore(store Store, metrics *StoreMetrics, logger *slog.Logger) *ObservableStore {
	return &ObservableStore{store: store, metrics: metrics, logger: logger, tracer: otel.Tracer(TracerName)}
}

func (s *ObservableStore) observe(ctx context.Context, operation, key string, fn func(context.Context) error) error {
	ctx, span := s.tracer.Start(ctx, "store."+operation, trace.WithAttributes(
		attribute.String("operation", operation),
		attribute.String("key", key),
	))
	defer span.End()

	start := time.Now()
	err := fn(ctx)
	duration := time.Since(start)

	if err != nil && !errors.Is(err, ErrNotFound) {
		span.SetStatus(codes.Error, err.Error())
		span.RecordError(err)
	} else {
		span.SetStatus(codes.Ok, "")
	}

	status := "success"
	switch {
	case errors.Is(err, ErrNotFound):
		status = "not_found"
	case err != nil:
		status = "error"
	}

	if s.metrics != nil {
		s.metrics.operations.WithLabelValues(operation, status).Inc()
		s.metrics.duration.WithLabelValues(operation).Observe(duration.Seconds())
	}
	if s.logger != nil {
		level := slog.LevelDebug
		if status == "error" {
			level = slog.LevelWarn
		}
		s.logger.Log(ctx, level, "store operation",
			"operation", operation, "key", key, "status", status, "duration", duration, "error", err)
	}
	return err
}

// Load delegates to the wrapped store
func (s *ObservableStore) Load(ctx context.Context, key string) (*schema.Document, error) {
	var doc *schema.Document
	err := s.observe(ctx, "load", key, func(ctx context.Context) error {
		var err error
		doc, err = s.store.Load(ctx, key)
		return err
	})
	return doc, err
}

// Save delegates to the wrapped store
func (s *ObservableStore) Save(ctx context.Context, key string, doc *schema.Document) error {
	return s.observe(ctx, "save", key, func(ctx context.Context) error {
		return s.store.Save(ctx, key, doc)
	})
}

// Close closes the wrapped store
func (s *ObservableStore) Close() error {
	return s.store.Close()
}
