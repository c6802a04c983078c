package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"mediagate/internal/keystore"
	"mediagate/internal/models"
)

// InstrumentedKeystore wraps a keystore.Store implementation with
// OpenTelemetry tracing and metrics instrumentation. Key values are never
// attached to spans; only owners are safe to record.
type InstrumentedKeystore struct {
	inner    keystore.Store
	tracer   trace.Tracer
	duration metric.Float64Histogram
	errors   metric.Int64Counter
}

// NewInstrumentedKeystore creates a store wrapper that records trace spans,
// operation latency histograms, and error counters for every store method call.
func NewInstrumentedKeystore(inner keystore.Store) (*InstrumentedKeystore, error) {
	tracer := otel.Tracer("mediagate/keystore")
	meter := otel.Meter("mediagate/keystore")

	duration, err := meter.Float64Histogram(
		"keystore.operation.duration",
		metric.WithDescription("Duration of key store operations in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	errCounter, err := meter.Int64Counter(
		"keystore.operation.errors",
		metric.WithDescription("Number of key store operation errors"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	return &InstrumentedKeystore{
		inner:    inner,
		tracer:   tracer,
		duration: duration,
		errors:   errCounter,
	}, nil
}

func (s *InstrumentedKeystore) startSpan(ctx context.Context, operation string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	ctx, span := s.tracer.Start(ctx, "keystore."+operation,
		trace.WithAttributes(append([]attribute.KeyValue{
			attribute.String("keystore.operation", operation),
		}, attrs...)...),
	)
	return ctx, span
}

func (s *InstrumentedKeystore) record(ctx context.Context, span trace.Span, operation string, start time.Time, err error) {
	elapsed := time.Since(start).Seconds()
	attrs := metric.WithAttributes(attribute.String("operation", operation))

	s.duration.Record(ctx, elapsed, attrs)

	if err != nil {
		s.errors.Add(ctx, 1, attrs)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}

	span.End()
}

func (s *InstrumentedKeystore) Get(ctx context.Context, key string) (*models.APIKey, error) {
	ctx, span := s.startSpan(ctx, "Get")
	start := time.Now()
	result, err := s.inner.Get(ctx, key)
	s.record(ctx, span, "Get", start, err)
	return result, err
}

func (s *InstrumentedKeystore) Put(ctx context.Context, record *models.APIKey) error {
	ctx, span := s.startSpan(ctx, "Put", attribute.String("owner", record.Owner))
	start := time.Now()
	err := s.inner.Put(ctx, record)
	s.record(ctx, span, "Put", start, err)
	return err
}

func (s *InstrumentedKeystore) Delete(ctx context.Context, key string) error {
	ctx, span := s.startSpan(ctx, "Delete")
	start := time.Now()
	err := s.inner.Delete(ctx, key)
	s.record(ctx, span, "Delete", start, err)
	return err
}

func (s *InstrumentedKeystore) ToggleActive(ctx context.Context, key string) (bool, error) {
	ctx, span := s.startSpan(ctx, "ToggleActive")
	start := time.Now()
	active, err := s.inner.ToggleActive(ctx, key)
	s.record(ctx, span, "ToggleActive", start, err)
	return active, err
}

func (s *InstrumentedKeystore) List(ctx context.Context) ([]*models.APIKey, error) {
	ctx, span := s.startSpan(ctx, "List")
	start := time.Now()
	result, err := s.inner.List(ctx)
	s.record(ctx, span, "List", start, err)
	return result, err
}

func (s *InstrumentedKeystore) Touch(ctx context.Context, key string, at time.Time) error {
	ctx, span := s.startSpan(ctx, "Touch")
	start := time.Now()
	err := s.inner.Touch(ctx, key, at)
	s.record(ctx, span, "Touch", start, err)
	return err
}

func (s *InstrumentedKeystore) EnsureMaster(ctx context.Context, masterKey string) error {
	ctx, span := s.startSpan(ctx, "EnsureMaster")
	start := time.Now()
	err := s.inner.EnsureMaster(ctx, masterKey)
	s.record(ctx, span, "EnsureMaster", start, err)
	return err
}

func (s *InstrumentedKeystore) Close() error {
	return s.inner.Close()
}
