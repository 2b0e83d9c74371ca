// Package tracing records atom batches as OpenTelemetry spans.
//
// The tracer uses the global OpenTelemetry tracer provider unless one is
// given with WithTracerProvider. Configure it in main() before use:
//
//	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
//	otel.SetTracerProvider(tp)
//
// Example:
//
//	tr := tracing.New(tracing.WithTracerName("inventory"))
//	err := tracing.Batch(ctx, tr, stock, func(ctx context.Context) error {
//	    stock.Modify(reserve)
//	    return audit(ctx)
//	})
package tracing

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/atomrx/pkg/atom"
)

// Default tracer name.
const defaultTracerName = "atomrx"

// Config configures batch tracing.
type Config struct {
	// TracerName is the name of the tracer (default: "atomrx").
	TracerName string

	// TracerProvider supplies the tracer.
	// Default: otel.GetTracerProvider()
	TracerProvider trace.TracerProvider

	// AttributeExtractor adds custom attributes to every batch span.
	AttributeExtractor func(atomName string) []attribute.KeyValue
}

// Option configures batch tracing.
type Option func(*Config)

// WithTracerName sets the tracer name.
func WithTracerName(name string) Option {
	return func(c *Config) {
		c.TracerName = name
	}
}

// WithTracerProvider sets the tracer provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(c *Config) {
		c.TracerProvider = tp
	}
}

// WithAttributeExtractor sets a custom attribute extractor.
func WithAttributeExtractor(extractor func(atomName string) []attribute.KeyValue) Option {
	return func(c *Config) {
		c.AttributeExtractor = extractor
	}
}

func defaultConfig() Config {
	return Config{
		TracerName: defaultTracerName,
	}
}

// Tracer starts spans for atom batches.
type Tracer struct {
	tracer  trace.Tracer
	extract func(string) []attribute.KeyValue
}

// New creates a Tracer.
func New(opts ...Option) *Tracer {
	config := defaultConfig()
	for _, opt := range opts {
		opt(&config)
	}
	tp := config.TracerProvider
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	return &Tracer{
		tracer:  tp.Tracer(config.TracerName),
		extract: config.AttributeExtractor,
	}
}

func (t *Tracer) start(ctx context.Context, name string, nested bool, kind string) (context.Context, trace.Span) {
	attrs := []attribute.KeyValue{
		attribute.String("atom.name", name),
		attribute.Bool("atom.batch.nested", nested),
		attribute.String("atom.batch.kind", kind),
	}
	if t.extract != nil {
		attrs = append(attrs, t.extract(name)...)
	}
	return t.tracer.Start(ctx, fmt.Sprintf("atom.batch %s", name),
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attrs...),
	)
}

func finish(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// Batch runs fn inside a batch on a within a span. fn receives the span
// context. The span records the error returned by the batch; a panic is
// recorded and re-raised after the batch commits.
func Batch[T any](ctx context.Context, t *Tracer, a atom.Writable[T], fn func(context.Context) error) (err error) {
	spanCtx, span := t.start(ctx, atomName(a), a.IsBatching(), "sync")

	panicked := true
	defer func() {
		if panicked {
			finish(span, atom.ErrBatchPanic)
			return
		}
		finish(span, err)
	}()

	err = a.Batch(func() error {
		return fn(spanCtx)
	})
	panicked = false
	return err
}

// BatchAsync is atom.BatchAsync within a span. The span ends when the
// batch has committed.
func BatchAsync[T, R any](ctx context.Context, t *Tracer, a atom.Writable[T], fn func(context.Context) (R, error)) *atom.Pending[R] {
	spanCtx, span := t.start(ctx, atomName(a), a.IsBatching(), "async")

	p := atom.BatchAsync(spanCtx, a, fn)
	go func() {
		<-p.Done()
		_, err := p.Wait(context.Background())
		finish(span, err)
	}()
	return p
}

// SpanFromContext returns the batch span carried by ctx.
// Returns nil if ctx carries no recording span.
func SpanFromContext(ctx context.Context) trace.Span {
	span := trace.SpanFromContext(ctx)
	if !span.SpanContext().IsValid() {
		return nil
	}
	return span
}

func atomName(a any) string {
	if n, ok := a.(interface{ Name() string }); ok {
		return n.Name()
	}
	return fmt.Sprintf("%T", a)
}
