// Package otel provides an OpenTelemetry Tracer that is compatible with the
// sqlspan.Tracer interface.
package otel

import (
	"context"
	"time"

	"github.com/simplesurance/sqlspan"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// InstrumentationName is the name passed to TracerProvider.Tracer.
const InstrumentationName = "github.com/simplesurance/sqlspan"

// DefaultAttributes are added to all spans.
var DefaultAttributes = []attribute.KeyValue{
	attribute.String("db.system", "sql"),
}

type tracer struct {
	provider trace.TracerProvider
	attrs    []attribute.KeyValue
}

type span struct {
	span trace.Span
}

// Opt is a type for options that can be passed to NewTracer.
type Opt func(*tracer)

// WithTracerProvider sets the TracerProvider spans are created with.
func WithTracerProvider(tp trace.TracerProvider) Opt {
	return func(t *tracer) {
		t.provider = tp
	}
}

// WithAttributes sets the attributes that are added to all spans.
func WithAttributes(attrs ...attribute.KeyValue) Opt {
	return func(t *tracer) {
		t.attrs = attrs
	}
}

// NewTracer returns a tracer that creates spans via OpenTelemetry.
// Without options the global TracerProvider (otel.GetTracerProvider) is used,
// it is looked up when NewTracer is called.
func NewTracer(opts ...Opt) sqlspan.Tracer {
	tr := tracer{
		provider: otel.GetTracerProvider(),
		attrs:    DefaultAttributes,
	}

	for _, opt := range opts {
		opt(&tr)
	}

	return &tr
}

func (t *tracer) StartSpan(ctx context.Context, name string, opts ...sqlspan.StartOpt) (sqlspan.Span, context.Context) {
	cfg := sqlspan.NewStartConfig(opts...)

	attrs := make([]attribute.KeyValue, 0, len(t.attrs)+len(cfg.Tags))
	attrs = append(attrs, t.attrs...)
	for k, v := range cfg.Tags {
		attrs = append(attrs, attribute.String(k, v))
	}

	otelOpts := []trace.SpanStartOption{
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attrs...),
	}

	if !cfg.StartTime.IsZero() {
		otelOpts = append(otelOpts, trace.WithTimestamp(cfg.StartTime))
	}

	if parent := Unwrap(cfg.Parent); parent != nil {
		ctx = trace.ContextWithSpan(ctx, parent)
	} else {
		otelOpts = append(otelOpts, trace.WithNewRoot())
	}

	ctx, otelSpan := t.provider.Tracer(InstrumentationName).Start(ctx, name, otelOpts...)

	return &span{span: otelSpan}, ctx
}

// WrapSpan returns otelSpan as sqlspan.Span, e.g. to pass it to
// sqlspan.SetParent.
func WrapSpan(otelSpan trace.Span) sqlspan.Span {
	return &span{span: otelSpan}
}

// Unwrap returns the OpenTelemetry span of s.
// It returns nil if s was not created by this package.
func Unwrap(s sqlspan.Span) trace.Span {
	sp, ok := s.(*span)
	if !ok || sp == nil {
		return nil
	}

	return sp.span
}

// ContextParentSpanSource returns a ParentSpanSource that uses the span
// stored in the context of the statement as parent.
func ContextParentSpanSource() sqlspan.ParentSpanSource {
	return sqlspan.ParentSpanSourceFunc(func(ectx *sqlspan.ExecutionContext) sqlspan.Span {
		if ectx.Context == nil {
			return nil
		}

		otelSpan := trace.SpanFromContext(ectx.Context)
		if !otelSpan.SpanContext().IsValid() {
			return nil
		}

		return WrapSpan(otelSpan)
	})
}

func (s *span) SetTag(k, v string) {
	s.span.SetAttributes(attribute.String(k, v))
}

func (s *span) SetTags(kvs map[string]string) {
	attrs := make([]attribute.KeyValue, 0, len(kvs))
	for k, v := range kvs {
		attrs = append(attrs, attribute.String(k, v))
	}

	s.span.SetAttributes(attrs...)
}

func (s *span) SetError(err error) {
	s.span.RecordError(err)
	s.span.SetStatus(codes.Error, err.Error())
}

func (s *span) Log(event string, fields map[string]string) {
	attrs := make([]attribute.KeyValue, 0, len(fields))
	for k, v := range fields {
		attrs = append(attrs, attribute.String(k, v))
	}

	s.span.AddEvent(event, trace.WithAttributes(attrs...))
}

func (s *span) Finish() {
	s.span.End()
}

func (s *span) FinishAt(t time.Time) {
	s.span.End(trace.WithTimestamp(t))
}
