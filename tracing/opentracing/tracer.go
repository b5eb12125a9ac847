// Package opentracing provides an opentracing-go Tracer that is compatible
// with the sqlspan.Tracer interface.
package opentracing

import (
	"context"
	"time"

	"github.com/opentracing/opentracing-go"
	"github.com/opentracing/opentracing-go/ext"
	"github.com/opentracing/opentracing-go/log"
	"github.com/simplesurance/sqlspan"
)

// DefaultTracingTags are the tags that are added by default to all traces.
var DefaultTracingTags = opentracing.Tags{
	string(ext.DBType):   "sql",
	string(ext.SpanKind): string(ext.SpanKindRPCClientEnum),
}

type tracer struct {
	defaultTags  opentracing.Tags
	traceOrphans bool
	getTracerFn  func() opentracing.Tracer
}

type span struct {
	span opentracing.Span
}

// Opt is a type for options that can be passed to NewTracer.
type Opt func(*tracer)

// WithTracingTags is an option for NewTracer() to set the tags that are
// applied to all traces created by StartSpan().
func WithTracingTags(tags opentracing.Tags) Opt {
	return func(t *tracer) {
		t.defaultTags = tags
	}
}

// WithoutTracingOrphans is an option for NewTracer() to disable recording
// spans that have no parent.
func WithoutTracingOrphans() Opt {
	return func(t *tracer) {
		t.traceOrphans = false
	}
}

// WithTracer is an option for NewTracer() to use a custom function to
// retrieve the opentracing Tracer to use.
func WithTracer(fn func() opentracing.Tracer) Opt {
	return func(t *tracer) {
		t.getTracerFn = fn
	}
}

// NewTracer returns a tracer that will create spans via opentracing-go.
// When no options are specified, opentracing.GlobalTracer is used as default
// Tracer, DefaultTracingTags are used as tags and TraceOrphans is enabled.
func NewTracer(opts ...Opt) sqlspan.Tracer {
	tr := tracer{
		traceOrphans: true,
		defaultTags:  DefaultTracingTags,
		getTracerFn:  opentracing.GlobalTracer,
	}

	for _, opt := range opts {
		opt(&tr)
	}

	return &tr
}

func (t *tracer) StartSpan(ctx context.Context, name string, opts ...sqlspan.StartOpt) (sqlspan.Span, context.Context) {
	cfg := sqlspan.NewStartConfig(opts...)

	otOpts := []opentracing.StartSpanOption{t.defaultTags}

	if !cfg.StartTime.IsZero() {
		otOpts = append(otOpts, opentracing.StartTime(cfg.StartTime))
	}

	if len(cfg.Tags) > 0 {
		tags := make(opentracing.Tags, len(cfg.Tags))
		for k, v := range cfg.Tags {
			tags[k] = v
		}
		otOpts = append(otOpts, tags)
	}

	if parent := Unwrap(cfg.Parent); parent != nil {
		otSpan := parent.Tracer().StartSpan(
			name,
			append(otOpts, opentracing.ChildOf(parent.Context()))...,
		)
		return &span{span: otSpan}, opentracing.ContextWithSpan(ctx, otSpan)
	}

	if !t.traceOrphans {
		return &span{span: nil}, ctx
	}

	otSpan := t.getTracerFn().StartSpan(name, otOpts...)
	return &span{span: otSpan}, opentracing.ContextWithSpan(ctx, otSpan)
}

// WrapSpan returns otSpan as sqlspan.Span, e.g. to pass it to
// sqlspan.SetParent.
func WrapSpan(otSpan opentracing.Span) sqlspan.Span {
	return &span{span: otSpan}
}

// Unwrap returns the opentracing span of s.
// It returns nil if s was not created by this package or records nothing.
func Unwrap(s sqlspan.Span) opentracing.Span {
	sp, ok := s.(*span)
	if !ok || sp == nil {
		return nil
	}

	return sp.span
}

// ContextParentSpanSource returns a ParentSpanSource that uses the
// opentracing span stored in the context of the statement as parent.
func ContextParentSpanSource() sqlspan.ParentSpanSource {
	return sqlspan.ParentSpanSourceFunc(func(ectx *sqlspan.ExecutionContext) sqlspan.Span {
		if ectx.Context == nil {
			return nil
		}

		otSpan := opentracing.SpanFromContext(ectx.Context)
		if otSpan == nil {
			return nil
		}

		return WrapSpan(otSpan)
	})
}

func (s *span) SetTag(k, v string) {
	if s.span == nil {
		return
	}

	s.span.SetTag(k, v)
}

func (s *span) SetTags(kvs map[string]string) {
	if s.span == nil {
		return
	}

	for k, v := range kvs {
		s.span.SetTag(k, v)
	}
}

func (s *span) SetError(err error) {
	if s.span == nil {
		return
	}

	ext.LogError(s.span, err)
}

func (s *span) Log(event string, fields map[string]string) {
	if s.span == nil {
		return
	}

	logFields := make([]log.Field, 0, len(fields)+1)
	logFields = append(logFields, log.String("event", event))
	for k, v := range fields {
		logFields = append(logFields, log.String(k, v))
	}

	s.span.LogFields(logFields...)
}

func (s *span) Finish() {
	if s.span == nil {
		return
	}

	s.span.Finish()
}

func (s *span) FinishAt(t time.Time) {
	if s.span == nil {
		return
	}

	s.span.FinishWithOptions(opentracing.FinishOptions{FinishTime: t})
}
