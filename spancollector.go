package sqlspan

import "time"

const (
	// DefaultOperationName is the span name used when no Namer is configured.
	DefaultOperationName = "sql-statement"
	// DefaultComponentName is the default value of the ComponentTagKey tag.
	DefaultComponentName = "sqlspan"
	// ComponentTagKey is the name of the tag that identifies the
	// instrumentation that created the span.
	ComponentTagKey = "component"
)

// SpanCollector is a Collector that records a span for every statement.
//
// The span starts at the time the statement began executing, derived from
// the elapsed time in the ExecutionContext, and is finished before Collect
// returns.
type SpanCollector struct {
	tracer       Tracer
	namer        Namer
	decorator    Decorator
	parentSource ParentSpanSource
	next         Collector
	component    string
	now          func() time.Time
}

// CollectorOpt is a type for options that can be passed to NewSpanCollector.
type CollectorOpt func(*SpanCollector)

// WithNamer sets the Namer that generates span operation names.
func WithNamer(namer Namer) CollectorOpt {
	return func(c *SpanCollector) {
		c.namer = namer
	}
}

// WithDecorator sets a Decorator that is applied to every span before it is
// finished.
func WithDecorator(d Decorator) CollectorOpt {
	return func(c *SpanCollector) {
		c.decorator = d
	}
}

// WithParentSpanSource sets the source for parent spans of statements that
// have no explicit parent.
func WithParentSpanSource(src ParentSpanSource) CollectorOpt {
	return func(c *SpanCollector) {
		c.parentSource = src
	}
}

// WithNext chains next to the collector. next is called with the same
// ExecutionContext after the span was finished.
func WithNext(next Collector) CollectorOpt {
	return func(c *SpanCollector) {
		c.next = next
	}
}

// WithComponentName sets the value of the ComponentTagKey tag.
func WithComponentName(name string) CollectorOpt {
	return func(c *SpanCollector) {
		c.component = name
	}
}

// WithClock sets the function used to retrieve the current time.
func WithClock(now func() time.Time) CollectorOpt {
	return func(c *SpanCollector) {
		c.now = now
	}
}

// NewSpanCollector returns a collector that records spans via tracer.
// When tracer is nil, GlobalTracer() is used.
func NewSpanCollector(tracer Tracer, opts ...CollectorOpt) *SpanCollector {
	if tracer == nil {
		tracer = GlobalTracer()
	}

	c := SpanCollector{
		tracer:    tracer,
		namer:     StaticNamer(DefaultOperationName),
		decorator: NoopDecorator,
		component: DefaultComponentName,
		now:       time.Now,
	}

	for _, opt := range opts {
		opt(&c)
	}

	return &c
}

// Collect records a span for the statement described by ectx.
// Panics of the tracer, the strategies or the chained collector are not
// recovered.
func (c *SpanCollector) Collect(ectx *ExecutionContext) {
	now := c.now().Truncate(time.Microsecond)
	start := now.Add(-ectx.Elapsed.Truncate(time.Microsecond))

	parent := ectx.Attributes.Parent()
	if parent == nil && c.parentSource != nil {
		parent = c.parentSource.ActiveSpan(ectx)
	}

	span, _ := c.tracer.StartSpan(
		ectx.ctx(),
		c.namer.OperationName(ectx),
		WithStartTime(start),
		WithParent(parent),
		WithTags(map[string]string{
			ComponentTagKey:   c.component,
			DBStatementTagKey: ectx.Query,
		}),
	)

	c.decorator.Decorate(span, ectx)
	span.FinishAt(now)

	if c.next != nil {
		c.next.Collect(ectx)
	}
}

var _ Collector = &SpanCollector{}
