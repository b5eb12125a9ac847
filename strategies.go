package sqlspan

// Namer generates the operation name of a statement span.
type Namer interface {
	OperationName(ectx *ExecutionContext) string
}

// NamerFunc is an adapter to use ordinary functions as Namer.
type NamerFunc func(ectx *ExecutionContext) string

// OperationName returns f(ectx).
func (f NamerFunc) OperationName(ectx *ExecutionContext) string {
	return f(ectx)
}

// StaticNamer returns a Namer that names every span name.
func StaticNamer(name string) Namer {
	return NamerFunc(func(_ *ExecutionContext) string {
		return name
	})
}

// OpNamer returns a Namer that names spans after the SQL operation that
// executed the statement, e.g. "sql-conn-query".
// If the operation is unknown DefaultOperationName is used.
func OpNamer() Namer {
	return NamerFunc(func(ectx *ExecutionContext) string {
		if ectx.Op == "" {
			return DefaultOperationName
		}

		return ectx.Op.String()
	})
}

// Decorator adds tags or logs to a statement span before it is finished.
type Decorator interface {
	Decorate(span Span, ectx *ExecutionContext)
}

// DecoratorFunc is an adapter to use ordinary functions as Decorator.
type DecoratorFunc func(span Span, ectx *ExecutionContext)

// Decorate calls f(span, ectx).
func (f DecoratorFunc) Decorate(span Span, ectx *ExecutionContext) {
	f(span, ectx)
}

// NoopDecorator does not modify spans.
var NoopDecorator Decorator = DecoratorFunc(func(Span, *ExecutionContext) {})

// ErrorDecorator records the error of failed statements on the span.
var ErrorDecorator Decorator = DecoratorFunc(func(span Span, ectx *ExecutionContext) {
	if ectx.Err != nil {
		span.SetError(ectx.Err)
	}
})

// QueryFinishedEvent is the event name logged by QueryLogDecorator.
const QueryFinishedEvent = "SQL query finished"

// QueryLogDecorator logs a QueryFinishedEvent with the statement and its
// duration on the span.
var QueryLogDecorator Decorator = DecoratorFunc(func(span Span, ectx *ExecutionContext) {
	span.Log(QueryFinishedEvent, map[string]string{
		DBStatementTagKey: ectx.Query,
		"elapsed":         ectx.Elapsed.String(),
	})
})

// Decorators returns a Decorator that runs ds in order.
func Decorators(ds ...Decorator) Decorator {
	return DecoratorFunc(func(span Span, ectx *ExecutionContext) {
		for _, d := range ds {
			d.Decorate(span, ectx)
		}
	})
}

// ParentSpanSource discovers the parent span of a statement when none was
// set explicitly via SetParent.
type ParentSpanSource interface {
	// ActiveSpan returns the currently active span or nil.
	ActiveSpan(ectx *ExecutionContext) Span
}

// ParentSpanSourceFunc is an adapter to use ordinary functions as
// ParentSpanSource.
type ParentSpanSourceFunc func(ectx *ExecutionContext) Span

// ActiveSpan returns f(ectx).
func (f ParentSpanSourceFunc) ActiveSpan(ectx *ExecutionContext) Span {
	return f(ectx)
}
