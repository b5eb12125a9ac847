package sqlspan

import (
	"context"
	"database/sql/driver"
	"time"
)

// ExecutionContext describes one finished statement execution.
// It is created by the SQL library binding and passed read-only to
// collectors, except for Attributes which can be modified.
type ExecutionContext struct {
	// Context is the context the statement was executed with.
	Context context.Context
	// Op is the operation that executed the statement.
	Op SQLOp
	// Query is the raw SQL text, it might be empty.
	Query string
	Args  []driver.NamedValue
	// Elapsed is the execution duration measured by the binding.
	Elapsed time.Duration
	// Err is the error returned by the statement execution.
	Err        error
	Attributes *Attributes
}

func (e *ExecutionContext) ctx() context.Context {
	if e.Context == nil {
		return context.Background()
	}

	return e.Context
}

// Collector is called once per finished statement.
// Implementations must be safe for concurrent use, Collect is called from
// the goroutines that execute the statements.
type Collector interface {
	Collect(ectx *ExecutionContext)
}

// CollectorFunc is an adapter to use ordinary functions as Collector.
type CollectorFunc func(ectx *ExecutionContext)

// Collect calls f(ectx).
func (f CollectorFunc) Collect(ectx *ExecutionContext) {
	f(ectx)
}
