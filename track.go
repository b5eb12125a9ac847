package sqlspan

import (
	"context"
	"database/sql/driver"
	"errors"
	"time"
)

// DBStatementTagKey is the name of the tag that contains db query
// statements.
const DBStatementTagKey = "db.statement"

// track starts measuring the execution of a statement. The returned function
// must be called when the execution finished, it reports the statement to
// the collector.
func (t *Interceptor) track(ctx context.Context, op SQLOp, query string, args []driver.NamedValue) func(err error) {
	if t.opIsExcluded(op) {
		return func(_ error) {}
	}

	start := time.Now()

	return func(err error) {
		elapsed := time.Since(start)

		// database/sql retries the statement via another operation
		if errors.Is(err, driver.ErrSkip) {
			return
		}

		attrs := AttributesFromContext(ctx).Clone()

		t.collector.Collect(&ExecutionContext{
			Context:    ctx,
			Op:         op,
			Query:      query,
			Args:       args,
			Elapsed:    elapsed,
			Err:        err,
			Attributes: attrs,
		})
	}
}
