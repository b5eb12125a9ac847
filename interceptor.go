// Package sqlspan records a tracing span for every SQL statement that is
// executed.
//
// A binding to an SQL library reports each finished statement as
// ExecutionContext to a Collector. SpanCollector turns it into a span that
// is backdated by the measured execution time. Bindings exist for
// database/sql drivers (WrapDriver) and for pgx (package pgxtrace).
package sqlspan

import (
	"context"
	"database/sql/driver"

	"github.com/ngrok/sqlmw"
)

// Interceptor reports executed statements to a Collector.
// It implements the sqlmw.Interceptor interfaces.
type Interceptor struct {
	sqlmw.NullInterceptor

	excludedOps map[SQLOp]struct{}
	collector   Collector
}

// NewInterceptor returns a new interceptor that reports statements executed
// via database/sql to collector.
func NewInterceptor(collector Collector, opts ...Opt) *Interceptor {
	icp := Interceptor{
		excludedOps: map[SQLOp]struct{}{},
		collector:   collector,
	}

	for _, opt := range opts {
		opt(&icp)
	}

	return &icp
}

// WrapDriver returns a driver that wraps the passed driver and reports
// statements executed via it to collector.
// To record spans pass a SpanCollector.
func WrapDriver(driver driver.Driver, collector Collector, opts ...Opt) driver.Driver {
	icp := NewInterceptor(collector, opts...)

	return sqlmw.Driver(
		driver,
		icp,
	)
}

func (t *Interceptor) ConnExecContext(ctx context.Context, con driver.ExecerContext, query string, args []driver.NamedValue) (_ driver.Result, err error) {
	finish := t.track(ctx, OpSQLConnExec, query, args)
	defer func() { finish(err) }()

	return con.ExecContext(ctx, query, args)
}

func (t *Interceptor) ConnQueryContext(ctx context.Context, con driver.QueryerContext, query string, args []driver.NamedValue) (_ driver.Rows, err error) {
	finish := t.track(ctx, OpSQLConnQuery, query, args)
	defer func() { finish(err) }()

	return con.QueryContext(ctx, query, args)
}

func (t *Interceptor) StmtExecContext(ctx context.Context, stmt driver.StmtExecContext, query string, args []driver.NamedValue) (_ driver.Result, err error) {
	finish := t.track(ctx, OpSQLStmtExec, query, args)
	defer func() { finish(err) }()

	return stmt.ExecContext(ctx, args)
}

func (t *Interceptor) StmtQueryContext(ctx context.Context, stmt driver.StmtQueryContext, query string, args []driver.NamedValue) (_ driver.Rows, err error) {
	finish := t.track(ctx, OpSQLStmtQuery, query, args)
	defer func() { finish(err) }()

	return stmt.QueryContext(ctx, args)
}

func (t *Interceptor) opIsExcluded(op SQLOp) bool {
	_, exist := t.excludedOps[op]
	return exist
}

var _ sqlmw.Interceptor = &Interceptor{}
