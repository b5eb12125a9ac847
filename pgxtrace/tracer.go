// Package pgxtrace reports queries executed via pgx to a sqlspan.Collector.
//
// Assign a QueryTracer to pgx.ConnConfig.Tracer:
//
//	cfg, _ := pgx.ParseConfig(dsn)
//	cfg.Tracer = pgxtrace.NewQueryTracer(sqlspan.NewSpanCollector(tracer))
package pgxtrace

import (
	"context"
	"database/sql/driver"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/simplesurance/sqlspan"
)

// OpPgxQuery is the operation reported for queries executed via pgx.
const OpPgxQuery sqlspan.SQLOp = "pgx-query"

// CommandTagAttributeKey is the attribute key under which the command tag
// returned by the server is stored, e.g. "INSERT 0 1".
const CommandTagAttributeKey = "pgx.command_tag"

type queryStartCtxKey struct{}

type queryStart struct {
	ctx   context.Context
	sql   string
	args  []driver.NamedValue
	attrs *sqlspan.Attributes
	start time.Time
}

// QueryTracer implements pgx.QueryTracer.
type QueryTracer struct {
	collector sqlspan.Collector
}

// NewQueryTracer returns a pgx.QueryTracer that reports every finished query
// to collector.
func NewQueryTracer(collector sqlspan.Collector) *QueryTracer {
	return &QueryTracer{collector: collector}
}

// TraceQueryStart records the start of a query in the returned context.
func (t *QueryTracer) TraceQueryStart(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryStartData) context.Context {
	// each query gets its own bag, the command tag must not leak into the
	// bag of the caller or of later queries
	attrs := sqlspan.AttributesFromContext(ctx).Clone()

	return context.WithValue(ctx, queryStartCtxKey{}, &queryStart{
		ctx:   ctx,
		sql:   data.SQL,
		args:  namedValues(data.Args),
		attrs: attrs,
		start: time.Now(),
	})
}

// TraceQueryEnd reports the query to the collector. Queries that were not
// started via TraceQueryStart are ignored.
func (t *QueryTracer) TraceQueryEnd(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryEndData) {
	qs, ok := ctx.Value(queryStartCtxKey{}).(*queryStart)
	if !ok {
		return
	}

	elapsed := time.Since(qs.start)

	if tag := data.CommandTag.String(); tag != "" {
		qs.attrs.Set(CommandTagAttributeKey, tag)
	}

	t.collector.Collect(&sqlspan.ExecutionContext{
		Context:    qs.ctx,
		Op:         OpPgxQuery,
		Query:      qs.sql,
		Args:       qs.args,
		Elapsed:    elapsed,
		Err:        data.Err,
		Attributes: qs.attrs,
	})
}

func namedValues(args []any) []driver.NamedValue {
	if len(args) == 0 {
		return nil
	}

	nv := make([]driver.NamedValue, len(args))
	for i, arg := range args {
		nv[i] = driver.NamedValue{Ordinal: i + 1, Value: arg}
	}

	return nv
}

var _ pgx.QueryTracer = &QueryTracer{}
