package pgxtrace_test

import (
	"context"
	"database/sql/driver"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	opentracing_go "github.com/opentracing/opentracing-go"
	"github.com/opentracing/opentracing-go/mocktracer"
	"github.com/simplesurance/sqlspan"
	"github.com/simplesurance/sqlspan/pgxtrace"
	"github.com/simplesurance/sqlspan/tracing/opentracing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runQuery(ctx context.Context, tracer *pgxtrace.QueryTracer, sql string, err error, args ...any) {
	runQueryWithTag(ctx, tracer, sql, pgconn.NewCommandTag("SELECT 1"), err, args...)
}

func runQueryWithTag(ctx context.Context, tracer *pgxtrace.QueryTracer, sql string, tag pgconn.CommandTag, err error, args ...any) {
	ctx = tracer.TraceQueryStart(ctx, nil, pgx.TraceQueryStartData{SQL: sql, Args: args})
	tracer.TraceQueryEnd(ctx, nil, pgx.TraceQueryEndData{
		CommandTag: tag,
		Err:        err,
	})
}

func TestQueryTracerReportsQuery(t *testing.T) {
	var collected []*sqlspan.ExecutionContext
	tracer := pgxtrace.NewQueryTracer(sqlspan.CollectorFunc(func(ectx *sqlspan.ExecutionContext) {
		collected = append(collected, ectx)
	}))

	errQuery := errors.New("canceling statement due to statement timeout")
	runQuery(context.Background(), tracer, "SELECT name FROM accounts WHERE id = $1", errQuery, 7)

	require.Len(t, collected, 1)
	ectx := collected[0]
	assert.Equal(t, pgxtrace.OpPgxQuery, ectx.Op)
	assert.Equal(t, "SELECT name FROM accounts WHERE id = $1", ectx.Query)
	assert.Equal(t, []driver.NamedValue{{Ordinal: 1, Value: 7}}, ectx.Args)
	assert.ErrorIs(t, ectx.Err, errQuery)
	assert.GreaterOrEqual(t, int64(ectx.Elapsed), int64(0))

	tag, exist := ectx.Attributes.Get(pgxtrace.CommandTagAttributeKey)
	assert.True(t, exist)
	assert.Equal(t, "SELECT 1", tag)
}

func TestQueryTracerUsesOwnAttributesPerQuery(t *testing.T) {
	var collected []*sqlspan.ExecutionContext
	tracer := pgxtrace.NewQueryTracer(sqlspan.CollectorFunc(func(ectx *sqlspan.ExecutionContext) {
		collected = append(collected, ectx)
	}))

	attrs := sqlspan.NewAttributes()
	attrs.Set("tenant", "acme")
	ctx := sqlspan.ContextWithAttributes(context.Background(), attrs)

	runQueryWithTag(ctx, tracer, "INSERT INTO accounts (name) VALUES ($1)", pgconn.NewCommandTag("INSERT 0 1"), nil, "bob")
	runQueryWithTag(ctx, tracer, "SELEC 1", pgconn.CommandTag{}, errors.New("syntax error"))

	require.Len(t, collected, 2)

	tag, exist := collected[0].Attributes.Get(pgxtrace.CommandTagAttributeKey)
	assert.True(t, exist)
	assert.Equal(t, "INSERT 0 1", tag)

	_, exist = collected[1].Attributes.Get(pgxtrace.CommandTagAttributeKey)
	assert.False(t, exist)
	assert.NotSame(t, collected[0].Attributes, collected[1].Attributes)

	for _, ectx := range collected {
		v, exist := ectx.Attributes.Get("tenant")
		assert.True(t, exist)
		assert.Equal(t, "acme", v)
	}

	_, exist = attrs.Get(pgxtrace.CommandTagAttributeKey)
	assert.False(t, exist)
}

func TestQueryTracerIgnoresQueriesWithoutStart(t *testing.T) {
	var calls int
	tracer := pgxtrace.NewQueryTracer(sqlspan.CollectorFunc(func(*sqlspan.ExecutionContext) {
		calls++
	}))

	tracer.TraceQueryEnd(context.Background(), nil, pgx.TraceQueryEndData{})

	assert.Zero(t, calls)
}

func TestQueryTracerRecordsSpanWithParent(t *testing.T) {
	mockTracer := mocktracer.New()
	collector := sqlspan.NewSpanCollector(
		opentracing.NewTracer(opentracing.WithTracer(func() opentracing_go.Tracer { return mockTracer })),
	)
	tracer := pgxtrace.NewQueryTracer(collector)

	parent := mockTracer.StartSpan("parent")
	ctx := sqlspan.ContextWithParent(context.Background(), opentracing.WrapSpan(parent))

	runQuery(ctx, tracer, "SELECT COUNT(*) FROM accounts", nil)
	parent.Finish()

	spans := mockTracer.FinishedSpans()
	require.Len(t, spans, 2)

	span := spans[0]
	assert.Equal(t, sqlspan.DefaultOperationName, span.OperationName)
	assert.Equal(t, parent.Context().(mocktracer.MockSpanContext).SpanID, span.ParentID)
	assert.Equal(t, "SELECT COUNT(*) FROM accounts", span.Tag(sqlspan.DBStatementTagKey))
}
