// Package sqllog provides a sqlspan.Collector that logs executed statements
// via zerolog.
package sqllog

import (
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"github.com/simplesurance/sqlspan"
)

const (
	// DefaultSlowQueryThreshold is the execution time from which on
	// statements are logged as slow.
	DefaultSlowQueryThreshold = 200 * time.Millisecond
	// DefaultMaxQueryLength is the maximum number of bytes of a query that
	// are logged.
	DefaultMaxQueryLength = 1000
)

// Collector logs every statement it receives.
// Successful statements are logged with debug level, statements that took
// at least the slow query threshold with warn level and failed statements
// with error level.
type Collector struct {
	logger             zerolog.Logger
	slowQueryThreshold time.Duration
	maxQueryLength     int
	logArgs            bool
	next               sqlspan.Collector
}

// Opt is a type for options that can be passed to New.
type Opt func(*Collector)

// WithSlowQueryThreshold sets the slow query threshold.
// Values <= 0 disable slow query detection.
func WithSlowQueryThreshold(d time.Duration) Opt {
	return func(c *Collector) {
		c.slowQueryThreshold = d
	}
}

// WithMaxQueryLength sets the maximum number of bytes of a query that are
// logged. Values <= 0 disable truncation.
func WithMaxQueryLength(n int) Opt {
	return func(c *Collector) {
		c.maxQueryLength = n
	}
}

// WithArgs enables logging of the statement arguments.
func WithArgs() Opt {
	return func(c *Collector) {
		c.logArgs = true
	}
}

// WithNext chains next to the collector.
func WithNext(next sqlspan.Collector) Opt {
	return func(c *Collector) {
		c.next = next
	}
}

// New returns a Collector that logs to logger.
func New(logger zerolog.Logger, opts ...Opt) *Collector {
	c := Collector{
		logger:             logger,
		slowQueryThreshold: DefaultSlowQueryThreshold,
		maxQueryLength:     DefaultMaxQueryLength,
	}

	for _, opt := range opts {
		opt(&c)
	}

	return &c
}

func (c *Collector) Collect(ectx *sqlspan.ExecutionContext) {
	var ev *zerolog.Event
	msg := "sql statement executed"

	switch {
	case ectx.Err != nil:
		ev = c.logger.Error().Err(ectx.Err)
		msg = "sql statement failed"
	case c.slowQueryThreshold > 0 && ectx.Elapsed >= c.slowQueryThreshold:
		ev = c.logger.Warn().Dur("threshold", c.slowQueryThreshold)
		msg = "slow sql statement"
	default:
		ev = c.logger.Debug()
	}

	ev.Str("op", ectx.Op.String()).
		Str("query", c.truncate(ectx.Query)).
		Dur("elapsed", ectx.Elapsed)

	if c.logArgs && len(ectx.Args) > 0 {
		args := make([]interface{}, len(ectx.Args))
		for i, arg := range ectx.Args {
			args[i] = arg.Value
		}
		ev.Interface("args", args)
	}

	ev.Msg(msg)

	if c.next != nil {
		c.next.Collect(ectx)
	}
}

func (c *Collector) truncate(query string) string {
	if c.maxQueryLength <= 0 || len(query) <= c.maxQueryLength {
		return query
	}

	n := c.maxQueryLength
	for n > 0 && !utf8.RuneStart(query[n]) {
		n--
	}

	return query[:n] + "..."
}

var _ sqlspan.Collector = &Collector{}
