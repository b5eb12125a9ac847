package sqlspan

import (
	"context"
	"time"
)

// Tracer defines the required methods of a Tracer implementation
type Tracer interface {
	// StartSpan starts a span called spanName. The parent of the span is
	// only taken from the WithParent option, a span stored in ctx is not
	// used as parent. It returns the span and a new context that contains
	// it.
	StartSpan(ctx context.Context, spanName string, opts ...StartOpt) (Span, context.Context)
}

// Span is part of the interface needed to be implemented by any tracing implementation we use
type Span interface {
	// SetTag sets the tags with identifier k to value v.
	SetTag(k, v string)
	// SetTags sets the tags of the span to given key-value map.
	SetTags(kvs map[string]string)
	// SetError adds information of the error to the span.
	SetError(err error)
	// Log records an event with optional fields on the span.
	Log(event string, fields map[string]string)
	// Finish finishes the span.
	Finish()
	// FinishAt finishes the span with t as end time.
	FinishAt(t time.Time)
}

// StartConfig holds the settings passed via StartOpts to Tracer.StartSpan.
type StartConfig struct {
	StartTime time.Time
	Parent    Span
	Tags      map[string]string
}

// StartOpt is a type for options that can be passed to Tracer.StartSpan.
type StartOpt func(*StartConfig)

// WithStartTime sets the start time of the span. When it is not passed, the
// span starts at the time StartSpan is called.
func WithStartTime(t time.Time) StartOpt {
	return func(cfg *StartConfig) {
		cfg.StartTime = t
	}
}

// WithParent makes the started span a child of parent.
// A nil parent is ignored.
func WithParent(parent Span) StartOpt {
	return func(cfg *StartConfig) {
		cfg.Parent = parent
	}
}

// WithTags sets tags on the span when it is started.
func WithTags(tags map[string]string) StartOpt {
	return func(cfg *StartConfig) {
		if cfg.Tags == nil {
			cfg.Tags = make(map[string]string, len(tags))
		}

		for k, v := range tags {
			cfg.Tags[k] = v
		}
	}
}

// NewStartConfig applies opts to an empty StartConfig and returns it.
// It is intended to be used by Tracer implementations.
func NewStartConfig(opts ...StartOpt) *StartConfig {
	var cfg StartConfig

	for _, opt := range opts {
		opt(&cfg)
	}

	return &cfg
}
