package sqlspan

import (
	"context"
	"sync"
)

// ParentSpanAttributeKey is the attribute key under which the explicit parent
// span of a statement is stored.
const ParentSpanAttributeKey = "io.opentracing.parent"

// Attributes is a per-statement key-value bag.
// It is passed to the collector as part of the ExecutionContext.
// Get, Parent and Clone can be called on a nil *Attributes, Set panics on a
// nil *Attributes.
type Attributes struct {
	mu     sync.RWMutex
	values map[string]interface{}
}

// NewAttributes returns an empty attribute bag.
func NewAttributes() *Attributes {
	return &Attributes{values: map[string]interface{}{}}
}

// Set stores v under key.
func (a *Attributes) Set(key string, v interface{}) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.values == nil {
		a.values = map[string]interface{}{}
	}

	a.values[key] = v
}

// Get returns the value stored under key.
func (a *Attributes) Get(key string) (interface{}, bool) {
	if a == nil {
		return nil, false
	}

	a.mu.RLock()
	defer a.mu.RUnlock()

	v, exist := a.values[key]
	return v, exist
}

// Parent returns the span stored under ParentSpanAttributeKey or nil.
func (a *Attributes) Parent() Span {
	v, exist := a.Get(ParentSpanAttributeKey)
	if !exist {
		return nil
	}

	span, _ := v.(Span)
	return span
}

// Clone returns a new bag holding the same values as a. Changes to the
// returned bag are not visible in a. Cloning nil returns an empty bag.
func (a *Attributes) Clone() *Attributes {
	c := NewAttributes()
	if a == nil {
		return c
	}

	a.mu.RLock()
	defer a.mu.RUnlock()

	for k, v := range a.values {
		c.values[k] = v
	}

	return c
}

// SetParent establishes an explicit parent relationship for the span that is
// recorded for the statement attrs belong to.
// It must be called before the statement is executed.
// attrs must not be nil.
func SetParent(attrs *Attributes, parent Span) {
	attrs.Set(ParentSpanAttributeKey, parent)
}

type attributesCtxKey struct{}

// ContextWithAttributes returns a copy of ctx that carries attrs.
// Every statement executed with the returned context is reported with its
// own copy of attrs as attribute bag, attrs itself is never modified by the
// bindings.
func ContextWithAttributes(ctx context.Context, attrs *Attributes) context.Context {
	return context.WithValue(ctx, attributesCtxKey{}, attrs)
}

// AttributesFromContext returns the attribute bag stored in ctx or nil.
func AttributesFromContext(ctx context.Context) *Attributes {
	if ctx == nil {
		return nil
	}

	attrs, _ := ctx.Value(attributesCtxKey{}).(*Attributes)
	return attrs
}

// ContextWithParent returns a copy of ctx with an attribute bag that has
// parent set as explicit parent span.
// Attributes already stored in ctx are copied, the bag in ctx is not
// modified.
func ContextWithParent(ctx context.Context, parent Span) context.Context {
	attrs := AttributesFromContext(ctx).Clone()
	SetParent(attrs, parent)

	return ContextWithAttributes(ctx, attrs)
}
