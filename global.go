package sqlspan

import (
	"context"
	"sync"
	"time"
)

var global = struct {
	sync.RWMutex
	tracer Tracer
}{tracer: NoopTracer()}

// SetGlobalTracer registers tracer as process-wide Tracer.
// It should be called once during startup, before collectors are created.
// Collectors read the global tracer only when they are constructed,
// changing it later does not affect existing collectors.
func SetGlobalTracer(tracer Tracer) {
	if tracer == nil {
		tracer = NoopTracer()
	}

	global.Lock()
	global.tracer = tracer
	global.Unlock()
}

// GlobalTracer returns the Tracer registered via SetGlobalTracer.
// If none was registered a Tracer that records nothing is returned.
func GlobalTracer() Tracer {
	global.RLock()
	defer global.RUnlock()

	return global.tracer
}

type noopTracer struct{}

type noopSpan struct{}

// NoopTracer returns a Tracer whose spans record nothing.
func NoopTracer() Tracer {
	return noopTracer{}
}

func (noopTracer) StartSpan(ctx context.Context, _ string, _ ...StartOpt) (Span, context.Context) {
	return noopSpan{}, ctx
}

func (noopSpan) SetTag(_, _ string) {}
func (noopSpan) SetTags(_ map[string]string) {}
func (noopSpan) SetError(_ error) {}
func (noopSpan) Log(_ string, _ map[string]string) {}
func (noopSpan) Finish() {}
func (noopSpan) FinishAt(_ time.Time) {}
