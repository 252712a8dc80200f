package trace

import "context"

// carrier is the single value trace keeps in a context: the tracer and the
// innermost open span. Start copies it, so parents are never mutated.
type carrier struct {
	tracer Tracer
	span   SpanContext
}

type carrierKey struct{}

// SpanContext identifies the innermost open span for Start.
type SpanContext struct {
	SpanID uint64
	GID    uint64
}

func load(ctx context.Context) carrier {
	if ctx != nil {
		if c, ok := ctx.Value(carrierKey{}).(carrier); ok {
			return c
		}
	}
	return carrier{tracer: Nop}
}

// FromContext returns the tracer attached to ctx, or Nop.
func FromContext(ctx context.Context) Tracer { return load(ctx).tracer }

// WithTracer attaches t; the current span survives.
func WithTracer(ctx context.Context, t Tracer) context.Context {
	if t == nil {
		t = Nop
	}
	c := load(ctx)
	c.tracer = t
	return context.WithValue(ctx, carrierKey{}, c)
}

// CurrentSpan is the zero SpanContext outside any span.
func CurrentSpan(ctx context.Context) SpanContext { return load(ctx).span }

func WithSpanContext(ctx context.Context, sc SpanContext) context.Context {
	c := load(ctx)
	c.span = sc
	return context.WithValue(ctx, carrierKey{}, c)
}

// Nop discards everything; Begin on it returns an inert span.
var Nop Tracer = nopTracer{}

type nopTracer struct{}

func (nopTracer) Emit(*Event)   {}
func (nopTracer) Flush() error  { return nil }
func (nopTracer) Close() error  { return nil }
func (nopTracer) Level() Level  { return LevelOff }
func (nopTracer) Enabled() bool { return false }
