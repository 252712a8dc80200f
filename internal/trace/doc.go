// Package trace records what the viper compiler is doing.
//
// Every driver stage and every IR pass opens a span; a tracer decides
// whether to keep it. Tracers travel through the pipeline in the context:
//
//	ctx = trace.WithTracer(ctx, tracer)
//	span := trace.Begin(trace.FromContext(ctx), trace.ScopePass, "parse", trace.CurrentSpan(ctx).SpanID)
//	defer span.End("")
//
// StreamTracer writes events as they happen (text, NDJSON or a Chrome
// trace), RingTracer keeps the last few thousand in memory for the
// internal-compiler-error dump, MultiTracer combines them. Verbosity is
// a Level: phase shows driver stages and passes, detail adds per-unit
// events, debug adds per-function work inside passes.
//
//	viper --trace=build.json --trace-level=detail main.py
package trace
