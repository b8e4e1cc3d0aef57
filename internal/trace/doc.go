// Package trace records spans and instant events for the lowering pipeline.
//
//	restruct lower --trace=- --trace-level=detail prog.irpack
//
// Levels bound the scope: phase emits driver and pass spans, detail adds one
// span per function, debug adds a point per construct the walker recognizes.
// Events go to a stream, an in-memory ring dumped at exit, or both.
//
// The tracer and the current span travel through context:
//
//	ctx = trace.WithTracer(ctx, tracer)
//	ctx, span := trace.Start(ctx, trace.ScopePass, "lower-module:calc")
//	defer span.End("")
package trace
