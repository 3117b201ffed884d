// Package trace records pipeline spans for jinspect runs.
//
// Enable tracing from the command line:
//
//	jinspect diag --trace=- --trace-level=detail src/
//	jinspect fix --all --trace-mode=ring --trace-level=debug src/
//
// A StreamTracer writes events as they happen; a Recorder keeps the last
// events in memory and is dumped to stderr only when the command fails.
// ModeBoth does both.
//
// Levels gate scopes: LevelPhase shows driver and pass boundaries (load,
// parse, index, analysis, fix), LevelDetail adds per-file spans, LevelDebug
// adds rule invocations. Error points are emitted at every level but off.
//
// Tracers travel through context together with the innermost span:
//
//	ctx = trace.WithTracer(ctx, tracer)
//	ctx, span := trace.Start(ctx, trace.ScopePass, "parse")
//	defer span.End("")
package trace
