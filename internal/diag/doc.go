// Package diag defines the diagnostic model shared by the front end, the
// rules and the fix engine.
//
// # Data model
//
// Diagnostic is the central record:
//
//   - Rule – ID of the rule that produced it (empty for front-end findings).
//   - Severity – tri-level enum (Info, Warning, Error) defined in severity.go.
//   - Code – compact numeric identifier (see codes.go) with stable string form.
//   - Message – rendered text; keep it short and actionable.
//   - Primary span – the source.Span pointing at the issue.
//   - Target – a tree.Ref to the offending node. It goes stale after any edit
//     of the owning tree and must not be dereferenced afterwards.
//   - Notes – optional secondary spans/messages.
//   - Fix – optional shared *Fix descriptor.
//
// # Fix descriptors
//
// A Fix is immutable: one value is created per rule and attached by pointer to
// every diagnostic the rule emits. It carries no per-invocation state; the
// target node travels in the diagnostic, and internal/fix runs Op against it
// inside an exclusive tree edit.
//
// # Emitting diagnostics
//
// Producers report through a Reporter. Parallel producers collect into a
// SliceReporter each and Merge the batches into a Registry, which limits,
// deduplicates, sorts and invalidates findings when the fix engine removes
// nodes. Rendering lives in internal/diagfmt.
package diag
