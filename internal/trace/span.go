package trace

import (
	"context"
	"sync/atomic"
	"time"
)

var spanIDs atomic.Uint64

// frame is what a context carries: the tracer and the innermost open span.
type frame struct {
	tracer Tracer
	span   uint64
}

type frameKey struct{}

func frameOf(ctx context.Context) frame {
	if ctx != nil {
		if f, ok := ctx.Value(frameKey{}).(frame); ok {
			return f
		}
	}
	return frame{tracer: Nop}
}

// WithTracer attaches t to ctx. Spans started from the result have no parent.
func WithTracer(ctx context.Context, t Tracer) context.Context {
	if t == nil {
		t = Nop
	}
	return context.WithValue(ctx, frameKey{}, frame{tracer: t})
}

// FromContext returns the tracer attached to ctx, or Nop.
func FromContext(ctx context.Context) Tracer {
	return frameOf(ctx).tracer
}

// Span is an open span. The zero value and nil are inert.
type Span struct {
	tracer  Tracer
	id      uint64
	parent  uint64
	scope   Scope
	name    string
	file    string
	started time.Time
	attrs   map[string]string
	done    bool
}

// Start opens a span under the span carried by ctx and returns a context
// whose spans nest under the new one.
func Start(ctx context.Context, scope Scope, name string) (context.Context, *Span) {
	return open(ctx, scope, name, "")
}

// StartFile opens a per-file span; the path travels on both its events.
func StartFile(ctx context.Context, name, path string) (context.Context, *Span) {
	return open(ctx, ScopeFile, name, path)
}

func open(ctx context.Context, scope Scope, name, path string) (context.Context, *Span) {
	f := frameOf(ctx)
	if !f.tracer.Level().ShouldEmit(scope) {
		return ctx, &Span{}
	}
	s := &Span{
		tracer:  f.tracer,
		id:      spanIDs.Add(1),
		parent:  f.span,
		scope:   scope,
		name:    name,
		file:    path,
		started: time.Now(),
	}
	s.tracer.Emit(s.event(KindBegin, s.started, ""))
	return context.WithValue(ctx, frameKey{}, frame{tracer: f.tracer, span: s.id}), s
}

func (s *Span) event(kind Kind, at time.Time, detail string) *Event {
	return &Event{
		Time:   at,
		Kind:   kind,
		Scope:  s.scope,
		Span:   s.id,
		Parent: s.parent,
		Name:   s.name,
		File:   s.file,
		Detail: detail,
	}
}

// Set records an attribute reported with the end event.
func (s *Span) Set(key, value string) *Span {
	if s == nil || s.id == 0 || s.done {
		return s
	}
	if s.attrs == nil {
		s.attrs = make(map[string]string, 2)
	}
	s.attrs[key] = value
	return s
}

// End closes the span and returns its duration. Calling End twice emits
// nothing the second time.
func (s *Span) End(detail string) time.Duration {
	if s == nil || s.id == 0 || s.done {
		return 0
	}
	s.done = true
	now := time.Now()
	ev := s.event(KindEnd, now, detail)
	ev.Attrs = s.attrs
	s.tracer.Emit(ev)
	return now.Sub(s.started)
}

// ID returns the span id, 0 for an inert span.
func (s *Span) ID() uint64 {
	if s == nil {
		return 0
	}
	return s.id
}

// Point emits an instant event under the span carried by ctx.
func Point(ctx context.Context, scope Scope, name, detail string) {
	f := frameOf(ctx)
	if !f.tracer.Level().ShouldEmit(scope) {
		return
	}
	f.tracer.Emit(&Event{
		Time:   time.Now(),
		Kind:   KindPoint,
		Scope:  scope,
		Parent: f.span,
		Name:   name,
		Detail: detail,
	})
}

// Rule records one rule invocation on a node of file.
func Rule(ctx context.Context, rule, file, node string) {
	f := frameOf(ctx)
	if !f.tracer.Level().ShouldEmit(ScopeRule) {
		return
	}
	f.tracer.Emit(&Event{
		Time:   time.Now(),
		Kind:   KindPoint,
		Scope:  ScopeRule,
		Parent: f.span,
		Name:   rule,
		File:   file,
		Rule:   rule,
		Detail: node,
	})
}

// Error emits an error point; it passes every level but off. rule may be
// empty when the failure is not tied to a rule.
func Error(ctx context.Context, scope Scope, name, rule, file, detail string) {
	f := frameOf(ctx)
	if !f.tracer.Enabled() {
		return
	}
	f.tracer.Emit(&Event{
		Time:   time.Now(),
		Kind:   KindError,
		Scope:  scope,
		Parent: f.span,
		Name:   name,
		File:   file,
		Rule:   rule,
		Detail: detail,
	})
}
