package trace

import "time"

// Kind represents the type of trace event.
type Kind uint8

const (
	KindBegin Kind = iota + 1 // span opened
	KindEnd                   // span closed
	KindPoint                 // instant event
	KindError                 // instant event kept at every level but off
)

var kindNames = [...]string{
	KindBegin: "begin",
	KindEnd:   "end",
	KindPoint: "point",
	KindError: "error",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) && kindNames[k] != "" {
		return kindNames[k]
	}
	return "unknown"
}

// Scope indicates the granularity of the event. Lower values are coarser.
type Scope uint8

const (
	ScopeDriver Scope = iota + 1 // whole command: diagnose, fix
	ScopePass                    // load, parse, index, analysis, fix loop
	ScopeFile                    // one file inside a pass
	ScopeRule                    // one rule invocation
)

var scopeNames = [...]string{
	ScopeDriver: "driver",
	ScopePass:   "pass",
	ScopeFile:   "file",
	ScopeRule:   "rule",
}

func (s Scope) String() string {
	if int(s) < len(scopeNames) && scopeNames[s] != "" {
		return scopeNames[s]
	}
	return "unknown"
}

// Event is a single trace record. File and Rule are filled for per-file and
// per-rule events so that a dump can be grepped by either.
type Event struct {
	Time   time.Time
	Seq    uint64 // stamped by the tracer that stores the event
	Kind   Kind
	Scope  Scope
	Span   uint64 // 0 for points
	Parent uint64 // enclosing span, 0 at the top
	Name   string // "parse", "analysis", "fix", a rule id ...
	File   string
	Rule   string
	Detail string
	Attrs  map[string]string
}
