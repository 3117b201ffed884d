package trace

import (
	"bufio"
	"io"
	"sync"
)

// StreamTracer writes every accepted event to w as it arrives. Output is
// buffered; Flush or Close pushes it out.
type StreamTracer struct {
	mu     sync.Mutex
	out    *bufio.Writer
	under  io.Writer
	level  Level
	format Format
	line   []byte
}

// NewStreamTracer creates a StreamTracer writing to w. Close closes w when
// it is an io.Closer.
func NewStreamTracer(w io.Writer, level Level, format Format) *StreamTracer {
	return &StreamTracer{
		out:    bufio.NewWriter(w),
		under:  w,
		level:  level,
		format: formatFor(format, ""),
	}
}

func (t *StreamTracer) Emit(ev *Event) {
	if !t.level.accepts(ev) {
		return
	}
	stamp(ev)

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.format == FormatNDJSON {
		t.line = appendJSON(t.line[:0], ev)
	} else {
		t.line = appendText(t.line[:0], ev)
	}
	// trace output is best-effort; a broken writer must not fail the run
	_, _ = t.out.Write(t.line) //nolint:errcheck
	if ev.Kind == KindError {
		_ = t.out.Flush() //nolint:errcheck
	}
}

func (t *StreamTracer) Flush() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.out.Flush()
}

func (t *StreamTracer) Close() error {
	if err := t.Flush(); err != nil {
		return err
	}
	if c, ok := t.under.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func (t *StreamTracer) Level() Level  { return t.level }
func (t *StreamTracer) Enabled() bool { return t.level > LevelOff }
