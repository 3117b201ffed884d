package trace

import (
	"fmt"
	"io"
	"sync"
)

// DefaultKeep is the recorder capacity when none is configured.
const DefaultKeep = 4096

// Recorder keeps the most recent events in memory so that they can be
// dumped after a command failed.
type Recorder struct {
	mu    sync.Mutex
	buf   []Event
	next  int // slot the next event goes to
	total int // events ever stored
	level Level
}

// NewRecorder returns a recorder holding up to keep events.
func NewRecorder(keep int, level Level) *Recorder {
	if keep <= 0 {
		keep = DefaultKeep
	}
	return &Recorder{buf: make([]Event, keep), level: level}
}

func (r *Recorder) Emit(ev *Event) {
	if !r.level.accepts(ev) {
		return
	}
	stamp(ev)
	r.mu.Lock()
	r.buf[r.next] = *ev
	r.next = (r.next + 1) % len(r.buf)
	r.total++
	r.mu.Unlock()
}

// Events returns the stored events, oldest first.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.total < len(r.buf) {
		return append([]Event(nil), r.buf[:r.next]...)
	}
	out := make([]Event, 0, len(r.buf))
	out = append(out, r.buf[r.next:]...)
	return append(out, r.buf[:r.next]...)
}

// Dropped is the number of events overwritten by newer ones.
func (r *Recorder) Dropped() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return max(0, r.total-len(r.buf))
}

// Dump writes the stored events to w, preceded by a header line when older
// events were overwritten.
func (r *Recorder) Dump(w io.Writer, format Format) error {
	events := r.Events()
	if dropped := r.Dropped(); dropped > 0 && format != FormatNDJSON {
		if _, err := fmt.Fprintf(w, "... %d earlier event(s) dropped\n", dropped); err != nil {
			return err
		}
	}
	var line []byte
	for i := range events {
		line = line[:0]
		if format == FormatNDJSON {
			line = appendJSON(line, &events[i])
		} else {
			line = appendText(line, &events[i])
		}
		if _, err := w.Write(line); err != nil {
			return err
		}
	}
	return nil
}

func (r *Recorder) Flush() error  { return nil }
func (r *Recorder) Close() error  { return nil }
func (r *Recorder) Level() Level  { return r.level }
func (r *Recorder) Enabled() bool { return r.level > LevelOff }
