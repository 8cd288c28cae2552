package notify

import (
	"fmt"
	"io"
	"sync"

	"spacequest/internal/output"
)

// WriterSink renders one line per notification. In quiet mode only errors
// and warnings are written.
type WriterSink struct {
	mu    sync.Mutex
	w     io.Writer
	quiet bool
}

// NewWriterSink creates a sink writing to w.
func NewWriterSink(w io.Writer, quiet bool) *WriterSink {
	return &WriterSink{w: w, quiet: quiet}
}

// Notify implements Notifier.
func (s *WriterSink) Notify(n Notification) {
	if s.quiet && n.Type != Error && n.Type != Warning {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintln(s.w, Line(n))
}

// Line renders a notification as a single styled line.
func Line(n Notification) string {
	var icon string
	style := output.Muted
	switch n.Type {
	case Success:
		icon, style = output.IconDone, output.Good
	case Error:
		icon, style = output.IconError, output.Bad
	case Warning:
		icon, style = output.IconWarn, output.Warn
	default:
		icon = output.IconInfo
	}
	if n.Message == "" {
		return style.Render(icon + " " + n.Title)
	}
	return style.Render(icon+" "+n.Title+":") + " " + n.Message
}
