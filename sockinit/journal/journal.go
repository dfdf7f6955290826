// Package journal provides implementations of sockinit's Journaler
// interface to write to a file. It also provides a file locking
// abstraction so that only one sockinit instance can run with the same
// journal file, since two instances would fight over the same listening
// sockets.
package journal

import (
	"fmt"
	"io"
	"time"

	"git.unix.lgbt/diamondburned/sockinit/sockinit"
)

// multiWriter combines multiple journalers.
type multiWriter struct {
	writers []sockinit.Journaler
}

// MultiWriter creates a journaler that writes to multiple other
// journalers. The first write error encountered is returned, but every
// journaler is always written to.
func MultiWriter(ws ...sockinit.Journaler) sockinit.Journaler {
	return &multiWriter{ws}
}

func (w *multiWriter) Write(event sockinit.Event) error {
	var firstErr error

	for _, writer := range w.writers {
		if err := writer.Write(event); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	return firstErr
}

// HumanWriter is a journaler that writes events in a one-line format meant
// for people rather than machines.
type HumanWriter struct {
	name string
	w    io.Writer
}

var _ sockinit.Journaler = (*HumanWriter)(nil)

// NewHumanWriter creates a human-readable journaler with the given name,
// usually the name of the sink, such as "stderr".
func NewHumanWriter(name string, w io.Writer) *HumanWriter {
	return &HumanWriter{name: name, w: w}
}

// Write writes the event as a single line.
func (h *HumanWriter) Write(ev sockinit.Event) error {
	now := time.Now().Format(time.StampMilli)

	_, err := fmt.Fprintf(h.w, "%s [%s] %s: %+v\n", now, h.name, ev.Type(), ev)
	return err
}
