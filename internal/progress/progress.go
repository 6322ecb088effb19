// Package progress reports scan and clean progress to the terminal.
// The core packages depend only on Sink.
package progress

import (
	"io"
	"os"

	"github.com/mattn/go-isatty"
)

// Sink receives progress events. Implementations must be safe for
// concurrent use; workers call Increment once per completed item.
type Sink interface {
	Increment(n int64)
	SetMessage(msg string)
	Finish()
}

// NoOp discards everything.
type NoOp struct{}

func (NoOp) Increment(int64)   {}
func (NoOp) SetMessage(string) {}
func (NoOp) Finish()           {}

// Style selects a Sink implementation.
type Style int

const (
	StyleAuto Style = iota
	StyleBar
	StyleCompact
	StyleNone
)

// ParseStyle maps a flag value to a Style.
func ParseStyle(s string) Style {
	switch s {
	case "bar":
		return StyleBar
	case "compact":
		return StyleCompact
	case "none", "off":
		return StyleNone
	default:
		return StyleAuto
	}
}

// Options configures New.
type Options struct {
	Writer      io.Writer
	Total       int64 // -1 when unknown
	Description string
	Quiet       bool
	Style       Style
	Tally       *Tally
}

// New picks a Sink: NoOp when quiet, a bar on terminals, and the compact
// line writer elsewhere.
func New(opts Options) Sink {
	if opts.Quiet || opts.Style == StyleNone {
		return NoOp{}
	}
	w := opts.Writer
	if w == nil {
		w = os.Stderr
	}
	style := opts.Style
	if style == StyleAuto {
		if IsTTY(w) {
			style = StyleBar
		} else {
			style = StyleCompact
		}
	}
	if style == StyleBar {
		return NewTerminalBar(w, opts.Total, opts.Description)
	}
	return NewCompact(w, opts.Total, opts.Tally)
}

// IsTTY reports whether w is a terminal.
func IsTTY(w io.Writer) bool {
	f, ok := w.(interface{ Fd() uintptr })
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
