package progress

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
)

const compactInterval = time.Second

// Compact writes a short status line at most once per interval, followed
// by a per-category summary on Finish. It suits logs and CI output.
type Compact struct {
	w     io.Writer
	total int64
	tally *Tally
	count atomic.Int64
	// last render, in nanoseconds since start; read without mu
	last atomic.Int64

	mu       sync.Mutex
	msg      string
	start    time.Time
	finished bool

	accent func(a ...interface{}) string
	dim    func(a ...interface{}) string
}

func NewCompact(w io.Writer, total int64, tally *Tally) *Compact {
	c := &Compact{
		w:      w,
		total:  total,
		tally:  tally,
		start:  time.Now(),
		accent: color.New(color.FgCyan, color.Bold).SprintFunc(),
		dim:    color.New(color.Faint).SprintFunc(),
	}
	c.last.Store(-int64(compactInterval))
	return c
}

func (c *Compact) Increment(n int64) {
	c.count.Add(n)
	c.render(false)
}

func (c *Compact) SetMessage(msg string) {
	c.mu.Lock()
	c.msg = msg
	c.mu.Unlock()
	c.render(false)
}

func (c *Compact) Finish() {
	c.mu.Lock()
	if c.finished {
		c.mu.Unlock()
		return
	}
	c.finished = true
	c.mu.Unlock()

	c.render(true)
	if c.tally == nil {
		return
	}
	for _, row := range c.tally.Rows() {
		fmt.Fprintf(c.w, "  %-14s %6d items  %10s\n",
			row.Category.Label(), row.Count, humanize.Bytes(uint64(row.Bytes)))
	}
}

func (c *Compact) render(force bool) {
	if !force && c.throttled() {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	// another caller may have rendered while we waited for mu
	if !force && c.throttled() {
		return
	}
	elapsed := time.Since(c.start)
	c.last.Store(int64(elapsed))

	var b strings.Builder
	done := c.count.Load()
	if c.total > 0 {
		fmt.Fprintf(&b, "%s %d/%d", c.accent("»"), done, c.total)
	} else {
		fmt.Fprintf(&b, "%s %d", c.accent("»"), done)
	}
	if c.msg != "" {
		b.WriteString(" " + c.msg)
	}
	b.WriteString(" " + c.dim(fmt.Sprintf("(%s)", elapsed.Round(time.Millisecond))))
	fmt.Fprintln(c.w, b.String())
}

func (c *Compact) throttled() bool {
	return time.Since(c.start)-time.Duration(c.last.Load()) < compactInterval
}
