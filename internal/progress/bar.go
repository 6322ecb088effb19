package progress

import (
	"io"
	"time"

	"github.com/schollz/progressbar/v3"
)

// TerminalBar renders an interactive progress bar. With an unknown total
// it shows a spinner with a running count.
type TerminalBar struct {
	bar *progressbar.ProgressBar
}

func NewTerminalBar(w io.Writer, total int64, description string) *TerminalBar {
	if total == 0 {
		total = -1
	}
	bar := progressbar.NewOptions64(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWidth(30),
		progressbar.OptionShowCount(),
		progressbar.OptionSetItsString("items"),
		progressbar.OptionShowIts(),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionClearOnFinish(),
	)
	return &TerminalBar{bar: bar}
}

func (b *TerminalBar) Increment(n int64) {
	_ = b.bar.Add64(n)
}

func (b *TerminalBar) SetMessage(msg string) {
	b.bar.Describe(msg)
}

func (b *TerminalBar) Finish() {
	_ = b.bar.Finish()
}
