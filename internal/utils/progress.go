package utils

import (
	"fmt"
	"os"
	"time"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
	"golang.org/x/term"
)

const labelWidth = 20

// Progress renders an object-level extraction bar on stderr. It stays
// inert when disabled or when stderr is not a terminal, so callers can
// drive it unconditionally.
type Progress struct {
	container *mpb.Progress
	bar       *mpb.Bar
	label     string
}

// NewProgress creates a bar over total objects. The returned value is a
// no-op when the bar is disabled or stderr is not a TTY.
func NewProgress(total int, enabled bool) *Progress {
	p := &Progress{}
	if !enabled || !term.IsTerminal(int(os.Stderr.Fd())) {
		return p
	}

	fmt.Fprintln(os.Stderr)

	p.container = mpb.New(
		mpb.WithOutput(os.Stderr),
		mpb.WithWidth(64),
		mpb.WithRefreshRate(100*time.Millisecond),
	)
	p.bar = p.container.New(int64(total),
		mpb.BarStyle().Lbound("[").Filler("█").Tip("█").Padding("░").Rbound("]"),
		mpb.PrependDecorators(
			decor.Any(func(decor.Statistics) string {
				if len(p.label) > labelWidth {
					return p.label[:labelWidth-2] + ".."
				}
				return p.label
			}, decor.WC{W: labelWidth, C: decor.DindentRight}),
			decor.Name("  "),
			decor.CountersNoUnit("%d/%d", decor.WC{C: decor.DindentRight}),
		),
		mpb.AppendDecorators(decor.Percentage()),
	)
	return p
}

// Update advances the bar and relabels it with the bundle being worked.
func (p *Progress) Update(done int, label string) {
	if p.bar == nil {
		return
	}
	p.label = label
	p.bar.SetCurrent(int64(done))
}

// Finish completes the bar and waits for the final render. Safe to call
// after a partial run; the bar is closed at its current position.
func (p *Progress) Finish() {
	if p.container == nil {
		return
	}
	p.bar.SetTotal(-1, true)
	p.container.Wait()
	fmt.Fprintln(os.Stderr)
}
