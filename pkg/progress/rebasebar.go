// Package progress renders a progress bar for a multi-CL rebase. It is
// purely cosmetic: the rebase engine has no notion of a progress bar, it
// only exposes a per-step callback that a caller such as this package can
// observe.
package progress

import (
	"os"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"

	"github.com/minhkhoango/p4-stack-go/modules/term"
)

// RebaseBar tracks progress through an ordered list of changelists being
// rebased, one "tick" per completed CL.
type RebaseBar struct {
	progress *mpb.Progress
	bar      *mpb.Bar
	quiet    bool
}

// NewRebaseBar creates a bar sized to the number of CLs in stack_to_update.
// When quiet (or stderr is not a terminal) it renders nothing.
func NewRebaseBar(total int, quiet bool) *RebaseBar {
	if quiet || !term.IsTerminal(os.Stderr.Fd()) || total <= 0 {
		return &RebaseBar{quiet: true}
	}
	p := mpb.New(
		mpb.WithOutput(os.Stderr),
		mpb.WithAutoRefresh(),
	)
	filler := "#"
	if term.StderrMode != term.NO_COLOR {
		filler = "\x1b[38;2;72;198;239m#\x1b[0m"
	}
	bar := p.AddBar(int64(total),
		mpb.BarStyle().Filler(filler).Padding(" "),
		mpb.PrependDecorators(
			decor.Name("rebasing", decor.WC{W: len("rebasing"), C: decor.DindentRight}),
			decor.CountersNoUnit("%d / %d", decor.WCSyncWidth),
		),
		mpb.AppendDecorators(decor.Percentage()),
	)
	return &RebaseBar{progress: p, bar: bar}
}

// Advance sets the bar to rebased completed CLs out of its total.
func (b *RebaseBar) Advance(rebased int) {
	if b.quiet {
		return
	}
	b.bar.SetCurrent(int64(rebased))
}

// Done waits for the bar's render goroutine to flush a final frame.
func (b *RebaseBar) Done() {
	if b.quiet {
		return
	}
	if !b.bar.Completed() {
		b.bar.Abort(false)
	}
	b.progress.Wait()
}
