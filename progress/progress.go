// Package progress reports how far a run is.
package progress

import (
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/bubbles/progress"
)

// Reporter receives the fraction of the run done, with a label for the current step
type Reporter interface {
	Report(fraction float64, label string)
}

// Bar prints a progress bar line for every report
type Bar struct {
	mu  sync.Mutex
	w   io.Writer
	bar progress.Model
}

// NewBar creates a new Bar writing to w
func NewBar(w io.Writer) *Bar {
	return &Bar{
		w:   w,
		bar: progress.New(progress.WithDefaultGradient(), progress.WithWidth(30)),
	}
}

// Report implements Reporter
func (b *Bar) Report(fraction float64, label string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	fraction = clamp(fraction)
	fmt.Fprintf(b.w, "%s %s\n", b.bar.ViewAs(fraction), label)
}

// Multi fans a report out to several reporters
type Multi []Reporter

// Report implements Reporter
func (m Multi) Report(fraction float64, label string) {
	for _, r := range m {
		r.Report(fraction, label)
	}
}

// Discard ignores every report
type Discard struct{}

// Report implements Reporter
func (Discard) Report(float64, string) {}

func clamp(f float64) float64 {
	switch {
	case f < 0:
		return 0
	case f > 1:
		return 1
	}
	return f
}
