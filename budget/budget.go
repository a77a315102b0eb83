// Package budget decides whether a run may start scraping one more page.
package budget

import (
	"fmt"
	"time"
)

// Status is the answer of an Oracle
type Status struct {
	TimeLeft bool
	Message  string
}

// Oracle is polled once before every page
type Oracle interface {
	Check() Status
}

// Limits bounds a run by wall-clock time and by number of pages
type Limits struct {
	// MaxDuration of the whole run, zero means unlimited
	MaxDuration time.Duration
	// Margin is the time that must still be left to start a page
	Margin time.Duration
	// MaxPages started in the run, zero means unlimited
	MaxPages int
}

// Deadline is an Oracle enforcing Limits from the moment it is created
type Deadline struct {
	limits  Limits
	started time.Time
	pages   int
	now     func() time.Time
}

// NewDeadline starts the clock for a run
func NewDeadline(limits Limits) *Deadline {
	return newDeadline(limits, time.Now)
}

func newDeadline(limits Limits, now func() time.Time) *Deadline {
	return &Deadline{limits: limits, started: now(), now: now}
}

// Check implements Oracle. A positive answer counts as one page started.
func (d *Deadline) Check() Status {
	if d.limits.MaxPages > 0 && d.pages >= d.limits.MaxPages {
		return Status{
			TimeLeft: false,
			Message:  fmt.Sprintf("Page quota of %d reached, stopping", d.limits.MaxPages),
		}
	}

	if d.limits.MaxDuration > 0 {
		elapsed := d.now().Sub(d.started)
		left := d.limits.MaxDuration - elapsed
		if left <= d.limits.Margin {
			return Status{
				TimeLeft: false,
				Message:  fmt.Sprintf("Execution time limit of %s reached (%s left), stopping", d.limits.MaxDuration, left.Truncate(time.Second)),
			}
		}
		d.pages++
		return Status{TimeLeft: true, Message: fmt.Sprintf("%s left", left.Truncate(time.Second))}
	}

	d.pages++
	return Status{TimeLeft: true}
}

// Unlimited never stops a run
type Unlimited struct{}

// Check implements Oracle
func (Unlimited) Check() Status {
	return Status{TimeLeft: true}
}
