// Package timing records per-phase durations of a campaign run
// (connect, revert, login, each stage) for the end-of-run report.
package timing

import (
	"fmt"
	"io"
	"time"
)

// Timer tracks durations of named campaign phases.
type Timer struct {
	start  time.Time
	last   time.Time
	phases []Phase
}

// Phase is one timed campaign phase.
type Phase struct {
	Name     string
	Duration time.Duration
}

// New creates a Timer starting from now.
func New() *Timer {
	now := time.Now()
	return &Timer{start: now, last: now}
}

// Mark records a phase ending now; its duration is the time since the
// previous mark (or since creation for the first mark).
func (t *Timer) Mark(name string) {
	now := time.Now()
	t.phases = append(t.phases, Phase{Name: name, Duration: now.Sub(t.last)})
	t.last = now
}

// MarkStage records the phase for stage i.
func (t *Timer) MarkStage(i int) {
	t.Mark(fmt.Sprintf("stage %d", i))
}

// Total returns the elapsed time since timer creation.
func (t *Timer) Total() time.Duration {
	return time.Since(t.start)
}

// Phases returns the recorded phases in order.
func (t *Timer) Phases() []Phase {
	return t.phases
}

// Report writes a per-phase timing summary.
func (t *Timer) Report(w io.Writer) {
	fmt.Fprintln(w, "Campaign timing:")
	for _, p := range t.phases {
		fmt.Fprintf(w, "  %-12s %s\n", p.Name, formatDuration(p.Duration))
	}
	fmt.Fprintf(w, "  %-12s %s\n", "total", formatDuration(t.Total()))
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return fmt.Sprintf("%.2fs", d.Seconds())
}
