package cli

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// progress is the phase spinner. It only writes when stderr is a TTY and
// the run is neither quiet nor emitting JSON, so machine output and logs
// stay clean.
type progress struct {
	enabled  bool
	start    time.Time
	spinner  int
	lastLen  int
	finished bool
}

func newProgress(asJSON, quiet bool) *progress {
	stat, err := os.Stderr.Stat()
	enabled := err == nil && (stat.Mode()&os.ModeCharDevice) != 0 && !asJSON && !quiet
	return &progress{
		enabled: enabled,
		start:   time.Now(),
	}
}

// Step overwrites the status line with the current phase.
func (p *progress) Step(format string, args ...any) {
	if !p.enabled || p.finished {
		return
	}
	frames := [4]string{"-", "\\", "|", "/"}
	frame := frames[p.spinner%len(frames)]
	p.spinner++
	p.printStatus(fmt.Sprintf("%s %s", frame, fmt.Sprintf(format, args...)))
}

// Done replaces the status line with the final message and ends it.
func (p *progress) Done(format string, args ...any) {
	if !p.enabled || p.finished {
		return
	}
	elapsed := time.Since(p.start).Round(time.Millisecond)
	p.printStatus(fmt.Sprintf("%s (%s)", fmt.Sprintf(format, args...), elapsed))
	fmt.Fprintln(os.Stderr)
	p.finished = true
}

// Abort ends a dangling status line so error output starts clean. A no-op
// after Done.
func (p *progress) Abort() {
	if !p.enabled || p.finished {
		return
	}
	if p.lastLen > 0 {
		fmt.Fprintf(os.Stderr, "\r%s\r", strings.Repeat(" ", p.lastLen))
	}
	p.finished = true
}

func (p *progress) printStatus(status string) {
	if p.lastLen > len(status) {
		status = status + strings.Repeat(" ", p.lastLen-len(status))
	}
	p.lastLen = len(status)
	fmt.Fprintf(os.Stderr, "\r%s", status)
}
