// Package progress draws a single-line progress bar for the CLI while
// connectors report back.
package progress

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

const barWidth = 20

// Indicator renders "message [bar] done/total label" on one line. A disabled
// indicator writes nothing.
type Indicator struct {
	mu        sync.Mutex
	w         io.Writer
	enabled   bool
	message   string
	startTime time.Time
	done      int
	total     int
}

// NewIndicator creates an indicator writing to w.
func NewIndicator(w io.Writer, message string, enabled bool) *Indicator {
	return &Indicator{
		w:         w,
		enabled:   enabled && w != nil,
		message:   message,
		startTime: time.Now(),
	}
}

// Update records that done of total steps are complete; label names the
// step that just finished.
func (p *Indicator) Update(label string, done, total int) {
	if !p.enabled {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	p.done, p.total = done, total
	pct := 100.0
	if total > 0 {
		pct = float64(done) / float64(total) * 100
	}
	fmt.Fprintf(p.w, "\r%s [%s] %d/%d %s", p.message, createProgressBar(pct), done, total, label)
}

// Finish ends the line with the elapsed time.
func (p *Indicator) Finish() {
	if !p.enabled {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	fmt.Fprintf(p.w, "\r%s ✓ %d/%d in %s\n", p.message, p.done, p.total, formatDuration(time.Since(p.startTime)))
}

// FinishWithError ends the line with err.
func (p *Indicator) FinishWithError(err error) {
	if !p.enabled {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	fmt.Fprintf(p.w, "\r%s ✗ failed after %s: %v\n", p.message, formatDuration(time.Since(p.startTime)), err)
}

func createProgressBar(percentage float64) string {
	filled := int(percentage / 100.0 * barWidth)
	if filled > barWidth {
		filled = barWidth
	}
	return strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)
}

func formatDuration(d time.Duration) string {
	switch {
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	case d < time.Minute:
		return fmt.Sprintf("%.1fs", d.Seconds())
	default:
		return fmt.Sprintf("%.1fm", d.Minutes())
	}
}
