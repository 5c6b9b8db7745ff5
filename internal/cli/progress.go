package cli

import (
	"fmt"
	"time"
)

// maxETA caps the estimate shown to the user.
const maxETA = 24 * time.Hour

// ProgressTracker aggregates the progress of concurrent builds and estimates
// the time remaining from a smoothed progress rate.
type ProgressTracker struct {
	values []float64
	now    func() time.Time

	start    time.Time
	lastAt   time.Time
	lastSeen float64
	rate     float64 // progress per second
}

// NewProgressTracker creates a tracker for numBuilds builds.
func NewProgressTracker(numBuilds int) *ProgressTracker {
	return newProgressTracker(numBuilds, time.Now)
}

func newProgressTracker(numBuilds int, now func() time.Time) *ProgressTracker {
	if numBuilds < 0 {
		numBuilds = 0
	}
	t := now()
	return &ProgressTracker{
		values: make([]float64, numBuilds),
		now:    now,
		start:  t,
		lastAt: t,
	}
}

// Update records value for the build at index and refreshes the rate
// estimate. Out-of-range indices are ignored.
func (p *ProgressTracker) Update(index int, value float64) {
	if index < 0 || index >= len(p.values) {
		return
	}
	p.values[index] = value

	now := p.now()
	progress := p.Average()
	elapsed := now.Sub(p.start)
	if elapsed < 100*time.Millisecond || progress <= 0.001 {
		p.lastAt, p.lastSeen = now, progress
		return
	}

	since := now.Sub(p.lastAt).Seconds()
	if since < 0.05 {
		return
	}
	if delta := progress - p.lastSeen; delta > 0 {
		if p.rate > 0 {
			p.rate = 0.7*p.rate + 0.3*delta/since
		} else {
			p.rate = progress / elapsed.Seconds()
		}
	}
	p.lastAt, p.lastSeen = now, progress
}

// Average returns the mean progress over all builds.
func (p *ProgressTracker) Average() float64 {
	if len(p.values) == 0 {
		return 0
	}
	var total float64
	for _, v := range p.values {
		total += v
	}
	return total / float64(len(p.values))
}

// ETA returns the estimated time remaining, or 0 while no rate is known or
// once every build is done.
func (p *ProgressTracker) ETA() time.Duration {
	progress := p.Average()
	if p.rate <= 0 || progress >= 1.0 {
		return 0
	}
	eta := time.Duration((1.0 - progress) / p.rate * float64(time.Second))
	if eta > maxETA {
		eta = maxETA
	}
	return eta
}

// FormatETA renders an estimate as "< 1s", "42s", "2m30s" or "1h15m".
// A non-positive estimate reads "estimating...".
func FormatETA(eta time.Duration) string {
	switch {
	case eta <= 0:
		return "estimating..."
	case eta < time.Second:
		return "< 1s"
	case eta < time.Minute:
		return fmt.Sprintf("%ds", int(eta.Seconds()))
	case eta < time.Hour:
		m, s := int(eta.Minutes()), int(eta.Seconds())%60
		if s > 0 {
			return fmt.Sprintf("%dm%ds", m, s)
		}
		return fmt.Sprintf("%dm", m)
	}
	h, m := int(eta.Hours()), int(eta.Minutes())%60
	if m > 0 {
		return fmt.Sprintf("%dh%dm", h, m)
	}
	return fmt.Sprintf("%dh", h)
}

// FormatProgressLine renders "45.00% [████░░░░] ETA: 2m30s". Completed
// progress shows "done" in place of the estimate.
func FormatProgressLine(progress float64, eta time.Duration, width int) string {
	etaStr := FormatETA(eta)
	if progress >= 1.0 {
		etaStr = "done"
	}
	return fmt.Sprintf("%6.2f%% [%s] ETA: %s", progress*100, progressBar(progress, width), etaStr)
}
