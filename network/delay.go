package network

import "time"

// Adjustment records what the delay controller did on one tick.
type Adjustment int

const (
	AdjustNone Adjustment = iota
	AdjustIncrease
	AdjustDecrease
)

func (a Adjustment) String() string {
	switch a {
	case AdjustIncrease:
		return "increase"
	case AdjustDecrease:
		return "decrease"
	default:
		return "none"
	}
}

// DelayController tunes how far behind live the observer renders. It moves
// one millisecond per tick: up when the render time overran the newest
// bracket, down when the buffer holds spare snapshots.
type DelayController struct {
	offsetMs int
	minMs    int
	maxMs    int
}

// NewDelayController starts at initialMs clamped into [minMs, maxMs]. Callers
// validate that minMs <= maxMs.
func NewDelayController(minMs, maxMs, initialMs int) *DelayController {
	return &DelayController{
		offsetMs: max(minMs, min(initialMs, maxMs)),
		minMs:    minMs,
		maxMs:    maxMs,
	}
}

// OffsetMs returns the current render delay in milliseconds.
func (d *DelayController) OffsetMs() int {
	return d.offsetMs
}

// Offset returns the current render delay.
func (d *DelayController) Offset() time.Duration {
	return time.Duration(d.offsetMs) * time.Millisecond
}

// Observe applies one tick of feedback. factor is the interpolation factor of
// the current bracket and bufferLen the buffer depth after trimming.
func (d *DelayController) Observe(factor float64, bufferLen int) Adjustment {
	if factor > 1 && d.offsetMs < d.maxMs {
		d.offsetMs++
		return AdjustIncrease
	}
	if bufferLen > 2 && d.offsetMs > d.minMs {
		d.offsetMs--
		return AdjustDecrease
	}
	return AdjustNone
}
