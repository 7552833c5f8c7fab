package network

import (
	"github.com/automoto/transformsync/shared/netcomponents"
	"github.com/automoto/transformsync/shared/netconfig"
)

// ChangeDetector decides, once per production tick, whether the authority
// broadcasts. A moving object is sent every tick; when it stops, exactly one
// idle snapshot goes out and the detector stays silent until it moves again.
type ChangeDetector struct {
	mask        netconfig.SyncMask
	last        netcomponents.TransformData
	idle        bool
	idleAckSent bool
}

func NewChangeDetector(mask netconfig.SyncMask) *ChangeDetector {
	return &ChangeDetector{mask: mask}
}

// Sample compares current to the last broadcast values. It returns the
// snapshot to send, or false when the tick is suppressed.
func (c *ChangeDetector) Sample(current netcomponents.TransformData, nowMs float64) (Snapshot, bool) {
	c.idle = c.mask.Equal(current, c.last)

	if c.idle && c.idleAckSent {
		return Snapshot{}, false
	}

	s := Snapshot{
		Transform:  c.mask.Masked(current),
		SnapTimeMs: nowMs,
		Idle:       c.idle,
	}
	c.last = c.mask.Apply(c.last, current)
	c.idleAckSent = c.idle
	return s, true
}

// Idle reports whether the last sampled tick saw no change.
func (c *ChangeDetector) Idle() bool {
	return c.idle
}
