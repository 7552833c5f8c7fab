package network

import (
	"github.com/automoto/transformsync/shared/messages"
	"github.com/automoto/transformsync/shared/netcomponents"
	"k8s.io/utils/clock"
)

// Snapshot is one authority-captured transform sample. It is a value type;
// the buffer replaces entries rather than mutating them.
type Snapshot struct {
	Transform  netcomponents.TransformData
	SnapTimeMs float64
	Idle       bool
}

// SnapshotFromMessage converts a received broadcast.
func SnapshotFromMessage(msg messages.TransformSnapshot) Snapshot {
	return Snapshot{
		Transform: netcomponents.TransformData{
			Position: msg.Position,
			Rotation: msg.Rotation,
			Scale:    msg.Scale,
		},
		SnapTimeMs: msg.SnapTimeMs,
		Idle:       msg.Idle,
	}
}

// Message builds the wire form of s for the given object.
func (s Snapshot) Message(objectID string) messages.TransformSnapshot {
	return messages.TransformSnapshot{
		ObjectID:   objectID,
		Position:   s.Transform.Position,
		Rotation:   s.Transform.Rotation,
		Scale:      s.Transform.Scale,
		SnapTimeMs: s.SnapTimeMs,
		Idle:       s.Idle,
	}
}

// withTime returns a copy of s stamped at t.
func (s Snapshot) withTime(t float64) Snapshot {
	s.SnapTimeMs = t
	return s
}

// NowMs reads clk as fractional Unix milliseconds, the timebase of SnapTimeMs.
func NowMs(clk clock.PassiveClock) float64 {
	return float64(clk.Now().UnixNano()) / 1e6
}
