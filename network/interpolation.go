package network

import (
	"github.com/automoto/transformsync/shared/netcomponents"
	"github.com/automoto/transformsync/shared/netconfig"
)

// Pose is what one render tick decided to show.
type Pose struct {
	// Transform holds the rendered values. Only components in the engine's
	// mask are meaningful.
	Transform netcomponents.TransformData
	// Factor is the position of the render time inside the bracket. It
	// exceeds 1 when the buffer is starved.
	Factor float64
	// Idle is set when the pose is a held resting snapshot.
	Idle bool
}

// Apply writes the synced components of p onto current.
func (p Pose) Apply(mask netconfig.SyncMask, current netcomponents.TransformData) netcomponents.TransformData {
	return mask.Apply(current, p.Transform)
}

// Interpolator reconstructs poses from a snapshot buffer.
type Interpolator struct {
	Mask netconfig.SyncMask
}

// Factor locates renderTime between from and to. A zero-length bracket
// resolves to 1 so duplicate timestamps snap to the newer entry.
func Factor(from, to Snapshot, renderTime float64) float64 {
	span := to.SnapTimeMs - from.SnapTimeMs
	if span == 0 {
		return 1
	}
	return (renderTime - from.SnapTimeMs) / span
}

// Interpolate trims buf to renderTime and computes the pose for that time.
// ok is false while fewer than two snapshots have arrived.
//
// When the newer bracket entry is idle its pose is returned as-is and the
// entry is re-stamped to renderTime, so a resting object holds still and the
// next moving snapshot interpolates from the hold rather than from the past.
func (in Interpolator) Interpolate(buf *SnapshotBuffer, renderTime float64) (Pose, bool) {
	buf.Trim(renderTime)

	from, to, ok := buf.Bracket()
	if !ok {
		return Pose{}, false
	}

	factor := Factor(from, to, renderTime)

	if to.Idle {
		buf.Restamp(renderTime)
		return Pose{
			Transform: in.Mask.Masked(to.Transform),
			Factor:    factor,
			Idle:      true,
		}, true
	}

	// The raw factor feeds the delay controller; the pose never leaves the
	// bracket, so a starved buffer stalls on the newest snapshot.
	t := max(0, min(factor, 1))
	pose := Pose{Factor: factor}
	if in.Mask.Has(netconfig.SyncPosition) {
		pose.Transform.Position = netcomponents.LerpVec3(from.Transform.Position, to.Transform.Position, t)
	}
	if in.Mask.Has(netconfig.SyncRotation) {
		pose.Transform.Rotation = netcomponents.LerpVec3(from.Transform.Rotation, to.Transform.Rotation, t)
	}
	if in.Mask.Has(netconfig.SyncScale) {
		pose.Transform.Scale = netcomponents.LerpVec3(from.Transform.Scale, to.Transform.Scale, t)
	}
	return pose, true
}
