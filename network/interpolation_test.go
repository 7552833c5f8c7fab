package network

import (
	"math"
	"testing"

	"github.com/automoto/transformsync/shared/netcomponents"
	"github.com/automoto/transformsync/shared/netconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFactor(t *testing.T) {
	t.Parallel()

	a, b := snapAt(0, 0), snapAt(100, 0)
	assert.Equal(t, 0.25, Factor(a, b, 25))
	assert.Equal(t, 1.5, Factor(a, b, 150))
	assert.Equal(t, -0.1, Factor(a, b, -10))
	assert.Equal(t, 1.0, Factor(a, a, 50), "zero-length bracket snaps to the newer entry")
}

func TestInterpolate_ColdStart(t *testing.T) {
	t.Parallel()

	in := Interpolator{Mask: netconfig.SyncAll}
	_, ok := in.Interpolate(NewSnapshotBuffer(0), 10)
	assert.False(t, ok)

	_, ok = in.Interpolate(fillBuffer(0), 10)
	assert.False(t, ok)
}

func TestInterpolate_Lerp(t *testing.T) {
	t.Parallel()

	b := NewSnapshotBuffer(0)
	b.Append(snapAt(0, 0))
	b.Append(snapAt(100, 10))

	pose, ok := Interpolator{Mask: netconfig.SyncAll}.Interpolate(b, 25)
	require.True(t, ok)
	assert.False(t, pose.Idle)
	assert.Equal(t, 0.25, pose.Factor)
	assert.InDelta(t, 2.5, pose.Transform.Position.X, 1e-12)
}

func TestInterpolate_PerAxisAndMask(t *testing.T) {
	t.Parallel()

	from := Snapshot{
		Transform: netcomponents.TransformData{
			Position: netcomponents.Vec3{X: 0, Y: 10, Z: -4},
			Rotation: netcomponents.Vec3{Y: 0},
			Scale:    netcomponents.Vec3{X: 1, Y: 1, Z: 1},
		},
		SnapTimeMs: 0,
	}
	to := Snapshot{
		Transform: netcomponents.TransformData{
			Position: netcomponents.Vec3{X: 8, Y: 20, Z: 4},
			Rotation: netcomponents.Vec3{Y: 2},
			Scale:    netcomponents.Vec3{X: 3, Y: 3, Z: 3},
		},
		SnapTimeMs: 40,
	}
	b := NewSnapshotBuffer(0)
	b.Append(from)
	b.Append(to)

	mask := netconfig.SyncPosition | netconfig.SyncRotation
	pose, ok := Interpolator{Mask: mask}.Interpolate(b, 10)
	require.True(t, ok)

	assert.Equal(t, netcomponents.Vec3{X: 2, Y: 12.5, Z: -2}, pose.Transform.Position)
	assert.Equal(t, netcomponents.Vec3{Y: 0.5}, pose.Transform.Rotation)
	assert.Equal(t, netcomponents.Vec3{}, pose.Transform.Scale, "unsynced scale is not produced")

	current := netcomponents.TransformData{Scale: netcomponents.Vec3{X: 9, Y: 9, Z: 9}}
	applied := pose.Apply(mask, current)
	assert.Equal(t, current.Scale, applied.Scale, "unsynced scale is left untouched on the object")
	assert.Equal(t, pose.Transform.Position, applied.Position)
}

func TestInterpolate_IdleSnap(t *testing.T) {
	t.Parallel()

	rest := snapAt(100, 7)
	rest.Idle = true

	for _, render := range []float64{-20, 0, 30, 100, 250, 1e6} {
		b := NewSnapshotBuffer(0)
		b.Append(snapAt(0, 0))
		b.Append(rest)

		pose, ok := Interpolator{Mask: netconfig.SyncAll}.Interpolate(b, render)
		require.True(t, ok)
		assert.True(t, pose.Idle)
		assert.Equal(t, 7.0, pose.Transform.Position.X, "render time %v", render)
		assert.Equal(t, render, b.At(1).SnapTimeMs, "idle entry is re-stamped to render time")
	}
}

func TestInterpolate_ResumesFromIdleHold(t *testing.T) {
	t.Parallel()

	in := Interpolator{Mask: netconfig.SyncAll}
	rest := snapAt(100, 5)
	rest.Idle = true

	b := NewSnapshotBuffer(0)
	b.Append(snapAt(0, 0))
	b.Append(rest)

	_, ok := in.Interpolate(b, 400)
	require.True(t, ok)

	// Motion resumes long after the idle snapshot was sent.
	b.Append(snapAt(500, 15))

	pose, ok := in.Interpolate(b, 450)
	require.True(t, ok)
	assert.False(t, pose.Idle)
	assert.Equal(t, 2, b.Len())
	assert.InDelta(t, 0.5, pose.Factor, 1e-12, "bracket starts at the hold, not at the original idle time")
	assert.InDelta(t, 10, pose.Transform.Position.X, 1e-12)
}

func TestInterpolate_ZeroDurationBracket(t *testing.T) {
	t.Parallel()

	b := NewSnapshotBuffer(0)
	b.Append(snapAt(50, 1))
	b.Append(snapAt(50, 9))

	pose, ok := Interpolator{Mask: netconfig.SyncAll}.Interpolate(b, 20)
	require.True(t, ok)
	assert.False(t, math.IsNaN(pose.Transform.Position.X))
	assert.Equal(t, 9.0, pose.Transform.Position.X)
	assert.Equal(t, 1.0, pose.Factor)
}

func TestInterpolate_Starved(t *testing.T) {
	t.Parallel()

	b := fillBuffer(0, 100)
	pose, ok := Interpolator{Mask: netconfig.SyncAll}.Interpolate(b, 150)
	require.True(t, ok)
	assert.Equal(t, 1.5, pose.Factor, "the raw factor is reported")
	assert.Equal(t, 100.0, pose.Transform.Position.X, "the pose stalls on the newest snapshot")
	assert.Equal(t, 2, b.Len())

	pose, ok = Interpolator{Mask: netconfig.SyncAll}.Interpolate(b, -50)
	require.True(t, ok)
	assert.Equal(t, -0.5, pose.Factor)
	assert.Equal(t, 0.0, pose.Transform.Position.X)
}
