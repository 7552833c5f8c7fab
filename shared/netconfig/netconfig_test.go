package netconfig

import (
	"testing"

	"github.com/automoto/transformsync/shared/netcomponents"
	"github.com/stretchr/testify/assert"
)

var sample = netcomponents.TransformData{
	Position: netcomponents.Vec3{X: 1, Y: 2, Z: 3},
	Rotation: netcomponents.Vec3{X: 0.1},
	Scale:    netcomponents.Vec3{X: 2, Y: 2, Z: 2},
}

func TestNewSyncMask(t *testing.T) {
	t.Parallel()

	assert.Equal(t, SyncAll, NewSyncMask(true, true, true))
	assert.Equal(t, SyncPosition|SyncScale, NewSyncMask(true, false, true))
	assert.Equal(t, SyncMask(0), NewSyncMask(false, false, false))
}

func TestSyncMask_Masked(t *testing.T) {
	t.Parallel()

	got := SyncPosition.Masked(sample)
	assert.Equal(t, sample.Position, got.Position)
	assert.Equal(t, netcomponents.Vec3{}, got.Rotation)
	assert.Equal(t, netcomponents.Vec3{}, got.Scale)
}

func TestSyncMask_Apply(t *testing.T) {
	t.Parallel()

	dst := netcomponents.Identity()
	got := (SyncRotation | SyncScale).Apply(dst, sample)
	assert.Equal(t, netcomponents.Vec3{}, got.Position, "unsynced position must be left untouched")
	assert.Equal(t, sample.Rotation, got.Rotation)
	assert.Equal(t, sample.Scale, got.Scale)
}

func TestSyncMask_Equal(t *testing.T) {
	t.Parallel()

	moved := sample
	moved.Position.X += 1e-12

	assert.True(t, SyncAll.Equal(sample, sample))
	assert.False(t, SyncAll.Equal(sample, moved), "comparison is exact")
	assert.True(t, (SyncRotation | SyncScale).Equal(sample, moved), "unsynced components are ignored")
}

func TestRoleString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "authority", RoleAuthority.String())
	assert.Equal(t, "observer", RoleObserver.String())
	assert.Equal(t, "unknown", Role(7).String())
}
