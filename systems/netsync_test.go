package systems

import (
	"testing"
	"time"

	"github.com/automoto/transformsync/components"
	"github.com/automoto/transformsync/config"
	"github.com/automoto/transformsync/network"
	"github.com/automoto/transformsync/shared/messages"
	"github.com/automoto/transformsync/shared/netcomponents"
	"github.com/automoto/transformsync/systems/factory"
	"github.com/automoto/transformsync/tags"
	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/ecs"
	"github.com/yohamta/donburi/filter"
	testclock "k8s.io/utils/clock/testing"
)

func observedCount(e *ecs.ECS) int {
	return donburi.NewQuery(filter.Contains(tags.Observer)).Count(e.World)
}

func TestAuthoritySystem_TicksAndBootstraps(t *testing.T) {
	t.Parallel()

	clk := testclock.NewFakeClock(time.UnixMilli(1_000))
	link := network.NewLoopback(clk, 0, 0, 1)
	e := newTestECS()

	a := factory.CreateStaticObject(e, "a", netcomponents.Identity())
	factory.CreateStaticObject(e, "b", netcomponents.Identity())

	sys := NewAuthoritySystem(config.DefaultSync(), link, logr.Discard(), network.WithClock(clk))
	sys.Update(e)
	assert.Equal(t, []string{"a", "b"}, sys.Objects())

	// Nothing has been broadcast yet, so the first sample counts as a change.
	sent := link.DrainSnapshots()
	require.Len(t, sent, 2)
	for _, msg := range sent {
		assert.False(t, msg.Idle)
	}

	clk.Step(16 * time.Millisecond)
	sys.Update(e)
	acks := link.DrainSnapshots()
	require.Len(t, acks, 2)
	for _, msg := range acks {
		assert.True(t, msg.Idle)
	}

	clk.Step(16 * time.Millisecond)
	sys.Update(e)
	assert.Empty(t, link.DrainSnapshots(), "resting objects are suppressed")

	netcomponents.Transform.Get(a).Position.X = 4
	clk.Step(16 * time.Millisecond)
	sys.Update(e)
	moved := link.DrainSnapshots()
	require.Len(t, moved, 1)
	assert.Equal(t, "a", moved[0].ObjectID)
	assert.False(t, moved[0].Idle)

	all := sys.Bootstrap(messages.BootstrapRequest{})
	require.Len(t, all, 2)
	assert.Equal(t, "a", all[0].ObjectID)
	assert.Equal(t, 4.0, all[0].Position.X)

	one := sys.Bootstrap(messages.BootstrapRequest{ObjectID: "b"})
	require.Len(t, one, 1)
	assert.Equal(t, "b", one[0].ObjectID)
	assert.Empty(t, sys.Bootstrap(messages.BootstrapRequest{ObjectID: "nope"}))

	e.World.Remove(a.Entity())
	sys.Update(e)
	assert.Equal(t, []string{"b"}, sys.Objects())
}

func TestObserverSystem_IgnoresUnknownObjectsUnlessDiscovering(t *testing.T) {
	t.Parallel()

	clk := testclock.NewFakeClock(time.UnixMilli(1_000))
	link := network.NewLoopback(clk, 0, 0, 1)
	require.NoError(t, link.Broadcast(messages.TransformSnapshot{ObjectID: "x", SnapTimeMs: 900}))

	e := newTestECS()
	sys := NewObserverSystem(config.DefaultSync(), link, link, false, logr.Discard(), network.WithClock(clk))
	sys.Update(e)
	_, ok := sys.Session("x")
	assert.False(t, ok)
	assert.Zero(t, observedCount(e))

	require.NoError(t, link.Broadcast(messages.TransformSnapshot{ObjectID: "x", SnapTimeMs: 900}))
	disc := NewObserverSystem(config.DefaultSync(), link, link, true, logr.Discard(), network.WithClock(clk))
	disc.Update(e)
	s, ok := disc.Session("x")
	require.True(t, ok)
	assert.Equal(t, 1, s.BufferLen())
	assert.Equal(t, 1, observedCount(e))
}

func TestNetSync_LoopbackFollowsAuthority(t *testing.T) {
	t.Parallel()

	clk := testclock.NewFakeClock(time.UnixMilli(10_000))
	link := network.NewLoopback(clk, 40*time.Millisecond, 0, 7)

	authority := newTestECS()
	src := factory.CreateAuthorityObject(authority, "obj", netcomponents.Vec3{}, testMotion())
	authSys := NewAuthoritySystem(config.DefaultSync(), link, logr.Discard(), network.WithClock(clk))
	link.Serve(authSys.Bootstrap)
	motion := NewMotionSystem(float32(time.Second.Seconds() / 60))

	observer := newTestECS()
	obsSys := NewObserverSystem(config.DefaultSync(), link, link, false, logr.Discard(), network.WithClock(clk))
	view, err := obsSys.Track(observer, "obj")
	require.NoError(t, err)

	for i := 0; i < 600; i++ {
		motion(authority)
		authSys.Update(authority)
		obsSys.Update(observer)
		clk.Step(time.Second / 60)

		got := netcomponents.Transform.Get(view)
		assert.GreaterOrEqual(t, got.Position.X, -1e-9)
		assert.LessOrEqual(t, got.Position.X, 10+1e-9)
	}

	s, ok := obsSys.Session("obj")
	require.True(t, ok)
	assert.True(t, s.Bootstrapped())

	info := components.NetInterp.Get(view)
	assert.True(t, info.Rendered)
	assert.GreaterOrEqual(t, info.OffsetMs, 1)

	// Let the authority come to rest and the observer catch up.
	m := components.Motion.Get(src)
	m.Move = nil
	m.HoldLeft = 0
	for i := 0; i < 240; i++ {
		authSys.Update(authority)
		obsSys.Update(observer)
		clk.Step(time.Second / 60)
	}
	want := netcomponents.Transform.Get(src)
	assert.InDelta(t, want.Position.X, netcomponents.Transform.Get(view).Position.X, 1e-9)
	assert.True(t, components.NetInterp.Get(view).Idle)
}
