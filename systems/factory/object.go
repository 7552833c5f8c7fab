package factory

import (
	"github.com/automoto/transformsync/archetypes"
	"github.com/automoto/transformsync/components"
	cfg "github.com/automoto/transformsync/config"
	"github.com/automoto/transformsync/shared/netcomponents"
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/ecs"
)

// CreateAuthorityObject spawns a tracked object that moves on its own. It
// travels back and forth along X using tweens, resting between legs.
func CreateAuthorityObject(ecs *ecs.ECS, id string, origin netcomponents.Vec3, motion cfg.MotionConfig) *donburi.Entry {
	obj := archetypes.AuthorityObject.Spawn(ecs, components.Motion)

	components.Tracked.SetValue(obj, components.TrackedData{ID: id})

	t := netcomponents.Identity()
	t.Position = origin
	netcomponents.Transform.SetValue(obj, t)

	m := components.MotionData{
		Distance: float32(motion.Distance),
		Duration: float32(motion.LegSeconds),
		SpinStep: float32(motion.Spin),
		Hold:     float32(motion.Hold),
		Forward:  true,
	}
	StartLeg(&m, t)
	components.Motion.SetValue(obj, m)

	return obj
}

// CreateStaticObject spawns a tracked object that never moves.
func CreateStaticObject(ecs *ecs.ECS, id string, t netcomponents.TransformData) *donburi.Entry {
	obj := archetypes.AuthorityObject.Spawn(ecs)
	components.Tracked.SetValue(obj, components.TrackedData{ID: id})
	netcomponents.Transform.SetValue(obj, t)
	return obj
}

// CreateObservedObject spawns the observer-side copy of a tracked object.
func CreateObservedObject(ecs *ecs.ECS, id string) *donburi.Entry {
	obj := archetypes.ObservedObject.Spawn(ecs)
	components.Tracked.SetValue(obj, components.TrackedData{ID: id})
	netcomponents.Transform.SetValue(obj, netcomponents.Identity())
	return obj
}

// StartLeg sets up the tweens for the next leg from the current transform.
func StartLeg(m *components.MotionData, t netcomponents.TransformData) {
	from := float32(t.Position.X)
	to := from - m.Distance
	if m.Forward {
		to = from + m.Distance
	}
	m.Move = gween.New(from, to, m.Duration, ease.InOutQuad)

	m.Spin0 = float32(t.Rotation.Y)
	m.Spin = gween.New(m.Spin0, m.Spin0+m.SpinStep, m.Duration, ease.Linear)
}
