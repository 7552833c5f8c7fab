package systems

import (
	"github.com/automoto/transformsync/components"
	"github.com/automoto/transformsync/shared/netcomponents"
	"github.com/automoto/transformsync/systems/factory"
	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/ecs"
)

// NewMotionSystem returns a system that advances every scripted object by dt
// seconds per update.
func NewMotionSystem(dt float32) func(*ecs.ECS) {
	return func(e *ecs.ECS) {
		components.Motion.Each(e.World, func(entry *donburi.Entry) {
			stepMotion(entry, dt)
		})
	}
}

func stepMotion(entry *donburi.Entry, dt float32) {
	m := components.Motion.Get(entry)
	t := netcomponents.Transform.Get(entry)

	// Resting between legs leaves the transform untouched so it reads as idle
	if m.HoldLeft > 0 {
		m.HoldLeft -= dt
		if m.HoldLeft <= 0 {
			m.HoldLeft = 0
			factory.StartLeg(m, *t)
		}
		return
	}

	if m.Move == nil {
		return
	}

	x, done := m.Move.Update(dt)
	yaw, _ := m.Spin.Update(dt)
	t.Position.X = float64(x)
	t.Rotation.Y = float64(yaw)

	if done {
		m.Legs++
		m.Forward = !m.Forward
		m.HoldLeft = m.Hold
		if m.Hold <= 0 {
			factory.StartLeg(m, *t)
		}
	}
}
