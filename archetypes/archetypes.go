package archetypes

import (
	"github.com/automoto/transformsync/components"
	cfg "github.com/automoto/transformsync/config"
	"github.com/automoto/transformsync/shared/netcomponents"
	"github.com/automoto/transformsync/tags"
	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/ecs"
)

var (
	// AuthorityObject is a tracked object owned by this process.
	AuthorityObject = newArchetype(
		tags.Authority,
		components.Tracked,
		netcomponents.Transform,
	)
	// ObservedObject is a tracked object rendered from received snapshots.
	ObservedObject = newArchetype(
		tags.Observer,
		components.Tracked,
		netcomponents.Transform,
		components.NetInterp,
	)
)

type archetype struct {
	components []donburi.IComponentType
}

func newArchetype(cs ...donburi.IComponentType) *archetype {
	return &archetype{
		components: cs,
	}
}

func (a *archetype) Spawn(ecs *ecs.ECS, cs ...donburi.IComponentType) *donburi.Entry {
	e := ecs.World.Entry(ecs.Create(
		cfg.LayerDefault,
		append(a.components, cs...)...,
	))
	return e
}
