package components

import (
	"github.com/automoto/transformsync/shared/netcomponents"
	"github.com/yohamta/donburi"
)

// EntryNode exposes an entity's Transform component as a sync target.
type EntryNode struct {
	entry *donburi.Entry
}

// NodeOf returns a sync target for entry. ok is false when the entry is gone
// or has no Transform component.
func NodeOf(entry *donburi.Entry) (node *EntryNode, ok bool) {
	if entry == nil || !entry.Valid() || !entry.HasComponent(netcomponents.Transform) {
		return nil, false
	}
	return &EntryNode{entry: entry}, true
}

func (n *EntryNode) Transform() netcomponents.TransformData {
	return *netcomponents.Transform.Get(n.entry)
}

func (n *EntryNode) SetTransform(t netcomponents.TransformData) {
	netcomponents.Transform.SetValue(n.entry, t)
}
