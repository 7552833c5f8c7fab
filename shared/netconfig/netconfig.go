// Package netconfig defines lightweight types shared between client and server
// for network serialization. It must have zero dependencies on any graphics
// library so the dedicated server binary stays headless.
package netconfig

import "github.com/automoto/transformsync/shared/netcomponents"

// Role is the part a process plays for one tracked object. It is fixed when
// the session is constructed.
type Role int

const (
	RoleAuthority Role = iota // Owns ground truth and broadcasts it
	RoleObserver              // Receives broadcasts and renders
)

func (r Role) String() string {
	switch r {
	case RoleAuthority:
		return "authority"
	case RoleObserver:
		return "observer"
	default:
		return "unknown"
	}
}

// Delivery describes the guarantees of the path a message travels on.
type Delivery int

const (
	UnreliableOrdered Delivery = iota // May drop, never reorders or duplicates
	Reliable
)

// SyncMask selects which transform components are sampled, sent and applied.
type SyncMask uint8

const (
	SyncPosition SyncMask = 1 << iota
	SyncRotation
	SyncScale

	SyncAll = SyncPosition | SyncRotation | SyncScale
)

// NewSyncMask builds a mask from the three independent switches.
func NewSyncMask(position, rotation, scale bool) SyncMask {
	var m SyncMask
	if position {
		m |= SyncPosition
	}
	if rotation {
		m |= SyncRotation
	}
	if scale {
		m |= SyncScale
	}
	return m
}

func (m SyncMask) Has(c SyncMask) bool {
	return m&c != 0
}

// Masked returns t with every unsynced component replaced by the zero sentinel.
func (m SyncMask) Masked(t netcomponents.TransformData) netcomponents.TransformData {
	var out netcomponents.TransformData
	if m.Has(SyncPosition) {
		out.Position = t.Position
	}
	if m.Has(SyncRotation) {
		out.Rotation = t.Rotation
	}
	if m.Has(SyncScale) {
		out.Scale = t.Scale
	}
	return out
}

// Apply copies the synced components of src onto dst and leaves the rest of
// dst untouched.
func (m SyncMask) Apply(dst, src netcomponents.TransformData) netcomponents.TransformData {
	if m.Has(SyncPosition) {
		dst.Position = src.Position
	}
	if m.Has(SyncRotation) {
		dst.Rotation = src.Rotation
	}
	if m.Has(SyncScale) {
		dst.Scale = src.Scale
	}
	return dst
}

// Equal reports whether a and b match exactly on every synced component.
// No epsilon is applied.
func (m SyncMask) Equal(a, b netcomponents.TransformData) bool {
	if m.Has(SyncPosition) && a.Position != b.Position {
		return false
	}
	if m.Has(SyncRotation) && a.Rotation != b.Rotation {
		return false
	}
	if m.Has(SyncScale) && a.Scale != b.Scale {
		return false
	}
	return true
}
