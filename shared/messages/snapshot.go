package messages

import "github.com/automoto/transformsync/shared/netcomponents"

// TransformSnapshot is broadcast by the authority on the unreliable-ordered
// path. Components that are not synced are zero and must not be applied.
type TransformSnapshot struct {
	ObjectID   string
	Position   netcomponents.Vec3
	Rotation   netcomponents.Vec3
	Scale      netcomponents.Vec3
	SnapTimeMs float64 // Authority wall clock, Unix ms
	Idle       bool    // Object did not change since the previous broadcast
}
