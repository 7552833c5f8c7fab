package messages

import "github.com/automoto/transformsync/shared/netcomponents"

// BootstrapRequest is sent once by an observer after connecting, on the
// reliable path. An empty ObjectID asks for every object the authority owns.
type BootstrapRequest struct {
	ObjectID string
}

// BootstrapResponse carries the authority's current transform. Observers apply
// it directly, without buffering or interpolation.
type BootstrapResponse struct {
	ObjectID string
	Position netcomponents.Vec3
	Rotation netcomponents.Vec3
	Scale    netcomponents.Vec3
}
