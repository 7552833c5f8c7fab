package netcomponents

import "github.com/yohamta/donburi"

// Vec3 is a plain three-component vector. It carries no engine type so the
// server binary and the wire messages stay free of graphics dependencies.
type Vec3 struct {
	X, Y, Z float64
}

// LerpVec3 interpolates each axis independently. t is not clamped; callers
// pass factors outside [0,1] when the buffer runs ahead or behind.
func LerpVec3(from, to Vec3, t float64) Vec3 {
	return Vec3{
		X: lerp(from.X, to.X, t),
		Y: lerp(from.Y, to.Y, t),
		Z: lerp(from.Z, to.Z, t),
	}
}

func lerp(from, to, t float64) float64 {
	return from + (to-from)*t
}

// TransformData is the position/rotation/scale of a tracked object.
// Rotation is Euler angles in radians.
type TransformData struct {
	Position Vec3
	Rotation Vec3
	Scale    Vec3
}

var Transform = donburi.NewComponentType[TransformData]()

// Identity returns a transform at the origin with unit scale.
func Identity() TransformData {
	return TransformData{Scale: Vec3{X: 1, Y: 1, Z: 1}}
}

// LerpTransform interpolates every component of a transform.
func LerpTransform(from, to TransformData, t float64) *TransformData {
	return &TransformData{
		Position: LerpVec3(from.Position, to.Position, t),
		Rotation: LerpVec3(from.Rotation, to.Rotation, t),
		Scale:    LerpVec3(from.Scale, to.Scale, t),
	}
}
