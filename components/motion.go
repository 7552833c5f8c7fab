package components

import (
	"github.com/tanema/gween"
	"github.com/yohamta/donburi"
)

// MotionData drives an authority-side demo object back and forth along X,
// yawing as it goes, with a hold between legs. The holds are what produce
// idle transitions on the wire.
type MotionData struct {
	Move *gween.Tween
	Spin *gween.Tween

	Distance float32
	Duration float32 // Seconds per leg
	Spin0    float32 // Yaw at the start of the current leg
	SpinStep float32
	Hold     float32 // Seconds to rest between legs
	HoldLeft float32
	Forward  bool
	Legs     int // Completed legs
}

var Motion = donburi.NewComponentType[MotionData]()
