package components

import "github.com/yohamta/donburi"

// NetInterpData mirrors the observer pipeline state of the last render tick
// for status output.
type NetInterpData struct {
	Rendered  bool    // False during cold start
	Factor    float64 // Raw interpolation factor
	Idle      bool    // Holding a resting snapshot
	OffsetMs  int
	BufferLen int
}

var NetInterp = donburi.NewComponentType[NetInterpData]()
