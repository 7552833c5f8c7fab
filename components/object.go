package components

import "github.com/yohamta/donburi"

// TrackedData identifies an entity whose transform is synchronized.
type TrackedData struct {
	ID string // Object ID shared by authority and observers
}

var Tracked = donburi.NewComponentType[TrackedData]()
