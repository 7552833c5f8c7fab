package tags

import "github.com/yohamta/donburi"

var (
	Authority = donburi.NewTag().SetName("Authority")
	Observer  = donburi.NewTag().SetName("Observer")
)
