package core

import (
	"github.com/solarlune/resolv"

	"github.com/apistol78/replica/shared/netconfig"
)

// BodyPhysics holds per-body simulation state on the server. This is not a
// donburi component; it exists only on the server and is never replicated
// directly. Velocities are per physics step.
type BodyPhysics struct {
	Object *resolv.Object

	VelX, VelY float64
	Z, VelZ    float64 // height above the floor
	Angle      float64 // heading about +z, radians
	Spin       float64

	Sleeping bool
}

func newBodyPhysics(arena *Arena, x, y float64) *BodyPhysics {
	size := netconfig.Body.Size
	obj := resolv.NewObject(x-size/2, y-size/2, size, size, tagBody)
	obj.SetShape(resolv.NewRectangle(0, 0, size, size))
	arena.Space.Add(obj)

	return &BodyPhysics{Object: obj}
}

func removeBodyPhysics(arena *Arena, b *BodyPhysics) {
	arena.Space.Remove(b.Object)
}

// Center returns the planar center of the body.
func (b *BodyPhysics) Center() (x, y float64) {
	size := netconfig.Body.Size
	return b.Object.X + size/2, b.Object.Y + size/2
}

// Wake makes a sleeping body simulate again.
func (b *BodyPhysics) Wake() {
	b.Sleeping = false
}

// Beacon is a scripted entity that circles a point, exercising every field
// of the entity schema.
type Beacon struct {
	CX, CY float64
	Radius float64
	Rate   float64 // rad/s
	Period float64 // seconds per active/inactive phase
}
