package core

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/apistol78/replica/shared/gamemath"
	"github.com/apistol78/replica/shared/netcomponents"
	"github.com/apistol78/replica/shared/netconfig"
	"github.com/apistol78/replica/shared/replica"
)

// physicsRate is the rate the body constants are tuned for.
const physicsRate = 60

// updatePhysics runs sub-stepped physics for all bodies. Called once per
// server tick. Sub-stepping keeps the per-step constants valid at any tick
// rate.
func (s *Server) updatePhysics() {
	stepsPerTick := physicsRate / s.tickRate // 3 at 20 Hz
	if stepsPerTick < 1 {
		stepsPerTick = 1
	}

	for step := 0; step < stepsPerTick; step++ {
		for entity, b := range s.bodies {
			if !s.world.Valid(entity) {
				continue
			}
			stepBody(b)
		}
	}

	// After all sub-steps, write the replicated view.
	for entity, b := range s.bodies {
		if !s.world.Valid(entity) {
			continue
		}
		writeBody(b, netcomponents.NetBody.Get(s.world.Entry(entity)))
	}
}

// stepBody performs a single physics step for one body.
func stepBody(b *BodyPhysics) {
	if b.Sleeping {
		return
	}
	cfg := netconfig.Body

	// --- Vertical: gravity and floor bounce ---
	b.VelZ = gamemath.ClampSpeed(b.VelZ-cfg.Gravity, cfg.MaxSpeed)
	b.Z += b.VelZ
	if b.Z <= 0 {
		b.Z = 0
		b.VelZ = -b.VelZ * cfg.Restitution
		if b.VelZ < cfg.Gravity {
			b.VelZ = 0
		}
	}
	grounded := b.Z == 0 && b.VelZ == 0

	// --- Friction (grounded only) ---
	if grounded {
		b.VelX = gamemath.ApplyFriction(b.VelX, cfg.Friction)
		b.VelY = gamemath.ApplyFriction(b.VelY, cfg.Friction)
	}
	b.VelX = gamemath.ClampSpeed(b.VelX, cfg.MaxSpeed)
	b.VelY = gamemath.ClampSpeed(b.VelY, cfg.MaxSpeed)

	// --- Resolve horizontal collision ---
	if dx := b.VelX; dx != 0 {
		if check := b.Object.Check(dx, 0, tagWall, tagBody); check != nil {
			if solids := check.ObjectsByTags(tagWall, tagBody); len(solids) > 0 {
				dx = check.ContactWithObject(solids[0]).X()
				b.VelX = -b.VelX * cfg.Restitution
			}
		}
		b.Object.X += dx
	}

	// --- Resolve vertical (planar y) collision ---
	if dy := b.VelY; dy != 0 {
		if check := b.Object.Check(0, dy, tagWall, tagBody); check != nil {
			if solids := check.ObjectsByTags(tagWall, tagBody); len(solids) > 0 {
				dy = check.ContactWithObject(solids[0]).Y()
				b.VelY = -b.VelY * cfg.Restitution
			}
		}
		b.Object.Y += dy
	}
	b.Object.Update()

	// --- Spin ---
	b.Spin *= cfg.SpinDamping
	b.Angle = math.Mod(b.Angle+b.Spin, 2*math.Pi)

	if grounded && math.Abs(b.VelX) < cfg.SleepSpeed && math.Abs(b.VelY) < cfg.SleepSpeed && math.Abs(b.Spin) < cfg.SleepSpeed {
		b.VelX, b.VelY, b.Spin = 0, 0, 0
		b.Sleeping = true
	}
}

// writeBody converts simulation units to the replicated body state. Velocities
// go out per second.
func writeBody(b *BodyPhysics, d *netcomponents.NetBodyData) {
	x, y := b.Center()
	d.Body = replica.BodyState{
		Transform: replica.Transform{
			Position: mgl32.Vec4{float32(x), float32(y), float32(b.Z), 1},
			Rotation: mgl32.QuatRotate(float32(b.Angle), mgl32.Vec3{0, 0, 1}),
		},
		LinearVelocity:  mgl32.Vec4{float32(b.VelX * physicsRate), float32(b.VelY * physicsRate), float32(b.VelZ * physicsRate), 0},
		AngularVelocity: mgl32.Vec4{0, 0, float32(b.Spin * physicsRate), 0},
	}
	d.Sleeping = b.Sleeping
}

// updateBeacons moves every beacon to its scripted pose at time now.
func (s *Server) updateBeacons(now float64) {
	for entity, bc := range s.beacons {
		if !s.world.Valid(entity) {
			continue
		}
		writeBeacon(bc, now, netcomponents.NetEntity.Get(s.world.Entry(entity)))
	}
}

func writeBeacon(bc *Beacon, now float64, d *netcomponents.NetEntityData) {
	angle := bc.Rate * now
	sin, cos := math.Sincos(angle)
	d.Position = mgl32.Vec3{float32(bc.CX + bc.Radius*cos), float32(bc.CY + bc.Radius*sin), 0}
	d.Heading = mgl32.Vec3{float32(-sin), float32(cos), 0}
	d.Active = int(now/bc.Period)%2 == 0
	d.Health = float32(100 - math.Mod(now*10, 100))
}
