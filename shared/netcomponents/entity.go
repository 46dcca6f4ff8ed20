package netcomponents

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/yohamta/donburi"

	"github.com/apistol78/replica/shared/netconfig"
	"github.com/apistol78/replica/shared/replica"
)

// NetEntityData is the replicated view of a generic game entity.
type NetEntityData struct {
	Active   bool
	Health   float32    // 0-100
	Position mgl32.Vec3 // world units
	Heading  mgl32.Vec3 // unit facing direction
}

var NetEntity = donburi.NewComponentType[NetEntityData]()

// Field order of the entity schema. Reordering is a wire break.
const (
	EntityFieldActive = iota
	EntityFieldHealth
	EntityFieldPosition
	EntityFieldHeading
	entityFieldCount
)

// EntitySchema returns the state template of the entity domain.
func EntitySchema() *replica.StateTemplate {
	return replica.MustStateTemplate(
		replica.NewBooleanTemplate(netconfig.Replication.Debounce),
		replica.NewFloatTemplate(0, 100, true),
		replica.NewVector4Template(false, replica.WithFixedW(1)),
		replica.NewDirectionTemplate(true, replica.WithFixedW(0)),
	)
}

// SampleEntity rebuilds s from the entity's current data.
func SampleEntity(d *NetEntityData, s *replica.State) {
	s.PackBegin()
	s.Pack(replica.Boolean(d.Active))
	s.Pack(replica.Float(d.Health))
	s.Pack(replica.Vector4(d.Position.Vec4(1)))
	s.Pack(replica.Vector4(d.Heading.Vec4(0)))
}

// ApplyEntity writes a decoded or predicted state back into d.
func ApplyEntity(s *replica.State, d *NetEntityData) error {
	if s.Len() != entityFieldCount {
		return fmt.Errorf("%w: entity state has %d values", replica.ErrSchemaMismatch, s.Len())
	}
	s.UnpackBegin()
	active, err := next[replica.Boolean](s)
	if err != nil {
		return err
	}
	health, err := next[replica.Float](s)
	if err != nil {
		return err
	}
	pos, err := next[replica.Vector4](s)
	if err != nil {
		return err
	}
	heading, err := next[replica.Vector4](s)
	if err != nil {
		return err
	}
	d.Active = bool(active)
	d.Health = float32(health)
	d.Position = pos.Vec4().Vec3()
	d.Heading = heading.Vec4().Vec3()
	return nil
}

func next[T replica.Value](s *replica.State) (T, error) {
	v, err := s.Unpack()
	if err != nil {
		var zero T
		return zero, err
	}
	return replica.As[T](v)
}
