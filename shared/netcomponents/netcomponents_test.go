package netcomponents

import (
	"errors"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/yohamta/donburi"

	"github.com/apistol78/replica/shared/bitstream"
	"github.com/apistol78/replica/shared/replica"
)

func TestEntity_SampleApplyThroughWire(t *testing.T) {
	schema := EntitySchema()
	in := NetEntityData{
		Active:   true,
		Health:   75,
		Position: mgl32.Vec3{10, -20, 3.5},
		Heading:  mgl32.Vec3{0, 1, 0},
	}

	var s replica.State
	SampleEntity(&in, &s)
	if err := schema.Validate(&s); err != nil {
		t.Fatalf("sampled state does not match schema: %v", err)
	}

	b := bitstream.NewBuffer()
	if _, err := schema.PackFull(b, &s); err != nil {
		t.Fatalf("PackFull: %v", err)
	}
	payload, _ := b.Bytes()
	decoded, _, err := schema.UnpackDelta(bitstream.NewReader(payload), nil)
	if err != nil {
		t.Fatalf("UnpackDelta: %v", err)
	}

	var out NetEntityData
	if err := ApplyEntity(decoded, &out); err != nil {
		t.Fatalf("ApplyEntity: %v", err)
	}
	if !out.Active {
		t.Fatalf("Active lost")
	}
	if d := out.Health - 75; d > 0.5 || d < -0.5 {
		t.Fatalf("Health = %f, want ~75", out.Health)
	}
	if d := out.Position.Sub(in.Position).Len(); d > 0.06 {
		t.Fatalf("Position = %v, want ~%v", out.Position, in.Position)
	}
	if d := out.Heading.Sub(in.Heading).Len(); d > 0.02 {
		t.Fatalf("Heading = %v, want ~%v", out.Heading, in.Heading)
	}
}

func TestBody_SampleApply(t *testing.T) {
	in := NetBodyData{
		Body: replica.BodyState{
			Transform: replica.Transform{
				Position: mgl32.Vec4{1, 2, 3, 1},
				Rotation: mgl32.QuatRotate(0.5, mgl32.Vec3{0, 0, 1}),
			},
			LinearVelocity: mgl32.Vec4{4, 0, 0, 0},
		},
		Sleeping: true,
	}
	var s replica.State
	SampleBody(&in, &s)
	if err := BodySchema().Validate(&s); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	var out NetBodyData
	if err := ApplyBody(&s, &out); err != nil {
		t.Fatalf("ApplyBody: %v", err)
	}
	if out != in {
		t.Fatalf("ApplyBody = %+v, want %+v", out, in)
	}
}

func TestApply_RejectsForeignState(t *testing.T) {
	var out NetBodyData
	err := ApplyBody(replica.NewState(replica.Float(1), replica.Boolean(true)), &out)
	if !errors.Is(err, replica.ErrTypeMismatch) {
		t.Fatalf("expected ErrTypeMismatch, got %v", err)
	}
	var e NetEntityData
	if err := ApplyEntity(replica.NewState(replica.Boolean(true)), &e); !errors.Is(err, replica.ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}
}

func TestComponents_InWorld(t *testing.T) {
	world := donburi.NewWorld()
	entity := world.Create(NetBody, NetReplica)
	entry := world.Entry(entity)

	NetReplica.SetValue(entry, NetReplicaData{NetworkID: 7, SchemaID: 2})
	body := NetBody.Get(entry)
	body.Sleeping = true

	if got := NetReplica.Get(world.Entry(entity)); got.NetworkID != 7 || got.SchemaID != 2 {
		t.Fatalf("NetReplica = %+v", got)
	}
	if !NetBody.Get(world.Entry(entity)).Sleeping {
		t.Fatalf("NetBody not updated in place")
	}
}
