package main

import (
	"bytes"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/apistol78/replica/shared/ghost"
	"github.com/apistol78/replica/shared/messages"
	"github.com/apistol78/replica/shared/netcomponents"
	"github.com/apistol78/replica/shared/protocol"
	"github.com/apistol78/replica/shared/recording"
	"github.com/apistol78/replica/shared/replica"
)

func TestReplay_MeasuresPrediction(t *testing.T) {
	protocol.ResetSchemas()
	defer protocol.ResetSchemas()
	if err := protocol.RegisterSchemas(); err != nil {
		t.Fatalf("RegisterSchemas: %v", err)
	}
	schema, _ := protocol.Schema(protocol.SchemaIDBody)

	var buf bytes.Buffer
	rec, err := recording.NewRecorder(&buf)
	if err != nil {
		t.Fatalf("NewRecorder: %v", err)
	}
	rec.Write(recording.Entry{Spawn: &messages.SpawnEvent{NetworkID: 1, SchemaID: protocol.SchemaIDBody, Kind: "body"}})

	// A body glides at 2 units/s, bounces at t = 0.5 and glides back. The
	// glide is carried by the replicated velocity, so only the bounce costs
	// updates, and each of those is a correction of the receiver's guess.
	enc := ghost.NewEncoder(schema, 0)
	for i := 0; i < 20; i++ {
		now := float64(i) * 0.05
		x, vx := 2*now, float32(2)
		if now > 0.5 {
			x, vx = 2-2*now, -2
		}
		d := netcomponents.NetBodyData{Body: replica.BodyState{
			Transform: replica.Transform{
				Position: mgl32.Vec4{float32(x), 0, 0, 1},
				Rotation: mgl32.QuatIdent(),
			},
			LinearVelocity: mgl32.Vec4{vx, 0, 0, 0},
		}}
		var s replica.State
		netcomponents.SampleBody(&d, &s)
		u, ok, err := enc.Encode(&s, now)
		if err != nil {
			t.Fatalf("Encode: %v", err)
		}
		if !ok {
			continue
		}
		enc.Ack(u.Sequence)
		rec.Write(recording.Entry{Tick: uint64(i), Update: &messages.StateUpdate{
			NetworkID: 1, SchemaID: protocol.SchemaIDBody, Sequence: u.Sequence, Baseline: u.Baseline, Time: now, Payload: u.Payload,
		}})
	}
	if err := rec.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	stats, _, err := replay(&buf)
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	st := stats[1]
	if st == nil || st.updates < 2 || st.updates > 8 || st.full != 1 || st.dropped != 0 {
		t.Fatalf("stats = %+v", st)
	}
	if st.predicted == 0 || st.errMax < 0.05 || st.errMax > 0.3 {
		t.Fatalf("prediction error max %f over %d samples", st.errMax, st.predicted)
	}
}
