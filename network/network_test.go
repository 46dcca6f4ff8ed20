package network

import (
	"errors"
	"testing"

	"github.com/apistol78/replica/shared/ghost"
	"github.com/apistol78/replica/shared/messages"
	"github.com/apistol78/replica/shared/protocol"
	"github.com/apistol78/replica/shared/replica"
)

const testSchemaID uint8 = 40

func testSchema() *replica.StateTemplate {
	return replica.MustStateTemplate(replica.NewFloatTemplate(0, 10, false))
}

func registerTestSchema(t *testing.T) *replica.StateTemplate {
	t.Helper()
	protocol.ResetSchemas()
	t.Cleanup(protocol.ResetSchemas)
	schema := testSchema()
	if err := protocol.Register(testSchemaID, "test", schema); err != nil {
		t.Fatalf("Register: %v", err)
	}
	return schema
}

func encodeFloat(t *testing.T, enc *ghost.Encoder, v float32, now float64) ghost.Update {
	t.Helper()
	u, ok, err := enc.Encode(replica.NewState(replica.Float(v)), now)
	if err != nil || !ok {
		t.Fatalf("Encode(%f): ok=%v err=%v", v, ok, err)
	}
	return u
}

func value(t *testing.T, s *replica.State) float32 {
	t.Helper()
	f, err := replica.As[replica.Float](s.At(0))
	if err != nil {
		t.Fatalf("As: %v", err)
	}
	return float32(f)
}

func TestGhost_SmoothsCorrections(t *testing.T) {
	schema := testSchema()
	enc := ghost.NewEncoder(schema, 0)
	g := NewGhost(1, testSchemaID, schema, 0.1)

	if _, err := g.Advance(0, 0); !errors.Is(err, ghost.ErrNoSamples) {
		t.Fatalf("expected ErrNoSamples before any update, got %v", err)
	}

	u := encodeFloat(t, enc, 1, 0)
	if _, err := g.Receive(u, 0); err != nil {
		t.Fatalf("Receive: %v", err)
	}
	enc.Ack(u.Sequence)
	if g.Smoothing() {
		t.Fatalf("first update should not blend")
	}
	s, err := g.Advance(0, 0)
	if err != nil {
		t.Fatalf("Advance: %v", err)
	}
	if v := value(t, s); v < 0.999 || v > 1.001 {
		t.Fatalf("displayed %f, want 1", v)
	}

	if _, err := g.Receive(encodeFloat(t, enc, 3, 1), 1); err != nil {
		t.Fatalf("Receive: %v", err)
	}
	if !g.Smoothing() {
		t.Fatalf("correction should start a blend")
	}
	s, _ = g.Advance(1, 0.05)
	if v := value(t, s); v <= 1.01 || v >= 2.99 {
		t.Fatalf("mid-blend value %f should lie between 1 and 3", v)
	}
	s, _ = g.Advance(1, 0.1)
	if v := value(t, s); v < 2.999 || v > 3.001 {
		t.Fatalf("settled value %f, want 3", v)
	}
	if g.Smoothing() || g.Displayed() != s {
		t.Fatalf("blend should have finished")
	}
}

func TestGhost_NoSmoothing(t *testing.T) {
	schema := testSchema()
	enc := ghost.NewEncoder(schema, 0)
	g := NewGhost(1, testSchemaID, schema, 0)

	u := encodeFloat(t, enc, 1, 0)
	g.Receive(u, 0)
	enc.Ack(u.Sequence)
	g.Advance(0, 0)
	g.Receive(encodeFloat(t, enc, 5, 1), 1)
	if g.Smoothing() {
		t.Fatalf("smoothing disabled but blend started")
	}
}

func TestClient_HandleUpdate(t *testing.T) {
	schema := registerTestSchema(t)
	enc := ghost.NewEncoder(schema, 0)
	c := NewClient()

	u := encodeFloat(t, enc, 2, 10)
	ack, err := c.HandleUpdate(messages.StateUpdate{
		NetworkID: 5, SchemaID: testSchemaID, Sequence: u.Sequence, Time: 10, Payload: u.Payload,
	})
	if err != nil {
		t.Fatalf("HandleUpdate: %v", err)
	}
	if ack.NetworkID != 5 || ack.Sequence != u.Sequence {
		t.Fatalf("ack = %+v", ack)
	}
	enc.Ack(ack.Sequence)

	d := encodeFloat(t, enc, 4, 11)
	if d.Full() {
		t.Fatalf("expected a delta update")
	}
	if _, err := c.HandleUpdate(messages.StateUpdate{
		NetworkID: 5, SchemaID: testSchemaID, Sequence: d.Sequence, Baseline: d.Baseline, Time: 11, Payload: d.Payload,
	}); err != nil {
		t.Fatalf("HandleUpdate(delta): %v", err)
	}

	states := c.Advance(11, 0)
	if v := value(t, states[5]); v < 3.999 || v > 4.001 {
		t.Fatalf("ghost 5 = %f, want 4", v)
	}
	if st := c.Stats(); st.Updates != 2 || st.FullUpdates != 1 || st.Dropped != 0 {
		t.Fatalf("stats = %+v", st)
	}
	if c.ServerTime() < 11 {
		t.Fatalf("server clock behind the newest update")
	}
}

func TestClient_DropsBadUpdates(t *testing.T) {
	schema := registerTestSchema(t)
	enc := ghost.NewEncoder(schema, 0)
	c := NewClient()
	u := encodeFloat(t, enc, 2, 0)

	if _, err := c.HandleUpdate(messages.StateUpdate{NetworkID: 1, SchemaID: testSchemaID, Sequence: 2, Baseline: 1, Payload: u.Payload}); err == nil {
		t.Fatalf("delta for unknown entity accepted")
	}
	if _, err := c.HandleUpdate(messages.StateUpdate{NetworkID: 1, SchemaID: 99, Sequence: 1, Payload: u.Payload}); !errors.Is(err, protocol.ErrUnknownSchema) {
		t.Fatalf("expected ErrUnknownSchema, got %v", err)
	}
	if _, err := c.HandleUpdate(messages.StateUpdate{NetworkID: 1, SchemaID: testSchemaID, Sequence: 1, Payload: nil}); !errors.Is(err, replica.ErrCorruptStream) {
		t.Fatalf("expected ErrCorruptStream, got %v", err)
	}
	if st := c.Stats(); st.Dropped != 3 || st.Updates != 0 {
		t.Fatalf("stats = %+v", st)
	}
}

func TestClient_SpawnDespawn(t *testing.T) {
	registerTestSchema(t)
	c := NewClient()
	if err := c.HandleSpawn(messages.SpawnEvent{NetworkID: 9, SchemaID: testSchemaID, Kind: "entity"}); err != nil {
		t.Fatalf("HandleSpawn: %v", err)
	}
	if _, ok := c.Ghost(9); !ok {
		t.Fatalf("ghost not created")
	}
	if len(c.Advance(0, 0)) != 0 {
		t.Fatalf("ghost without samples should not be displayed")
	}
	c.HandleDespawn(messages.DespawnEvent{NetworkID: 9})
	if _, ok := c.Ghost(9); ok {
		t.Fatalf("ghost not removed")
	}
	if err := c.HandleSpawn(messages.SpawnEvent{NetworkID: 10, SchemaID: 77}); err == nil {
		t.Fatalf("spawn with unknown schema accepted")
	}
}
