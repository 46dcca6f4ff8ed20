package messages

// SpawnEvent announces a replicated entity and the schema its updates use.
type SpawnEvent struct {
	NetworkID uint
	SchemaID  uint8
	Kind      string // "body", "entity"
}

// DespawnEvent is broadcast when an entity is removed.
type DespawnEvent struct {
	NetworkID uint
}

// ImpulseCommand is sent by a client to push a body.
type ImpulseCommand struct {
	Sequence  uint32
	NetworkID uint
	X, Y, Z   float32
	Spin      float32 // rad/s about the vertical axis
}
