package messages

// StateUpdate carries one encoded state update for one entity. Baseline is 0
// for a full state, otherwise the sequence the delta was taken against.
type StateUpdate struct {
	NetworkID uint
	SchemaID  uint8
	Sequence  uint32
	Baseline  uint32
	Time      float64 // server clock, seconds
	Payload   []byte
}

// StateAck acknowledges that a client decoded an update, making it eligible
// as the baseline for later deltas.
type StateAck struct {
	NetworkID uint
	Sequence  uint32
}
