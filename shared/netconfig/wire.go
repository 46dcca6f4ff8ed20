package netconfig

// Wire widths. These are the bit-exact contract between sender and receiver
// builds; changing any of them is a protocol break and needs a ProtocolVersion
// bump.
const (
	LowPrecisionBits  uint8 = 8
	HighPrecisionBits uint8 = 16
	BooleanBits       uint8 = 1

	PositionBits      uint8 = 24
	RotationIndexBits uint8 = 2
	RotationBits      uint8 = 15
	VelocityBits      uint8 = 16
)

// Default quantization ranges.
const (
	PositionExtent       float32 = 1024 // world units, symmetric around the origin
	DirectionExtent      float32 = 1
	LinearVelocityLimit  float32 = 64 // units/s
	AngularVelocityLimit float32 = 32 // rad/s
)

// Default significance tolerances.
const (
	DefaultDebounce     float32 = 0.1  // seconds a boolean must hold before it is sent
	DefaultLinearError  float32 = 0.05 // world units
	DefaultAngularError float32 = 0.01 // radians
)

// Replication cadence.
const (
	ProtocolVersion     = 1
	MaxFields           = 64 // presence mask is one uint64
	HistoryDepth        = 3  // samples kept per entity for extrapolation
	FullRefreshInterval = 30 // unacked updates before the sender falls back to a full state
	DefaultTickRate     = 20
	SmoothingDuration   = 0.1 // seconds to blend a prediction correction
	MaxExtrapolation    = 0.5 // seconds past the newest sample a prediction may reach
)
