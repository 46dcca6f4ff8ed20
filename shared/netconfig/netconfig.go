// Package netconfig defines lightweight constants and tunables shared between
// client and server for state replication. It must have zero dependencies on
// the simulation or transport so both sides agree on the wire contract.
package netconfig

// ReplicationConfig holds the tunables a server or client may override at
// startup. Wire widths are deliberately not part of it.
type ReplicationConfig struct {
	TickRate            int     // simulation and snapshot ticks per second
	FullRefreshInterval int     // unacked updates before a full state is forced
	SmoothingDuration   float32 // seconds to blend a prediction correction
	LinearError         float32 // body position tolerance
	AngularError        float32 // body orientation tolerance
	Debounce            float32 // boolean hold time
	MaxExtrapolation    float64 // seconds a prediction may run past the newest sample
}

// BodyConfig tunes the server-side body simulation. Rates are per 60 Hz
// physics step.
type BodyConfig struct {
	Gravity     float64 // pull towards z = 0
	Friction    float64 // planar speed lost per step while grounded
	MaxSpeed    float64 // per axis
	Restitution float64 // fraction of speed kept on a bounce
	Size        float64 // collision box edge
	SpinDamping float64 // spin kept per step
	SleepSpeed  float64 // below this a grounded body sleeps
}

var Replication ReplicationConfig
var Body BodyConfig

func init() {
	Replication = ReplicationConfig{
		TickRate:            DefaultTickRate,
		FullRefreshInterval: FullRefreshInterval,
		SmoothingDuration:   SmoothingDuration,
		LinearError:         DefaultLinearError,
		AngularError:        DefaultAngularError,
		Debounce:            DefaultDebounce,
		MaxExtrapolation:    MaxExtrapolation,
	}

	Body = BodyConfig{
		Gravity:     0.15,
		Friction:    0.01,
		MaxSpeed:    1.0,
		Restitution: 0.6,
		Size:        16,
		SpinDamping: 0.995,
		SleepSpeed:  0.005,
	}
}
