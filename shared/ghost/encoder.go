// Package ghost runs the replication protocol for one entity between one
// sender and one receiver: delta updates against the last acknowledged state,
// debouncing, periodic full refreshes, and receiver-side prediction.
package ghost

import (
	"errors"
	"fmt"

	"github.com/apistol78/replica/shared/bitstream"
	"github.com/apistol78/replica/shared/netconfig"
	"github.com/apistol78/replica/shared/replica"
)

var (
	ErrNoSamples        = errors.New("ghost: no samples")
	ErrStaleUpdate      = errors.New("ghost: stale update")
	ErrUnknownBaseline  = errors.New("ghost: unknown baseline")
	ErrNonMonotonicTime = errors.New("ghost: time went backwards")
)

// NoBaseline marks a full update.
const NoBaseline uint32 = 0

// maxPending bounds the sent-but-unacknowledged states kept per entity.
const maxPending = 64

// Update is one encoded state update. Baseline names the sequence the delta
// was taken against, or NoBaseline for a full state.
type Update struct {
	Sequence uint32
	Baseline uint32
	Mask     replica.Mask
	Payload  []byte
	Bits     int
}

func (u Update) Full() bool {
	return u.Baseline == NoBaseline
}

// Encoder is the sender half. It is not safe for concurrent use.
type Encoder struct {
	schema      *replica.StateTemplate
	fullRefresh int

	seq         uint32
	baseline    *replica.State
	baselineSeq uint32
	pending     map[uint32]Sample

	// remote mirrors the samples the receiver is known to hold, so the
	// encoder can see the receiver's prediction.
	remote History

	held     []float64
	lastTime float64
	started  bool
	sinceAck int
}

// NewEncoder returns an encoder for schema. fullRefresh is the number of
// consecutive unacknowledged updates after which a full state is sent;
// non-positive selects netconfig.Replication.FullRefreshInterval.
func NewEncoder(schema *replica.StateTemplate, fullRefresh int) *Encoder {
	if fullRefresh <= 0 {
		fullRefresh = netconfig.Replication.FullRefreshInterval
	}
	return &Encoder{
		schema:      schema,
		fullRefresh: fullRefresh,
		pending:     make(map[uint32]Sample),
		held:        make([]float64, schema.Len()),
	}
}

func (e *Encoder) Schema() *replica.StateTemplate {
	return e.schema
}

// Baseline returns the last acknowledged state and its sequence.
func (e *Encoder) Baseline() (*replica.State, uint32) {
	return e.baseline, e.baselineSeq
}

// Encode packs cur, sampled at now, against the acknowledged baseline. Fields
// are tested against what the receiver predicts for now from the acknowledged
// samples, so a field that stops following its extrapolation is corrected
// even when it has not moved away from the baseline. ok is false when the
// prediction is still good and no update needs sending.
func (e *Encoder) Encode(cur *replica.State, now float64) (u Update, ok bool, err error) {
	if err := e.schema.Validate(cur); err != nil {
		return Update{}, false, err
	}
	if e.started && now < e.lastTime {
		return Update{}, false, fmt.Errorf("%w: %f < %f", ErrNonMonotonicTime, now, e.lastTime)
	}
	e.tickHeld(cur, now)

	full := e.baseline == nil || e.sinceAck >= e.fullRefresh
	var predicted *replica.State
	if !full {
		if predicted, err = e.remote.Predict(e.schema, now); err != nil {
			return Update{}, false, err
		}
	}
	m, err := e.schema.Mask(cur, predicted, e.held)
	if err != nil {
		return Update{}, false, err
	}
	if !full && m == 0 {
		return Update{}, false, nil
	}

	b := bitstream.NewBuffer()
	if err := e.schema.PackMask(b, cur, m); err != nil {
		return Update{}, false, err
	}
	payload, err := b.Bytes()
	if err != nil {
		return Update{}, false, err
	}

	e.seq++
	if e.seq == NoBaseline {
		e.seq++
	}
	u = Update{Sequence: e.seq, Mask: m, Payload: payload, Bits: b.Len()}
	if !full {
		u.Baseline = e.baselineSeq
	}

	// The receiver reconstructs every field, so remember what it will hold,
	// not just what was sent.
	sent := cur.Clone()
	if !full {
		sent = e.merge(cur, m)
	}
	e.pending[e.seq] = Sample{State: sent, Time: now, Sequence: e.seq}
	if len(e.pending) > maxPending {
		delete(e.pending, e.seq-maxPending)
	}
	e.sinceAck++
	return u, true, nil
}

// Ack records that the receiver decoded update seq. Acks for unknown or
// superseded sequences are ignored.
func (e *Encoder) Ack(seq uint32) bool {
	s, ok := e.pending[seq]
	if !ok {
		return false
	}
	e.baseline = s.State
	e.baselineSeq = seq
	e.remote.Push(s)
	e.sinceAck = 0
	for k := range e.pending {
		if k <= seq {
			delete(e.pending, k)
		}
	}
	return true
}

// Reset forgets the baseline so the next update is full.
func (e *Encoder) Reset() {
	e.baseline = nil
	e.baselineSeq = NoBaseline
	clear(e.pending)
	e.remote.Reset()
	for i := range e.held {
		e.held[i] = 0
	}
	e.sinceAck = 0
}

// tickHeld advances the per-field timers that measure how long cur has
// differed from the baseline.
func (e *Encoder) tickHeld(cur *replica.State, now float64) {
	dt := 0.0
	if e.started {
		dt = now - e.lastTime
	}
	e.lastTime = now
	e.started = true
	for i := range e.held {
		if e.baseline == nil || cur.At(i) == e.baseline.At(i) {
			e.held[i] = 0
			continue
		}
		e.held[i] += dt
	}
}

func (e *Encoder) merge(cur *replica.State, m replica.Mask) *replica.State {
	values := e.baseline.Values()
	for i := range values {
		if m.Has(i) {
			values[i] = cur.At(i)
		}
	}
	return replica.NewState(values...)
}
