package ghost

import (
	"fmt"

	"github.com/apistol78/replica/shared/bitstream"
	"github.com/apistol78/replica/shared/replica"
)

// keepDecoded bounds the decoded states kept as possible delta baselines.
const keepDecoded = 64

// Decoder is the receiver half. It is not safe for concurrent use.
type Decoder struct {
	schema  *replica.StateTemplate
	decoded map[uint32]*replica.State
	latest  uint32
	history History
}

func NewDecoder(schema *replica.StateTemplate) *Decoder {
	return &Decoder{
		schema:  schema,
		decoded: make(map[uint32]*replica.State),
	}
}

func (d *Decoder) Schema() *replica.StateTemplate {
	return d.schema
}

// Decode reconstructs the full state carried by u, sampled at time t, and
// records it for prediction. A corrupt payload is reported wrapping
// replica.ErrCorruptStream and leaves the decoder unchanged.
func (d *Decoder) Decode(u Update, t float64) (*replica.State, error) {
	if u.Sequence == NoBaseline {
		return nil, fmt.Errorf("%w: zero sequence", ErrStaleUpdate)
	}
	if d.latest != NoBaseline && u.Sequence <= d.latest {
		return nil, fmt.Errorf("%w: %d <= %d", ErrStaleUpdate, u.Sequence, d.latest)
	}
	var base *replica.State
	if !u.Full() {
		var ok bool
		if base, ok = d.decoded[u.Baseline]; !ok {
			return nil, fmt.Errorf("%w: %d", ErrUnknownBaseline, u.Baseline)
		}
	}

	s, _, err := d.schema.UnpackDelta(bitstream.NewReader(u.Payload), base)
	if err != nil {
		return nil, err
	}
	if !d.history.Push(Sample{State: s, Time: t, Sequence: u.Sequence}) {
		return nil, fmt.Errorf("%w: sample time %f", ErrStaleUpdate, t)
	}

	d.decoded[u.Sequence] = s
	d.latest = u.Sequence
	for seq := range d.decoded {
		if u.Sequence-seq >= keepDecoded {
			delete(d.decoded, seq)
		}
	}
	return s, nil
}

// Latest returns the newest decoded state.
func (d *Decoder) Latest() (Sample, bool) {
	return d.history.Newest()
}

// Predict extrapolates the entity to time t.
func (d *Decoder) Predict(t float64) (*replica.State, error) {
	return d.history.Predict(d.schema, t)
}

func (d *Decoder) History() *History {
	return &d.history
}
