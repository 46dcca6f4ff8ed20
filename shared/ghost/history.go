package ghost

import (
	"github.com/apistol78/replica/shared/netconfig"
	"github.com/apistol78/replica/shared/replica"
)

// Sample is a decoded state stamped with the time it was sampled on the
// sender's clock.
type Sample struct {
	State    *replica.State
	Time     float64
	Sequence uint32
}

// History is a ring buffer of the most recent samples of one entity, oldest
// first, used as the extrapolation basis.
type History struct {
	samples [netconfig.HistoryDepth]Sample
	count   int
	next    int
}

// Push appends s. Samples not newer than the latest one are discarded and
// Push returns false.
func (h *History) Push(s Sample) bool {
	if newest, ok := h.Newest(); ok && s.Time <= newest.Time {
		return false
	}
	h.samples[h.next] = s
	h.next = (h.next + 1) % len(h.samples)
	if h.count < len(h.samples) {
		h.count++
	}
	return true
}

func (h *History) Len() int {
	return h.count
}

// At returns the i-th sample counting back from the newest (0 is newest).
func (h *History) At(i int) (Sample, bool) {
	if i < 0 || i >= h.count {
		return Sample{}, false
	}
	idx := (h.next - 1 - i + 2*len(h.samples)) % len(h.samples)
	return h.samples[idx], true
}

func (h *History) Newest() (Sample, bool) {
	return h.At(0)
}

func (h *History) Reset() {
	*h = History{}
}

// Predict extrapolates the sampled states to time t using as many samples as
// are available. The horizon is capped at
// netconfig.Replication.MaxExtrapolation past the newest sample; beyond it the
// prediction stays where the cap left it.
func (h *History) Predict(schema *replica.StateTemplate, t float64) (*replica.State, error) {
	s0, ok := h.At(0)
	if !ok {
		return nil, ErrNoSamples
	}
	if limit := netconfig.Replication.MaxExtrapolation; limit > 0 && t > s0.Time+limit {
		t = s0.Time + limit
	}
	var (
		sn1, sn2 *replica.State
		tn1, tn2 float64
	)
	if s, ok := h.At(1); ok {
		sn1, tn1 = s.State, s.Time
	}
	if s, ok := h.At(2); ok {
		sn2, tn2 = s.State, s.Time
	}
	return schema.Extrapolate(sn2, tn2, sn1, tn1, s0.State, s0.Time, t)
}
