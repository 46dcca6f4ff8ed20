package network

import (
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"

	"github.com/apistol78/replica/shared/ghost"
	"github.com/apistol78/replica/shared/replica"
)

// Ghost is the client-side view of one replicated entity. It predicts the
// entity between updates and, when a new update corrects the prediction,
// blends from what was on screen to the corrected prediction instead of
// snapping.
type Ghost struct {
	NetworkID uint
	SchemaID  uint8

	decoder   *ghost.Decoder
	smoothing float32

	displayed *replica.State
	from      *replica.State
	tween     *gween.Tween
}

// NewGhost returns a ghost decoding with schema. A non-positive smoothing
// duration disables blending.
func NewGhost(networkID uint, schemaID uint8, schema *replica.StateTemplate, smoothing float32) *Ghost {
	return &Ghost{
		NetworkID: networkID,
		SchemaID:  schemaID,
		decoder:   ghost.NewDecoder(schema),
		smoothing: smoothing,
	}
}

// Receive decodes an update sampled at server time t.
func (g *Ghost) Receive(u ghost.Update, t float64) (*replica.State, error) {
	s, err := g.decoder.Decode(u, t)
	if err != nil {
		return nil, err
	}
	if g.displayed != nil && g.smoothing > 0 {
		g.from = g.displayed
		g.tween = gween.New(0, 1, g.smoothing, ease.OutQuad)
	}
	return s, nil
}

// Advance moves the ghost to server time t, dt seconds after the previous
// call, and returns the state to display.
func (g *Ghost) Advance(t float64, dt float32) (*replica.State, error) {
	predicted, err := g.decoder.Predict(t)
	if err != nil {
		return nil, err
	}
	out := predicted
	if g.tween != nil {
		k, done := g.tween.Update(dt)
		if done {
			g.tween, g.from = nil, nil
		} else if out, err = g.decoder.Schema().Blend(g.from, predicted, k); err != nil {
			return nil, err
		}
	}
	g.displayed = out
	return out, nil
}

// Displayed returns the state last returned by Advance, or nil.
func (g *Ghost) Displayed() *replica.State {
	return g.displayed
}

// Latest returns the newest decoded state and its server time.
func (g *Ghost) Latest() (ghost.Sample, bool) {
	return g.decoder.Latest()
}

func (g *Ghost) Smoothing() bool {
	return g.tween != nil
}
