// Package leveldata provides TMX arena parsing for the replication server.
// It has no dependencies on donburi or resolv, pure data only.
package leveldata

import (
	"errors"
	"fmt"
)

// ErrArenaTooLarge reports an arena whose coordinates do not fit the
// replicated position range.
var ErrArenaTooLarge = errors.New("leveldata: arena exceeds position range")

// ArenaData holds everything the server needs from an arena file.
type ArenaData struct {
	Walls  []WallRect
	Spawns []BodySpawn
	Width  int
	Height int
}

// WallRect is one solid wall tile.
type WallRect struct {
	X, Y, W, H float64
}

// BodySpawn places a replicated entity at load time.
type BodySpawn struct {
	X, Y float64
	Kind string  // "body" or "beacon"
	Spin float64 // initial spin, degrees per second
}

// DefaultArena is a walled rectangle of w by h tiles with a few bodies, used
// when no arena file is given.
func DefaultArena(w, h, tile int) *ArenaData {
	data := &ArenaData{Width: w * tile, Height: h * tile}
	ts := float64(tile)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if x != 0 && y != 0 && x != w-1 && y != h-1 {
				continue
			}
			data.Walls = append(data.Walls, WallRect{X: float64(x) * ts, Y: float64(y) * ts, W: ts, H: ts})
		}
	}
	cx, cy := float64(data.Width)/2, float64(data.Height)/2
	data.Spawns = []BodySpawn{
		{X: cx - 4*ts, Y: cy, Kind: "body", Spin: 90},
		{X: cx + 4*ts, Y: cy, Kind: "body", Spin: -45},
		{X: cx, Y: cy - 3*ts, Kind: "body"},
		{X: cx, Y: cy, Kind: "beacon"},
	}
	return data
}

// CheckExtent reports ErrArenaTooLarge when any point of the arena lies
// outside [-extent, extent] on either axis. Positions beyond it would be
// clamped on the wire.
func (a *ArenaData) CheckExtent(extent float64) error {
	if float64(a.Width) > extent || float64(a.Height) > extent {
		return fmt.Errorf("%w: %dx%d, limit %g", ErrArenaTooLarge, a.Width, a.Height, extent)
	}
	for _, sp := range a.Spawns {
		if sp.X < -extent || sp.X > extent || sp.Y < -extent || sp.Y > extent {
			return fmt.Errorf("%w: spawn at (%g, %g), limit %g", ErrArenaTooLarge, sp.X, sp.Y, extent)
		}
	}
	return nil
}
