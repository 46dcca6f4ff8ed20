package core

import (
	"fmt"
	"log"
	"os"

	"github.com/solarlune/resolv"

	"github.com/apistol78/replica/shared/leveldata"
	"github.com/apistol78/replica/shared/netconfig"
)

const (
	tagWall = "wall"
	tagBody = "body"
)

// Arena holds the server's collision space and spawn data.
type Arena struct {
	Space  *resolv.Space
	Spawns []leveldata.BodySpawn
	Width  int
	Height int
}

// NewArena builds a resolv.Space from parsed arena data.
func NewArena(data *leveldata.ArenaData) *Arena {
	space := resolv.NewSpace(data.Width, data.Height, 16, 16)

	for _, r := range data.Walls {
		obj := resolv.NewObject(r.X, r.Y, r.W, r.H, tagWall)
		obj.SetShape(resolv.NewRectangle(0, 0, r.W, r.H))
		space.Add(obj)
	}

	log.Printf("[server] loaded arena: %d walls, %d spawns, %dx%d",
		len(data.Walls), len(data.Spawns), data.Width, data.Height)

	return &Arena{
		Space:  space,
		Spawns: data.Spawns,
		Width:  data.Width,
		Height: data.Height,
	}
}

// LoadArenaData loads one named .tmx arena from dir.
func LoadArenaData(dir, name string) (*leveldata.ArenaData, error) {
	arenas, names, err := leveldata.LoadAllArenas(os.DirFS(dir), ".")
	if err != nil {
		return nil, fmt.Errorf("load arenas: %w", err)
	}
	data, ok := arenas[name]
	if !ok {
		return nil, fmt.Errorf("arena %q not found (have %v)", name, names)
	}
	if err := data.CheckExtent(float64(netconfig.PositionExtent)); err != nil {
		return nil, fmt.Errorf("arena %q: %w", name, err)
	}
	return data, nil
}
