package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/apistol78/replica/shared/ghost"
	"github.com/apistol78/replica/shared/netcomponents"
	"github.com/apistol78/replica/shared/protocol"
	"github.com/apistol78/replica/shared/recording"
	"github.com/apistol78/replica/shared/replica"
)

// entityStats accumulates what one entity cost on the wire and how well it
// was predicted.
type entityStats struct {
	kind      string
	updates   int
	full      int
	bytes     int
	dropped   int
	predicted int
	errSum    float64
	errMax    float64
}

func main() {
	var (
		inPath     = flag.String("in", "", "recording to replay (.jsonl.zst)")
		schemaFile = flag.String("schemas", "", "YAML file of extra schemas used by the recording (optional)")
	)
	flag.Parse()

	if *inPath == "" {
		fmt.Fprintln(os.Stderr, "missing -in")
		os.Exit(2)
	}
	if err := protocol.RegisterSchemas(); err != nil {
		fmt.Fprintln(os.Stderr, "register schemas:", err)
		os.Exit(1)
	}
	if *schemaFile != "" {
		if err := protocol.LoadSchemaFile(*schemaFile); err != nil {
			fmt.Fprintln(os.Stderr, "load schemas:", err)
			os.Exit(1)
		}
	}

	f, err := os.Open(*inPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "open:", err)
		os.Exit(1)
	}
	defer f.Close()

	stats, ticks, err := replay(f)
	if err != nil {
		fmt.Fprintln(os.Stderr, "replay:", err)
		os.Exit(1)
	}

	ids := make([]uint, 0, len(stats))
	for id := range stats {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	fmt.Printf("replayed %d ticks, %d entities\n", ticks, len(ids))
	for _, id := range ids {
		st := stats[id]
		mean := 0.0
		if st.predicted > 0 {
			mean = st.errSum / float64(st.predicted)
		}
		fmt.Printf("entity %d (%s): updates=%d full=%d bytes=%d dropped=%d prediction error mean=%.4f max=%.4f\n",
			id, st.kind, st.updates, st.full, st.bytes, st.dropped, mean, st.errMax)
	}
}

func replay(r io.Reader) (map[uint]*entityStats, uint64, error) {
	p, err := recording.NewPlayer(r)
	if err != nil {
		return nil, 0, err
	}
	defer p.Close()

	decoders := make(map[uint]*ghost.Decoder)
	stats := make(map[uint]*entityStats)
	var lastTick uint64

	for {
		e, err := p.Next()
		if errors.Is(err, io.EOF) {
			return stats, lastTick, nil
		}
		if err != nil {
			return nil, 0, err
		}
		lastTick = e.Tick

		switch {
		case e.Spawn != nil:
			schema, err := protocol.Schema(e.Spawn.SchemaID)
			if err != nil {
				return nil, 0, fmt.Errorf("entity %d: %w", e.Spawn.NetworkID, err)
			}
			decoders[e.Spawn.NetworkID] = ghost.NewDecoder(schema)
			stats[e.Spawn.NetworkID] = &entityStats{kind: e.Spawn.Kind}

		case e.Despawn != nil:
			delete(decoders, e.Despawn.NetworkID)

		case e.Update != nil:
			u := e.Update
			dec, ok := decoders[u.NetworkID]
			if !ok {
				continue
			}
			st := stats[u.NetworkID]
			predicted, predErr := dec.Predict(u.Time)
			decoded, err := dec.Decode(ghost.Update{Sequence: u.Sequence, Baseline: u.Baseline, Payload: u.Payload}, u.Time)
			if err != nil {
				st.dropped++
				continue
			}
			st.updates++
			st.bytes += len(u.Payload)
			if u.Baseline == ghost.NoBaseline {
				st.full++
			}
			if predErr == nil {
				if d, ok := positionError(predicted, decoded); ok {
					st.predicted++
					st.errSum += d
					st.errMax = max(st.errMax, d)
				}
			}
		}
	}
}

// positionError measures how far a prediction was from the state that
// arrived, for schemas whose first field carries a position.
func positionError(predicted, actual *replica.State) (float64, bool) {
	if predicted.Len() == 0 || actual.Len() == 0 {
		return 0, false
	}
	switch want := actual.At(0).(type) {
	case replica.BodyState:
		got, err := replica.As[replica.BodyState](predicted.At(0))
		if err != nil {
			return 0, false
		}
		return float64(got.Transform.Position.Sub(want.Transform.Position).Vec3().Len()), true
	case replica.Transform:
		got, err := replica.As[replica.Transform](predicted.At(0))
		if err != nil {
			return 0, false
		}
		return float64(got.Position.Sub(want.Position).Vec3().Len()), true
	}
	if actual.Len() > netcomponents.EntityFieldPosition {
		want, err1 := replica.As[replica.Vector4](actual.At(netcomponents.EntityFieldPosition))
		got, err2 := replica.As[replica.Vector4](predicted.At(netcomponents.EntityFieldPosition))
		if err1 == nil && err2 == nil {
			return float64(got.Vec4().Sub(want.Vec4()).Vec3().Len()), true
		}
	}
	return 0, false
}
