package main

import (
	"flag"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/apistol78/replica/network"
	"github.com/apistol78/replica/shared/messages"
	"github.com/apistol78/replica/shared/netcomponents"
	"github.com/apistol78/replica/shared/protocol"
)

// Headless replication client: joins a server, predicts every ghost at
// display rate and periodically logs what it sees.
func main() {
	addr := flag.String("addr", "localhost:7373", "Server address")
	name := flag.String("name", "probe", "Client name")
	version := flag.String("version", "", "Client version sent on join")
	schemaFile := flag.String("schemas", "", "Optional YAML file of extra schemas")
	fps := flag.Int("fps", 60, "Prediction rate (frames per second)")
	push := flag.Duration("push", 0, "Push a random body this often (0 = never)")
	flag.Parse()

	if err := protocol.RegisterSchemas(); err != nil {
		log.Fatalf("Failed to register schemas: %v", err)
	}
	if *schemaFile != "" {
		if err := protocol.LoadSchemaFile(*schemaFile); err != nil {
			log.Fatalf("Failed to load schemas: %v", err)
		}
	}

	client := network.NewClient()
	client.Connect(*addr, *version, *name)
	defer client.Disconnect()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	frame := time.NewTicker(time.Second / time.Duration(*fps))
	defer frame.Stop()
	report := time.NewTicker(2 * time.Second)
	defer report.Stop()

	var pushC <-chan time.Time
	if *push > 0 {
		pushTicker := time.NewTicker(*push)
		defer pushTicker.Stop()
		pushC = pushTicker.C
	}

	var (
		states   = map[uint]*netcomponents.NetBodyData{}
		lastTime = time.Now()
		seq      uint32
	)
	for {
		select {
		case <-sigChan:
			log.Println("[client] shutting down")
			return

		case now := <-frame.C:
			dt := float32(now.Sub(lastTime).Seconds())
			lastTime = now
			if client.State() != network.StateJoined {
				if err := client.LastError(); err != nil {
					log.Fatalf("[client] %v", err)
				}
				continue
			}
			for id, s := range client.Advance(client.ServerTime(), dt) {
				g, ok := client.Ghost(id)
				if !ok || g.SchemaID != protocol.SchemaIDBody {
					continue
				}
				d := states[id]
				if d == nil {
					d = &netcomponents.NetBodyData{}
					states[id] = d
				}
				if err := netcomponents.ApplyBody(s, d); err != nil {
					log.Printf("[client] body %d: %v", id, err)
				}
			}

		case <-report.C:
			st := client.Stats()
			log.Printf("[client] %d ghosts, %d updates (%d full, %d dropped), %d bytes",
				len(states), st.Updates, st.FullUpdates, st.Dropped, st.Bytes)
			for id, d := range states {
				p := d.Body.Transform.Position
				log.Printf("[client]   body %d at (%.1f, %.1f, %.1f) sleeping=%v", id, p.X(), p.Y(), p.Z(), d.Sleeping)
			}

		case <-pushC:
			if len(states) == 0 {
				continue
			}
			ids := make([]uint, 0, len(states))
			for id := range states {
				ids = append(ids, id)
			}
			seq++
			cmd := messages.ImpulseCommand{
				Sequence:  seq,
				NetworkID: ids[rand.Intn(len(ids))],
				X:         rand.Float32()*60 - 30,
				Y:         rand.Float32()*60 - 30,
				Z:         rand.Float32() * 30,
				Spin:      rand.Float32()*6 - 3,
			}
			if err := client.SendMessage(cmd); err != nil {
				log.Printf("[client] push: %v", err)
			}
		}
	}
}
