package main

import (
	"errors"
	"flag"
	"io/fs"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/apistol78/replica/server/core"
	"github.com/apistol78/replica/shared/leveldata"
	"github.com/apistol78/replica/shared/netconfig"
	"github.com/apistol78/replica/shared/protocol"
	"github.com/apistol78/replica/shared/recording"
)

// envOr returns the environment variable key, or def when it is unset.
func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	v, err := strconv.Atoi(envOr(key, strconv.Itoa(def)))
	if err != nil {
		log.Fatalf("Invalid %s: %v", key, err)
	}
	return v
}

func main() {
	// A .env file is optional; flags still override it.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Fatalf("Error loading .env: %v", err)
	}

	port := flag.Uint("port", uint(envInt("REPLICA_PORT", 7373)), "Server port")
	tickRate := flag.Int("tickrate", envInt("REPLICA_TICKRATE", netconfig.DefaultTickRate), "Snapshot rate (updates per second)")
	name := flag.String("name", envOr("REPLICA_NAME", "Replica Server"), "Server display name")
	version := flag.String("version", envOr("REPLICA_VERSION", ""), "Required client version (empty = accept any)")
	arenaDir := flag.String("arenas", envOr("REPLICA_ARENAS", ""), "Directory of .tmx arenas (empty = built-in arena)")
	arenaName := flag.String("arena", envOr("REPLICA_ARENA", "default"), "Arena to load")
	schemaFile := flag.String("schemas", "", "Optional YAML file of extra schemas")
	recordPath := flag.String("record", "", "Write the replication stream to this .jsonl.zst file")
	linearError := flag.Float64("linear-error", float64(netconfig.DefaultLinearError), "Body position tolerance")
	angularError := flag.Float64("angular-error", float64(netconfig.DefaultAngularError), "Body orientation tolerance (radians)")
	debounce := flag.Float64("debounce", float64(netconfig.DefaultDebounce), "Seconds a boolean must hold before it is sent")
	flag.Parse()

	netconfig.Replication.TickRate = *tickRate
	netconfig.Replication.LinearError = float32(*linearError)
	netconfig.Replication.AngularError = float32(*angularError)
	netconfig.Replication.Debounce = float32(*debounce)

	if err := protocol.RegisterSchemas(); err != nil {
		log.Fatalf("Failed to register schemas: %v", err)
	}
	if *schemaFile != "" {
		if err := protocol.LoadSchemaFile(*schemaFile); err != nil {
			log.Fatalf("Failed to load schemas: %v", err)
		}
	}

	arena := leveldata.DefaultArena(40, 30, 16)
	if *arenaDir != "" {
		data, err := core.LoadArenaData(*arenaDir, *arenaName)
		if err != nil {
			log.Fatalf("Failed to load arena: %v", err)
		}
		arena = data
	}

	server := core.NewServer(*tickRate, *name, *version, arena, *arenaName)

	if *recordPath != "" {
		rec, err := recording.Create(*recordPath)
		if err != nil {
			log.Fatalf("Failed to open recording: %v", err)
		}
		server.SetRecorder(rec)
		log.Printf("Recording replication stream to %s", *recordPath)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Println("Shutting down server...")
		server.Stop()
		os.Exit(0)
	}()

	log.Printf("Starting replica server %q on port %d (tick rate: %d/s, arena: %s, version: %s)",
		*name, *port, *tickRate, *arenaName, *version)
	if err := server.Start(*port); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
