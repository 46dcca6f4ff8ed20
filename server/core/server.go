package core

import (
	"fmt"
	"log"
	"math"
	"sync"

	"github.com/leap-fish/necs/esync"
	"github.com/leap-fish/necs/router"
	"github.com/leap-fish/necs/transports"
	"github.com/yohamta/donburi"

	"github.com/apistol78/replica/shared/gamemath"
	"github.com/apistol78/replica/shared/leveldata"
	"github.com/apistol78/replica/shared/messages"
	"github.com/apistol78/replica/shared/netcomponents"
	"github.com/apistol78/replica/shared/netconfig"
	"github.com/apistol78/replica/shared/protocol"
	"github.com/apistol78/replica/shared/recording"
)

// peerConn is the part of a router.NetworkClient the server talks to.
type peerConn interface {
	Id() string
	SendMessage(msg any) error
}

// Server owns the simulated world and replicates it to every joined client.
type Server struct {
	world     donburi.World
	loop      *GameLoop
	transport *transports.WsServerTransport
	tickRate  int
	name      string
	version   string

	arena     *Arena
	arenaName string

	bodies      map[donburi.Entity]*BodyPhysics
	beacons     map[donburi.Entity]*Beacon
	byNetworkID map[uint]donburi.Entity
	nextID      uint

	peers      map[peerConn]*peer
	nextPeerID esync.NetworkId
	recorder   *recording.Recorder
	recordPeer *peer

	tick uint64
	mu   sync.Mutex
}

// NewServer creates a server simulating arena. Schemas must already be
// registered with the protocol package.
func NewServer(tickRate int, name, version string, arena *leveldata.ArenaData, arenaName string) *Server {
	if tickRate <= 0 {
		tickRate = netconfig.Replication.TickRate
	}
	s := &Server{
		world:       donburi.NewWorld(),
		tickRate:    tickRate,
		name:        name,
		version:     version,
		arena:       NewArena(arena),
		arenaName:   arenaName,
		bodies:      make(map[donburi.Entity]*BodyPhysics),
		beacons:     make(map[donburi.Entity]*Beacon),
		byNetworkID: make(map[uint]donburi.Entity),
		peers:       make(map[peerConn]*peer),
	}
	s.loop = NewGameLoop(s, tickRate)

	for _, sp := range s.arena.Spawns {
		switch sp.Kind {
		case "beacon":
			s.SpawnBeacon(sp.X, sp.Y)
		default:
			s.SpawnBody(sp.X, sp.Y, sp.Spin*math.Pi/180)
		}
	}

	s.setupRouterCallbacks()
	return s
}

// Start begins the server on the given port.
func (s *Server) Start(port uint) error {
	go s.loop.Run()

	s.transport = transports.NewWsServerTransport(port, "", nil)
	return s.transport.Start()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop() {
	s.loop.Stop()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.recorder != nil {
		if err := s.recorder.Close(); err != nil {
			log.Printf("[server] close recording: %v", err)
		}
		s.recorder, s.recordPeer = nil, nil
	}
}

// SetRecorder records every update the server would send to a client that
// acknowledges everything, starting with the entities that already exist.
func (s *Server) SetRecorder(r *recording.Recorder) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recorder = r
	s.recordPeer = newPeer(nil, 0, "recording")
	s.recordPeer.autoAck = true
	for _, spawn := range s.spawnEvents() {
		s.record(recording.Entry{Tick: s.tick, Spawn: &spawn})
	}
}

func (s *Server) setupRouterCallbacks() {
	router.OnConnect(func(client *router.NetworkClient) {
		s.onConnect(client)
	})

	router.OnDisconnect(func(client *router.NetworkClient, err error) {
		s.onDisconnect(client, err)
	})

	router.On(func(client *router.NetworkClient, msg messages.JoinRequest) {
		s.onJoin(client, msg)
	})

	router.On(func(client *router.NetworkClient, msg messages.StateAck) {
		s.onAck(client, msg)
	})

	router.On(func(client *router.NetworkClient, msg messages.ImpulseCommand) {
		s.onImpulse(client, msg)
	})

	router.OnError(func(client *router.NetworkClient, err error) {
		log.Printf("[server] client error: %v", err)
	})
}

func (s *Server) onConnect(client peerConn) {
	log.Printf("[server] client connected: %s", client.Id())

	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextPeerID++
	s.peers[client] = newPeer(client, s.nextPeerID, "")
}

func (s *Server) onDisconnect(client peerConn, err error) {
	if err != nil {
		log.Printf("[server] client %s disconnected with error: %v", client.Id(), err)
	} else {
		log.Printf("[server] client %s disconnected", client.Id())
	}

	s.mu.Lock()
	delete(s.peers, client)
	s.mu.Unlock()
}

func (s *Server) onJoin(client peerConn, msg messages.JoinRequest) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.peers[client]
	if !ok {
		return
	}

	var reason string
	switch {
	case msg.ProtocolVersion != netconfig.ProtocolVersion:
		reason = fmt.Sprintf("protocol version %d, server speaks %d", msg.ProtocolVersion, netconfig.ProtocolVersion)
	case s.version != "" && msg.Version != s.version:
		reason = fmt.Sprintf("client version %q, server requires %q", msg.Version, s.version)
	}
	if reason != "" {
		log.Printf("[server] rejecting %s: %s", client.Id(), reason)
		if err := client.SendMessage(messages.JoinRejected{Reason: reason}); err != nil {
			log.Printf("[server] send rejection to %s: %v", client.Id(), err)
		}
		return
	}

	err := client.SendMessage(messages.JoinAccepted{
		NetworkID:  p.networkID,
		ServerName: s.name,
		TickRate:   s.tickRate,
		Arena:      s.arenaName,
	})
	if err != nil {
		log.Printf("[server] send join accepted to %s: %v", client.Id(), err)
		return
	}
	for _, spawn := range s.spawnEvents() {
		if err := client.SendMessage(spawn); err != nil {
			log.Printf("[server] send spawn to %s: %v", client.Id(), err)
			return
		}
	}
	p.name = msg.ClientName
	p.joined = true
	log.Printf("[server] %s joined as %q (networkID=%d)", client.Id(), msg.ClientName, p.networkID)
}

func (s *Server) onAck(client peerConn, msg messages.StateAck) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.peers[client]
	if !ok {
		return
	}
	if enc, ok := p.encoders[msg.NetworkID]; ok {
		enc.Ack(msg.Sequence)
	}
}

func (s *Server) onImpulse(client peerConn, msg messages.ImpulseCommand) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p, ok := s.peers[client]; !ok || !p.joined {
		return
	}
	entity, ok := s.byNetworkID[msg.NetworkID]
	if !ok {
		return
	}
	b, ok := s.bodies[entity]
	if !ok {
		return
	}
	limit := netconfig.Body.MaxSpeed
	b.VelX = gamemath.ClampSpeed(b.VelX+float64(msg.X)/physicsRate, limit)
	b.VelY = gamemath.ClampSpeed(b.VelY+float64(msg.Y)/physicsRate, limit)
	b.VelZ = gamemath.ClampSpeed(b.VelZ+float64(msg.Z)/physicsRate, limit)
	b.Spin += float64(msg.Spin) / physicsRate
	b.Wake()
}

// SpawnBody adds a body centered at (x, y) spinning at spin rad/s and
// returns its network ID.
func (s *Server) SpawnBody(x, y, spin float64) uint {
	s.mu.Lock()
	defer s.mu.Unlock()
	entity := s.world.Create(netcomponents.NetReplica, netcomponents.NetBody)
	b := newBodyPhysics(s.arena, x, y)
	b.Spin = spin / physicsRate
	s.bodies[entity] = b
	writeBody(b, netcomponents.NetBody.Get(s.world.Entry(entity)))
	return s.register(entity, protocol.SchemaIDBody, "body")
}

// SpawnBeacon adds a beacon circling (x, y) and returns its network ID.
func (s *Server) SpawnBeacon(x, y float64) uint {
	s.mu.Lock()
	defer s.mu.Unlock()
	entity := s.world.Create(netcomponents.NetReplica, netcomponents.NetEntity)
	bc := &Beacon{CX: x, CY: y, Radius: 64, Rate: 0.5, Period: 3}
	s.beacons[entity] = bc
	writeBeacon(bc, s.now(), netcomponents.NetEntity.Get(s.world.Entry(entity)))
	return s.register(entity, protocol.SchemaIDEntity, "beacon")
}

func (s *Server) register(entity donburi.Entity, schemaID uint8, kind string) uint {
	s.nextID++
	id := s.nextID
	netcomponents.NetReplica.SetValue(s.world.Entry(entity), netcomponents.NetReplicaData{
		NetworkID: id,
		SchemaID:  schemaID,
	})
	s.byNetworkID[id] = entity

	spawn := messages.SpawnEvent{NetworkID: id, SchemaID: schemaID, Kind: kind}
	s.broadcast(spawn)
	s.record(recording.Entry{Tick: s.tick, Spawn: &spawn})
	return id
}

// Despawn removes a replicated entity and tells every client.
func (s *Server) Despawn(networkID uint) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	entity, ok := s.byNetworkID[networkID]
	if !ok {
		return false
	}
	delete(s.byNetworkID, networkID)
	if b, ok := s.bodies[entity]; ok {
		removeBodyPhysics(s.arena, b)
		delete(s.bodies, entity)
	}
	delete(s.beacons, entity)
	if s.world.Valid(entity) {
		s.world.Remove(entity)
	}

	for _, p := range s.allPeers() {
		delete(p.encoders, networkID)
	}
	despawn := messages.DespawnEvent{NetworkID: networkID}
	s.broadcast(despawn)
	s.record(recording.Entry{Tick: s.tick, Despawn: &despawn})
	return true
}

// Step advances the simulation one tick and replicates the result.
func (s *Server) Step() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tick++
	now := s.now()
	s.updatePhysics()
	s.updateBeacons(now)
	s.replicate(now)

	if s.tick%uint64(s.tickRate*reportSeconds) == 0 {
		s.reportBandwidth()
	}
}

func (s *Server) now() float64 {
	return float64(s.tick) / float64(s.tickRate)
}

func (s *Server) broadcast(msg any) {
	for _, p := range s.peers {
		if !p.joined {
			continue
		}
		if err := p.conn.SendMessage(msg); err != nil {
			log.Printf("[server] send to %s: %v", p.conn.Id(), err)
		}
	}
}

func (s *Server) record(e recording.Entry) {
	if s.recorder == nil {
		return
	}
	if err := s.recorder.Write(e); err != nil {
		log.Printf("[server] recording: %v", err)
	}
}

// World returns the ECS world.
func (s *Server) World() donburi.World {
	return s.world
}

// PlayerCount returns the number of joined clients.
func (s *Server) PlayerCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, p := range s.peers {
		if p.joined {
			n++
		}
	}
	return n
}
