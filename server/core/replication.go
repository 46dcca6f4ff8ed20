package core

import (
	"log"
	"sort"

	"github.com/leap-fish/necs/esync"
	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/filter"

	"github.com/apistol78/replica/shared/ghost"
	"github.com/apistol78/replica/shared/messages"
	"github.com/apistol78/replica/shared/netcomponents"
	"github.com/apistol78/replica/shared/netconfig"
	"github.com/apistol78/replica/shared/protocol"
	"github.com/apistol78/replica/shared/recording"
	"github.com/apistol78/replica/shared/replica"
)

// reportSeconds is how often per-peer bandwidth is logged.
const reportSeconds = 5

var replicated = donburi.NewQuery(filter.Contains(netcomponents.NetReplica))

// peer is one receiver of the replication stream. Each replicated entity gets
// its own encoder so baselines are tracked per receiver.
type peer struct {
	conn      peerConn
	networkID esync.NetworkId
	name      string
	joined    bool
	autoAck   bool

	encoders map[uint]*ghost.Encoder

	bits    int
	updates int
	fulls   int
}

func newPeer(conn peerConn, networkID esync.NetworkId, name string) *peer {
	return &peer{
		conn:      conn,
		networkID: networkID,
		name:      name,
		encoders:  make(map[uint]*ghost.Encoder),
	}
}

func (p *peer) encoder(networkID uint, schemaID uint8) (*ghost.Encoder, error) {
	if enc, ok := p.encoders[networkID]; ok {
		return enc, nil
	}
	schema, err := protocol.Schema(schemaID)
	if err != nil {
		return nil, err
	}
	enc := ghost.NewEncoder(schema, netconfig.Replication.FullRefreshInterval)
	p.encoders[networkID] = enc
	return enc, nil
}

// sampled is one entity's state for the current tick.
type sampled struct {
	networkID uint
	schemaID  uint8
	state     *replica.State
}

// sample captures every replicated entity, ordered by network ID.
func (s *Server) sample() []sampled {
	var out []sampled
	replicated.Each(s.world, func(entry *donburi.Entry) {
		rep := netcomponents.NetReplica.Get(entry)
		st := &replica.State{}
		switch {
		case entry.HasComponent(netcomponents.NetBody):
			netcomponents.SampleBody(netcomponents.NetBody.Get(entry), st)
		case entry.HasComponent(netcomponents.NetEntity):
			netcomponents.SampleEntity(netcomponents.NetEntity.Get(entry), st)
		default:
			return
		}
		out = append(out, sampled{networkID: rep.NetworkID, schemaID: rep.SchemaID, state: st})
	})
	sort.Slice(out, func(i, j int) bool {
		return out[i].networkID < out[j].networkID
	})
	return out
}

// replicate sends each joined peer whatever changed significantly since the
// state it last acknowledged.
func (s *Server) replicate(now float64) {
	samples := s.sample()
	for _, p := range s.allPeers() {
		if p.joined || p.autoAck {
			s.replicateTo(p, samples, now)
		}
	}
}

func (s *Server) replicateTo(p *peer, samples []sampled, now float64) {
	for _, smp := range samples {
		enc, err := p.encoder(smp.networkID, smp.schemaID)
		if err != nil {
			log.Printf("[server] entity %d: %v", smp.networkID, err)
			continue
		}
		u, ok, err := enc.Encode(smp.state, now)
		if err != nil {
			log.Printf("[server] encode entity %d: %v", smp.networkID, err)
			continue
		}
		if !ok {
			continue
		}

		msg := messages.StateUpdate{
			NetworkID: smp.networkID,
			SchemaID:  smp.schemaID,
			Sequence:  u.Sequence,
			Baseline:  u.Baseline,
			Time:      now,
			Payload:   u.Payload,
		}
		if p.conn != nil {
			if err := p.conn.SendMessage(msg); err != nil {
				log.Printf("[server] send update to %s: %v", p.conn.Id(), err)
				continue
			}
		}
		if p.autoAck {
			enc.Ack(u.Sequence)
			s.record(recording.Entry{Tick: s.tick, Update: &msg})
		}

		p.bits += u.Bits
		p.updates++
		if u.Full() {
			p.fulls++
		}
	}
}

// spawnEvents announces every replicated entity, ordered by network ID.
func (s *Server) spawnEvents() []messages.SpawnEvent {
	var out []messages.SpawnEvent
	replicated.Each(s.world, func(entry *donburi.Entry) {
		rep := netcomponents.NetReplica.Get(entry)
		kind := "body"
		if entry.HasComponent(netcomponents.NetEntity) {
			kind = "beacon"
		}
		out = append(out, messages.SpawnEvent{NetworkID: rep.NetworkID, SchemaID: rep.SchemaID, Kind: kind})
	})
	sort.Slice(out, func(i, j int) bool {
		return out[i].NetworkID < out[j].NetworkID
	})
	return out
}

func (s *Server) allPeers() []*peer {
	out := make([]*peer, 0, len(s.peers)+1)
	for _, p := range s.peers {
		out = append(out, p)
	}
	if s.recordPeer != nil {
		out = append(out, s.recordPeer)
	}
	return out
}

func (s *Server) reportBandwidth() {
	for _, p := range s.allPeers() {
		if p.updates == 0 {
			continue
		}
		label := p.name
		if p.conn != nil {
			label = p.conn.Id()
		}
		kbps := float64(p.bits) / reportSeconds / 1000
		log.Printf("[server] %s: %d updates (%d full), %.2f kbit/s payload",
			label, p.updates, p.fulls, kbps)
		p.bits, p.updates, p.fulls = 0, 0, 0
	}
}
