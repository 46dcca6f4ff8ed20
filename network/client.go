package network

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/leap-fish/necs/esync"
	"github.com/leap-fish/necs/router"
	"github.com/leap-fish/necs/transports"

	"github.com/apistol78/replica/shared/ghost"
	"github.com/apistol78/replica/shared/messages"
	"github.com/apistol78/replica/shared/netconfig"
	"github.com/apistol78/replica/shared/protocol"
	"github.com/apistol78/replica/shared/replica"
)

type ClientState int

const (
	StateDisconnected ClientState = iota
	StateConnecting
	StateConnected
	StateJoined
	StateError
)

// Stats counts what the client has received since connecting.
type Stats struct {
	Updates     int
	FullUpdates int
	Dropped     int
	Bytes       int
}

// Client manages a WebSocket connection to a replication server and the
// ghosts it replicates. All shared fields are protected by mu (router
// callbacks run on necs goroutines).
type Client struct {
	mu sync.RWMutex

	state      ClientState
	lastError  error
	networkID  esync.NetworkId
	serverName string
	tickRate   int
	arena      string
	conn       *websocket.Conn

	ghosts    map[uint]*Ghost
	smoothing float32
	stats     Stats

	// clockOffset maps local time to server time, from the freshest update.
	clockOffset float64
	clockSet    bool
	now         func() time.Time
}

func NewClient() *Client {
	return &Client{
		state:     StateDisconnected,
		ghosts:    make(map[uint]*Ghost),
		smoothing: netconfig.Replication.SmoothingDuration,
		now:       time.Now,
	}
}

// Connect dials the server in a background goroutine and initiates the join handshake.
func (c *Client) Connect(address, version, name string) {
	c.mu.Lock()
	c.state = StateConnecting
	c.lastError = nil
	c.mu.Unlock()

	router.OnConnect(func(_ *router.NetworkClient) {
		log.Println("[client] connected to server")
		c.mu.Lock()
		c.state = StateConnected
		c.mu.Unlock()

		err := c.SendMessage(messages.JoinRequest{
			Version:         version,
			ProtocolVersion: netconfig.ProtocolVersion,
			ClientName:      name,
		})
		if err != nil {
			c.setError(fmt.Errorf("failed to send join request: %w", err))
		}
	})

	router.On(func(_ *router.NetworkClient, msg messages.JoinAccepted) {
		log.Printf("[client] join accepted: networkID=%d server=%s tickRate=%d arena=%s",
			msg.NetworkID, msg.ServerName, msg.TickRate, msg.Arena)
		c.mu.Lock()
		c.networkID = msg.NetworkID
		c.serverName = msg.ServerName
		c.tickRate = msg.TickRate
		c.arena = msg.Arena
		c.state = StateJoined
		c.mu.Unlock()
	})

	router.On(func(_ *router.NetworkClient, msg messages.JoinRejected) {
		log.Printf("[client] join rejected: %s", msg.Reason)
		c.setError(fmt.Errorf("join rejected: %s", msg.Reason))
	})

	router.On(func(_ *router.NetworkClient, msg messages.SpawnEvent) {
		if err := c.HandleSpawn(msg); err != nil {
			log.Printf("[client] spawn %d: %v", msg.NetworkID, err)
		}
	})

	router.On(func(_ *router.NetworkClient, msg messages.DespawnEvent) {
		c.HandleDespawn(msg)
	})

	router.On(func(_ *router.NetworkClient, msg messages.StateUpdate) {
		ack, err := c.HandleUpdate(msg)
		if err != nil {
			log.Printf("[client] update %d/%d dropped: %v", msg.NetworkID, msg.Sequence, err)
			return
		}
		if err := c.SendMessage(ack); err != nil {
			log.Printf("[client] ack %d/%d: %v", ack.NetworkID, ack.Sequence, err)
		}
	})

	router.OnDisconnect(func(_ *router.NetworkClient, err error) {
		log.Printf("[client] disconnected: %v", err)
		c.mu.Lock()
		if c.state != StateError {
			c.state = StateDisconnected
		}
		c.conn = nil
		c.mu.Unlock()
	})

	router.OnError(func(_ *router.NetworkClient, err error) {
		log.Printf("[client] error: %v", err)
	})

	go func() {
		transport := transports.NewWsClientTransport("ws://" + address)
		err := transport.Start(func(conn *websocket.Conn) {
			c.mu.Lock()
			c.conn = conn
			c.mu.Unlock()
		})
		if err != nil {
			c.setError(fmt.Errorf("connection failed: %w", err))
		}
	}()
}

func (c *Client) Disconnect() {
	c.mu.Lock()
	conn := c.conn
	c.state = StateDisconnected
	c.conn = nil
	c.mu.Unlock()

	if conn != nil {
		_ = conn.CloseNow()
	}

	router.ResetRouter()
}

// HandleSpawn creates the ghost for a newly announced entity.
func (c *Client) HandleSpawn(msg messages.SpawnEvent) error {
	schema, err := protocol.Schema(msg.SchemaID)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.ghosts[msg.NetworkID]; ok {
		return nil
	}
	c.ghosts[msg.NetworkID] = NewGhost(msg.NetworkID, msg.SchemaID, schema, c.smoothing)
	return nil
}

func (c *Client) HandleDespawn(msg messages.DespawnEvent) {
	c.mu.Lock()
	delete(c.ghosts, msg.NetworkID)
	c.mu.Unlock()
}

// HandleUpdate decodes an update into its ghost and returns the ack to send.
// Updates for unknown entities create the ghost on the fly when they carry a
// full state.
func (c *Client) HandleUpdate(msg messages.StateUpdate) (messages.StateAck, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	g, ok := c.ghosts[msg.NetworkID]
	if !ok {
		if msg.Baseline != ghost.NoBaseline {
			c.stats.Dropped++
			return messages.StateAck{}, fmt.Errorf("no ghost for entity %d", msg.NetworkID)
		}
		schema, err := protocol.Schema(msg.SchemaID)
		if err != nil {
			c.stats.Dropped++
			return messages.StateAck{}, err
		}
		g = NewGhost(msg.NetworkID, msg.SchemaID, schema, c.smoothing)
		c.ghosts[msg.NetworkID] = g
	}
	if g.SchemaID != msg.SchemaID {
		c.stats.Dropped++
		return messages.StateAck{}, fmt.Errorf("%w: entity %d uses schema %d, update has %d",
			replica.ErrSchemaMismatch, msg.NetworkID, g.SchemaID, msg.SchemaID)
	}

	u := ghost.Update{Sequence: msg.Sequence, Baseline: msg.Baseline, Payload: msg.Payload}
	if _, err := g.Receive(u, msg.Time); err != nil {
		c.stats.Dropped++
		if errors.Is(err, replica.ErrCorruptStream) {
			return messages.StateAck{}, fmt.Errorf("corrupt payload: %w", err)
		}
		return messages.StateAck{}, err
	}

	c.stats.Updates++
	c.stats.Bytes += len(msg.Payload)
	if u.Full() {
		c.stats.FullUpdates++
	}
	if offset := msg.Time - c.localSeconds(); !c.clockSet || offset > c.clockOffset {
		c.clockOffset, c.clockSet = offset, true
	}
	return messages.StateAck{NetworkID: msg.NetworkID, Sequence: msg.Sequence}, nil
}

// ServerTime estimates the server clock, in seconds.
func (c *Client) ServerTime() float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.localSeconds() + c.clockOffset
}

// Advance predicts every ghost at server time t and returns the states to
// display, keyed by network ID. Ghosts with nothing decoded yet are skipped.
func (c *Client) Advance(t float64, dt float32) map[uint]*replica.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[uint]*replica.State, len(c.ghosts))
	for id, g := range c.ghosts {
		s, err := g.Advance(t, dt)
		if err != nil {
			if !errors.Is(err, ghost.ErrNoSamples) {
				log.Printf("[client] predict %d: %v", id, err)
			}
			continue
		}
		out[id] = s
	}
	return out
}

func (c *Client) Ghost(id uint) (*Ghost, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	g, ok := c.ghosts[id]
	return g, ok
}

func (c *Client) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.stats
}

func (c *Client) State() ClientState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

func (c *Client) LastError() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastError
}

func (c *Client) NetworkID() esync.NetworkId {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.networkID
}

func (c *Client) Arena() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.arena
}

func (c *Client) TickRate() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.tickRate
}

func (c *Client) SendMessage(msg any) error {
	c.mu.RLock()
	conn := c.conn
	c.mu.RUnlock()

	if conn == nil {
		return fmt.Errorf("not connected")
	}

	payload, err := router.Serialize(msg)
	if err != nil {
		return fmt.Errorf("serialize: %w", err)
	}

	return conn.Write(context.Background(), websocket.MessageBinary, payload)
}

func (c *Client) setError(err error) {
	c.mu.Lock()
	c.state = StateError
	c.lastError = err
	c.mu.Unlock()
}

func (c *Client) localSeconds() float64 {
	return float64(c.now().UnixNano()) / 1e9
}
