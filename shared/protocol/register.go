package protocol

import (
	"errors"
	"fmt"
	"sync"

	"github.com/apistol78/replica/shared/netcomponents"
	"github.com/apistol78/replica/shared/replica"
)

// Schema IDs carried in every StateUpdate. IDs below 10 are reserved.
const (
	SchemaIDEntity uint8 = 10
	SchemaIDBody   uint8 = 11
)

var ErrUnknownSchema = errors.New("protocol: unknown schema")

var (
	mu      sync.RWMutex
	schemas = make(map[uint8]*replica.StateTemplate)
	names   = make(map[uint8]string)
)

// RegisterSchemas registers the built-in replication domains. This must be
// called by both server and client before any network operations, after
// netconfig tunables have been applied.
func RegisterSchemas() error {
	if err := Register(SchemaIDEntity, "entity", netcomponents.EntitySchema()); err != nil {
		return err
	}
	if err := Register(SchemaIDBody, "body", netcomponents.BodySchema()); err != nil {
		return err
	}
	return nil
}

// Register adds a schema under id. IDs cannot be reused.
func Register(id uint8, name string, st *replica.StateTemplate) error {
	return registerAll([]entry{{id: id, name: name, schema: st}})
}

type entry struct {
	id     uint8
	name   string
	schema *replica.StateTemplate
}

// registerAll adds every entry or none of them.
func registerAll(entries []entry) error {
	mu.Lock()
	defer mu.Unlock()
	seen := make(map[uint8]string, len(entries))
	for _, e := range entries {
		if e.id < 10 {
			return fmt.Errorf("protocol: schema id %d is reserved", e.id)
		}
		if e.schema == nil {
			return fmt.Errorf("protocol: nil schema %q", e.name)
		}
		if existing, ok := names[e.id]; ok {
			return fmt.Errorf("protocol: schema id %d already registered as %q", e.id, existing)
		}
		if existing, ok := seen[e.id]; ok {
			return fmt.Errorf("protocol: schema id %d declared twice (%q, %q)", e.id, existing, e.name)
		}
		seen[e.id] = e.name
	}
	for _, e := range entries {
		schemas[e.id] = e.schema
		names[e.id] = e.name
	}
	return nil
}

// Schema looks up a registered schema.
func Schema(id uint8) (*replica.StateTemplate, error) {
	mu.RLock()
	defer mu.RUnlock()
	st, ok := schemas[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownSchema, id)
	}
	return st, nil
}

// SchemaName returns the name a schema was registered under.
func SchemaName(id uint8) string {
	mu.RLock()
	defer mu.RUnlock()
	if name, ok := names[id]; ok {
		return name
	}
	return "unknown"
}

// ResetSchemas clears the registry.
func ResetSchemas() {
	mu.Lock()
	defer mu.Unlock()
	schemas = make(map[uint8]*replica.StateTemplate)
	names = make(map[uint8]string)
}
