package netcomponents

import "github.com/yohamta/donburi"

// NetReplicaData marks an entity for replication and records which schema
// its state follows.
type NetReplicaData struct {
	NetworkID uint
	SchemaID  uint8
}

var NetReplica = donburi.NewComponentType[NetReplicaData]()
