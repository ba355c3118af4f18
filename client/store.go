package client

import (
	"fmt"

	"github.com/dbops-engineering/autoscaler/autoscaler/structs"
)

// Supported state store backends.
const (
	StoreBackendConsul = "consul"
	StoreBackendRedis  = "redis"
)

// NewStateStoreFactory returns the factory the orchestrator uses to open a
// state store for each snapshot. The snapshot's stateStore block selects
// the backend and location; anything it leaves unset falls back to the
// agent configuration.
func NewStateStoreFactory(config *structs.Config) structs.StateStoreFactory {
	return func(snap *structs.InstanceSnapshot) (structs.StateStore, error) {
		backend := StoreBackendConsul
		address := ""
		keyRoot := config.ConsulKeyRoot

		if snap.StateStore != nil {
			if snap.StateStore.Backend != "" {
				backend = snap.StateStore.Backend
			}
			if snap.StateStore.Address != "" {
				address = snap.StateStore.Address
			}
			if snap.StateStore.KeyRoot != "" {
				keyRoot = snap.StateStore.KeyRoot
			}
		}

		switch backend {
		case StoreBackendConsul:
			if address == "" {
				address = config.Consul
			}
			return NewConsulStore(address, config.ConsulToken, keyRoot, snap)

		case StoreBackendRedis:
			if address == "" {
				address = config.Redis
			}
			return NewRedisStore(address, keyRoot, snap)
		}

		return nil, fmt.Errorf("client/store: the state store backend %q is "+
			"not supported", backend)
	}
}
