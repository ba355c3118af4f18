package client

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dbops-engineering/autoscaler/autoscaler/structs"
	"github.com/dbops-engineering/autoscaler/logging"
	consul "github.com/hashicorp/consul/api"
)

// consulStore persists the per-instance scaling state record as a JSON
// document in the Consul Key/Value store.
type consulStore struct {
	kv  *consul.KV
	key string
}

// NewConsulStore is used to construct a state store backed by Consul,
// scoped to the instance the snapshot observes. Supports the use of an ACL
// token if required by the Consul cluster.
func NewConsulStore(address, token, keyRoot string,
	snap *structs.InstanceSnapshot) (structs.StateStore, error) {

	config := consul.DefaultConfig()
	config.Address = address
	if token != "" {
		config.Token = token
	}

	c, err := consul.NewClient(config)
	if err != nil {
		return nil, fmt.Errorf("client/consul: unable to setup the Consul "+
			"client: %v", err)
	}

	key := fmt.Sprintf("%s/state/instances/%s/%s", keyRoot,
		snap.ProjectID, snap.InstanceID)

	return &consulStore{kv: c.KV(), key: key}, nil
}

// Get reads the scaling state record from the Consul Key/Value store. A
// record with all zero values is returned when no state has been persisted
// for the instance yet.
func (c *consulStore) Get(ctx context.Context) (*structs.ScalingState, error) {
	logging.Debug("client/consul: attempting to read state tracking "+
		"information from Consul at location %v", c.key)

	opts := (&consul.QueryOptions{}).WithContext(ctx)

	pair, _, err := c.kv.Get(c.key, opts)
	if err != nil {
		return nil, fmt.Errorf("client/consul: an error occurred while "+
			"attempting to read state information from Consul at location "+
			"%v: %v", c.key, err)
	}

	state := &structs.ScalingState{}
	if pair == nil {
		logging.Debug("client/consul: no state tracking information is "+
			"present in Consul at location %v, starting from an empty record",
			c.key)
		return state, nil
	}

	if err := json.Unmarshal(pair.Value, state); err != nil {
		return nil, fmt.Errorf("client/consul: an error occurred while "+
			"attempting to deserialize scaling state retrieved from "+
			"persistent storage: %v", err)
	}

	return state, nil
}

// Update is responsible for persistently storing the scaling state record
// in the Consul Key/Value store.
func (c *consulStore) Update(ctx context.Context, state *structs.ScalingState) error {
	payload, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("client/consul: an error occurred when attempting "+
			"to serialize scaling state for persistent storage: %v", err)
	}

	pair := &consul.KVPair{
		Key:   c.key,
		Value: payload,
	}

	opts := (&consul.WriteOptions{}).WithContext(ctx)

	if _, err := c.kv.Put(pair, opts); err != nil {
		return fmt.Errorf("client/consul: an error occurred when attempting "+
			"to write scaling state data to Consul: %v", err)
	}

	logging.Debug("client/consul: successfully stored scaling state in "+
		"Consul at location %v", c.key)

	return nil
}

// Close implements the StateStore interface. The Consul client holds no
// per-session resources to release.
func (c *consulStore) Close() error {
	return nil
}
