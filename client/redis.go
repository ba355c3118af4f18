package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dbops-engineering/autoscaler/autoscaler/structs"
	"github.com/dbops-engineering/autoscaler/logging"
	redis "github.com/redis/go-redis/v9"
)

// redisStore persists the per-instance scaling state record as a JSON
// document under a single Redis key.
type redisStore struct {
	client *redis.Client
	key    string
}

// NewRedisStore is used to construct a state store backed by Redis, scoped
// to the instance the snapshot observes.
func NewRedisStore(address, keyRoot string,
	snap *structs.InstanceSnapshot) (structs.StateStore, error) {

	if address == "" {
		return nil, fmt.Errorf("client/redis: the redis state store backend " +
			"requires an address")
	}

	key := fmt.Sprintf("%s:state:%s:%s", keyRoot,
		snap.ProjectID, snap.InstanceID)

	return &redisStore{
		client: redis.NewClient(&redis.Options{Addr: address}),
		key:    key,
	}, nil
}

// Get reads the scaling state record from Redis. A record with all zero
// values is returned when no state has been persisted for the instance yet.
func (r *redisStore) Get(ctx context.Context) (*structs.ScalingState, error) {
	state := &structs.ScalingState{}

	payload, err := r.client.Get(ctx, r.key).Bytes()
	if errors.Is(err, redis.Nil) {
		logging.Debug("client/redis: no state tracking information is "+
			"present at key %v, starting from an empty record", r.key)
		return state, nil
	}
	if err != nil {
		return nil, fmt.Errorf("client/redis: an error occurred while "+
			"attempting to read state information from Redis at key %v: %v",
			r.key, err)
	}

	if err := json.Unmarshal(payload, state); err != nil {
		return nil, fmt.Errorf("client/redis: an error occurred while "+
			"attempting to deserialize scaling state retrieved from "+
			"persistent storage: %v", err)
	}

	return state, nil
}

// Update is responsible for persistently storing the scaling state record
// in Redis.
func (r *redisStore) Update(ctx context.Context, state *structs.ScalingState) error {
	payload, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("client/redis: an error occurred when attempting "+
			"to serialize scaling state for persistent storage: %v", err)
	}

	if err := r.client.Set(ctx, r.key, payload, 0).Err(); err != nil {
		return fmt.Errorf("client/redis: an error occurred when attempting "+
			"to write scaling state data to Redis: %v", err)
	}

	return nil
}

// Close releases the Redis connection.
func (r *redisStore) Close() error {
	return r.client.Close()
}
