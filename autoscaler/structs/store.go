package structs

import "context"

// The StateStore interface is used to provide common method signatures for
// reading and writing the per-instance scaling state record, regardless of
// the backing store.
type StateStore interface {
	// Get returns the scaling state record for the instance the store was
	// opened for. A record with all zero values is returned when no state
	// has been persisted yet.
	Get(context.Context) (*ScalingState, error)

	// Update atomically overwrites the stored record for the instance.
	Update(context.Context, *ScalingState) error

	// Close releases the store session. It is safe to call on every exit
	// path of a processing run.
	Close() error
}

// StateStoreFactory builds a state store scoped to the instance a snapshot
// observes. The snapshot names the store backend and its location; the
// factory fills any gaps from agent defaults.
type StateStoreFactory func(*InstanceSnapshot) (StateStore, error)
