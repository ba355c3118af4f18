package autoscaler

import (
	"context"
	"fmt"
	"time"

	"github.com/dbops-engineering/autoscaler/autoscaler/structs"
	"github.com/dbops-engineering/autoscaler/helper"
	"github.com/dbops-engineering/autoscaler/logging"
)

// reconcileOperation drives the saved state forward against the status of
// the in-flight resize operation. The mutated state is persisted before
// returning on every branch. The returned fulfillment is only meaningful
// while the operation is still running.
func (s *Scaler) reconcileOperation(ctx context.Context, store structs.StateStore,
	snap *structs.InstanceSnapshot, state *structs.ScalingState) (*structs.ScalingState, string, error) {

	saved := state.Copy()

	op, err := s.database.OperationStatus(ctx, state.ScalingOperationID)
	if err != nil {
		// The authoritative service eventually reconciles the resize on its
		// own; wedging the instance on our inability to read status would be
		// worse than optimistically completing the record.
		logging.Error("core/tracker: unable to fetch status of operation %v "+
			"for instance %s: %v; treating the resize as complete",
			state.ScalingOperationID, snap.Key(), err)
		return s.completeByFallback(ctx, store, snap, state)
	}

	meta, err := structs.ParseOperationMetadata(op.Metadata)
	if err != nil {
		logging.Error("core/tracker: operation %v for instance %s carries "+
			"malformed metadata: %v; treating the resize as complete",
			state.ScalingOperationID, snap.Key(), err)
		return s.completeByFallback(ctx, store, snap, state)
	}

	// Records written by earlier versions lack the requested size; backfill
	// it from the operation metadata, or the observed size as a last resort.
	if state.ScalingRequestedSize == 0 {
		if target := meta.TargetSize(snap.Units); target > 0 {
			state.ScalingRequestedSize = target
		} else {
			state.ScalingRequestedSize = snap.CurrentSize
		}
	}

	if !op.Done {
		if !helper.ScalingStateDiff(saved, state) {
			logging.Debug("core/tracker: backfilled requested size %v onto "+
				"the state record for instance %s", state.ScalingRequestedSize,
				snap.Key())
		}

		if err := store.Update(ctx, state); err != nil {
			return nil, "", fmt.Errorf("core/tracker: unable to persist state "+
				"for instance %s: %v", snap.Key(), err)
		}

		logging.Debug("core/tracker: operation %v for instance %s is still "+
			"running (fulfillment: %v)", state.ScalingOperationID, snap.Key(),
			meta.Fulfillment())
		return state, meta.Fulfillment(), nil
	}

	if op.Err != nil {
		logging.Error("core/tracker: operation %v for instance %s failed: %v",
			state.ScalingOperationID, snap.Key(), op.Err)
		RecordScalingFailed()

		// Zero the scaling timestamps so the failed attempt does not hold
		// the next decision hostage to a cooldown.
		state.LastScalingTimestamp = 0
		state.LastScalingCompleteTimestamp = 0
		state.ClearInFlight()

		if err := store.Update(ctx, state); err != nil {
			return nil, "", fmt.Errorf("core/tracker: unable to persist state "+
				"for instance %s: %v", snap.Key(), err)
		}
		return state, "", nil
	}

	complete := state.LastScalingTimestamp
	if end, perr := time.Parse(time.RFC3339Nano, meta.EndTime); perr == nil {
		complete = end.UnixMilli()
	} else {
		logging.Warning("core/tracker: operation %v for instance %s reports "+
			"no usable end time (%q), falling back to the request timestamp",
			state.ScalingOperationID, snap.Key(), meta.EndTime)
	}

	state.LastScalingCompleteTimestamp = complete

	RecordScalingDuration(state.ScalingMethod, state.ScalingPreviousSize,
		state.ScalingRequestedSize, complete-state.LastScalingTimestamp)
	RecordScalingSuccess()

	logging.Info("core/tracker: operation %v for instance %s completed, "+
		"instance resized from %v to %v in %vms", state.ScalingOperationID,
		snap.Key(), state.ScalingPreviousSize, state.ScalingRequestedSize,
		complete-state.LastScalingTimestamp)

	state.ClearInFlight()

	if err := store.Update(ctx, state); err != nil {
		return nil, "", fmt.Errorf("core/tracker: unable to persist state "+
			"for instance %s: %v", snap.Key(), err)
	}
	return state, "", nil
}

// completeByFallback optimistically records the in-flight operation as
// complete when its status cannot be read, using whatever method and size
// metadata is on record.
func (s *Scaler) completeByFallback(ctx context.Context, store structs.StateStore,
	snap *structs.InstanceSnapshot, state *structs.ScalingState) (*structs.ScalingState, string, error) {

	if state.ScalingRequestedSize == 0 {
		state.ScalingRequestedSize = snap.CurrentSize
	}

	state.LastScalingCompleteTimestamp = state.LastScalingTimestamp

	RecordScalingDuration(state.ScalingMethod, state.ScalingPreviousSize,
		state.ScalingRequestedSize,
		state.LastScalingCompleteTimestamp-state.LastScalingTimestamp)
	RecordScalingSuccess()

	state.ClearInFlight()

	if err := store.Update(ctx, state); err != nil {
		return nil, "", fmt.Errorf("core/tracker: unable to persist state "+
			"for instance %s: %v", snap.Key(), err)
	}
	return state, "", nil
}
