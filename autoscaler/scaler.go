package autoscaler

import (
	"context"
	"fmt"
	"time"

	"github.com/dbops-engineering/autoscaler/autoscaler/strategy"
	"github.com/dbops-engineering/autoscaler/autoscaler/structs"
	"github.com/dbops-engineering/autoscaler/emitter"
	"github.com/dbops-engineering/autoscaler/logging"
)

// Denial reasons recorded when a processing run declines to resize. The
// enumeration is closed.
const (
	DenialReasonMaxSize        = "MAX_SIZE"
	DenialReasonCurrentSize    = "CURRENT_SIZE"
	DenialReasonInProgress     = "IN_PROGRESS"
	DenialReasonWithinCooldown = "WITHIN_COOLDOWN"
)

// Scaler is the per-snapshot scaling orchestrator. It composes the strategy
// registry, the state store, the operation tracker, the cooldown policy and
// the resize driver into a single processing run per observed snapshot.
type Scaler struct {
	database structs.DatabaseClient
	stores   structs.StateStoreFactory
	emitter  emitter.Emitter
	registry *strategy.Registry

	// now returns the current time in milliseconds since the epoch. It is
	// swappable so tests can pin the clock.
	now func() int64
}

// NewScaler sets up the orchestrator. The emitter may be nil, in which case
// downstream events are not published.
func NewScaler(database structs.DatabaseClient, stores structs.StateStoreFactory,
	em emitter.Emitter) *Scaler {

	return &Scaler{
		database: database,
		stores:   stores,
		emitter:  em,
		registry: strategy.NewRegistry(),
		now:      func() int64 { return time.Now().UnixMilli() },
	}
}

// ScalePayload parses a JSON snapshot and runs a scaling evaluation for it.
func (s *Scaler) ScalePayload(ctx context.Context, payload []byte) error {
	snap, err := structs.ParseSnapshot(payload)
	if err != nil {
		RecordRequestFailed()
		return err
	}
	return s.Scale(ctx, snap)
}

// ScaleEnvelope unwraps a base64 message bus envelope and runs a scaling
// evaluation for the snapshot it carries.
func (s *Scaler) ScaleEnvelope(ctx context.Context, payload []byte) error {
	snap, err := structs.ParseEnvelope(payload)
	if err != nil {
		RecordRequestFailed()
		return err
	}
	return s.Scale(ctx, snap)
}

// Scale runs one full scaling evaluation for an instance snapshot: it
// reconciles any in-flight resize operation, computes a suggested size,
// applies the admission policy and, when admitted, submits a resize and
// persists the new in-flight record.
func (s *Scaler) Scale(ctx context.Context, snap *structs.InstanceSnapshot) error {
	if err := snap.Validate(); err != nil {
		RecordRequestFailed()
		return fmt.Errorf("core/scaler: invalid snapshot: %v", err)
	}

	store, err := s.stores(snap)
	if err != nil {
		RecordRequestFailed()
		return fmt.Errorf("core/scaler: unable to open the state store for "+
			"instance %s: %v", snap.Key(), err)
	}
	defer store.Close()

	state, err := store.Get(ctx)
	if err != nil {
		RecordRequestFailed()
		return fmt.Errorf("core/scaler: unable to read state for instance "+
			"%s: %v", snap.Key(), err)
	}

	// Reconcile the in-flight operation, if any, before deciding anything.
	fulfillment := ""
	if state.OperationInFlight() {
		state, fulfillment, err = s.reconcileOperation(ctx, store, snap, state)
		if err != nil {
			RecordRequestFailed()
			return err
		}
	}

	method := s.registry.Resolve(snap)
	suggestedSize, err := strategy.Suggest(method, snap)
	if err != nil {
		RecordRequestFailed()
		return err
	}

	logging.Debug("core/scaler: instance %s is at %v %s, method %s suggests "+
		"%v", snap.Key(), snap.CurrentSize, snap.Units, snap.ScalingMethod,
		suggestedSize)

	// A suggestion equal to the observed size warrants no action and must
	// leave no trace beyond counters.
	if suggestedSize == snap.CurrentSize {
		reason := DenialReasonCurrentSize
		if snap.CurrentSize == snap.MaxSize {
			reason = DenialReasonMaxSize
		}

		logging.Debug("core/scaler: no scaling required for instance %s "+
			"(denial reason: %s)", snap.Key(), reason)
		RecordScalingDenied(reason)
		RecordRequestSuccess()
		return nil
	}

	if state.OperationInFlight() {
		if fulfillment == structs.FulfillmentExtended &&
			state.ScalingRequestedSize != suggestedSize {
			logging.Warning("core/scaler: the computed target %v for instance "+
				"%s has diverged from the in-flight target %v of operation %v "+
				"with an extended fulfillment period; waiting for the "+
				"operation to complete", suggestedSize, snap.Key(),
				state.ScalingRequestedSize, state.ScalingOperationID)
		}

		logging.Debug("core/scaler: operation %v is still in flight for "+
			"instance %s, no new resize will be requested",
			state.ScalingOperationID, snap.Key())
		RecordScalingDenied(DenialReasonInProgress)
		RecordRequestSuccess()
		return nil
	}

	now := s.now()
	if !cooldownPermits(snap, suggestedSize, state, now) {
		RecordScalingDenied(DenialReasonWithinCooldown)
		RecordRequestSuccess()
		return nil
	}

	operationID, err := s.database.Resize(ctx, snap, suggestedSize)
	if err != nil {
		// The resize never started, so no operation is marked in flight; the
		// next snapshot re-evaluates from a clean record.
		logging.Error("core/scaler: unable to request a resize of instance "+
			"%s to %v: %v", snap.Key(), suggestedSize, err)
		RecordScalingFailed()
		s.emit(ctx, emitter.EventScalingFailure, snap, suggestedSize)
		RecordRequestSuccess()
		return nil
	}

	state.ScalingOperationID = operationID
	state.LastScalingTimestamp = now
	state.LastScalingCompleteTimestamp = 0
	state.ScalingMethod = snap.ScalingMethod
	state.ScalingPreviousSize = snap.CurrentSize
	state.ScalingRequestedSize = suggestedSize

	if err := store.Update(ctx, state); err != nil {
		RecordRequestFailed()
		return fmt.Errorf("core/scaler: resize operation %v was requested "+
			"but its state record could not be persisted for instance %s: %v",
			operationID, snap.Key(), err)
	}

	logging.Info("core/scaler: requested resize of instance %s from %v to "+
		"%v %s (operation %v, method %s)", snap.Key(), snap.CurrentSize,
		suggestedSize, snap.Units, operationID, snap.ScalingMethod)

	s.emit(ctx, emitter.EventScaling, snap, suggestedSize)
	RecordRequestSuccess()
	return nil
}

// emit publishes a downstream lifecycle event on a best effort basis.
func (s *Scaler) emit(ctx context.Context, event string,
	snap *structs.InstanceSnapshot, suggestedSize int64) {

	if s.emitter == nil || snap.DownstreamTopic == "" {
		return
	}

	if err := s.emitter.Emit(ctx, event, snap, suggestedSize); err != nil {
		logging.Error("core/scaler: unable to publish %s event for instance "+
			"%s: %v", event, snap.Key(), err)
	}
}
