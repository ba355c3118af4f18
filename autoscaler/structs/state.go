package structs

// ScalingState is the durable per-instance record that tracks the lifecycle
// of a resize operation. One record exists per (project, instance) pair and
// is only ever mutated by the orchestrator within a single processing run.
//
// Zero values stand in for null: an empty ScalingOperationID means no
// operation is in flight, and zero timestamps/sizes mean the field is unset.
type ScalingState struct {
	// ScalingOperationID is the opaque identifier of the in-flight resize
	// operation. While non-empty it acts as the cross-process scaling lock
	// for the instance.
	ScalingOperationID string `json:"scaling_operation_id,omitempty"`

	// LastScalingTimestamp is the time, in milliseconds since the epoch, at
	// which the most recent resize operation was requested.
	LastScalingTimestamp int64 `json:"last_scaling_timestamp"`

	// LastScalingCompleteTimestamp is the time, in milliseconds since the
	// epoch, at which the most recent resize operation completed.
	LastScalingCompleteTimestamp int64 `json:"last_scaling_complete_timestamp,omitempty"`

	// ScalingMethod records the sizing strategy that initiated the in-flight
	// operation.
	ScalingMethod string `json:"scaling_method,omitempty"`

	// ScalingPreviousSize is the instance size observed when the in-flight
	// operation was requested.
	ScalingPreviousSize int64 `json:"scaling_previous_size,omitempty"`

	// ScalingRequestedSize is the target size of the in-flight operation.
	// Records written by earlier versions may lack this field; the tracker
	// backfills it from operation metadata.
	ScalingRequestedSize int64 `json:"scaling_requested_size,omitempty"`
}

// OperationInFlight reports whether a resize operation is currently tracked
// as running for the instance.
func (s *ScalingState) OperationInFlight() bool {
	return s.ScalingOperationID != ""
}

// ClearInFlight removes all record of the tracked operation, returning the
// state to idle. The scaling timestamps are left untouched.
func (s *ScalingState) ClearInFlight() {
	s.ScalingOperationID = ""
	s.ScalingMethod = ""
	s.ScalingPreviousSize = 0
	s.ScalingRequestedSize = 0
}

// Copy returns a shallow copy of the state record.
func (s *ScalingState) Copy() *ScalingState {
	state := *s
	return &state
}
