package autoscaler

import (
	"strconv"

	metrics "github.com/armon/go-metrics"
)

// The counters facade wraps go-metrics so the orchestrator and ingress
// adapters record tallies through a single vocabulary. The configured sink
// is write-through, so recording a value is also its flush.

// RecordRequestSuccess tallies a processing run that completed, whether or
// not it resulted in a resize.
func RecordRequestSuccess() {
	metrics.IncrCounter([]string{"requests", "success"}, 1)
}

// RecordRequestFailed tallies a processing run aborted by a parse,
// validation, strategy or state store failure.
func RecordRequestFailed() {
	metrics.IncrCounter([]string{"requests", "failed"}, 1)
}

// RecordScalingSuccess tallies a resize operation observed to complete
// successfully.
func RecordScalingSuccess() {
	metrics.IncrCounter([]string{"scaling", "success"}, 1)
}

// RecordScalingFailed tallies a resize submission or operation failure.
func RecordScalingFailed() {
	metrics.IncrCounter([]string{"scaling", "failed"}, 1)
}

// RecordScalingDenied tallies a processing run that declined to resize,
// labelled with the denial reason.
func RecordScalingDenied(reason string) {
	metrics.IncrCounterWithLabels([]string{"scaling", "denied"}, 1,
		[]metrics.Label{{Name: "reason", Value: reason}})
}

// RecordScalingDuration samples the wall time of a completed resize,
// labelled with the initiating method and the sizes involved.
func RecordScalingDuration(method string, previousSize, requestedSize, durationMS int64) {
	metrics.AddSampleWithLabels([]string{"scaling", "duration"},
		float32(durationMS), []metrics.Label{
			{Name: "method", Value: method},
			{Name: "previous_size", Value: strconv.FormatInt(previousSize, 10)},
			{Name: "requested_size", Value: strconv.FormatInt(requestedSize, 10)},
		})
}
