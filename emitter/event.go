package emitter

import (
	"github.com/dbops-engineering/autoscaler/autoscaler/structs"
)

// Downstream event names.
const (
	EventScaling        = "SCALING"
	EventScalingFailure = "SCALING_FAILURE"
)

// Units enumeration values on the downstream wire.
const (
	eventUnitsNodes           int32 = 0
	eventUnitsProcessingUnits int32 = 1
)

// EventMetric is one observed metric on the downstream wire.
type EventMetric struct {
	Name      string  `json:"name"`
	Threshold float64 `json:"threshold"`
	Value     float64 `json:"value"`
	Margin    float64 `json:"margin"`
}

// DownstreamEvent is the wire representation of a scaling lifecycle event.
// The field layout is consumed by external systems and must not change
// shape.
type DownstreamEvent struct {
	ProjectID     string        `json:"project_id"`
	InstanceID    string        `json:"instance_id"`
	CurrentSize   *int32        `json:"current_size,omitempty"`
	SuggestedSize *int32        `json:"suggested_size,omitempty"`
	Units         *int32        `json:"units,omitempty"`
	Metrics       []EventMetric `json:"metrics,omitempty"`
}

// NewDownstreamEvent builds the wire event for a snapshot and the size the
// orchestrator computed for it.
func NewDownstreamEvent(snap *structs.InstanceSnapshot, suggestedSize int64) *DownstreamEvent {
	current := int32(snap.CurrentSize)
	suggested := int32(suggestedSize)

	units := eventUnitsNodes
	if snap.Units == structs.UnitsProcessingUnits {
		units = eventUnitsProcessingUnits
	}

	event := &DownstreamEvent{
		ProjectID:     snap.ProjectID,
		InstanceID:    snap.InstanceID,
		CurrentSize:   &current,
		SuggestedSize: &suggested,
		Units:         &units,
	}

	for _, metric := range snap.Metrics {
		event.Metrics = append(event.Metrics, EventMetric{
			Name:      metric.Name,
			Threshold: metric.Threshold,
			Value:     metric.Value,
			Margin:    metric.Margin,
		})
	}

	return event
}
