package structs

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	multierror "github.com/hashicorp/go-multierror"
)

const (
	// UnitsNodes indicates the instance capacity is expressed in whole
	// compute nodes.
	UnitsNodes = "NODES"

	// UnitsProcessingUnits indicates the instance capacity is expressed in
	// fine-grained processing units.
	UnitsProcessingUnits = "PROCESSING_UNITS"
)

// Metric is a single observed measurement on an instance along with the
// thresholds the sizing strategies evaluate it against.
type Metric struct {
	// Name is the short metric identifier, for example
	// high_priority_cpu or storage.
	Name string `json:"name"`

	// Value is the observed value of the metric.
	Value float64 `json:"value"`

	// Threshold is the utilization level at which the metric is considered
	// to require additional capacity.
	Threshold float64 `json:"threshold"`

	// Margin is the band around the threshold within which no scaling
	// action is suggested.
	Margin float64 `json:"margin"`
}

// StateStoreConfig names the durable store backend and its location that
// should be used to track scaling state for the instance described by a
// snapshot.
type StateStoreConfig struct {
	// Backend is the store type; currently consul and redis are supported.
	// An empty backend falls back to the agent default.
	Backend string `json:"backend,omitempty"`

	// Address is the address:port of the store endpoint.
	Address string `json:"address,omitempty"`

	// KeyRoot is the root location under which state records are kept.
	KeyRoot string `json:"keyRoot,omitempty"`
}

// InstanceSnapshot is the per-poll observation of a single database
// instance. A snapshot is immutable within a processing run with the single
// exception of ScalingMethod, which the orchestrator rewrites to the default
// method name when the requested method is unknown.
type InstanceSnapshot struct {
	ProjectID  string `json:"projectId"`
	InstanceID string `json:"instanceId"`

	// Units determines which capacity field is sent on resize requests and
	// must be either NODES or PROCESSING_UNITS.
	Units string `json:"units"`

	CurrentSize int64 `json:"currentSize"`
	MinSize     int64 `json:"minSize"`
	MaxSize     int64 `json:"maxSize"`

	// ScaleOutCoolingMinutes and ScaleInCoolingMinutes are the minimum
	// number of minutes that must elapse after a completed scaling action
	// before another action in the given direction is permitted.
	ScaleOutCoolingMinutes int64 `json:"scaleOutCoolingMinutes"`
	ScaleInCoolingMinutes  int64 `json:"scaleInCoolingMinutes"`

	// OverloadCoolingMinutes overrides the directional cooldown while the
	// instance is overloaded. Zero means unset, in which case the scale-out
	// cooldown applies.
	OverloadCoolingMinutes int64 `json:"overloadCoolingMinutes,omitempty"`

	IsOverloaded bool `json:"isOverloaded"`

	// ScalingMethod names the sizing strategy used to compute a suggested
	// size for the instance.
	ScalingMethod string `json:"scalingMethod"`

	// DownstreamTopic, when set, is the topic scaling lifecycle events are
	// published to.
	DownstreamTopic string `json:"downstreamTopic,omitempty"`

	// StateStore optionally names the store backend that tracks scaling
	// state for this instance.
	StateStore *StateStoreConfig `json:"stateStore,omitempty"`

	Metrics []Metric `json:"metrics"`
}

// Envelope is the message bus wrapper within which snapshots are delivered.
// The payload is a base64 encoded JSON snapshot.
type Envelope struct {
	Message struct {
		Data      string `json:"data"`
		MessageID string `json:"messageId,omitempty"`
	} `json:"message"`
	Subscription string `json:"subscription,omitempty"`
}

// ParseSnapshot deserializes and validates an instance snapshot from its
// JSON representation.
func ParseSnapshot(payload []byte) (*InstanceSnapshot, error) {
	snap := &InstanceSnapshot{}
	if err := json.Unmarshal(payload, snap); err != nil {
		return nil, fmt.Errorf("structs/snapshot: unable to deserialize "+
			"instance snapshot: %v", err)
	}

	if err := snap.Validate(); err != nil {
		return nil, err
	}

	return snap, nil
}

// ParseEnvelope unwraps a message bus envelope and parses the base64 encoded
// snapshot payload it carries.
func ParseEnvelope(payload []byte) (*InstanceSnapshot, error) {
	env := &Envelope{}
	if err := json.Unmarshal(payload, env); err != nil {
		return nil, fmt.Errorf("structs/snapshot: unable to deserialize "+
			"message envelope: %v", err)
	}

	data, err := base64.StdEncoding.DecodeString(env.Message.Data)
	if err != nil {
		return nil, fmt.Errorf("structs/snapshot: unable to decode message "+
			"envelope payload: %v", err)
	}

	return ParseSnapshot(data)
}

// Validate checks the snapshot for fields without which no scaling decision
// can be safely made. All violations are accumulated and returned together.
func (s *InstanceSnapshot) Validate() error {
	var result *multierror.Error

	if s.ProjectID == "" {
		result = multierror.Append(result,
			fmt.Errorf("projectId is a required field"))
	}

	if s.InstanceID == "" {
		result = multierror.Append(result,
			fmt.Errorf("instanceId is a required field"))
	}

	if s.Units != UnitsNodes && s.Units != UnitsProcessingUnits {
		result = multierror.Append(result,
			fmt.Errorf("units must be %s or %s, got %q",
				UnitsNodes, UnitsProcessingUnits, s.Units))
	}

	if s.CurrentSize <= 0 {
		result = multierror.Append(result,
			fmt.Errorf("currentSize must be a positive integer"))
	}

	if s.MinSize <= 0 {
		result = multierror.Append(result,
			fmt.Errorf("minSize must be a positive integer"))
	}

	if s.MaxSize < s.MinSize {
		result = multierror.Append(result,
			fmt.Errorf("maxSize must be greater than or equal to minSize"))
	}

	if s.ScaleOutCoolingMinutes < 0 || s.ScaleInCoolingMinutes < 0 ||
		s.OverloadCoolingMinutes < 0 {
		result = multierror.Append(result,
			fmt.Errorf("cooldown minutes must not be negative"))
	}

	// Thresholds are divisors in proportional sizing, so zero is rejected
	// here rather than left for the strategies to trip over.
	for i, metric := range s.Metrics {
		if metric.Threshold <= 0 {
			result = multierror.Append(result,
				fmt.Errorf("metrics[%d] threshold must be a positive number", i))
		}
	}

	return result.ErrorOrNil()
}

// Key returns the canonical identifier for the instance the snapshot
// observes, used to address the per-instance state record.
func (s *InstanceSnapshot) Key() string {
	return s.ProjectID + "/" + s.InstanceID
}
