package structs

import (
	"encoding/json"
	"fmt"
)

const (
	// FulfillmentNormal indicates the service expects the resize to complete
	// within its usual window.
	FulfillmentNormal = "FULFILLMENT_PERIOD_NORMAL"

	// FulfillmentExtended indicates the service expects the resize to take
	// up to one hour.
	FulfillmentExtended = "FULFILLMENT_PERIOD_EXTENDED"

	// FulfillmentUnspecified is used whenever the status API omits the
	// fulfillment period or returns a value we do not recognize.
	FulfillmentUnspecified = "FULFILLMENT_PERIOD_UNSPECIFIED"
)

// OperationError carries the terminal error of a failed resize operation as
// reported by the status API.
type OperationError struct {
	Code    int64  `json:"code"`
	Message string `json:"message"`
}

func (e *OperationError) Error() string {
	return fmt.Sprintf("operation failed with code %d: %s", e.Code, e.Message)
}

// ResizeOperation is the status of a long-running resize as returned by the
// operation-status API. Metadata is carried opaquely and parsed by the
// tracker, as malformed metadata must not fail the status fetch itself.
type ResizeOperation struct {
	// Name is the opaque operation identifier.
	Name string

	// Done reports whether the operation has reached a terminal state.
	Done bool

	// Err is set when the operation terminated in failure.
	Err *OperationError

	// Metadata is the raw operation metadata document.
	Metadata json.RawMessage
}

// OperationMetadata is the parsed metadata document of a resize operation.
type OperationMetadata struct {
	StartTime                 string `json:"startTime"`
	EndTime                   string `json:"endTime"`
	ExpectedFulfillmentPeriod string `json:"expectedFulfillmentPeriod"`

	Instance struct {
		NodeCount       int64 `json:"nodeCount"`
		ProcessingUnits int64 `json:"processingUnits"`
	} `json:"instance"`
}

// Fulfillment normalizes the expected fulfillment period carried in the
// metadata to one of the known fulfillment constants.
func (m *OperationMetadata) Fulfillment() string {
	switch m.ExpectedFulfillmentPeriod {
	case FulfillmentNormal:
		return FulfillmentNormal
	case FulfillmentExtended:
		return FulfillmentExtended
	default:
		return FulfillmentUnspecified
	}
}

// TargetSize returns the capacity the operation is driving the instance
// towards in the units the snapshot expresses capacity in, or zero when the
// metadata does not carry one.
func (m *OperationMetadata) TargetSize(units string) int64 {
	if units == UnitsProcessingUnits {
		return m.Instance.ProcessingUnits
	}
	return m.Instance.NodeCount
}

// ParseOperationMetadata deserializes the raw metadata document attached to
// a resize operation.
func ParseOperationMetadata(raw json.RawMessage) (*OperationMetadata, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("structs/operation: operation carries no metadata")
	}

	meta := &OperationMetadata{}
	if err := json.Unmarshal(raw, meta); err != nil {
		return nil, fmt.Errorf("structs/operation: unable to deserialize "+
			"operation metadata: %v", err)
	}

	return meta, nil
}
