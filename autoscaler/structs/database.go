package structs

import "context"

// The DatabaseClient interface is used to provide common method signatures
// for interacting with the database instance admin API.
type DatabaseClient interface {
	// Resize submits a capacity change for the instance described by the
	// snapshot. The request carries a node count or a processing unit count
	// depending on the snapshot units. The returned string is the opaque
	// identifier of the long-running resize operation.
	Resize(ctx context.Context, snap *InstanceSnapshot, targetSize int64) (string, error)

	// OperationStatus fetches the status of a long-running resize operation
	// by its opaque identifier.
	OperationStatus(ctx context.Context, operationID string) (*ResizeOperation, error)
}
