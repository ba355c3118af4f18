package client

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dbops-engineering/autoscaler/autoscaler/structs"
	"github.com/dbops-engineering/autoscaler/logging"
	"google.golang.org/api/option"
	spanner "google.golang.org/api/spanner/v1"
)

// spannerAdmin implements the DatabaseClient interface against the Cloud
// Spanner instance admin API.
type spannerAdmin struct {
	service *spanner.Service
}

// NewSpannerAdmin is used to construct a database client backed by the
// instance admin API. Credentials are resolved from the environment unless
// overridden through client options.
func NewSpannerAdmin(ctx context.Context, opts ...option.ClientOption) (structs.DatabaseClient, error) {
	service, err := spanner.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("client/spanner: unable to setup the instance "+
			"admin client: %v", err)
	}

	return &spannerAdmin{service: service}, nil
}

// Resize submits a capacity change for the instance the snapshot observes.
// The request body carries exactly one of nodeCount or processingUnits
// depending on the snapshot units.
func (s *spannerAdmin) Resize(ctx context.Context, snap *structs.InstanceSnapshot,
	targetSize int64) (string, error) {

	name := fmt.Sprintf("projects/%s/instances/%s", snap.ProjectID,
		snap.InstanceID)

	instance := &spanner.Instance{}
	fieldMask := "nodeCount"

	if snap.Units == structs.UnitsProcessingUnits {
		instance.ProcessingUnits = targetSize
		fieldMask = "processingUnits"
	} else {
		instance.NodeCount = targetSize
	}

	req := &spanner.UpdateInstanceRequest{
		FieldMask: fieldMask,
		Instance:  instance,
	}

	op, err := s.service.Projects.Instances.Patch(name, req).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("client/spanner: the resize request for "+
			"instance %s failed: %v", snap.Key(), err)
	}

	logging.Debug("client/spanner: resize of instance %s to %v %s accepted "+
		"as operation %v", snap.Key(), targetSize, snap.Units, op.Name)

	return op.Name, nil
}

// OperationStatus fetches the status of a long-running resize operation.
// The operation metadata is passed through opaquely; the tracker owns its
// interpretation.
func (s *spannerAdmin) OperationStatus(ctx context.Context, operationID string) (*structs.ResizeOperation, error) {
	op, err := s.service.Projects.Instances.Operations.Get(operationID).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("client/spanner: unable to fetch the status "+
			"of operation %v: %v", operationID, err)
	}

	status := &structs.ResizeOperation{
		Name:     op.Name,
		Done:     op.Done,
		Metadata: json.RawMessage(op.Metadata),
	}

	if op.Error != nil {
		status.Err = &structs.OperationError{
			Code:    op.Error.Code,
			Message: op.Error.Message,
		}
	}

	return status, nil
}
