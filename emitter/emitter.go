package emitter

import (
	"context"
	"fmt"

	"github.com/dbops-engineering/autoscaler/autoscaler/structs"
)

// Emitter is the interface to the downstream event publication backends.
// All emitters are expected to implement this set of functions. Emission is
// best effort; callers log failures and never abort processing on them.
type Emitter interface {
	Name() string
	Emit(ctx context.Context, event string, snap *structs.InstanceSnapshot, suggestedSize int64) error
	Close() error
}

// NewProvider is the factory entrance to the emitter backends.
func NewProvider(t string, config *structs.Config) (Emitter, error) {

	var e Emitter
	var err error

	switch t {
	case "kafka":
		e, err = NewKafkaProvider(config.Kafka)
	default:
		err = fmt.Errorf("the emitter provider %s is not supported", t)
	}
	return e, err
}
