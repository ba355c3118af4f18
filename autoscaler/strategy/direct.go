package strategy

import (
	"github.com/dbops-engineering/autoscaler/autoscaler/structs"
)

// Direct drives the instance straight to its configured maximum size. It is
// intended for planned peak events where ramping through intermediate sizes
// would arrive too late.
type Direct struct{}

// Suggest implements the Sizer contract.
func (d *Direct) Suggest(snap *structs.InstanceSnapshot) int64 {
	return finalizeSuggestion(snap, snap.MaxSize)
}
