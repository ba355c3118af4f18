package strategy

import (
	"github.com/dbops-engineering/autoscaler/autoscaler/structs"
	"github.com/dbops-engineering/autoscaler/helper"
	"github.com/dbops-engineering/autoscaler/logging"
)

const (
	// stepwiseNodeStep is the number of nodes added or removed per
	// suggestion when capacity is expressed in nodes.
	stepwiseNodeStep = 2

	// stepwiseUnitStep is the number of processing units added or removed
	// per suggestion when capacity is expressed in processing units.
	stepwiseUnitStep = 200
)

// Stepwise is the default sizing strategy. It moves the instance by a fixed
// step: out when any metric exceeds its threshold plus margin, in when every
// metric sits below its threshold minus margin.
type Stepwise struct{}

// Suggest implements the Sizer contract.
func (s *Stepwise) Suggest(snap *structs.InstanceSnapshot) int64 {
	step := int64(stepwiseNodeStep)
	if snap.Units == structs.UnitsProcessingUnits {
		step = stepwiseUnitStep
	}

	scaleOut := false
	scaleIn := len(snap.Metrics) > 0

	for _, metric := range snap.Metrics {
		if metric.Value > metric.Threshold+metric.Margin {
			scaleOut = true
			logging.Debug("strategy/stepwise: metric %s on instance %s is above "+
				"its threshold band (value: %v, threshold: %v, margin: %v)",
				metric.Name, snap.Key(), metric.Value, metric.Threshold,
				metric.Margin)
		}

		// A single metric inside or above its band vetoes scale-in.
		if metric.Value >= metric.Threshold-metric.Margin {
			scaleIn = false
		}
	}

	suggested := snap.CurrentSize
	switch {
	case scaleOut:
		suggested += step
	case scaleIn:
		suggested -= step
	}

	return finalizeSuggestion(snap, suggested)
}

// finalizeSuggestion clamps a raw suggestion to the snapshot's size range
// and rounds processing unit targets to the service's legal increments.
func finalizeSuggestion(snap *structs.InstanceSnapshot, suggested int64) int64 {
	if snap.Units == structs.UnitsProcessingUnits {
		suggested = helper.NormalizeProcessingUnits(suggested)
	}

	return helper.Clamp(suggested, snap.MinSize, snap.MaxSize)
}
