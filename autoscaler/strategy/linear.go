package strategy

import (
	"math"

	"github.com/dariubs/percent"
	"github.com/dbops-engineering/autoscaler/autoscaler/structs"
	"github.com/dbops-engineering/autoscaler/logging"
)

// Linear sizes the instance proportionally to the utilization of its most
// burdened metric: a metric at double its threshold doubles the size, one at
// half its threshold halves it.
type Linear struct{}

// Suggest implements the Sizer contract.
func (l *Linear) Suggest(snap *structs.InstanceSnapshot) int64 {

	// Identify the most utilized metric relative to its threshold. The
	// utilization is computed on the float fields so metrics expressed on a
	// 0-1 scale compare correctly, and a non-positive threshold can never
	// divide the sizing below.
	var burdened structs.Metric
	burdenedPct := -1.0

	for _, metric := range snap.Metrics {
		if metric.Threshold <= 0 {
			logging.Warning("strategy/linear: metric %s on instance %s carries "+
				"a non-positive threshold %v and is ignored", metric.Name,
				snap.Key(), metric.Threshold)
			continue
		}

		if pct := percent.PercentOfFloat(metric.Value, metric.Threshold); pct > burdenedPct {
			burdened = metric
			burdenedPct = pct
		}
	}

	if burdenedPct < 0 {
		return snap.CurrentSize
	}

	// Inside the margin band no resize is warranted.
	if math.Abs(burdened.Value-burdened.Threshold) <= burdened.Margin {
		return snap.CurrentSize
	}

	logging.Debug("strategy/linear: sizing instance %s against metric %s "+
		"(utilization: %.2f%% of threshold)", snap.Key(), burdened.Name,
		burdenedPct)

	suggested := int64(math.Ceil(
		float64(snap.CurrentSize) * burdened.Value / burdened.Threshold))

	return finalizeSuggestion(snap, suggested)
}
