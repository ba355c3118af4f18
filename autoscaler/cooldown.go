package autoscaler

import (
	"github.com/dbops-engineering/autoscaler/autoscaler/structs"
	"github.com/dbops-engineering/autoscaler/logging"
)

// millisPerMinute converts configured cooldown minutes to the millisecond
// timestamps tracked in the state record.
const millisPerMinute = 60_000

// cooldownPermits applies the temporal admission policy to a non-trivial
// suggested size. The decision is a pure function of the snapshot, the
// saved state and now; only logging is performed as a side effect.
func cooldownPermits(snap *structs.InstanceSnapshot, suggestedSize int64,
	state *structs.ScalingState, now int64) bool {

	cooling := selectCooldown(snap, suggestedSize)

	// The completion time of the last resize anchors the cooldown; fall back
	// to the request time for records that never saw a completion.
	reference := state.LastScalingCompleteTimestamp
	if reference == 0 {
		reference = state.LastScalingTimestamp
	}

	// An instance that has never scaled is admitted unconditionally.
	if reference == 0 {
		return true
	}

	elapsed := now - reference
	required := cooling * millisPerMinute

	if elapsed < required {
		logging.Debug("core/cooldown: instance %s is within its cooldown "+
			"period, %vms of %vms have elapsed since the last scaling event",
			snap.Key(), elapsed, required)
		return false
	}

	return true
}

// selectCooldown picks the cooldown minutes that apply to the suggested
// resize: the directional cooldown, overridden by the overload cooldown
// whenever the instance is overloaded.
func selectCooldown(snap *structs.InstanceSnapshot, suggestedSize int64) int64 {
	cooling := snap.ScaleInCoolingMinutes
	if suggestedSize > snap.CurrentSize {
		cooling = snap.ScaleOutCoolingMinutes
	}

	if snap.IsOverloaded {
		if snap.OverloadCoolingMinutes != 0 {
			return snap.OverloadCoolingMinutes
		}

		logging.Info("core/cooldown: instance %s is overloaded but no "+
			"overload cooldown is configured, applying the scale-out cooldown "+
			"of %v minutes", snap.Key(), snap.ScaleOutCoolingMinutes)
		return snap.ScaleOutCoolingMinutes
	}

	return cooling
}
