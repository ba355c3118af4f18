package helper

import (
	"github.com/dbops-engineering/autoscaler/autoscaler/structs"
	"github.com/dbops-engineering/autoscaler/logging"
	"github.com/mitchellh/hashstructure"
)

// Clamp bounds a value to the inclusive range [min, max].
func Clamp(value, min, max int64) int64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

// NormalizeProcessingUnits rounds a processing unit count up to the nearest
// legal increment: multiples of 100 below 1000 units and multiples of 1000
// at or above 1000 units.
func NormalizeProcessingUnits(units int64) int64 {
	if units <= 0 {
		return 0
	}

	if units < 1000 {
		if rem := units % 100; rem != 0 {
			units += 100 - rem
		}
		return units
	}

	if rem := units % 1000; rem != 0 {
		units += 1000 - rem
	}
	return units
}

// ScalingStateDiff performs a comparison between two ScalingState records to
// determine if they are the same or not.
func ScalingStateDiff(stateA, stateB *structs.ScalingState) (isSame bool) {
	stateAHash, err := hashstructure.Hash(stateA, nil)
	if err != nil {
		logging.Error("helper/funcs: error hashing state record: %v", err)
	}

	stateBHash, err := hashstructure.Hash(stateB, nil)
	if err != nil {
		logging.Error("helper/funcs: error hashing state record: %v", err)
	}

	if stateAHash == stateBHash {
		isSame = true
	}
	return
}
