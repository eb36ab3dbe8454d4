package chain

import (
	"math/big"

	"github.com/btcforknode/headerchain/powtarget"
)

// RetargetInterval is the number of headers between difficulty
// adjustments.
const RetargetInterval = 2016

// TargetTimespan is the intended number of seconds RetargetInterval
// headers should span, two weeks at the ten-minute block time.
const TargetTimespan = 14 * 24 * 60 * 60

// maxAdjustmentFactor bounds how far a single retarget can move the
// target in either direction.
const maxAdjustmentFactor = 4

// NextWorkRequired computes the compact target for the header
// following the one at height lastHeight, given the timestamps of the
// first and last headers of the just-completed retarget window. It is
// a no-op (returns lastBits unchanged) except at interval boundaries,
// matching the retarget cadence of Bitcoin Core's GetNextWorkRequired.
func NextWorkRequired(net *Network, lastHeight int, lastBits uint32, firstBlockTime, lastBlockTime uint32) uint32 {
	if (lastHeight+1)%RetargetInterval != 0 {
		return lastBits
	}

	actualTimespan := int64(lastBlockTime) - int64(firstBlockTime)
	actualTimespan = clampTimespan(actualTimespan)

	target, ok := powtarget.CompactToTarget(lastBits)
	if !ok {
		return net.PowLimitBits
	}

	newTarget := new(big.Int).SetBytes(target[:])
	newTarget.Mul(newTarget, big.NewInt(actualTimespan))
	newTarget.Div(newTarget, big.NewInt(TargetTimespan))

	limit, ok := powtarget.CompactToTarget(net.PowLimitBits)
	if ok {
		limitInt := new(big.Int).SetBytes(limit[:])
		if newTarget.Cmp(limitInt) > 0 {
			newTarget = limitInt
		}
	}

	var out [powtarget.Size]byte
	newTarget.FillBytes(out[:])
	return powtarget.TargetToCompact(out)
}

func clampTimespan(actual int64) int64 {
	min := int64(TargetTimespan / maxAdjustmentFactor)
	max := int64(TargetTimespan * maxAdjustmentFactor)
	if actual < min {
		return min
	}
	if actual > max {
		return max
	}
	return actual
}
