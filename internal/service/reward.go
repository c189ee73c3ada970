package service

import (
	"fmt"
	"math/big"

	"github.com/holiman/uint256"
)

// RewardShares are the percentages for ranks 1 to 3. Ranks 2 and 3 are
// rounded down and rank 1 receives the rest.
var RewardShares = [3]uint64{50, 30, 20}

// SplitReward divides total (wei) 50/30/20 across the top three ranks using
// 256-bit integer math. The three shares always sum to total exactly.
func SplitReward(total *big.Int) ([3]*big.Int, error) {
	var out [3]*big.Int
	if total == nil || total.Sign() < 0 {
		return out, fmt.Errorf("%w: %v", ErrInvalidReward, total)
	}
	t, overflow := uint256.FromBig(total)
	if overflow {
		return out, fmt.Errorf("%w: %s exceeds 256 bits", ErrInvalidReward, total)
	}

	hundred := uint256.NewInt(100)
	var lower [2]*uint256.Int
	for i, pct := range RewardShares[1:] {
		share, overflow := new(uint256.Int).MulDivOverflow(t, uint256.NewInt(pct), hundred)
		if overflow {
			return out, fmt.Errorf("%w: share overflow", ErrInvalidReward)
		}
		lower[i] = share
	}

	first := new(uint256.Int).Sub(t, lower[0])
	first.Sub(first, lower[1])

	out[0] = first.ToBig()
	out[1] = lower[0].ToBig()
	out[2] = lower[1].ToBig()
	return out, nil
}
