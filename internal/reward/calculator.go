package reward

import (
	"github.com/shopspring/decimal"

	"attestbot/internal/config"
	"attestbot/internal/faults"
)

// TierUSD selects the reward tier: the largest USD amount among thresholds the
// score meets or exceeds. The table is unordered; zero means no reward at all.
func TierUSD(tiers []config.ReputationReward, reputation int) float64 {
	var reward float64
	for _, tier := range tiers {
		if reputation >= tier.Threshold && reward < tier.RewardInUSD {
			reward = tier.RewardInUSD
		}
	}
	return reward
}

// Split converts a USD total to native units and divides it into the
// immediately payable cash portion and the vesting portion. The vesting
// portion is rounded; cash takes the remainder, so the two always sum to the
// full converted amount.
func (e *Engine) Split(usdTotal float64, kind Kind) (cash int64, vesting int64, err error) {
	full, err := e.rates.PriceInNativeUnits(decimal.NewFromFloat(usdTotal))
	if err != nil {
		return 0, 0, faults.Transient(err)
	}

	vestingShare := e.cfg.VestingShare(kind == KindReferral)
	vesting = decimal.NewFromInt(full).Mul(vestingShare).Round(0).IntPart()
	cash = full - vesting
	return cash, vesting, nil
}
