package attestation

import (
	"fmt"

	"go.uber.org/zap"

	"attestbot/internal/claim"
	"attestbot/internal/faults"
	"attestbot/internal/keylock"
	"attestbot/internal/logger"
	"attestbot/internal/reward"
	"attestbot/internal/storage"
	"attestbot/internal/texts"
)

// attest reserves the attestation for a verified proof and records the
// attestation and referral rewards. The reservation and reward rows are
// written under the per-transaction guard; posting and payout run afterwards,
// each taking the guard on its own.
func (b *Bot) attest(ctx storage.PaymentContext, proofType storage.ProofType) error {
	followups, err := b.attestLocked(ctx, proofType)
	for _, followup := range followups {
		followup()
	}
	return err
}

func (b *Bot) attestLocked(ctx storage.PaymentContext, proofType storage.ProofType) ([]func(), error) {
	release := b.locks.Acquire(keylock.TxKey(ctx.TransactionID))
	defer release()

	if ctx.Reputation == nil {
		return nil, faults.Invariant("attesting tx %d without known reputation", ctx.TransactionID)
	}
	reputation := *ctx.Reputation

	if err := b.store.ReserveAttestation(ctx.TransactionID); err != nil {
		return nil, err
	}
	followups := []func(){
		func() { b.reportError(b.PostAttestation(ctx.TransactionID)) },
	}

	rewardInUSD := reward.TierUSD(b.cfg.ReputationRewards, reputation)
	if rewardInUSD == 0 {
		logger.Debug("no reward for reputation", zap.Int("reputation", reputation))
		return followups, nil
	}

	if ctx.IsEligible != nil && !*ctx.IsEligible {
		logger.Info("user not eligible for reward",
			zap.String("username", ctx.Username),
			zap.String("address", ctx.UserAddress))
		b.send(ctx.DeviceAddress, texts.NotEligible())
		return followups, nil
	}

	if proofType == storage.ProofTypeSignature {
		rewardInUSD *= b.cfg.SigningRewardShare
		if rewardInUSD == 0 {
			return followups, nil
		}
	}

	cash, vesting, err := b.rewards.Split(rewardInUSD, reward.KindAttestation)
	if err != nil {
		// the sweeps only retry recorded rewards, so a failure here loses the
		// welcome bonus for good
		b.notifier.NotifyAdmin("failed to compute attestation reward",
			fmt.Sprintf("tx %d: %v; the reward is not recorded and will not be retried", ctx.TransactionID, err))
		return followups, err
	}

	postPublicly := ctx.PostPublicly != nil && *ctx.PostPublicly
	payload, _ := claim.Build(ctx.UserAddress, ctx.Username, reputation, postPublicly, b.cfg.Salt)
	userID := payload.UserID()

	inserted, err := b.rewards.RecordReward(reward.AttestationReward{
		TransactionID:  ctx.TransactionID,
		DeviceAddress:  ctx.DeviceAddress,
		UserAddress:    ctx.UserAddress,
		Username:       ctx.Username,
		UserID:         userID,
		Reward:         cash,
		ContractReward: vesting,
	})
	if err != nil {
		return followups, err
	}
	if !inserted {
		// beneficiary already rewarded once, nothing more to do
		return followups, nil
	}

	_, vestingDate, err := b.rewards.GetOrCreateContract(ctx.UserAddress, ctx.DeviceAddress)
	if err != nil {
		return followups, err
	}
	b.send(ctx.DeviceAddress, texts.AttestedFirstTimeBonus(b.cfg, rewardInUSD, cash, vesting, vestingDate))
	followups = append(followups, func() {
		b.reportError(b.rewards.SendAndWriteReward(reward.KindAttestation, ctx.TransactionID))
	})

	referralFollowup, err := b.recordReferralReward(ctx, userID, reputation)
	if referralFollowup != nil {
		followups = append(followups, referralFollowup)
	}
	return followups, err
}

// recordReferralReward looks for a referrer of the newly attested user and
// records the referral reward. The referral reward is sized by the new user's
// reputation tier, same as the welcome bonus.
func (b *Bot) recordReferralReward(ctx storage.PaymentContext, newUserID string, reputation int) (func(), error) {
	referralInUSD := reward.TierUSD(b.cfg.ReputationRewards, reputation)
	if referralInUSD == 0 {
		return nil, nil
	}
	cash, vesting, err := b.rewards.Split(referralInUSD, reward.KindReferral)
	if err != nil {
		b.notifier.NotifyAdmin("failed to compute referral reward",
			fmt.Sprintf("tx %d: %v; the reward is not recorded and will not be retried", ctx.TransactionID, err))
		return nil, err
	}

	referrer, err := b.rewards.FindReferrer(ctx.PaymentUnit, ctx.UserAddress, ctx.DeviceAddress)
	if err != nil {
		return nil, err
	}
	if referrer == nil {
		logger.Debug("no referring user", zap.String("address", ctx.UserAddress))
		return nil, nil
	}

	_, vestingDate, err := b.rewards.GetOrCreateContract(referrer.UserAddress, referrer.DeviceAddress)
	if err != nil {
		return nil, err
	}

	inserted, err := b.rewards.RecordReward(reward.ReferralReward{
		TransactionID:  ctx.TransactionID,
		UserAddress:    referrer.UserAddress,
		UserID:         referrer.UserID,
		NewUserAddress: ctx.UserAddress,
		NewUserID:      newUserID,
		Reward:         cash,
		ContractReward: vesting,
	})
	if err != nil || !inserted {
		return nil, err
	}

	b.send(referrer.DeviceAddress, texts.ReferredUserBonus(b.cfg, referralInUSD, cash, vesting, vestingDate, ctx.Username))
	return func() {
		b.reportError(b.rewards.SendAndWriteReward(reward.KindReferral, ctx.TransactionID))
	}, nil
}
