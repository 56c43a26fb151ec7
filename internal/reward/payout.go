package reward

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"attestbot/internal/faults"
	"attestbot/internal/keylock"
	"attestbot/internal/ledger"
	"attestbot/internal/logger"
	"attestbot/internal/storage"
)

// Kind tags which reward table a record belongs to.
type Kind = storage.RewardKind

const (
	KindAttestation = storage.RewardKindAttestation
	KindReferral    = storage.RewardKindReferral
)

// Record is a reward row ready to be inserted; the concrete type carries its
// kind, so no dynamic table-name routing is needed.
type Record interface {
	Kind() Kind
	insert(store storage.Storage) (bool, error)
}

type AttestationReward storage.RewardUnit

func (AttestationReward) Kind() Kind { return KindAttestation }

func (r AttestationReward) insert(store storage.Storage) (bool, error) {
	row := storage.RewardUnit(r)
	return store.InsertRewardUnit(&row)
}

type ReferralReward storage.ReferralRewardUnit

func (ReferralReward) Kind() Kind { return KindReferral }

func (r ReferralReward) insert(store storage.Storage) (bool, error) {
	row := storage.ReferralRewardUnit(r)
	return store.InsertReferralRewardUnit(&row)
}

// RecordReward inserts the reward row. A duplicate attestation beneficiary is
// the intended first-time-bonus outcome and is skipped silently; a duplicate
// referral reward should be structurally impossible and raises an operator
// alert.
func (e *Engine) RecordReward(record Record) (bool, error) {
	inserted, err := record.insert(e.store)
	if err != nil {
		return false, err
	}
	if !inserted {
		switch record.Kind() {
		case KindReferral:
			e.notifier.NotifyAdmin("duplicate referral reward",
				fmt.Sprintf("referral reward already written: %+v", record))
		default:
			logger.Debug("beneficiary already rewarded, skipping", zap.Any("record", record))
		}
	}
	return inserted, nil
}

// SendAndWriteReward pays a recorded reward under the transaction guard and
// writes the payout reference. Amount and destination were fixed at record
// time, so the operation is safe to retry.
func (e *Engine) SendAndWriteReward(kind Kind, transactionID int64) error {
	release := e.locks.Acquire(keylock.TxKey(transactionID))
	defer release()

	row, err := e.store.GetRewardPayout(kind, transactionID)
	if errors.Is(err, storage.ErrNotFound) {
		return faults.Invariant("no %s reward record for tx %d", kind, transactionID)
	}
	if err != nil {
		return err
	}

	if row.RewardDate != nil { // already sent
		return nil
	}
	if row.ContractReward > 0 && row.ContractAddress == nil {
		return faults.Invariant("no contract address for %s reward, tx %d", kind, transactionID)
	}

	var outputs []ledger.Output
	if row.Reward > 0 {
		outputs = append(outputs, ledger.Output{Address: row.UserAddress, Amount: row.Reward})
	}
	if row.ContractReward > 0 {
		outputs = append(outputs, ledger.Output{Address: *row.ContractAddress, Amount: row.ContractReward})
	}
	if len(outputs) == 0 {
		return faults.Invariant("no amounts in %s reward, tx %d", kind, transactionID)
	}

	unit, err := e.gateway.SendPayment(outputs, []string{e.distributionAddress})
	if err != nil {
		logger.Error("failed to send reward", zap.String("kind", string(kind)), zap.Int64("transactionID", transactionID), zap.Error(err))
		balance, balanceErr := e.gateway.ReadBalance(e.distributionAddress)
		if balanceErr != nil {
			balance = -1
		}
		e.notifier.NotifyAdmin("failed to send reward", fmt.Sprintf("%v, balance: %d", err, balance))
		return faults.Transient(err)
	}

	if err := e.store.MarkRewardPaid(kind, transactionID, unit); err != nil {
		return err
	}

	logger.Info("sent reward", zap.String("kind", string(kind)), zap.Int64("transactionID", transactionID), zap.String("unit", unit))
	e.msg.SendText(row.DeviceAddress, "Sent the "+string(kind)+" reward")
	return nil
}

// RetrySendingRewards is the periodic sweep over reward records lacking a
// payout reference.
func (e *Engine) RetrySendingRewards() {
	for _, kind := range []Kind{KindAttestation, KindReferral} {
		ids, err := e.store.ListUnpaidRewards(kind, 5)
		if err != nil {
			logger.Error("failed to list unpaid rewards", zap.String("kind", string(kind)), zap.Error(err))
			continue
		}
		for _, transactionID := range ids {
			if err := e.SendAndWriteReward(kind, transactionID); err != nil {
				if faults.IsInvariant(err) {
					logger.DPanic("reward payout invariant violation", zap.Int64("transactionID", transactionID), zap.Error(err))
					continue
				}
				logger.Debug("reward payout attempt failed, will retry", zap.Int64("transactionID", transactionID), zap.Error(err))
			}
		}
	}
}
