package attestation

import (
	"fmt"

	"go.uber.org/zap"

	"attestbot/internal/logger"
)

const consolidationKey = "moveFundsToAttestorAddresses"

// outputs spent in one unit; more authors would not fit the unit size cap
const maxAuthorsPerUnit = 16

// ConsolidateFunds sweeps received attestation payments from the per-user
// receiving addresses back to the attestor address. At most one sweep runs at
// a time; an overlapping tick waits rather than double-spending.
func (b *Bot) ConsolidateFunds() {
	release := b.locks.Acquire(consolidationKey)
	defer release()

	logger.Debug("consolidating funds...")
	addresses, err := b.store.ListReceivingAddresses()
	if err != nil {
		logger.Error("failed to list receiving addresses", zap.Error(err))
		return
	}
	if len(addresses) == 0 {
		return
	}

	spendable, err := b.gateway.SpendableAddresses(addresses, maxAuthorsPerUnit)
	if err != nil {
		logger.Error("failed to find spendable addresses", zap.Error(err))
		return
	}
	if len(spendable) == 0 {
		logger.Debug("consolidating funds... nothing to move")
		return
	}

	unit, err := b.gateway.SendAll(b.attestorAddress, spendable)
	if err != nil {
		balance, balanceErr := b.gateway.ReadBalance(spendable[0])
		if balanceErr != nil {
			balance = -1
		}
		b.notifier.NotifyAdmin("failed to move funds to attestor address",
			fmt.Sprintf("%v, balance of %s: %d", err, spendable[0], balance))
		return
	}
	logger.Info("consolidating funds... done",
		zap.String("unit", unit),
		zap.Int("addresses", len(spendable)))
}
