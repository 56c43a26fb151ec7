package attestation

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"attestbot/internal/claim"
	"attestbot/internal/faults"
	"attestbot/internal/keylock"
	"attestbot/internal/logger"
	"attestbot/internal/storage"
	"attestbot/internal/texts"
)

// PostAttestation broadcasts the attestation for a reserved transaction. It is
// idempotent: once the unit is recorded, repeat calls return without posting.
func (b *Bot) PostAttestation(transactionID int64) error {
	release := b.locks.Acquire(keylock.TxKey(transactionID))
	defer release()

	row, err := b.store.GetAttestationContext(transactionID)
	if errors.Is(err, storage.ErrNotFound) {
		return faults.Invariant("no attestation reservation for tx %d", transactionID)
	}
	if err != nil {
		return err
	}
	if row.AttestationDate != nil {
		logger.Debug("attestation already posted", zap.Int64("transactionID", transactionID))
		return nil
	}
	if row.Reputation == nil {
		return faults.Invariant("posting attestation for tx %d without known reputation", transactionID)
	}

	postPublicly := row.PostPublicly != nil && *row.PostPublicly
	payload, srcProfile := claim.Build(row.UserAddress, row.Username, *row.Reputation, postPublicly, b.cfg.Salt)
	raw := payload.Marshal()

	unit, err := b.gateway.ComposeAndBroadcastAttestation(b.attestorAddress, payload.Hash(), raw)
	if err != nil {
		balance, balanceErr := b.gateway.ReadBalance(b.attestorAddress)
		if balanceErr != nil {
			logger.Error("failed to read attestor balance", zap.Error(balanceErr))
		}
		b.notifier.NotifyAdmin("attestation failed",
			fmt.Sprintf("tx %d: %v, attestor balance %d", transactionID, err, balance))
		return faults.Transient(err)
	}
	if err := b.store.MarkAttested(transactionID, unit, string(raw)); err != nil {
		return err
	}
	logger.Info("posted attestation",
		zap.Int64("transactionID", transactionID),
		zap.String("unit", unit),
		zap.String("address", row.UserAddress))

	text := "Now your steem username is attested, see the attestation unit: " + b.cfg.ExplorerURL + unit
	if srcProfile != nil {
		text += "\n\nClick here to save the profile in your wallet: [private profile](profile:" +
			claim.PrivateProfileBlob(unit, payload, srcProfile) +
			"). You will be able to use it to access the services that require a proven steem username."
	}
	text += "\n\n" + texts.WeHaveReferralProgram(b.cfg, row.UserAddress)
	b.send(row.DeviceAddress, text)
	return nil
}

// RetryPostingAttestations sweeps reservations whose unit never made it to the
// ledger and posts them again.
func (b *Bot) RetryPostingAttestations() {
	logger.Debug("retrying to post attestations...")
	rows, err := b.store.ListPendingAttestations()
	if err != nil {
		logger.Error("failed to list pending attestations", zap.Error(err))
		return
	}
	for _, row := range rows {
		if err := b.PostAttestation(row.TransactionID); err != nil {
			b.reportError(err)
		}
	}
	logger.Debug("retrying to post attestations... done")
}
