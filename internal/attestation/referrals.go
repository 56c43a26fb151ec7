package attestation

import (
	"go.uber.org/zap"

	"attestbot/internal/claim"
	"attestbot/internal/logger"
	"attestbot/internal/storage"
	"attestbot/internal/texts"
)

// HandlePaired greets a freshly paired device. A pairing secret that is an
// attested address records a pairing referral for the new device.
func (b *Bot) HandlePaired(deviceAddress, pairingSecret string) error {
	if _, err := b.readUserInfo(deviceAddress); err != nil {
		return err
	}
	b.send(deviceAddress, texts.Greeting(b.cfg))

	if !claim.IsValidAddress(pairingSecret) {
		return nil
	}
	attested, err := b.store.IsAddressAttested(pairingSecret)
	if err != nil {
		return err
	}
	if !attested {
		logger.Debug("pairing referrer not attested", zap.String("address", pairingSecret))
		return nil
	}
	logger.Info("paired via referral",
		zap.String("deviceAddress", deviceAddress),
		zap.String("referringAddress", pairingSecret))
	return b.store.CreateLinkReferral(pairingSecret, deviceAddress, storage.ReferralTypePairing)
}

// RecordCookieReferral records a tracking-cookie referral reported by the
// landing site once the referred user's wallet pairs.
func (b *Bot) RecordCookieReferral(referringUserAddress, deviceAddress string) error {
	if !claim.IsValidAddress(referringUserAddress) {
		logger.Debug("ignoring invalid cookie referrer", zap.String("address", referringUserAddress))
		return nil
	}
	return b.store.CreateLinkReferral(referringUserAddress, deviceAddress, storage.ReferralTypeCookie)
}
