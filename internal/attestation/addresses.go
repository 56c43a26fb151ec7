package attestation

import (
	"errors"
	"time"

	"go.uber.org/zap"

	"attestbot/internal/faults"
	"attestbot/internal/logger"
	"attestbot/internal/storage"
)

// readOrAssignReceivingAddress returns the payment address bound to the
// user's (device, address, username) triple, issuing a fresh one on first
// use. Serialized per device so concurrent messages cannot race two issues
// for the same triple.
func (b *Bot) readOrAssignReceivingAddress(user *storage.User) (string, *bool, error) {
	release := b.locks.Acquire(user.DeviceAddress)
	defer release()

	row, err := b.store.GetReceivingAddress(user.DeviceAddress, *user.UserAddress, *user.Username)
	if err == nil {
		return row.ReceivingAddress, row.PostPublicly, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return "", nil, err
	}

	address, err := b.gateway.IssuePaymentAddress()
	if err != nil {
		return "", nil, faults.Transient(err)
	}
	if err := b.store.CreateReceivingAddress(&storage.ReceivingAddress{
		ReceivingAddress: address,
		DeviceAddress:    user.DeviceAddress,
		UserAddress:      *user.UserAddress,
		Username:         *user.Username,
		Price:            b.cfg.PriceInBytes,
		LastPriceDate:    time.Now(),
	}); err != nil {
		return "", nil, err
	}
	logger.Info("issued receiving address",
		zap.String("deviceAddress", user.DeviceAddress),
		zap.String("receivingAddress", address))
	return address, nil, nil
}
