package attestation

import (
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"attestbot/internal/config"
	"attestbot/internal/faults"
	"attestbot/internal/keylock"
	"attestbot/internal/ledger"
	"attestbot/internal/logger"
	"attestbot/internal/messaging"
	"attestbot/internal/notify"
	"attestbot/internal/reward"
	"attestbot/internal/storage"
)

// Bot is the attribution-and-reward pipeline: it verifies inbound payments and
// signed-message proofs, posts attestations idempotently, and hands reward
// work to the reward engine.
type Bot struct {
	cfg      *config.Config
	store    storage.Storage
	gateway  ledger.Gateway
	msg      messaging.Messenger
	notifier notify.Notifier
	locks    *keylock.Service
	rewards  *reward.Engine

	attestorAddress string
}

func NewBot(
	cfg *config.Config,
	store storage.Storage,
	gateway ledger.Gateway,
	msg messaging.Messenger,
	notifier notify.Notifier,
	locks *keylock.Service,
	rewards *reward.Engine,
	attestorAddress string,
) *Bot {
	return &Bot{
		cfg:             cfg,
		store:           store,
		gateway:         gateway,
		msg:             msg,
		notifier:        notifier,
		locks:           locks,
		rewards:         rewards,
		attestorAddress: attestorAddress,
	}
}

func (b *Bot) send(deviceAddress, text string) {
	b.msg.SendText(deviceAddress, text)
}

// readUserInfo loads the user for a device, creating the row on first contact.
func (b *Bot) readUserInfo(deviceAddress string) (*storage.User, error) {
	user, err := b.store.GetUser(deviceAddress)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}

	if err := b.store.CreateUser(&storage.User{
		DeviceAddress: deviceAddress,
		UniqueID:      uuid.NewString(),
	}); err != nil {
		return nil, err
	}
	return b.store.GetUser(deviceAddress)
}

// reportError classifies an error at the event boundary. Invariant violations
// abort loudly; transient failures wait for the next sweep.
func (b *Bot) reportError(err error) {
	if err == nil {
		return
	}
	switch {
	case faults.IsInvariant(err):
		logger.DPanic("invariant violation", zap.Error(err))
	case faults.IsTransient(err):
		logger.Debug("transient failure, will retry on next sweep", zap.Error(err))
	default:
		logger.Error("operation failed", zap.Error(err))
	}
}
