package reward

import (
	"attestbot/internal/config"
	"attestbot/internal/keylock"
	"attestbot/internal/ledger"
	"attestbot/internal/messaging"
	"attestbot/internal/notify"
	"attestbot/internal/rates"
	"attestbot/internal/storage"
)

// Engine computes, records and pays out attestation and referral rewards from
// the distribution address.
type Engine struct {
	cfg      *config.Config
	store    storage.Storage
	gateway  ledger.Gateway
	msg      messaging.Messenger
	rates    rates.Source
	notifier notify.Notifier
	locks    *keylock.Service
	issuer   ContractIssuer

	distributionAddress string
}

func NewEngine(
	cfg *config.Config,
	store storage.Storage,
	gateway ledger.Gateway,
	msg messaging.Messenger,
	rateSource rates.Source,
	notifier notify.Notifier,
	locks *keylock.Service,
	issuer ContractIssuer,
	distributionAddress string,
) *Engine {
	return &Engine{
		cfg:                 cfg,
		store:               store,
		gateway:             gateway,
		msg:                 msg,
		rates:               rateSource,
		notifier:            notifier,
		locks:               locks,
		issuer:              issuer,
		distributionAddress: distributionAddress,
	}
}
