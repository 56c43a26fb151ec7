package attestation

import (
	"attestbot/internal/faults"
	"attestbot/internal/ledger"
	"attestbot/internal/storage"
	"attestbot/internal/texts"
)

// checkPayment classifies a detected payment against its claim. A non-nil
// reject is terminal for this unit; resetAddress additionally clears the
// user's bound address so the next message restarts the flow.
func (b *Bot) checkPayment(payment ledger.Payment, row *storage.ReceivingAddress) (reject *faults.UserInputError, resetAddress bool, err error) {
	if payment.Asset != "" {
		return faults.UserInput(texts.ReceivedPaymentInWrongAsset()), false, nil
	}

	if payment.Amount < row.Price {
		challenge := row.Username + " " + row.UserAddress
		return faults.UserInput(texts.ReceivedLessThanExpected(
			b.cfg, payment.Amount, row.Price, row.ReceivingAddress, challenge)), false, nil
	}

	authors, err := b.gateway.PaymentAuthors(payment.Unit)
	if err != nil {
		return nil, false, faults.Transient(err)
	}

	if len(authors) != 1 {
		return faults.UserInput(texts.ReceivedPaymentNotSingleAddress()), true, nil
	}
	if authors[0] != row.UserAddress {
		return faults.UserInput(texts.ReceivedPaymentFromUnexpectedAddress(row.UserAddress)), true, nil
	}
	return nil, false, nil
}
