package attestation

import (
	"errors"

	"go.uber.org/zap"

	"attestbot/internal/ledger"
	"attestbot/internal/logger"
	"attestbot/internal/storage"
	"attestbot/internal/texts"
)

// HandleNewPayments inspects freshly seen units for outputs to any of our
// receiving addresses and accepts or rejects each detected payment.
func (b *Bot) HandleNewPayments(units []string) error {
	addresses, err := b.store.ListReceivingAddresses()
	if err != nil {
		return err
	}
	if len(addresses) == 0 {
		return nil
	}

	payments, err := b.gateway.OutputsToAddresses(units, addresses)
	if err != nil {
		return err
	}
	for _, payment := range payments {
		if err := b.handleDetectedPayment(payment); err != nil {
			b.reportError(err)
		}
	}
	return nil
}

func (b *Bot) handleDetectedPayment(payment ledger.Payment) error {
	logger.Debug("detected payment",
		zap.String("unit", payment.Unit),
		zap.String("address", payment.ReceivingAddress),
		zap.Int64("amount", payment.Amount))

	row, err := b.store.GetReceivingAddressByAddress(payment.ReceivingAddress)
	if errors.Is(err, storage.ErrNotFound) {
		// output to a foreign address that happened to be in the same unit
		return nil
	}
	if err != nil {
		return err
	}

	reject, resetAddress, err := b.checkPayment(payment, row)
	if err != nil {
		return err
	}
	if reject != nil {
		if resetAddress {
			if err := b.store.SetUserAddress(row.DeviceAddress, nil); err != nil {
				return err
			}
		}
		if err := b.store.CreateRejectedPayment(&storage.RejectedPayment{
			ReceivingAddress: row.ReceivingAddress,
			PaymentUnit:      payment.Unit,
			Price:            row.Price,
			ReceivedAmount:   payment.Amount,
			Error:            reject.Reply,
		}); err != nil {
			return err
		}
		b.send(row.DeviceAddress, reject.Reply)
		return nil
	}

	if _, err := b.store.CreateAcceptedPayment(row.ReceivingAddress, row.Price, payment.Amount, payment.Unit); err != nil {
		return err
	}

	if b.cfg.AcceptUnconfirmedPayments {
		b.send(row.DeviceAddress, texts.ReceivedAndAcceptedYourPayment(payment.Amount))
		return b.HandleConfirmedUnits([]string{payment.Unit})
	}
	b.send(row.DeviceAddress, texts.ReceivedYourPayment(payment.Amount))
	return nil
}

// HandleConfirmedUnits marks accepted payments in the given units as confirmed
// and kicks off attestation for each.
func (b *Bot) HandleConfirmedUnits(units []string) error {
	rows, err := b.store.GetAcceptedPaymentsByUnits(units)
	if err != nil {
		return err
	}
	for _, row := range rows {
		if err := b.store.MarkPaymentConfirmed(row.TransactionID); err != nil {
			return err
		}
		if !b.cfg.AcceptUnconfirmedPayments {
			b.send(row.DeviceAddress, texts.PaymentIsConfirmed())
		}
		if err := b.attest(row, storage.ProofTypePayment); err != nil {
			b.reportError(err)
		}
	}
	return nil
}
