package attestation

import (
	"encoding/base64"
	"errors"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"attestbot/internal/claim"
	"attestbot/internal/logger"
	"attestbot/internal/storage"
	"attestbot/internal/texts"
)

var signedMessageRe = regexp.MustCompile(`\(signed-message:(.+?)\)`)

// Respond drives the chat flow: bind an address, prove the username, choose
// visibility, then pay or sign. Every inbound text gets exactly one reply.
func (b *Bot) Respond(deviceAddress, text string) error {
	return b.respond(deviceAddress, strings.TrimSpace(text), "")
}

func (b *Bot) respond(deviceAddress, text, response string) error {
	user, err := b.readUserInfo(deviceAddress)
	if err != nil {
		return err
	}

	if claim.IsValidAddress(text) {
		address := text
		if err := b.store.SetUserAddress(deviceAddress, &address); err != nil {
			return err
		}
		if err := b.store.SetUsername(deviceAddress, nil); err != nil {
			return err
		}
		user.UserAddress = &address
		user.Username = nil
		response = appendPart(response, texts.GoingToAttestAddress(address))
	}

	if user.UserAddress == nil {
		b.send(deviceAddress, appendPart(response, texts.InsertMyAddress()))
		return nil
	}
	if user.Username == nil {
		b.send(deviceAddress, appendPart(response, texts.ProveUsername(b.cfg.LoginURL(user.UniqueID))))
		return nil
	}

	receivingAddress, postPublicly, err := b.readOrAssignReceivingAddress(user)
	if err != nil {
		return err
	}

	if text == "private" || text == "public" {
		public := text == "public"
		if err := b.store.SetVisibility(deviceAddress, *user.UserAddress, *user.Username, public); err != nil {
			return err
		}
		postPublicly = &public
		if public {
			response = appendPart(response, texts.PublicChosen(*user.Username))
		} else {
			response = appendPart(response, texts.PrivateChosen())
		}
	}
	if postPublicly == nil {
		b.send(deviceAddress, appendPart(response, texts.PrivateOrPublic()))
		return nil
	}

	if text == "again" {
		b.send(deviceAddress, appendPart(response, texts.ProveUsername(b.cfg.LoginURL(user.UniqueID))))
		return nil
	}

	challenge := *user.Username + " " + *user.UserAddress
	if matches := signedMessageRe.FindStringSubmatch(text); matches != nil {
		return b.handleSignedMessage(user, receivingAddress, challenge, matches[1])
	}

	status, err := b.store.GetLatestPaymentStatus(receivingAddress)
	if errors.Is(err, storage.ErrNotFound) {
		b.send(deviceAddress, appendPart(response,
			texts.PleasePay(b.cfg, receivingAddress, b.cfg.PriceInBytes, challenge)))
		return nil
	}
	if err != nil {
		return err
	}

	if !status.IsConfirmed {
		b.send(deviceAddress, appendPart(response, texts.ReceivedYourPayment(status.ReceivedAmount)))
		return nil
	}
	if text == "private" || text == "public" {
		// visibility switch acknowledged above, nothing more to say
		b.send(deviceAddress, response)
		return nil
	}
	if status.AttestationDate != nil {
		b.send(deviceAddress, appendPart(response, texts.AlreadyAttested(*status.AttestationDate)))
		return nil
	}
	b.send(deviceAddress, appendPart(response, texts.PaymentIsConfirmed()))
	return nil
}

// handleSignedMessage verifies a pasted signed-message proof of address
// ownership and attests without payment.
func (b *Bot) handleSignedMessage(user *storage.User, receivingAddress, challenge, blob string) error {
	raw, err := base64.StdEncoding.DecodeString(blob)
	if err != nil {
		logger.Debug("undecodable signed message", zap.Error(err))
		return nil
	}

	proof, err := b.gateway.ValidateSignedMessage(raw)
	if err != nil {
		b.send(user.DeviceAddress, err.Error())
		return nil
	}
	if proof.SignedMessage != challenge {
		b.send(user.DeviceAddress,
			"You signed a wrong message: "+proof.SignedMessage+", expected: "+challenge)
		return nil
	}
	if len(proof.Authors) != 1 || proof.Authors[0] != *user.UserAddress {
		b.send(user.DeviceAddress,
			"You signed the message with a wrong address, expected: "+*user.UserAddress)
		return nil
	}

	recent, err := b.store.HasRecentSignedMessage(*user.UserAddress, time.Now().Add(-24*time.Hour))
	if err != nil {
		return err
	}
	if recent {
		b.send(user.DeviceAddress, "You are already attested.")
		return nil
	}

	transactionID, err := b.store.CreateSignedProof(receivingAddress, *user.UserAddress, string(raw))
	if err != nil {
		return err
	}

	row, err := b.store.GetReceivingAddressByAddress(receivingAddress)
	if err != nil {
		return err
	}
	return b.attest(storage.PaymentContext{
		TransactionID: transactionID,
		DeviceAddress: row.DeviceAddress,
		UserAddress:   row.UserAddress,
		Username:      row.Username,
		Reputation:    row.Reputation,
		IsEligible:    row.IsEligible,
		PostPublicly:  row.PostPublicly,
	}, storage.ProofTypeSignature)
}

func appendPart(response, part string) string {
	if response == "" {
		return part
	}
	return response + "\n\n" + part
}
