package attestation

import (
	"math"
	"time"

	"go.uber.org/zap"

	"attestbot/internal/logger"
	"attestbot/internal/texts"
)

// LogReputation converts steem's raw reputation to the familiar log scale
// (new accounts start at 25).
func LogReputation(raw int64) int {
	if raw == 0 {
		return 25
	}
	sign := 1.0
	if raw < 0 {
		sign = -1.0
	}
	scaled := math.Max(math.Log10(math.Abs(float64(raw)))-9, 0) * sign * 9
	return int(math.Floor(scaled)) + 25
}

// HandleProfileVerified is called by the login callback once the user has
// proven the username. It caches reputation and eligibility on the receiving
// address and prompts for the next step.
func (b *Bot) HandleProfileVerified(deviceAddress, username string, rawReputation int64, accountCreated time.Time) error {
	user, err := b.readUserInfo(deviceAddress)
	if err != nil {
		return err
	}
	if user.UserAddress == nil {
		b.send(deviceAddress, texts.InsertMyAddress())
		return nil
	}

	if err := b.store.SetUsername(deviceAddress, &username); err != nil {
		return err
	}
	user.Username = &username

	receivingAddress, postPublicly, err := b.readOrAssignReceivingAddress(user)
	if err != nil {
		return err
	}

	reputation := LogReputation(rawReputation)
	cutoff, err := b.cfg.EligibilityCutoffDate()
	if err != nil {
		return err
	}
	isEligible := accountCreated.Before(cutoff)
	if err := b.store.SetProfileCache(receivingAddress, reputation, isEligible); err != nil {
		return err
	}
	logger.Info("profile verified",
		zap.String("deviceAddress", deviceAddress),
		zap.String("username", username),
		zap.Int("reputation", reputation),
		zap.Bool("isEligible", isEligible))

	response := "Your steem username is " + username + "."
	if postPublicly == nil {
		b.send(deviceAddress, appendPart(response, texts.PrivateOrPublic()))
		return nil
	}
	challenge := username + " " + *user.UserAddress
	response = appendPart(response, texts.PleasePay(b.cfg, receivingAddress, b.cfg.PriceInBytes, challenge))
	if *postPublicly {
		response = appendPart(response, texts.PublicChosen(username))
	} else {
		response = appendPart(response, texts.PrivateChosen())
	}
	b.send(deviceAddress, response)
	return nil
}
