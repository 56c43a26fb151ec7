package texts

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"attestbot/internal/config"
)

func gb(amount int64) string {
	return fmt.Sprintf("%.9g", float64(amount)/1e9)
}

func usd(amount float64) string {
	return fmt.Sprintf("%.2f", amount)
}

func Greeting(cfg *config.Config) string {
	tiers := make([]config.ReputationReward, len(cfg.ReputationRewards))
	copy(tiers, cfg.ReputationRewards)
	sort.Slice(tiers, func(i, j int) bool { return tiers[i].Threshold < tiers[j].Threshold })

	lines := make([]string, 0, len(tiers))
	for _, tier := range tiers {
		lines = append(lines, fmt.Sprintf("Reputation %d or above: $%s reward", tier.Threshold, usd(tier.RewardInUSD)))
	}

	var b strings.Builder
	b.WriteString("Here you can attest your steem username.\n\n")
	b.WriteString("Your steem username will be linked to your Byteball address, the link can be either made public (if you choose so) or saved privately in your wallet. ")
	b.WriteString("In the latter case, only a proof of attestation will be posted publicly on the distributed ledger.\n\n")
	if cfg.AllowProofByPayment {
		b.WriteString(fmt.Sprintf("The price of attestation is %s GB.  The payment is nonrefundable even if the attestation fails for any reason.\n\n", gb(cfg.PriceInBytes)))
	}
	b.WriteString("After you successfully attest your steem username for the first time, ")
	b.WriteString(fmt.Sprintf("you receive a reward in Bytes that depends on your reputation in Steem:\n\n%s\n\n", strings.Join(lines, "\n")))
	b.WriteString("Half of the reward will be immediately available, the other half will be locked on a smart contract and can be spent after 1 year.")
	return b.String()
}

func WeHaveReferralProgram(cfg *config.Config, userAddress string) string {
	inviteCode := "byteball:" + cfg.AttestorDevicePubKey + "@" + cfg.Hub + "#" + userAddress
	qrURL := cfg.Site + "/qr/?code=" + url.QueryEscape(inviteCode)
	ways := 3
	if cfg.AllowProofByPayment {
		ways = 4
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("Remember, we have a referral program: you get rewards by recommending new users to link their Steem and Byteball accounts.  There are %d ways to do it and ensure that the referrals are tracked to you:\n", ways))
	if cfg.AllowProofByPayment {
		b.WriteString("➡ you send Bytes from your attested address to a new user who is not attested yet, and he/she uses those Bytes to pay for a successful attestation;\n")
	}
	b.WriteString("➡ have new users scan this QR code with wallet app " + qrURL + " , which opens this attestation bot in the user's wallet, the wallet has to be already installed;\n")
	b.WriteString("➡ have new users copy-paste this to \"Chat > Add a new device > Accept invitation from the other device\" " + inviteCode + " , which opens this attestation bot in the user's wallet, the wallet has to be already installed;\n")
	b.WriteString("➡ have new users click this link (you can publish it e.g. on your blog) " + cfg.Site + "/#" + userAddress + " which sets a tracking cookie and redirects to wallet download.\n\n")
	b.WriteString("Your reward is exactly same as the new user's reward.  25% of your reward will be immediately available, the other 75% will be locked on a smart contract and can be spent after 1 year.")
	return b.String()
}

func InsertMyAddress() string {
	return "Please send me your address that you wish to attest (click ... and Insert my address).\n" +
		"Make sure you are in a single-address wallet. " +
		"If you don't have a single-address wallet, " +
		"please add one (burger menu, add wallet) and fund it with the amount sufficient to pay for the attestation."
}

func GoingToAttestAddress(address string) string {
	return fmt.Sprintf("Thanks, going to attest your BB address: %s.", address)
}

func PrivateOrPublic() string {
	return "Store your steem username privately in your wallet or post it publicly?\n\n" +
		"[private](command:private)\t[public](command:public)"
}

func PrivateChosen() string {
	return "Your steem username will be kept private and stored in your wallet.\n" +
		"Click [public](command:public) now if you changed your mind."
}

func PublicChosen(username string) string {
	return "Your steem username " + username + " will be posted into the public database and will be visible to everyone.  You cannot remove it later.\n\n" +
		"Click [private](command:private) now if you changed your mind."
}

func PleasePay(cfg *config.Config, receivingAddress string, price int64, challenge string) string {
	if cfg.AllowProofByPayment {
		text := fmt.Sprintf("Please pay for the attestation: [attestation payment](byteball:%s?amount=%d).\n\nAlternatively, you can prove ownership of your address by signing a message: [message](sign-message-request:%s)", receivingAddress, price, challenge)
		if cfg.SigningRewardShare == 1 {
			return text + "."
		}
		return text + fmt.Sprintf(", in this case your attestation reward (if any) will be %.0f%% of the normal reward.", cfg.SigningRewardShare*100)
	}
	return fmt.Sprintf("Please prove ownership of your address by signing a message: [message](sign-message-request:%s).", challenge)
}

func PleasePayOrPrivacy(cfg *config.Config, receivingAddress string, price int64, challenge string, postPublicly *bool) string {
	if postPublicly == nil {
		return PrivateOrPublic()
	}
	return PleasePay(cfg, receivingAddress, price, challenge)
}

func ReceivedLessThanExpected(cfg *config.Config, receivedAmount, price int64, receivingAddress, challenge string) string {
	return fmt.Sprintf("Received %d Bytes from you, which is less than the expected %d Bytes.\n\n%s",
		receivedAmount, price, PleasePay(cfg, receivingAddress, price, challenge))
}

func ReceivedPaymentInWrongAsset() string {
	return "Received payment in wrong asset"
}

func ReceivedPaymentNotSingleAddress() string {
	return "Received a payment but looks like it was not sent from a single-address wallet.  " + SwitchToSingleAddress()
}

func ReceivedPaymentFromUnexpectedAddress(expectedAddress string) string {
	return fmt.Sprintf("Received a payment but it was not sent from the expected address %s.  %s",
		expectedAddress, SwitchToSingleAddress())
}

func ReceivedAndAcceptedYourPayment(amount int64) string {
	return fmt.Sprintf("Received your payment of %s GB.", gb(amount))
}

func ReceivedYourPayment(amount int64) string {
	return fmt.Sprintf("Received your payment of %s GB, waiting for confirmation. It should take 5-15 minutes.", gb(amount))
}

func PaymentIsConfirmed() string {
	return "Your payment is confirmed."
}

func AttestedFirstTimeBonus(cfg *config.Config, rewardInUSD float64, rewardInBytes, contractRewardInBytes int64, vestingDate time.Time) string {
	contractRewardInUSD := rewardInUSD * cfg.RewardContractShare
	cashRewardInUSD := rewardInUSD - contractRewardInUSD
	text := fmt.Sprintf("You attested your steem username for the first time and will receive a welcome bonus of $%s (%s GB) from Byteball distribution fund.", usd(cashRewardInUSD), gb(rewardInBytes))
	if contractRewardInBytes > 0 {
		text += fmt.Sprintf("  You will also receive a reward of $%s (%s GB) that will be locked on a smart contract for %d year and can be spent only after %s.",
			usd(contractRewardInUSD), gb(contractRewardInBytes), cfg.ContractTermYears, vestingDate.Format("Mon Jan 2 2006"))
	}
	return text
}

func ReferredUserBonus(cfg *config.Config, rewardInUSD float64, rewardInBytes, contractRewardInBytes int64, vestingDate time.Time, username string) string {
	contractRewardInUSD := rewardInUSD * cfg.ReferralRewardContractShare
	cashRewardInUSD := rewardInUSD - contractRewardInUSD
	text := fmt.Sprintf("You referred user %s who has just verified his steem username and you will receive a reward of $%s (%s GB) from Byteball distribution fund.", username, usd(cashRewardInUSD), gb(rewardInBytes))
	if contractRewardInBytes > 0 {
		text += fmt.Sprintf("  You will also receive a reward of $%s (%s GB) that will be locked on a smart contract for %d year and can be spent only after %s.",
			usd(contractRewardInUSD), gb(contractRewardInBytes), cfg.ContractTermYears, vestingDate.Format("Mon Jan 2 2006"))
	}
	text += "\n\nThank you for bringing in a new byteballer, the value of the ecosystem grows with each new user!"
	return text
}

func SwitchToSingleAddress() string {
	return "Make sure you are in a single-address wallet, otherwise switch to a single-address wallet or create one and send me your address before paying."
}

func AlreadyAttested(attestationDate time.Time) string {
	return fmt.Sprintf("You were already attested at %s UTC. Attest [again](command: again)?", attestationDate.UTC().Format("2006-01-02 15:04:05"))
}

func ProveUsername(link string) string {
	return "To let us know your steem username and to prove it, please follow this link " + link + " and log into your steem account, then return to this chat."
}

func NotEligible() string {
	return "You are not eligible for attestation reward as your account was created after Jul 12, but you can still refer new users and earn referral rewards."
}
