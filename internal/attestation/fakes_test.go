package attestation

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"attestbot/internal/config"
	"attestbot/internal/keylock"
	"attestbot/internal/ledger"
	"attestbot/internal/rates"
	"attestbot/internal/reward"
	"attestbot/internal/storage"
)

// fakeGateway scripts the wallet collaborator for bot tests.
type fakeGateway struct {
	paymentsByUnit map[string][]ledger.Payment
	authorsByUnit  map[string][]string
	sourcesByUnit  map[string][]ledger.FundingSource
	proof          *ledger.SignedMessageProof
	proofErr       error

	issuedAddresses int
	attestations    [][]byte
	attestErr       error
	sentPayments    [][]ledger.Output
	sweeps          []string
	sweepErr        error
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		paymentsByUnit: make(map[string][]ledger.Payment),
		authorsByUnit:  make(map[string][]string),
		sourcesByUnit:  make(map[string][]ledger.FundingSource),
	}
}

func (g *fakeGateway) IssuePaymentAddress() (string, error) {
	g.issuedAddresses++
	return "RECEIVING", nil
}

func (g *fakeGateway) ComposeAndBroadcastAttestation(attestorAddress string, payloadHash string, payload []byte) (string, error) {
	if g.attestErr != nil {
		return "", g.attestErr
	}
	g.attestations = append(g.attestations, payload)
	return "ATTESTATION_UNIT", nil
}

func (g *fakeGateway) OutputsToAddresses(units []string, addresses []string) ([]ledger.Payment, error) {
	var payments []ledger.Payment
	for _, unit := range units {
		payments = append(payments, g.paymentsByUnit[unit]...)
	}
	return payments, nil
}

func (g *fakeGateway) PaymentAuthors(unit string) ([]string, error) {
	return g.authorsByUnit[unit], nil
}

func (g *fakeGateway) AncestorFundingSources(units []string) ([]ledger.FundingSource, error) {
	var sources []ledger.FundingSource
	for _, unit := range units {
		sources = append(sources, g.sourcesByUnit[unit]...)
	}
	return sources, nil
}

func (g *fakeGateway) ReadBalance(string) (int64, error) { return 1000000, nil }

func (g *fakeGateway) SendPayment(outputs []ledger.Output, payingAddresses []string) (string, error) {
	g.sentPayments = append(g.sentPayments, outputs)
	return "PAYOUT_UNIT", nil
}

func (g *fakeGateway) SendAll(toAddress string, payingAddresses []string) (string, error) {
	if g.sweepErr != nil {
		return "", g.sweepErr
	}
	g.sweeps = append(g.sweeps, toAddress)
	return "SWEEP_UNIT", nil
}

func (g *fakeGateway) SpendableAddresses(addresses []string, limit int) ([]string, error) {
	if len(addresses) > limit {
		addresses = addresses[:limit]
	}
	return addresses, nil
}

func (g *fakeGateway) ValidateSignedMessage([]byte) (*ledger.SignedMessageProof, error) {
	if g.proofErr != nil {
		return nil, g.proofErr
	}
	if g.proof == nil {
		return nil, errors.New("not scripted")
	}
	return g.proof, nil
}

func (g *fakeGateway) Issue(userAddress, deviceAddress string, vestingDate time.Time) (string, error) {
	return "CONTRACT_" + userAddress, nil
}

type fakeMessenger struct {
	sent map[string][]string
}

func newFakeMessenger() *fakeMessenger {
	return &fakeMessenger{sent: make(map[string][]string)}
}

func (m *fakeMessenger) SendText(deviceAddress string, text string) {
	m.sent[deviceAddress] = append(m.sent[deviceAddress], text)
}

func (m *fakeMessenger) last(deviceAddress string) string {
	texts := m.sent[deviceAddress]
	if len(texts) == 0 {
		return ""
	}
	return texts[len(texts)-1]
}

type fakeNotifier struct {
	alerts []string
}

func (n *fakeNotifier) NotifyAdmin(subject string, body string) {
	n.alerts = append(n.alerts, subject)
}

type stubRates struct{}

func (stubRates) PriceInNativeUnits(usd decimal.Decimal) (int64, error) {
	return usd.Mul(decimal.NewFromInt(1000)).Round(0).IntPart(), nil
}

// coldRates simulates a feed that has not received a rates update yet.
type coldRates struct{}

func (coldRates) PriceInNativeUnits(decimal.Decimal) (int64, error) {
	return 0, errors.New("rates not available yet")
}

type fixture struct {
	cfg      *config.Config
	store    storage.Storage
	gateway  *fakeGateway
	msg      *fakeMessenger
	notifier *fakeNotifier
	bot      *Bot
}

func newFixture() *fixture {
	return newFixtureWithRates(stubRates{})
}

func newFixtureWithRates(rateSource rates.Source) *fixture {
	cfg := &config.Config{
		PriceInBytes:              49000,
		AllowProofByPayment:       true,
		AcceptUnconfirmedPayments: true,
		MaxReferralDepth:          5,
		ReputationRewards: []config.ReputationReward{
			{Threshold: 60, RewardInUSD: 20},
			{Threshold: 70, RewardInUSD: 160},
		},
		SigningRewardShare:          1,
		RewardContractShare:         0.5,
		ReferralRewardContractShare: 0.75,
		ContractTermYears:           1,
		EligibilityCutoff:           "2018-07-12",
		Salt:                        "test-salt",
		Site:                        "https://example.org",
		Hub:                         "hub.example.org",
		ExplorerURL:                 "https://explorer.example.org/#",
		LoginURLFormat:              "https://login.example.org/?state=%s",
		AttestorDevicePubKey:        "PUBKEY",
	}

	store := storage.NewSqliteStorage(":memory:")
	gateway := newFakeGateway()
	msg := newFakeMessenger()
	notifier := &fakeNotifier{}
	locks := keylock.New()

	rewards := reward.NewEngine(cfg, store, gateway, msg, rateSource, notifier, locks, gateway, "DISTRIBUTION")
	bot := NewBot(cfg, store, gateway, msg, notifier, locks, rewards, "ATTESTOR")
	return &fixture{cfg: cfg, store: store, gateway: gateway, msg: msg, notifier: notifier, bot: bot}
}
