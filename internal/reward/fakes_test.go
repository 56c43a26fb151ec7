package reward

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"attestbot/internal/keylock"
	"attestbot/internal/ledger"
)

var errTest = errors.New("wallet unavailable")

func newTestLocks() *keylock.Service {
	return keylock.New()
}

// fakeGateway scripts the wallet collaborator. Zero value answers everything
// with empty results.
type fakeGateway struct {
	sourcesByUnit map[string][]ledger.FundingSource

	sentPayments [][]ledger.Output
	sendErr      error
}

func (g *fakeGateway) IssuePaymentAddress() (string, error) { return "RECEIVING", nil }

func (g *fakeGateway) ComposeAndBroadcastAttestation(string, string, []byte) (string, error) {
	return "ATTESTATION_UNIT", nil
}

func (g *fakeGateway) OutputsToAddresses([]string, []string) ([]ledger.Payment, error) {
	return nil, nil
}

func (g *fakeGateway) PaymentAuthors(string) ([]string, error) { return nil, nil }

func (g *fakeGateway) AncestorFundingSources(units []string) ([]ledger.FundingSource, error) {
	var sources []ledger.FundingSource
	for _, unit := range units {
		sources = append(sources, g.sourcesByUnit[unit]...)
	}
	return sources, nil
}

func (g *fakeGateway) ReadBalance(string) (int64, error) { return 1000000, nil }

func (g *fakeGateway) SendPayment(outputs []ledger.Output, payingAddresses []string) (string, error) {
	if g.sendErr != nil {
		return "", g.sendErr
	}
	g.sentPayments = append(g.sentPayments, outputs)
	return "PAYOUT_UNIT", nil
}

func (g *fakeGateway) SendAll(string, []string) (string, error) { return "SWEEP_UNIT", nil }

func (g *fakeGateway) SpendableAddresses(addresses []string, limit int) ([]string, error) {
	return addresses, nil
}

func (g *fakeGateway) ValidateSignedMessage([]byte) (*ledger.SignedMessageProof, error) {
	return nil, errors.New("not scripted")
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

type fakeNotifier struct {
	alerts []string
}

func (n *fakeNotifier) NotifyAdmin(subject string, body string) {
	n.alerts = append(n.alerts, subject)
}

// stubRates converts $1 to 1000 native units.
type stubRates struct{}

func (stubRates) PriceInNativeUnits(usd decimal.Decimal) (int64, error) {
	return usd.Mul(decimal.NewFromInt(1000)).Round(0).IntPart(), nil
}

type fakeIssuer struct {
	issued int
}

func (i *fakeIssuer) Issue(userAddress, deviceAddress string, vestingDate time.Time) (string, error) {
	i.issued++
	return "CONTRACT_" + userAddress, nil
}
