package reward

import (
	"testing"

	"github.com/stretchr/testify/require"

	"attestbot/internal/config"
	"attestbot/internal/keylock"
	"attestbot/internal/storage"
)

var testTiers = []config.ReputationReward{
	{Threshold: 70, RewardInUSD: 160},
	{Threshold: 60, RewardInUSD: 20},
}

func TestTierUSD(t *testing.T) {
	require.Equal(t, 0.0, TierUSD(testTiers, 10))
	require.Equal(t, 0.0, TierUSD(testTiers, 59))
	require.Equal(t, 20.0, TierUSD(testTiers, 60))
	require.Equal(t, 20.0, TierUSD(testTiers, 65))
	require.Equal(t, 160.0, TierUSD(testTiers, 70))
	require.Equal(t, 160.0, TierUSD(testTiers, 95))
}

func TestTierUSDEmptyTable(t *testing.T) {
	require.Equal(t, 0.0, TierUSD(nil, 80))
}

func newTestEngine(t *testing.T, cfg *config.Config, store storage.Storage, gateway *fakeGateway) (*Engine, *fakeMessenger, *fakeNotifier) {
	t.Helper()
	msg := newFakeMessenger()
	notifier := &fakeNotifier{}
	engine := NewEngine(cfg, store, gateway, msg, stubRates{}, notifier, keylock.New(), &fakeIssuer{}, "DISTRIBUTION")
	return engine, msg, notifier
}

func splitConfig() *config.Config {
	return &config.Config{
		RewardContractShare:         0.5,
		ReferralRewardContractShare: 0.75,
		MaxReferralDepth:            5,
		ReputationRewards:           testTiers,
		ContractTermYears:           1,
		Salt:                        "test-salt",
	}
}

func TestSplitAttestation(t *testing.T) {
	engine, _, _ := newTestEngine(t, splitConfig(), nil, &fakeGateway{})

	cash, vesting, err := engine.Split(20, KindAttestation)
	require.NoError(t, err)
	require.Equal(t, int64(10000), cash)
	require.Equal(t, int64(10000), vesting)
}

func TestSplitReferral(t *testing.T) {
	engine, _, _ := newTestEngine(t, splitConfig(), nil, &fakeGateway{})

	cash, vesting, err := engine.Split(20, KindReferral)
	require.NoError(t, err)
	require.Equal(t, int64(5000), cash)
	require.Equal(t, int64(15000), vesting)
}

func TestSplitSumsToFullAmount(t *testing.T) {
	engine, _, _ := newTestEngine(t, splitConfig(), nil, &fakeGateway{})

	// 20.001 USD converts to an odd native amount, so the halves differ by one
	cash, vesting, err := engine.Split(20.001, KindAttestation)
	require.NoError(t, err)
	require.Equal(t, int64(20001), cash+vesting)
}
