package attestation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestConsolidateFundsSweepsToAttestor(t *testing.T) {
	f := newFixture()
	seedClaim(t, f, "DEVICE_A", addrAlice, "alice", "RECV_A", 65, true, true)

	f.bot.ConsolidateFunds()
	require.Equal(t, []string{"ATTESTOR"}, f.gateway.sweeps)
}

func TestConsolidateFundsNothingToMove(t *testing.T) {
	f := newFixture()

	// no receiving addresses assigned yet
	f.bot.ConsolidateFunds()
	require.Empty(t, f.gateway.sweeps)
}

func TestConsolidateFundsAlertsOnFailure(t *testing.T) {
	f := newFixture()
	seedClaim(t, f, "DEVICE_A", addrAlice, "alice", "RECV_A", 65, true, true)

	f.gateway.sweepErr = errors.New("wallet unavailable")
	f.bot.ConsolidateFunds()
	require.Empty(t, f.gateway.sweeps)
	require.NotEmpty(t, f.notifier.alerts)
}
