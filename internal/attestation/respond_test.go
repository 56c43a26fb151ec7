package attestation

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"attestbot/internal/ledger"
	"attestbot/internal/storage"
)

func TestRespondWalksUserThroughTheFlow(t *testing.T) {
	f := newFixture()

	require.NoError(t, f.bot.Respond("DEVICE_A", "hi"))
	require.Contains(t, f.msg.last("DEVICE_A"), "send me your address")

	require.NoError(t, f.bot.Respond("DEVICE_A", addrAlice))
	require.Contains(t, f.msg.last("DEVICE_A"), "going to attest your BB address: "+addrAlice)
	require.Contains(t, f.msg.last("DEVICE_A"), "log into your steem account")

	// the login callback proves the username
	created, _ := time.Parse("2006-01-02", "2017-01-01")
	require.NoError(t, f.bot.HandleProfileVerified("DEVICE_A", "alice", 10000000000, created))
	require.Contains(t, f.msg.last("DEVICE_A"), "Your steem username is alice")
	require.Contains(t, f.msg.last("DEVICE_A"), "privately in your wallet or post it publicly")

	require.NoError(t, f.bot.Respond("DEVICE_A", "public"))
	require.Contains(t, f.msg.last("DEVICE_A"), "will be posted into the public database")
	require.Contains(t, f.msg.last("DEVICE_A"), "Please pay for the attestation")

	row, err := f.store.GetReceivingAddressByAddress("RECEIVING")
	require.NoError(t, err)
	require.Equal(t, addrAlice, row.UserAddress)
	require.NotNil(t, row.Reputation)
	require.Equal(t, 34, *row.Reputation)
	require.NotNil(t, row.IsEligible)
	require.True(t, *row.IsEligible)
}

func TestRespondNewAddressResetsUsername(t *testing.T) {
	f := newFixture()
	seedClaim(t, f, "DEVICE_A", addrAlice, "alice", "RECV_A", 65, true, true)

	require.NoError(t, f.bot.Respond("DEVICE_A", addrBob))
	require.Contains(t, f.msg.last("DEVICE_A"), "going to attest your BB address: "+addrBob)
	// a new address invalidates the proven username
	require.Contains(t, f.msg.last("DEVICE_A"), "log into your steem account")

	user, err := f.store.GetUser("DEVICE_A")
	require.NoError(t, err)
	require.Equal(t, addrBob, *user.UserAddress)
	require.Nil(t, user.Username)
}

func TestRespondAgainRestartsLogin(t *testing.T) {
	f := newFixture()
	seedClaim(t, f, "DEVICE_A", addrAlice, "alice", "RECV_A", 65, true, true)

	require.NoError(t, f.bot.Respond("DEVICE_A", "again"))
	require.Contains(t, f.msg.last("DEVICE_A"), "log into your steem account")
}

func TestRespondReportsAttestedState(t *testing.T) {
	f := newFixture()
	seedClaim(t, f, "DEVICE_A", addrAlice, "alice", "RECV_A", 65, true, true)
	require.NoError(t, pay(f, "PAY1", "RECV_A", addrAlice))

	require.NoError(t, f.bot.Respond("DEVICE_A", "status"))
	require.Contains(t, f.msg.last("DEVICE_A"), "You were already attested")
}

func TestSignedMessageProofAttests(t *testing.T) {
	f := newFixture()
	seedClaim(t, f, "DEVICE_A", addrAlice, "alice", "RECV_A", 65, true, true)

	f.gateway.proof = &ledger.SignedMessageProof{
		SignedMessage: "alice " + addrAlice,
		Authors:       []string{addrAlice},
	}
	blob := base64.StdEncoding.EncodeToString([]byte(`{"signed_message":"alice"}`))
	require.NoError(t, f.bot.Respond("DEVICE_A", "[message](signed-message:"+blob+")"))

	require.Len(t, f.gateway.attestations, 1)
	// full reward, signingRewardShare is 1
	require.Len(t, f.gateway.sentPayments, 1)

	// a repeat proof within a day is deduplicated
	require.NoError(t, f.bot.Respond("DEVICE_A", "[message](signed-message:"+blob+")"))
	require.Len(t, f.gateway.attestations, 1)
	require.Contains(t, f.msg.last("DEVICE_A"), "already attested")
}

func TestSignedMessageWrongChallenge(t *testing.T) {
	f := newFixture()
	seedClaim(t, f, "DEVICE_A", addrAlice, "alice", "RECV_A", 65, true, true)

	f.gateway.proof = &ledger.SignedMessageProof{
		SignedMessage: "something else",
		Authors:       []string{addrAlice},
	}
	blob := base64.StdEncoding.EncodeToString([]byte(`{}`))
	require.NoError(t, f.bot.Respond("DEVICE_A", "[message](signed-message:"+blob+")"))

	require.Empty(t, f.gateway.attestations)
	require.Contains(t, f.msg.last("DEVICE_A"), "wrong message")
}

func TestSignedMessageWrongAuthor(t *testing.T) {
	f := newFixture()
	seedClaim(t, f, "DEVICE_A", addrAlice, "alice", "RECV_A", 65, true, true)

	f.gateway.proof = &ledger.SignedMessageProof{
		SignedMessage: "alice " + addrAlice,
		Authors:       []string{addrBob},
	}
	blob := base64.StdEncoding.EncodeToString([]byte(`{}`))
	require.NoError(t, f.bot.Respond("DEVICE_A", "[message](signed-message:"+blob+")"))

	require.Empty(t, f.gateway.attestations)
	require.Contains(t, f.msg.last("DEVICE_A"), "wrong address")
}

func TestHandlePairedRecordsReferral(t *testing.T) {
	f := newFixture()

	// alice attests, then invites bob with her address as the pairing secret
	seedClaim(t, f, "DEVICE_A", addrAlice, "alice", "RECV_A", 65, true, true)
	require.NoError(t, pay(f, "PAY_A", "RECV_A", addrAlice))

	require.NoError(t, f.bot.HandlePaired("DEVICE_B", addrAlice))
	require.Contains(t, f.msg.last("DEVICE_B"), "attest your steem username")

	link, err := f.store.GetLatestLinkReferral("DEVICE_B", addrBob)
	require.NoError(t, err)
	require.Equal(t, addrAlice, link.UserAddress)
}

func TestHandlePairedIgnoresUnattestedSecret(t *testing.T) {
	f := newFixture()

	require.NoError(t, f.bot.HandlePaired("DEVICE_B", addrAlice))

	_, err := f.store.GetLatestLinkReferral("DEVICE_B", addrBob)
	require.ErrorIs(t, err, storage.ErrNotFound)
}
