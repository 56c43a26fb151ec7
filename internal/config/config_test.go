package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		PriceInBytes:                49000,
		MaxReferralDepth:            5,
		SigningRewardShare:          1,
		RewardContractShare:         0.5,
		ReferralRewardContractShare: 0.75,
		ContractTermYears:           1,
		EligibilityCutoff:           "2018-07-12",
		Salt:                        "salt",
		AdminEmail:                  "admin@example.org",
		FromEmail:                   "bot@example.org",
		AttestorAddress:             "ATTESTOR",
		DistributionAddress:         "DISTRIBUTION",
		LoginURLFormat:              "https://login.example.org/?state=%s",
	}
}

func TestValidate(t *testing.T) {
	require.NoError(t, validConfig().Validate())

	noSalt := validConfig()
	noSalt.Salt = ""
	require.Error(t, noSalt.Validate())

	noAddresses := validConfig()
	noAddresses.AttestorAddress = ""
	require.Error(t, noAddresses.Validate())

	badShare := validConfig()
	badShare.RewardContractShare = 1.5
	require.Error(t, badShare.Validate())

	badCutoff := validConfig()
	badCutoff.EligibilityCutoff = "July 12"
	require.Error(t, badCutoff.Validate())
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, int64(49000), cfg.PriceInBytes)
	require.Equal(t, 5, cfg.MaxReferralDepth)
	require.Equal(t, 1.0, cfg.SigningRewardShare)
	require.Equal(t, 0.5, cfg.RewardContractShare)
	require.Equal(t, 0.75, cfg.ReferralRewardContractShare)
	require.Len(t, cfg.ReputationRewards, 2)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("ATTESTBOT_SALT", "env-salt")
	t.Setenv("ATTESTBOT_ADMINEMAIL", "admin@example.org")
	t.Setenv("ATTESTBOT_ATTESTORADDRESS", "ATTESTOR")
	t.Setenv("ATTESTBOT_PRICEINBYTES", "60000")

	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, "env-salt", cfg.Salt)
	require.Equal(t, "admin@example.org", cfg.AdminEmail)
	require.Equal(t, "ATTESTOR", cfg.AttestorAddress)
	require.Equal(t, int64(60000), cfg.PriceInBytes)
}

func TestContractTerm(t *testing.T) {
	cfg := validConfig()
	require.Equal(t, 365*24*time.Hour, cfg.ContractTerm())
}

func TestLoginURL(t *testing.T) {
	cfg := validConfig()
	require.Equal(t, "https://login.example.org/?state=abc", cfg.LoginURL("abc"))
}

func TestVestingShare(t *testing.T) {
	cfg := validConfig()
	require.Equal(t, "0.5", cfg.VestingShare(false).String())
	require.Equal(t, "0.75", cfg.VestingShare(true).String())
}
