package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// ReputationReward is one row of the reputation tier table. The table is
// unordered; selection always takes the largest USD amount whose threshold
// the score meets.
type ReputationReward struct {
	Threshold   int     `mapstructure:"threshold"`
	RewardInUSD float64 `mapstructure:"rewardInUsd"`
}

type Config struct {
	DatabasePath string `mapstructure:"databasePath"`

	LogFile      string `mapstructure:"logFile"`
	ErrorLogFile string `mapstructure:"errorLogFile"`
	LogLevel     string `mapstructure:"logLevel"`
	LogConsole   bool   `mapstructure:"logConsole"`

	ListenAddr   string `mapstructure:"listenAddr"`
	WalletRPCURL string `mapstructure:"walletRpcUrl"`

	// PriceInBytes is the attestation price in native units.
	PriceInBytes              int64 `mapstructure:"priceInBytes"`
	AllowProofByPayment       bool  `mapstructure:"allowProofByPayment"`
	AcceptUnconfirmedPayments bool  `mapstructure:"acceptUnconfirmedPayments"`

	MaxReferralDepth  int                `mapstructure:"maxReferralDepth"`
	ReputationRewards []ReputationReward `mapstructure:"reputationRewards"`

	SigningRewardShare          float64 `mapstructure:"signingRewardShare"`
	RewardContractShare         float64 `mapstructure:"rewardContractShare"`
	ReferralRewardContractShare float64 `mapstructure:"referralRewardContractShare"`

	ContractTermYears int    `mapstructure:"contractTermYears"`
	EligibilityCutoff string `mapstructure:"eligibilityCutoff"` // YYYY-MM-DD, accounts created before it get the welcome bonus

	Salt       string `mapstructure:"salt"`
	AdminEmail string `mapstructure:"adminEmail"`
	FromEmail  string `mapstructure:"fromEmail"`

	// AttestorAddress signs attestation units and accumulates payments;
	// DistributionAddress pays out rewards.
	AttestorAddress     string `mapstructure:"attestorAddress"`
	DistributionAddress string `mapstructure:"distributionAddress"`

	Site                 string `mapstructure:"site"`
	Hub                  string `mapstructure:"hub"`
	ExplorerURL          string `mapstructure:"explorerUrl"`
	LoginURLFormat       string `mapstructure:"loginUrlFormat"` // %s is replaced with the user's unique id
	AttestorDevicePubKey string `mapstructure:"attestorDevicePubKey"`

	RetryInterval         time.Duration `mapstructure:"retryInterval"`
	ConsolidationInterval time.Duration `mapstructure:"consolidationInterval"`
}

// Load reads .env (if present), then binds environment variables and defaults.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("attestbot")
	v.AutomaticEnv()

	// AutomaticEnv only resolves keys viper already knows about, so the keys
	// without a default below must be bound explicitly to be readable from
	// ATTESTBOT_* variables.
	for _, key := range []string{
		"logFile", "errorLogFile",
		"salt", "adminEmail", "fromEmail",
		"attestorAddress", "distributionAddress", "attestorDevicePubKey",
	} {
		_ = v.BindEnv(key)
	}

	v.SetDefault("databasePath", "attestbot.db")
	v.SetDefault("logLevel", "debug")
	v.SetDefault("logConsole", true)
	v.SetDefault("listenAddr", "127.0.0.1:8080")
	v.SetDefault("walletRpcUrl", "http://127.0.0.1:6332")

	v.SetDefault("priceInBytes", int64(49000))
	v.SetDefault("allowProofByPayment", false)
	v.SetDefault("acceptUnconfirmedPayments", true)

	v.SetDefault("maxReferralDepth", 5)
	v.SetDefault("reputationRewards", []map[string]interface{}{
		{"threshold": 60, "rewardInUsd": 20.0},
		{"threshold": 70, "rewardInUsd": 160.0},
	})

	v.SetDefault("signingRewardShare", 1.0)
	v.SetDefault("rewardContractShare", 0.5)
	v.SetDefault("referralRewardContractShare", 0.75)

	v.SetDefault("contractTermYears", 1)
	v.SetDefault("eligibilityCutoff", "2018-07-12")

	v.SetDefault("site", "https://steem-byteball.org")
	v.SetDefault("hub", "obyte.org/bb")
	v.SetDefault("explorerUrl", "https://explorer.byteball.org/#")
	v.SetDefault("loginUrlFormat", "https://steemconnect.com/oauth2/authorize?state=%s")

	v.SetDefault("retryInterval", time.Minute)
	v.SetDefault("consolidationInterval", time.Minute)

	v.SetConfigName("attestbot")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate fails before any event is accepted; a missing required setting is fatal.
func (c *Config) Validate() error {
	if c.Salt == "" {
		return fmt.Errorf("config: salt is required")
	}
	if c.AdminEmail == "" || c.FromEmail == "" {
		return fmt.Errorf("config: adminEmail and fromEmail are required")
	}
	if c.AttestorAddress == "" || c.DistributionAddress == "" {
		return fmt.Errorf("config: attestorAddress and distributionAddress are required")
	}
	if c.PriceInBytes <= 0 {
		return fmt.Errorf("config: priceInBytes must be positive")
	}
	if c.MaxReferralDepth <= 0 {
		return fmt.Errorf("config: maxReferralDepth must be positive")
	}
	if c.RewardContractShare < 0 || c.RewardContractShare > 1 {
		return fmt.Errorf("config: rewardContractShare must be within [0, 1]")
	}
	if c.ReferralRewardContractShare < 0 || c.ReferralRewardContractShare > 1 {
		return fmt.Errorf("config: referralRewardContractShare must be within [0, 1]")
	}
	if _, err := c.EligibilityCutoffDate(); err != nil {
		return fmt.Errorf("config: eligibilityCutoff: %w", err)
	}
	return nil
}

func (c *Config) EligibilityCutoffDate() (time.Time, error) {
	return time.Parse("2006-01-02", c.EligibilityCutoff)
}

func (c *Config) ContractTerm() time.Duration {
	return time.Duration(c.ContractTermYears) * 365 * 24 * time.Hour
}

func (c *Config) LoginURL(uniqueID string) string {
	return fmt.Sprintf(c.LoginURLFormat, uniqueID)
}

// VestingShare returns the vesting fraction for the given reward kind
// as a decimal, keeping split arithmetic exact until the final rounding.
func (c *Config) VestingShare(referral bool) decimal.Decimal {
	if referral {
		return decimal.NewFromFloat(c.ReferralRewardContractShare)
	}
	return decimal.NewFromFloat(c.RewardContractShare)
}
