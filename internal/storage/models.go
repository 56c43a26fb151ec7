package storage

import "time"

type ProofType = string

const (
	ProofTypePayment   ProofType = "payment"
	ProofTypeSignature ProofType = "signature"
)

type ReferralType = string

const (
	ReferralTypeCookie  ReferralType = "cookie"
	ReferralTypePairing ReferralType = "pairing"
)

// RewardKind selects the reward table. The two tables are structurally
// identical; the kind tag replaces dynamic table-name routing.
type RewardKind string

const (
	RewardKindAttestation RewardKind = "attestation"
	RewardKindReferral    RewardKind = "referral"
)

type User struct {
	DeviceAddress string    `gorm:"primaryKey"`
	UserAddress   *string   `gorm:"index"`
	Username      *string
	UniqueID      string    `gorm:"uniqueIndex;not null"`
	CreationDate  time.Time `gorm:"autoCreateTime"`
}

// ReceivingAddress binds a (device, user address, username) triple to a unique
// payment destination. Immutable once created except for visibility and the
// cached reputation/eligibility fields.
type ReceivingAddress struct {
	ReceivingAddress string `gorm:"primaryKey"`
	DeviceAddress    string `gorm:"uniqueIndex:idx_device_user_username;not null"`
	UserAddress      string `gorm:"uniqueIndex:idx_device_user_username;not null"`
	Username         string `gorm:"uniqueIndex:idx_device_user_username;not null"`
	Price            int64  `gorm:"not null"`
	LastPriceDate    time.Time
	Reputation       *int
	IsEligible       *bool
	PostPublicly     *bool
}

type Transaction struct {
	TransactionID    int64     `gorm:"primaryKey;autoIncrement"`
	ReceivingAddress string    `gorm:"index;not null"`
	ProofType        ProofType `gorm:"not null"`
	CreationDate     time.Time `gorm:"autoCreateTime"`
}

type AcceptedPayment struct {
	TransactionID    int64  `gorm:"primaryKey"`
	ReceivingAddress string `gorm:"index;not null"`
	Price            int64  `gorm:"not null"`
	ReceivedAmount   int64  `gorm:"not null"`
	PaymentUnit      string `gorm:"uniqueIndex;not null"`
	IsConfirmed      bool   `gorm:"default:false"`
	ConfirmationDate *time.Time
}

// RejectedPayment rows are terminal; they never get a transaction row and are
// never retried.
type RejectedPayment struct {
	ID               int64  `gorm:"primaryKey;autoIncrement"`
	ReceivingAddress string `gorm:"uniqueIndex:idx_rejected_address_unit;not null"`
	PaymentUnit      string `gorm:"uniqueIndex:idx_rejected_address_unit;not null"`
	Price            int64
	ReceivedAmount   int64
	Error            string
	CreationDate     time.Time `gorm:"autoCreateTime"`
}

type SignedMessage struct {
	TransactionID int64  `gorm:"primaryKey"`
	UserAddress   string `gorm:"index;not null"`
	SignedMessage string `gorm:"not null"`
	CreationDate  time.Time `gorm:"autoCreateTime"`
}

// AttestationUnit is the per-transaction reservation. A NULL attestation unit
// means posting is not yet confirmed; the payload column holds the posted
// claim JSON once it is.
type AttestationUnit struct {
	TransactionID   int64 `gorm:"primaryKey"`
	AttestationUnit *string
	AttestationDate *time.Time
	Payload         string
	CreationDate    time.Time `gorm:"autoCreateTime"`
}

type RewardUnit struct {
	TransactionID  int64  `gorm:"primaryKey"`
	DeviceAddress  string `gorm:"not null"`
	UserAddress    string `gorm:"uniqueIndex;not null"`
	Username       string
	UserID         string `gorm:"uniqueIndex;not null"`
	Reward         int64
	ContractReward int64
	RewardUnit     *string
	RewardDate     *time.Time
}

type ReferralRewardUnit struct {
	TransactionID  int64  `gorm:"primaryKey"`
	UserAddress    string `gorm:"not null"` // referrer
	UserID         string `gorm:"not null"`
	NewUserAddress string `gorm:"uniqueIndex;not null"`
	NewUserID      string `gorm:"uniqueIndex;not null"`
	Reward         int64
	ContractReward int64
	RewardUnit     *string
	RewardDate     *time.Time
}

// Contract is the vesting contract per beneficiary, never deleted.
type Contract struct {
	UserAddress     string    `gorm:"primaryKey"`
	DeviceAddress   string    `gorm:"not null"`
	ContractAddress string    `gorm:"not null"`
	ContractDate    time.Time `gorm:"autoCreateTime"`
	VestingDate     time.Time `gorm:"not null"`
}

// LinkReferral is append-only; only the most recent row per device is consulted.
type LinkReferral struct {
	ID                   int64        `gorm:"primaryKey;autoIncrement"`
	ReferringUserAddress string       `gorm:"index;not null"`
	DeviceAddress        string       `gorm:"index;not null"`
	Type                 ReferralType `gorm:"not null"`
	CreationDate         time.Time    `gorm:"autoCreateTime"`
}
