package storage

import (
	"time"

	"gorm.io/gorm"
)

var ErrNotFound = gorm.ErrRecordNotFound

// PaymentContext is an accepted payment joined with its receiving-address
// claim state, everything attest() needs. PaymentUnit is empty for
// signature-based proofs.
type PaymentContext struct {
	TransactionID int64
	DeviceAddress string
	UserAddress   string
	Username      string
	Reputation    *int
	IsEligible    *bool
	PostPublicly  *bool
	PaymentUnit   string
}

// AttestationContext is an attestation reservation joined with its claim state.
type AttestationContext struct {
	TransactionID   int64
	DeviceAddress   string
	UserAddress     string
	Username        string
	Reputation      *int
	PostPublicly    *bool
	AttestationUnit *string
	AttestationDate *time.Time
}

// RewardPayout is a reward row joined with the beneficiary's vesting contract.
type RewardPayout struct {
	TransactionID   int64
	DeviceAddress   string
	UserAddress     string
	Reward          int64
	ContractReward  int64
	RewardUnit      *string
	RewardDate      *time.Time
	ContractAddress *string
}

// AttestedCandidate is a posted public attestation usable as a referrer.
type AttestedCandidate struct {
	UserAddress   string
	DeviceAddress string
	Username      string
	Payload       string
}

// PaymentStatus is the latest accepted payment for a receiving address,
// joined with its attestation state. Used by the chat responder.
type PaymentStatus struct {
	TransactionID   int64
	IsConfirmed     bool
	ReceivedAmount  int64
	AttestationDate *time.Time
}

type Storage interface {
	// users
	GetUser(deviceAddress string) (*User, error)
	CreateUser(user *User) error
	SetUserAddress(deviceAddress string, userAddress *string) error
	SetUsername(deviceAddress string, username *string) error

	// receiving addresses
	GetReceivingAddress(deviceAddress, userAddress, username string) (*ReceivingAddress, error)
	GetReceivingAddressByAddress(receivingAddress string) (*ReceivingAddress, error)
	CreateReceivingAddress(row *ReceivingAddress) error
	SetVisibility(deviceAddress, userAddress, username string, postPublicly bool) error
	SetProfileCache(receivingAddress string, reputation int, isEligible bool) error
	ListReceivingAddresses() ([]string, error)

	// payments
	CreateAcceptedPayment(receivingAddress string, price, receivedAmount int64, paymentUnit string) (int64, error)
	CreateRejectedPayment(row *RejectedPayment) error
	GetAcceptedPaymentsByUnits(units []string) ([]PaymentContext, error)
	MarkPaymentConfirmed(transactionID int64) error
	GetLatestPaymentStatus(receivingAddress string) (*PaymentStatus, error)

	// signed messages
	HasRecentSignedMessage(userAddress string, since time.Time) (bool, error)
	CreateSignedProof(receivingAddress, userAddress, signedMessage string) (int64, error)

	// attestations
	ReserveAttestation(transactionID int64) error
	GetAttestationContext(transactionID int64) (*AttestationContext, error)
	ListPendingAttestations() ([]AttestationContext, error)
	MarkAttested(transactionID int64, unit string, payload string) error

	// rewards
	InsertRewardUnit(row *RewardUnit) (bool, error)
	InsertReferralRewardUnit(row *ReferralRewardUnit) (bool, error)
	GetRewardPayout(kind RewardKind, transactionID int64) (*RewardPayout, error)
	MarkRewardPaid(kind RewardKind, transactionID int64, unit string) error
	ListUnpaidRewards(kind RewardKind, limit int) ([]int64, error)

	// referrals
	GetAttestedCandidates(addresses []string, excludePaymentUnit string) ([]AttestedCandidate, error)
	GetLatestLinkReferral(deviceAddress, payerAddress string) (*AttestedCandidate, error)
	IsAddressAttested(userAddress string) (bool, error)
	CreateLinkReferral(referringUserAddress, deviceAddress string, linkType ReferralType) error

	// contracts
	GetContract(userAddress string) (*Contract, error)
	CreateContract(row *Contract) error
}
