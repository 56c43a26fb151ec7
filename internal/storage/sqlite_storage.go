package storage

import (
	"time"

	"attestbot/internal/logger"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
)

type SqliteStorage struct {
	db *gorm.DB
}

func NewSqliteStorage(path string) *SqliteStorage {

	logger.Debug("initializing database...")
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		panic(err)
	}

	err = db.AutoMigrate(
		&User{},
		&ReceivingAddress{},
		&Transaction{},
		&AcceptedPayment{},
		&RejectedPayment{},
		&SignedMessage{},
		&AttestationUnit{},
		&RewardUnit{},
		&ReferralRewardUnit{},
		&Contract{},
		&LinkReferral{},
	)

	if err != nil {
		panic(err)
	}

	return &SqliteStorage{
		db: db,
	}
}

func (s *SqliteStorage) GetUser(deviceAddress string) (*User, error) {
	var user User
	err := s.db.Where("device_address = ?", deviceAddress).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *SqliteStorage) CreateUser(user *User) error {
	return s.db.Clauses(clause.OnConflict{DoNothing: true}).Create(user).Error
}

func (s *SqliteStorage) SetUserAddress(deviceAddress string, userAddress *string) error {
	return s.db.Model(&User{}).
		Where("device_address = ?", deviceAddress).
		Update("user_address", userAddress).Error
}

func (s *SqliteStorage) SetUsername(deviceAddress string, username *string) error {
	return s.db.Model(&User{}).
		Where("device_address = ?", deviceAddress).
		Update("username", username).Error
}

func (s *SqliteStorage) GetReceivingAddress(deviceAddress, userAddress, username string) (*ReceivingAddress, error) {
	var row ReceivingAddress
	err := s.db.
		Where("device_address = ? AND user_address = ? AND username = ?", deviceAddress, userAddress, username).
		First(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (s *SqliteStorage) GetReceivingAddressByAddress(receivingAddress string) (*ReceivingAddress, error) {
	var row ReceivingAddress
	err := s.db.Where("receiving_address = ?", receivingAddress).First(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (s *SqliteStorage) CreateReceivingAddress(row *ReceivingAddress) error {
	return s.db.Create(row).Error
}

func (s *SqliteStorage) SetVisibility(deviceAddress, userAddress, username string, postPublicly bool) error {
	return s.db.Model(&ReceivingAddress{}).
		Where("device_address = ? AND user_address = ? AND username = ?", deviceAddress, userAddress, username).
		Update("post_publicly", postPublicly).Error
}

func (s *SqliteStorage) SetProfileCache(receivingAddress string, reputation int, isEligible bool) error {
	return s.db.Model(&ReceivingAddress{}).
		Where("receiving_address = ?", receivingAddress).
		Updates(map[string]interface{}{"reputation": reputation, "is_eligible": isEligible}).Error
}

func (s *SqliteStorage) ListReceivingAddresses() ([]string, error) {
	var addresses []string
	err := s.db.Model(&ReceivingAddress{}).Pluck("receiving_address", &addresses).Error
	if err != nil {
		return nil, err
	}
	return addresses, nil
}

// CreateAcceptedPayment creates the transaction row and the accepted-payment
// row in one database transaction; a rejected payment never reaches here.
func (s *SqliteStorage) CreateAcceptedPayment(receivingAddress string, price, receivedAmount int64, paymentUnit string) (int64, error) {
	logger.Debug("recording accepted payment...")

	var transactionID int64
	err := s.db.Transaction(func(tx *gorm.DB) error {
		transaction := Transaction{
			ReceivingAddress: receivingAddress,
			ProofType:        ProofTypePayment,
		}
		if err := tx.Create(&transaction).Error; err != nil {
			return err
		}
		transactionID = transaction.TransactionID
		return tx.Create(&AcceptedPayment{
			TransactionID:    transactionID,
			ReceivingAddress: receivingAddress,
			Price:            price,
			ReceivedAmount:   receivedAmount,
			PaymentUnit:      paymentUnit,
		}).Error
	})
	if err != nil {
		return 0, err
	}

	logger.Debug("recording accepted payment... done")
	return transactionID, nil
}

func (s *SqliteStorage) CreateRejectedPayment(row *RejectedPayment) error {
	return s.db.Clauses(clause.OnConflict{DoNothing: true}).Create(row).Error
}

func (s *SqliteStorage) GetAcceptedPaymentsByUnits(units []string) ([]PaymentContext, error) {
	var rows []PaymentContext
	err := s.db.Raw(`
		select p.transaction_id, r.device_address, r.user_address, r.username,
			r.reputation, r.is_eligible, r.post_publicly, p.payment_unit
		from accepted_payments p
		join receiving_addresses r on r.receiving_address = p.receiving_address
		where p.payment_unit in ?
	`, units).Scan(&rows).Error

	if err != nil {
		return nil, err
	}

	return rows, nil
}

func (s *SqliteStorage) MarkPaymentConfirmed(transactionID int64) error {
	now := time.Now()
	return s.db.Model(&AcceptedPayment{}).
		Where("transaction_id = ?", transactionID).
		Updates(map[string]interface{}{"is_confirmed": true, "confirmation_date": &now}).Error
}

func (s *SqliteStorage) GetLatestPaymentStatus(receivingAddress string) (*PaymentStatus, error) {
	var row PaymentStatus
	err := s.db.Raw(`
		select p.transaction_id, p.is_confirmed, p.received_amount, a.attestation_date
		from accepted_payments p
		left join attestation_units a on a.transaction_id = p.transaction_id
		where p.receiving_address = ?
		order by p.transaction_id desc
		limit 1
	`, receivingAddress).Scan(&row).Error

	if err != nil {
		return nil, err
	}
	if row.TransactionID == 0 {
		return nil, ErrNotFound
	}

	return &row, nil
}

func (s *SqliteStorage) HasRecentSignedMessage(userAddress string, since time.Time) (bool, error) {
	var count int64
	err := s.db.Model(&SignedMessage{}).
		Where("user_address = ? AND creation_date > ?", userAddress, since).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *SqliteStorage) CreateSignedProof(receivingAddress, userAddress, signedMessage string) (int64, error) {
	logger.Debug("recording signed proof...")

	var transactionID int64
	err := s.db.Transaction(func(tx *gorm.DB) error {
		transaction := Transaction{
			ReceivingAddress: receivingAddress,
			ProofType:        ProofTypeSignature,
		}
		if err := tx.Create(&transaction).Error; err != nil {
			return err
		}
		transactionID = transaction.TransactionID
		return tx.Create(&SignedMessage{
			TransactionID: transactionID,
			UserAddress:   userAddress,
			SignedMessage: signedMessage,
		}).Error
	})
	if err != nil {
		return 0, err
	}

	logger.Debug("recording signed proof... done")
	return transactionID, nil
}

// ReserveAttestation inserts the reservation row; the primary key collapses
// concurrent or repeated invocations to one reservation.
func (s *SqliteStorage) ReserveAttestation(transactionID int64) error {
	return s.db.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&AttestationUnit{TransactionID: transactionID}).Error
}

func (s *SqliteStorage) GetAttestationContext(transactionID int64) (*AttestationContext, error) {
	var row AttestationContext
	err := s.db.Raw(`
		select a.transaction_id, r.device_address, r.user_address, r.username,
			r.reputation, r.post_publicly, a.attestation_unit, a.attestation_date
		from attestation_units a
		join transactions t on t.transaction_id = a.transaction_id
		join receiving_addresses r on r.receiving_address = t.receiving_address
		where a.transaction_id = ?
	`, transactionID).Scan(&row).Error

	if err != nil {
		return nil, err
	}
	if row.TransactionID == 0 {
		return nil, ErrNotFound
	}

	return &row, nil
}

func (s *SqliteStorage) ListPendingAttestations() ([]AttestationContext, error) {
	var rows []AttestationContext
	err := s.db.Raw(`
		select a.transaction_id, r.device_address, r.user_address, r.username,
			r.reputation, r.post_publicly, a.attestation_unit, a.attestation_date
		from attestation_units a
		join transactions t on t.transaction_id = a.transaction_id
		join receiving_addresses r on r.receiving_address = t.receiving_address
		where a.attestation_unit is null
	`).Scan(&rows).Error

	if err != nil {
		return nil, err
	}

	return rows, nil
}

func (s *SqliteStorage) MarkAttested(transactionID int64, unit string, payload string) error {
	now := time.Now()
	return s.db.Model(&AttestationUnit{}).
		Where("transaction_id = ? AND attestation_unit is null", transactionID).
		Updates(map[string]interface{}{
			"attestation_unit": unit,
			"attestation_date": &now,
			"payload":          payload,
		}).Error
}

// InsertRewardUnit reports false when the beneficiary already holds a reward;
// the unique indexes on user_address and user_id enforce the first-time-bonus
// rule across retries.
func (s *SqliteStorage) InsertRewardUnit(row *RewardUnit) (bool, error) {
	result := s.db.Clauses(clause.OnConflict{DoNothing: true}).Create(row)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (s *SqliteStorage) InsertReferralRewardUnit(row *ReferralRewardUnit) (bool, error) {
	result := s.db.Clauses(clause.OnConflict{DoNothing: true}).Create(row)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func rewardTable(kind RewardKind) string {
	if kind == RewardKindReferral {
		return "referral_reward_units"
	}
	return "reward_units"
}

func (s *SqliteStorage) GetRewardPayout(kind RewardKind, transactionID int64) (*RewardPayout, error) {
	// the beneficiary of an attestation reward is the payer; the beneficiary
	// of a referral reward is the referrer, reachable through the contract
	deviceColumn := "r.device_address"
	if kind == RewardKindReferral {
		deviceColumn = "c.device_address"
	}

	var row RewardPayout
	err := s.db.Raw(`
		select u.transaction_id, `+deviceColumn+` as device_address, u.user_address, u.reward,
			u.contract_reward, u.reward_unit, u.reward_date, c.contract_address
		from `+rewardTable(kind)+` u
		join transactions t on t.transaction_id = u.transaction_id
		join receiving_addresses r on r.receiving_address = t.receiving_address
		left join contracts c on c.user_address = u.user_address
		where u.transaction_id = ?
	`, transactionID).Scan(&row).Error

	if err != nil {
		return nil, err
	}
	if row.TransactionID == 0 {
		return nil, ErrNotFound
	}

	return &row, nil
}

// MarkRewardPaid writes the payout reference; the row is immutable afterwards.
func (s *SqliteStorage) MarkRewardPaid(kind RewardKind, transactionID int64, unit string) error {
	return s.db.Exec(`
		update `+rewardTable(kind)+`
		set reward_unit = ?, reward_date = ?
		where transaction_id = ? and reward_unit is null
	`, unit, time.Now(), transactionID).Error
}

func (s *SqliteStorage) ListUnpaidRewards(kind RewardKind, limit int) ([]int64, error) {
	var ids []int64
	err := s.db.Raw(`
		select transaction_id from `+rewardTable(kind)+`
		where reward_unit is null
		limit ?
	`, limit).Scan(&ids).Error

	if err != nil {
		return nil, err
	}

	return ids, nil
}

// GetAttestedCandidates returns posted attestations among the given addresses,
// excluding any whose only attestation is for the payment unit being resolved.
func (s *SqliteStorage) GetAttestedCandidates(addresses []string, excludePaymentUnit string) ([]AttestedCandidate, error) {
	var rows []AttestedCandidate
	err := s.db.Raw(`
		select r.user_address, r.device_address, r.username, a.payload
		from attestation_units a
		join transactions t on t.transaction_id = a.transaction_id
		join receiving_addresses r on r.receiving_address = t.receiving_address
		left join accepted_payments p on p.transaction_id = a.transaction_id
		where a.attestation_unit is not null
			and r.user_address in ?
			and (p.payment_unit is null or p.payment_unit != ?)
	`, addresses, excludePaymentUnit).Scan(&rows).Error

	if err != nil {
		return nil, err
	}

	return rows, nil
}

// GetLatestLinkReferral finds the most recent referral link for the device
// whose referring identity is attested, differs from the payer, and was not
// recorded from the payer's own device.
func (s *SqliteStorage) GetLatestLinkReferral(deviceAddress, payerAddress string) (*AttestedCandidate, error) {
	var row AttestedCandidate
	err := s.db.Raw(`
		select l.referring_user_address as user_address, r.device_address, r.username, a.payload
		from link_referrals l
		join receiving_addresses r on r.user_address = l.referring_user_address
		join transactions t on t.receiving_address = r.receiving_address
		join attestation_units a on a.transaction_id = t.transaction_id
		where l.device_address = ?
			and r.device_address != l.device_address
			and l.referring_user_address != ?
			and a.attestation_unit is not null
		order by l.creation_date desc, l.id desc
		limit 1
	`, deviceAddress, payerAddress).Scan(&row).Error

	if err != nil {
		return nil, err
	}
	if row.UserAddress == "" {
		return nil, ErrNotFound
	}

	return &row, nil
}

func (s *SqliteStorage) IsAddressAttested(userAddress string) (bool, error) {
	var count int64
	err := s.db.Raw(`
		select count(1)
		from attestation_units a
		join transactions t on t.transaction_id = a.transaction_id
		join receiving_addresses r on r.receiving_address = t.receiving_address
		where r.user_address = ? and a.attestation_unit is not null
	`, userAddress).Scan(&count).Error

	if err != nil {
		return false, err
	}

	return count > 0, nil
}

func (s *SqliteStorage) CreateLinkReferral(referringUserAddress, deviceAddress string, linkType ReferralType) error {
	return s.db.Create(&LinkReferral{
		ReferringUserAddress: referringUserAddress,
		DeviceAddress:        deviceAddress,
		Type:                 linkType,
	}).Error
}

func (s *SqliteStorage) GetContract(userAddress string) (*Contract, error) {
	var row Contract
	err := s.db.Where("user_address = ?", userAddress).First(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (s *SqliteStorage) CreateContract(row *Contract) error {
	return s.db.Clauses(clause.OnConflict{DoNothing: true}).Create(row).Error
}
