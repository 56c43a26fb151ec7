package reward

import (
	"errors"
	"time"

	"attestbot/internal/faults"
	"attestbot/internal/storage"
)

// ContractIssuer composes and deploys the vesting smart contract for a
// beneficiary; it lives in the wallet collaborator.
type ContractIssuer interface {
	Issue(userAddress, deviceAddress string, vestingDate time.Time) (string, error)
}

// GetOrCreateContract returns the beneficiary's vesting contract, creating it
// on demand with maturity = now + configured term. Contracts are never deleted.
func (e *Engine) GetOrCreateContract(userAddress, deviceAddress string) (string, time.Time, error) {
	row, err := e.store.GetContract(userAddress)
	if err == nil {
		return row.ContractAddress, row.VestingDate, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return "", time.Time{}, err
	}

	vestingDate := time.Now().Add(e.cfg.ContractTerm())
	contractAddress, err := e.issuer.Issue(userAddress, deviceAddress, vestingDate)
	if err != nil {
		return "", time.Time{}, faults.Transient(err)
	}

	if err := e.store.CreateContract(&storage.Contract{
		UserAddress:     userAddress,
		DeviceAddress:   deviceAddress,
		ContractAddress: contractAddress,
		VestingDate:     vestingDate,
	}); err != nil {
		return "", time.Time{}, err
	}

	// re-read so a concurrent creation wins consistently
	row, err = e.store.GetContract(userAddress)
	if err != nil {
		return "", time.Time{}, err
	}
	return row.ContractAddress, row.VestingDate, nil
}
