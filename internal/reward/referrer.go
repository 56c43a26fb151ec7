package reward

import (
	"errors"
	"strings"

	"go.uber.org/zap"

	"attestbot/internal/claim"
	"attestbot/internal/faults"
	"attestbot/internal/logger"
	"attestbot/internal/storage"
)

// ReferrerInfo identifies the identity credited with referring a new user.
type ReferrerInfo struct {
	UserID        string
	UserAddress   string
	DeviceAddress string
	Username      string
}

// FindReferrer walks the payment's funding ancestry looking for the attested
// identity with the highest order index, then falls back to an explicit
// referral link. A nil result with a nil error means no referrer, which is a
// normal terminal outcome.
func (e *Engine) FindReferrer(paymentUnit, userAddress, deviceAddress string) (*ReferrerInfo, error) {
	logger.Debug("finding referrer",
		zap.String("paymentUnit", paymentUnit),
		zap.String("userAddress", userAddress),
		zap.String("deviceAddress", deviceAddress))

	if paymentUnit == "" {
		return e.findLinkReferrer(deviceAddress, userAddress)
	}

	// best observed order index per candidate funding address
	bestIndex := make(map[string]int64)
	units := []string{paymentUnit}

	for depth := 0; depth < e.cfg.MaxReferralDepth && len(units) > 0; depth++ {
		sources, err := e.gateway.AncestorFundingSources(units)
		if err != nil {
			return nil, faults.Transient(err)
		}

		next := make([]string, 0, len(sources))
		for _, source := range sources {
			next = append(next, source.SrcUnit)
			if source.Address == userAddress { // no self-funding credit
				continue
			}
			if best, ok := bestIndex[source.Address]; !ok || best < source.MainChainIndex {
				bestIndex[source.Address] = source.MainChainIndex
			}
		}
		units = next
	}

	if len(bestIndex) == 0 {
		return e.findLinkReferrer(deviceAddress, userAddress)
	}

	addresses := make([]string, 0, len(bestIndex))
	for address := range bestIndex {
		addresses = append(addresses, address)
	}
	logger.Debug("ancestor addresses", zap.String("paymentUnit", paymentUnit), zap.String("addresses", strings.Join(addresses, ", ")))

	candidates, err := e.store.GetAttestedCandidates(addresses, paymentUnit)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		logger.Debug("no attested ancestors", zap.String("paymentUnit", paymentUnit))
		return e.findLinkReferrer(deviceAddress, userAddress)
	}

	var best *storage.AttestedCandidate
	var bestUserID string
	var maxIndex int64
	for i := range candidates {
		candidate := &candidates[i]

		payload, err := claim.Parse(candidate.Payload)
		if err != nil {
			return nil, err
		}
		if payload.Address != candidate.UserAddress {
			return nil, faults.Invariant("different addresses: user_address %s, payload %s for payment %s",
				candidate.UserAddress, candidate.Payload, paymentUnit)
		}

		if index := bestIndex[candidate.UserAddress]; best == nil || index > maxIndex {
			maxIndex = index
			best = candidate
			bestUserID = payload.UserID()
		}
	}
	if best == nil || bestUserID == "" {
		return nil, faults.Invariant("no best referrer for payment %s", paymentUnit)
	}

	logger.Debug("found payment referrer", zap.String("paymentUnit", paymentUnit), zap.String("referrer", best.UserAddress))
	if best.DeviceAddress == deviceAddress { // no self-referring by alias
		logger.Debug("self-referring, falling back to link referrer", zap.String("paymentUnit", paymentUnit))
		return e.findLinkReferrer(deviceAddress, userAddress)
	}

	return &ReferrerInfo{
		UserID:        bestUserID,
		UserAddress:   best.UserAddress,
		DeviceAddress: best.DeviceAddress,
		Username:      best.Username,
	}, nil
}

func (e *Engine) findLinkReferrer(deviceAddress, userAddress string) (*ReferrerInfo, error) {
	row, err := e.store.GetLatestLinkReferral(deviceAddress, userAddress)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	payload, err := claim.Parse(row.Payload)
	if err != nil {
		return nil, err
	}
	if payload.Address != row.UserAddress {
		return nil, faults.Invariant("different addresses: referring_user_address %s, payload %s for device %s",
			row.UserAddress, row.Payload, deviceAddress)
	}

	logger.Debug("found link referrer", zap.String("deviceAddress", deviceAddress), zap.String("referrer", row.UserAddress))
	return &ReferrerInfo{
		UserID:        payload.UserID(),
		UserAddress:   row.UserAddress,
		DeviceAddress: row.DeviceAddress,
		Username:      row.Username,
	}, nil
}
