package services

import (
	"math/bits"

	domainerrors "tradepost/contexts/settlement-core/sale-settlement-service/domain/errors"
)

// FeeDenominator is the basis-point scale: 10 000 represents 100%.
const FeeDenominator uint64 = 10_000

// FeeSplit is the exact division of a settlement total. The floor-division
// remainder always accrues to the seller, never to fee or royalty receivers;
// CommissionFee + RoyaltyFee + SellerPayout == TotalPrice holds for every
// split this package produces.
type FeeSplit struct {
	TotalPrice    uint64
	CommissionFee uint64
	RoyaltyFee    uint64
	SellerPayout  uint64
}

// ComputeFeeSplit derives the commission/royalty/seller split for a purchase
// of amount units at unitPrice. Rates are basis points below FeeDenominator.
func ComputeFeeSplit(unitPrice, amount, commissionBps, royaltyBps uint64) (FeeSplit, error) {
	if commissionBps >= FeeDenominator || royaltyBps >= FeeDenominator {
		return FeeSplit{}, domainerrors.ErrInvalidRoyaltySetting
	}

	hi, total := bits.Mul64(unitPrice, amount)
	if hi != 0 {
		return FeeSplit{}, domainerrors.ErrOverflowDetected
	}

	fee := mulBpsFloor(total, commissionBps)
	royalty := mulBpsFloor(total, royaltyBps)
	if fee > total || royalty > total-fee {
		return FeeSplit{}, domainerrors.ErrOverflowDetected
	}

	return FeeSplit{
		TotalPrice:    total,
		CommissionFee: fee,
		RoyaltyFee:    royalty,
		SellerPayout:  total - fee - royalty,
	}, nil
}

// mulBpsFloor computes floor(total * bps / FeeDenominator) without overflow:
// with total = q*D + r, the result is exactly q*bps + floor(r*bps/D).
func mulBpsFloor(total, bps uint64) uint64 {
	q := total / FeeDenominator
	r := total % FeeDenominator
	return q*bps + r*bps/FeeDenominator
}
