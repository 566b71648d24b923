package services

import (
	"errors"
	"math"
	"testing"

	domainerrors "tradepost/contexts/settlement-core/sale-settlement-service/domain/errors"
)

func TestComputeFeeSplitBasic(t *testing.T) {
	// 4 units at 100 each, 2.5% commission, 5% royalty.
	split, err := ComputeFeeSplit(100, 4, 250, 500)
	if err != nil {
		t.Fatalf("compute fee split failed: %v", err)
	}
	if split.TotalPrice != 400 {
		t.Fatalf("unexpected total %d", split.TotalPrice)
	}
	if split.CommissionFee != 10 {
		t.Fatalf("unexpected commission %d", split.CommissionFee)
	}
	if split.RoyaltyFee != 20 {
		t.Fatalf("unexpected royalty %d", split.RoyaltyFee)
	}
	if split.SellerPayout != 370 {
		t.Fatalf("unexpected payout %d", split.SellerPayout)
	}
}

func TestComputeFeeSplitRemainderGoesToSeller(t *testing.T) {
	// 333 * 250 / 10000 = 8.325 -> fees floor, seller keeps the remainder.
	split, err := ComputeFeeSplit(333, 1, 250, 100)
	if err != nil {
		t.Fatalf("compute fee split failed: %v", err)
	}
	if split.CommissionFee != 8 {
		t.Fatalf("unexpected commission %d", split.CommissionFee)
	}
	if split.RoyaltyFee != 3 {
		t.Fatalf("unexpected royalty %d", split.RoyaltyFee)
	}
	if split.CommissionFee+split.RoyaltyFee+split.SellerPayout != split.TotalPrice {
		t.Fatalf("split does not sum to total: %+v", split)
	}
}

func TestComputeFeeSplitConservesTotal(t *testing.T) {
	prices := []uint64{1, 7, 99, 10_000, 123_456_789, math.MaxUint32}
	amounts := []uint64{1, 3, 10, 1000}
	rates := []uint64{0, 1, 250, 500, 9_999}
	for _, price := range prices {
		for _, amount := range amounts {
			for _, commission := range rates {
				for _, royalty := range rates {
					if commission+royalty >= FeeDenominator {
						continue
					}
					split, err := ComputeFeeSplit(price, amount, commission, royalty)
					if err != nil {
						t.Fatalf("split %d*%d c=%d r=%d failed: %v", price, amount, commission, royalty, err)
					}
					if split.CommissionFee+split.RoyaltyFee+split.SellerPayout != split.TotalPrice {
						t.Fatalf("split loses units: %+v", split)
					}
				}
			}
		}
	}
}

func TestComputeFeeSplitZeroRoyalty(t *testing.T) {
	split, err := ComputeFeeSplit(1000, 1, 250, 0)
	if err != nil {
		t.Fatalf("compute fee split failed: %v", err)
	}
	if split.RoyaltyFee != 0 {
		t.Fatalf("expected zero royalty, got %d", split.RoyaltyFee)
	}
	if split.SellerPayout != 975 {
		t.Fatalf("unexpected payout %d", split.SellerPayout)
	}
}

func TestComputeFeeSplitTotalOverflow(t *testing.T) {
	_, err := ComputeFeeSplit(math.MaxUint64, 2, 250, 0)
	if !errors.Is(err, domainerrors.ErrOverflowDetected) {
		t.Fatalf("expected overflow error, got %v", err)
	}
}

func TestComputeFeeSplitRateAtDenominatorRejected(t *testing.T) {
	if _, err := ComputeFeeSplit(100, 1, FeeDenominator, 0); !errors.Is(err, domainerrors.ErrInvalidRoyaltySetting) {
		t.Fatalf("expected invalid rate error, got %v", err)
	}
	if _, err := ComputeFeeSplit(100, 1, 0, FeeDenominator); !errors.Is(err, domainerrors.ErrInvalidRoyaltySetting) {
		t.Fatalf("expected invalid rate error, got %v", err)
	}
}

func TestComputeFeeSplitLargeTotalExact(t *testing.T) {
	// Near the uint64 ceiling the naive total*bps product would overflow;
	// the split must still be exact.
	price := uint64(math.MaxUint64 / 3)
	split, err := ComputeFeeSplit(price, 3, 9_999, 0)
	if err != nil {
		t.Fatalf("compute fee split failed: %v", err)
	}
	if split.CommissionFee+split.RoyaltyFee+split.SellerPayout != split.TotalPrice {
		t.Fatalf("split loses units: %+v", split)
	}
	if split.CommissionFee <= split.SellerPayout {
		t.Fatalf("99.99%% commission should dominate payout: %+v", split)
	}
}
