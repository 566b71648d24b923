package services

import (
	"errors"
	"testing"

	"tradepost/contexts/settlement-core/sale-settlement-service/domain/entities"
	domainerrors "tradepost/contexts/settlement-core/sale-settlement-service/domain/errors"
)

func TestReserveLocksOnFirstPurchase(t *testing.T) {
	state := entities.SaleState{SaleID: "sale-1"}

	next, err := Reserve(state, entities.AssetKindQuantityBased, 10, 4)
	if err != nil {
		t.Fatalf("reserve failed: %v", err)
	}
	if !next.Locked {
		t.Fatalf("expected sale locked after first reservation")
	}
	if next.Remaining != 6 {
		t.Fatalf("unexpected remaining %d", next.Remaining)
	}
}

func TestReserveIgnoresOfferedQuantityOnceLocked(t *testing.T) {
	state := entities.SaleState{SaleID: "sale-1", Locked: true, Remaining: 6}

	// A reissued order claiming a larger supply cannot widen the sale.
	next, err := Reserve(state, entities.AssetKindQuantityBased, 100, 6)
	if err != nil {
		t.Fatalf("reserve failed: %v", err)
	}
	if next.Remaining != 0 {
		t.Fatalf("unexpected remaining %d", next.Remaining)
	}

	if _, err := Reserve(next, entities.AssetKindQuantityBased, 100, 1); !errors.Is(err, domainerrors.ErrInsufficientSupply) {
		t.Fatalf("expected insufficient supply, got %v", err)
	}
}

func TestReserveUniqueItemRequiresSingleUnit(t *testing.T) {
	state := entities.SaleState{SaleID: "sale-u"}

	if _, err := Reserve(state, entities.AssetKindUniqueItem, 2, 1); !errors.Is(err, domainerrors.ErrInvalidOfferedQuantity) {
		t.Fatalf("expected invalid offered quantity, got %v", err)
	}

	next, err := Reserve(state, entities.AssetKindUniqueItem, 1, 1)
	if err != nil {
		t.Fatalf("reserve failed: %v", err)
	}
	if next.Remaining != 0 {
		t.Fatalf("unexpected remaining %d", next.Remaining)
	}
}

func TestReserveRejectsZeroOfferedQuantity(t *testing.T) {
	state := entities.SaleState{SaleID: "sale-q"}
	if _, err := Reserve(state, entities.AssetKindQuantityBased, 0, 1); !errors.Is(err, domainerrors.ErrInvalidOfferedQuantity) {
		t.Fatalf("expected invalid offered quantity, got %v", err)
	}
}

func TestReserveRejectsUnknownKind(t *testing.T) {
	state := entities.SaleState{SaleID: "sale-x"}
	if _, err := Reserve(state, entities.AssetKind("timeshare"), 1, 1); !errors.Is(err, domainerrors.ErrInvalidAssetKind) {
		t.Fatalf("expected invalid asset kind, got %v", err)
	}
}

func TestReserveOverAskOnFirstPurchase(t *testing.T) {
	state := entities.SaleState{SaleID: "sale-q"}
	if _, err := Reserve(state, entities.AssetKindQuantityBased, 5, 6); !errors.Is(err, domainerrors.ErrInsufficientSupply) {
		t.Fatalf("expected insufficient supply, got %v", err)
	}
}

func TestReserveCanceledSale(t *testing.T) {
	state := entities.SaleState{SaleID: "sale-c", Canceled: true}
	if _, err := Reserve(state, entities.AssetKindQuantityBased, 10, 1); !errors.Is(err, domainerrors.ErrSaleCanceled) {
		t.Fatalf("expected sale canceled, got %v", err)
	}
}

func TestMarkCanceledIsPermanentAndIgnoresLockState(t *testing.T) {
	// Partially fulfilled sale: locked with remaining supply.
	state := entities.SaleState{SaleID: "sale-p", Locked: true, Remaining: 3}

	next, err := MarkCanceled(state)
	if err != nil {
		t.Fatalf("mark canceled failed: %v", err)
	}
	if !next.Canceled {
		t.Fatalf("expected canceled flag set")
	}
	if next.Remaining != 3 {
		t.Fatalf("cancel must not touch remaining, got %d", next.Remaining)
	}

	if _, err := MarkCanceled(next); !errors.Is(err, domainerrors.ErrAlreadyCanceled) {
		t.Fatalf("expected already canceled, got %v", err)
	}
}
