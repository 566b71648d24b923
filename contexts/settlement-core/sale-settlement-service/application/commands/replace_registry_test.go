package commands

import (
	"context"
	"errors"
	"testing"

	domainerrors "tradepost/contexts/settlement-core/sale-settlement-service/domain/errors"
)

func TestReplaceRegistryAsManager(t *testing.T) {
	f := newPurchaseFixture(t)
	manager := newParty(0x77)
	f.registry.managers[manager.address] = true

	replacement := &stubRegistry{
		authorizers:   map[string]bool{},
		managers:      map[string]bool{manager.address: true},
		commissionBps: 100,
		treasury:      f.treasury.address,
		assets:        map[string]bool{},
		contracts:     map[string]bool{},
	}

	usecase := ReplaceRegistryUseCase{Registry: f.usecase.Registry}
	if err := usecase.Execute(context.Background(), manager.address, replacement); err != nil {
		t.Fatalf("replace failed: %v", err)
	}

	rate, err := f.usecase.Registry.Current().CommissionFeeRate(context.Background())
	if err != nil || rate != 100 {
		t.Fatalf("swap not visible: %d %v", rate, err)
	}
}

func TestReplaceRegistryRequiresManager(t *testing.T) {
	f := newPurchaseFixture(t)

	usecase := ReplaceRegistryUseCase{Registry: f.usecase.Registry}
	err := usecase.Execute(context.Background(), f.seller.address, &stubRegistry{})
	if !errors.Is(err, domainerrors.ErrCapabilityDenied) {
		t.Fatalf("expected capability denied, got %v", err)
	}
	// A denied swap leaves the old binding intact.
	rate, _ := f.usecase.Registry.Current().CommissionFeeRate(context.Background())
	if rate != 250 {
		t.Fatalf("registry swapped despite denial: %d", rate)
	}
}

func TestReplaceRegistryRejectsNil(t *testing.T) {
	f := newPurchaseFixture(t)
	manager := newParty(0x77)
	f.registry.managers[manager.address] = true

	usecase := ReplaceRegistryUseCase{Registry: f.usecase.Registry}
	err := usecase.Execute(context.Background(), manager.address, nil)
	if !errors.Is(err, domainerrors.ErrRegistryRequired) {
		t.Fatalf("expected registry required, got %v", err)
	}
}
