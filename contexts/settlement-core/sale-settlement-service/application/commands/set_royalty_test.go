package commands

import (
	"context"
	"errors"
	"testing"

	domainerrors "tradepost/contexts/settlement-core/sale-settlement-service/domain/errors"
)

func (f *purchaseFixture) royaltyUseCase() SetRoyaltyUseCase {
	return SetRoyaltyUseCase{
		UnitOfWork: f.store,
		Registry:   f.usecase.Registry,
		Clock:      f.store,
	}
}

func TestSetRoyaltyAsManager(t *testing.T) {
	f := newPurchaseFixture(t)
	manager := newParty(0x77)
	f.registry.managers[manager.address] = true

	info, err := f.royaltyUseCase().Execute(context.Background(), SetRoyaltyCommand{
		Caller:        manager.address,
		AssetContract: testContract,
		RateBps:       500,
		Receiver:      f.royalty.address,
	})
	if err != nil {
		t.Fatalf("set royalty failed: %v", err)
	}
	if info.RateBps != 500 || info.Receiver != f.royalty.address {
		t.Fatalf("unexpected info %+v", info)
	}

	stored, found, err := f.store.GetRoyalty(context.Background(), testContract)
	if err != nil || !found {
		t.Fatalf("royalty not persisted: %v", err)
	}
	if stored.RateBps != 500 {
		t.Fatalf("stored rate %d", stored.RateBps)
	}
}

func TestSetRoyaltyWithoutManagerCapability(t *testing.T) {
	f := newPurchaseFixture(t)

	_, err := f.royaltyUseCase().Execute(context.Background(), SetRoyaltyCommand{
		Caller:        f.seller.address,
		AssetContract: testContract,
		RateBps:       500,
		Receiver:      f.royalty.address,
	})
	if !errors.Is(err, domainerrors.ErrCapabilityDenied) {
		t.Fatalf("expected capability denied, got %v", err)
	}
}

func TestSetRoyaltyRateBounds(t *testing.T) {
	f := newPurchaseFixture(t)
	manager := newParty(0x77)
	f.registry.managers[manager.address] = true

	for _, rate := range []uint64{0, 10_000, 20_000} {
		_, err := f.royaltyUseCase().Execute(context.Background(), SetRoyaltyCommand{
			Caller:        manager.address,
			AssetContract: testContract,
			RateBps:       rate,
			Receiver:      f.royalty.address,
		})
		if !errors.Is(err, domainerrors.ErrInvalidRoyaltySetting) {
			t.Fatalf("rate %d: expected invalid royalty setting, got %v", rate, err)
		}
	}
}

func TestSetRoyaltyUnsupportedContract(t *testing.T) {
	f := newPurchaseFixture(t)
	manager := newParty(0x77)
	f.registry.managers[manager.address] = true

	_, err := f.royaltyUseCase().Execute(context.Background(), SetRoyaltyCommand{
		Caller:        manager.address,
		AssetContract: "0x0ff0000000000000000000000000000000000001",
		RateBps:       500,
		Receiver:      f.royalty.address,
	})
	if !errors.Is(err, domainerrors.ErrCollectionNotSupported) {
		t.Fatalf("expected collection not supported, got %v", err)
	}
}

func TestSetRoyaltyZeroReceiver(t *testing.T) {
	f := newPurchaseFixture(t)
	manager := newParty(0x77)
	f.registry.managers[manager.address] = true

	_, err := f.royaltyUseCase().Execute(context.Background(), SetRoyaltyCommand{
		Caller:        manager.address,
		AssetContract: testContract,
		RateBps:       500,
		Receiver:      "",
	})
	if !errors.Is(err, domainerrors.ErrZeroAddressRejected) {
		t.Fatalf("expected zero address rejected, got %v", err)
	}
}
