package commands

import (
	"context"
	"errors"
	"testing"

	application "tradepost/contexts/settlement-core/sale-settlement-service/application"
	"tradepost/contexts/settlement-core/sale-settlement-service/domain/entities"
	domainerrors "tradepost/contexts/settlement-core/sale-settlement-service/domain/errors"
	"tradepost/contexts/settlement-core/sale-settlement-service/domain/services"
	"tradepost/contexts/settlement-core/sale-settlement-service/ports"
	"tradepost/internal/shared/signing"
)

func (f *purchaseFixture) cancelUseCase() CancelSaleUseCase {
	return CancelSaleUseCase{
		UnitOfWork:  f.store,
		Registry:    f.usecase.Registry,
		Sequence:    f.store,
		Guard:       application.NewReentryGuard(),
		Clock:       f.store,
		IDGenerator: f.store,
	}
}

func (f *purchaseFixture) cancelCommand(saleID string) CancelCommand {
	return CancelCommand{
		SaleID:              saleID,
		Canceler:            f.seller.address,
		AuthorizerSignature: signing.Sign(f.authorizer.key, services.CancelAuthDigest(saleID, f.seller.address)),
	}
}

func TestCancelSaleNeverSold(t *testing.T) {
	f := newPurchaseFixture(t)
	cancel := f.cancelUseCase()

	result, err := cancel.Execute(context.Background(), f.cancelCommand("sale-1"))
	if err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if result.Cancellation.SaleID != "sale-1" || result.Cancellation.Canceler != f.seller.address {
		t.Fatalf("unexpected cancellation %+v", result.Cancellation)
	}

	state, found, err := f.store.GetSaleState(context.Background(), "sale-1")
	if err != nil || !found {
		t.Fatalf("state missing after cancel: %v", err)
	}
	if !state.Canceled {
		t.Fatalf("state not canceled: %+v", state)
	}

	pending, err := f.store.ListPendingOutbox(context.Background(), 10)
	if err != nil {
		t.Fatalf("list outbox failed: %v", err)
	}
	if len(pending) != 1 || pending[0].EventType != ports.CanceledEventType {
		t.Fatalf("unexpected outbox %+v", pending)
	}
}

func TestCancelSaleAfterPartialFill(t *testing.T) {
	f := newPurchaseFixture(t)
	f.seedQuantitySale(10)
	f.store.CreditNative(f.buyer.address, 1_000)

	order := f.signedOrder("sale-1", entities.AssetKindQuantityBased, 10, 100)
	if _, err := f.usecase.Execute(context.Background(), f.command(order, 4, 10, 400)); err != nil {
		t.Fatalf("purchase failed: %v", err)
	}

	cancel := f.cancelUseCase()
	if _, err := cancel.Execute(context.Background(), f.cancelCommand("sale-1")); err != nil {
		t.Fatalf("cancel after partial fill failed: %v", err)
	}

	state, _, _ := f.store.GetSaleState(context.Background(), "sale-1")
	if !state.Canceled || state.Remaining != 6 {
		t.Fatalf("unexpected state %+v", state)
	}

	// Leftover supply is stranded for good.
	_, err := f.usecase.Execute(context.Background(), f.command(order, 1, 10, 100))
	if !errors.Is(err, domainerrors.ErrSaleCanceled) {
		t.Fatalf("expected sale canceled, got %v", err)
	}
}

func TestCancelSaleTwice(t *testing.T) {
	f := newPurchaseFixture(t)
	cancel := f.cancelUseCase()

	if _, err := cancel.Execute(context.Background(), f.cancelCommand("sale-1")); err != nil {
		t.Fatalf("first cancel failed: %v", err)
	}
	_, err := cancel.Execute(context.Background(), f.cancelCommand("sale-1"))
	if !errors.Is(err, domainerrors.ErrAlreadyCanceled) {
		t.Fatalf("expected already canceled, got %v", err)
	}
}

func TestCancelSaleUnauthorizedSigner(t *testing.T) {
	f := newPurchaseFixture(t)
	cancel := f.cancelUseCase()

	imposter := newParty(0x66)
	cmd := CancelCommand{
		SaleID:              "sale-1",
		Canceler:            f.seller.address,
		AuthorizerSignature: signing.Sign(imposter.key, services.CancelAuthDigest("sale-1", f.seller.address)),
	}
	_, err := cancel.Execute(context.Background(), cmd)
	if !errors.Is(err, domainerrors.ErrInvalidAuthorizerSignature) {
		t.Fatalf("expected invalid authorizer signature, got %v", err)
	}

	// The failed authorization must not leave the sale canceled.
	if _, found, _ := f.store.GetSaleState(context.Background(), "sale-1"); found {
		t.Fatalf("state persisted despite rejected cancel")
	}
}

func TestCancelSaleSignatureBoundToCanceler(t *testing.T) {
	f := newPurchaseFixture(t)
	cancel := f.cancelUseCase()

	// Authorization issued for the seller cannot be replayed by the buyer.
	cmd := f.cancelCommand("sale-1")
	cmd.Canceler = f.buyer.address
	_, err := cancel.Execute(context.Background(), cmd)
	if !errors.Is(err, domainerrors.ErrInvalidAuthorizerSignature) {
		t.Fatalf("expected invalid authorizer signature, got %v", err)
	}
}

func TestCancelSaleBlankSaleID(t *testing.T) {
	f := newPurchaseFixture(t)
	cancel := f.cancelUseCase()
	_, err := cancel.Execute(context.Background(), f.cancelCommand("  "))
	if !errors.Is(err, domainerrors.ErrInvalidCancelRequest) {
		t.Fatalf("expected invalid cancel request, got %v", err)
	}
}
