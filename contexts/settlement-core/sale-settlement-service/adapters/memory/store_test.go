package memory

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"tradepost/contexts/settlement-core/sale-settlement-service/domain/entities"
	domainerrors "tradepost/contexts/settlement-core/sale-settlement-service/domain/errors"
	"tradepost/contexts/settlement-core/sale-settlement-service/ports"
)

const (
	testIdentity = "0x5e771e000000000000000000000000000000cafe"
	testContract = "0xc011ec7100000000000000000000000000000001"
)

func TestExecuteRollsBackEveryStore(t *testing.T) {
	store := NewStore(testIdentity)
	store.CreditNative("alice", 100)
	store.CreditQuantity(testContract, "alice", "item-1", 5)
	store.SetOperatorApproval(testContract, "alice", true)

	boom := errors.New("boom")
	err := store.Execute(context.Background(), func(ctx context.Context, stores ports.SettlementStores) error {
		if err := stores.PutSaleState(ctx, entities.SaleState{SaleID: "sale-1", Locked: true, Remaining: 3}); err != nil {
			return err
		}
		if err := stores.TransferNative(ctx, "alice", "bob", 40); err != nil {
			return err
		}
		if err := stores.TransferQuantity(ctx, testContract, "alice", "bob", "item-1", 2); err != nil {
			return err
		}
		if err := stores.CreateSettlementWithOutbox(ctx, entities.Settlement{SettlementID: "st-1", SaleID: "sale-1"}, ports.PurchasedEvent{
			EventID: "evt-1",
			SaleID:  "sale-1",
		}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	if _, found, _ := store.GetSaleState(context.Background(), "sale-1"); found {
		t.Fatalf("sale state survived rollback")
	}
	if got := store.NativeBalance("alice"); got != 100 {
		t.Fatalf("alice balance %d", got)
	}
	if got := store.NativeBalance("bob"); got != 0 {
		t.Fatalf("bob balance %d", got)
	}
	if got := store.QuantityHolding(testContract, "alice", "item-1"); got != 5 {
		t.Fatalf("alice holding %d", got)
	}
	pending, _ := store.ListPendingOutbox(context.Background(), 10)
	if len(pending) != 0 {
		t.Fatalf("outbox survived rollback: %+v", pending)
	}
}

func TestExecuteCommitsOnSuccess(t *testing.T) {
	store := NewStore(testIdentity)
	store.CreditNative("alice", 100)

	err := store.Execute(context.Background(), func(ctx context.Context, stores ports.SettlementStores) error {
		return stores.TransferNative(ctx, "alice", "bob", 40)
	})
	if err != nil {
		t.Fatalf("execute failed: %v", err)
	}
	if got := store.NativeBalance("bob"); got != 40 {
		t.Fatalf("bob balance %d", got)
	}
}

func TestTransferNativeInsufficientBalance(t *testing.T) {
	store := NewStore(testIdentity)
	store.CreditNative("alice", 10)
	err := store.TransferNative(context.Background(), "alice", "bob", 11)
	if !errors.Is(err, domainerrors.ErrTransferFailed) {
		t.Fatalf("expected transfer failed, got %v", err)
	}
	if got := store.NativeBalance("alice"); got != 10 {
		t.Fatalf("alice balance mutated: %d", got)
	}
}

func TestTransferFungibleAllowanceAndBalance(t *testing.T) {
	store := NewStore(testIdentity)
	const asset = "0xf4a6000000000000000000000000000000000001"
	store.CreditFungible(asset, "alice", 50)

	err := store.TransferFungible(context.Background(), asset, "alice", "bob", 10)
	if !errors.Is(err, domainerrors.ErrInsufficientAllowance) {
		t.Fatalf("expected insufficient allowance, got %v", err)
	}

	store.ApproveFungible(asset, "alice", 100)
	err = store.TransferFungible(context.Background(), asset, "alice", "bob", 60)
	if !errors.Is(err, domainerrors.ErrTransferFailed) {
		t.Fatalf("expected transfer failed, got %v", err)
	}

	if err := store.TransferFungible(context.Background(), asset, "alice", "bob", 30); err != nil {
		t.Fatalf("transfer failed: %v", err)
	}
	if got := store.FungibleBalance(asset, "bob"); got != 30 {
		t.Fatalf("bob balance %d", got)
	}
	// Allowance is consumed alongside the balance.
	err = store.TransferFungible(context.Background(), asset, "alice", "bob", 71)
	if !errors.Is(err, domainerrors.ErrInsufficientAllowance) {
		t.Fatalf("expected insufficient allowance, got %v", err)
	}
}

func TestTransferUniqueRequiresOwnerAndApproval(t *testing.T) {
	store := NewStore(testIdentity)
	store.SetUniqueOwner(testContract, "item-1", "alice")

	err := store.TransferUnique(context.Background(), testContract, "alice", "bob", "item-1")
	if !errors.Is(err, domainerrors.ErrTransferFailed) {
		t.Fatalf("expected transfer failed without approval, got %v", err)
	}

	store.SetOperatorApproval(testContract, "alice", true)
	err = store.TransferUnique(context.Background(), testContract, "carol", "bob", "item-1")
	if !errors.Is(err, domainerrors.ErrTransferFailed) {
		t.Fatalf("expected transfer failed for non-owner, got %v", err)
	}

	if err := store.TransferUnique(context.Background(), testContract, "alice", "bob", "item-1"); err != nil {
		t.Fatalf("transfer failed: %v", err)
	}
	if owner := store.UniqueOwner(testContract, "item-1"); owner != "bob" {
		t.Fatalf("owner %s", owner)
	}
}

func TestOutboxOrderingAndMarkSent(t *testing.T) {
	store := NewStore(testIdentity)
	now := time.Now().UTC()

	for i, id := range []string{"evt-1", "evt-2", "evt-3"} {
		err := store.CreateSettlementWithOutbox(context.Background(), entities.Settlement{
			SettlementID: id,
			SaleID:       "sale-1",
			SettledAt:    now.Add(time.Duration(i) * time.Second),
		}, ports.PurchasedEvent{EventID: id, SaleID: "sale-1", OccurredAt: now})
		if err != nil {
			t.Fatalf("create settlement %s failed: %v", id, err)
		}
	}

	pending, err := store.ListPendingOutbox(context.Background(), 10)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(pending) != 3 || pending[0].OutboxID != "evt-1" || pending[2].OutboxID != "evt-3" {
		t.Fatalf("unexpected pending order %+v", pending)
	}

	var envelope ports.EventEnvelope
	if err := json.Unmarshal(pending[0].Payload, &envelope); err != nil {
		t.Fatalf("payload not an envelope: %v", err)
	}
	if envelope.EventType != ports.PurchasedEventType {
		t.Fatalf("envelope type %s", envelope.EventType)
	}

	if err := store.MarkOutboxSent(context.Background(), "evt-2", now); err != nil {
		t.Fatalf("mark sent failed: %v", err)
	}
	pending, _ = store.ListPendingOutbox(context.Background(), 10)
	if len(pending) != 2 || pending[0].OutboxID != "evt-1" || pending[1].OutboxID != "evt-3" {
		t.Fatalf("unexpected pending after mark %+v", pending)
	}

	err = store.MarkOutboxSent(context.Background(), "no-such-row", now)
	if !errors.Is(err, domainerrors.ErrRepositoryInvariantBroke) {
		t.Fatalf("expected invariant error, got %v", err)
	}
}

func TestListSettlementsFilterAndLimit(t *testing.T) {
	store := NewStore(testIdentity)
	now := time.Now().UTC()

	seed := []entities.Settlement{
		{SettlementID: "st-1", SaleID: "sale-1", Buyer: "bob", Seller: "alice", SettledAt: now},
		{SettlementID: "st-2", SaleID: "sale-1", Buyer: "carol", Seller: "alice", SettledAt: now.Add(time.Second)},
		{SettlementID: "st-3", SaleID: "sale-2", Buyer: "bob", Seller: "dave", SettledAt: now.Add(2 * time.Second)},
	}
	for i, settlement := range seed {
		err := store.CreateSettlementWithOutbox(context.Background(), settlement, ports.PurchasedEvent{
			EventID: settlement.SettlementID, SaleID: settlement.SaleID, OccurredAt: now,
		})
		if err != nil {
			t.Fatalf("seed %d failed: %v", i, err)
		}
	}

	bySale, err := store.ListSettlements(context.Background(), ports.SettlementFilter{SaleID: "sale-1"})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(bySale) != 2 || bySale[0].SettlementID != "st-1" {
		t.Fatalf("unexpected sale filter result %+v", bySale)
	}

	byBuyer, _ := store.ListSettlements(context.Background(), ports.SettlementFilter{Buyer: "bob"})
	if len(byBuyer) != 2 {
		t.Fatalf("unexpected buyer filter result %+v", byBuyer)
	}

	limited, _ := store.ListSettlements(context.Background(), ports.SettlementFilter{Limit: 1})
	if len(limited) != 1 || limited[0].SettlementID != "st-1" {
		t.Fatalf("unexpected limited result %+v", limited)
	}
}

func TestSequenceAdvance(t *testing.T) {
	store := NewStore(testIdentity)

	current, err := store.Current(context.Background())
	if err != nil || current != 0 {
		t.Fatalf("fresh sequence %d %v", current, err)
	}
	next, err := store.Advance(context.Background())
	if err != nil || next != 1 {
		t.Fatalf("advance %d %v", next, err)
	}
	store.SetSequence(41)
	next, _ = store.Advance(context.Background())
	if next != 42 {
		t.Fatalf("advance after seed %d", next)
	}
}
