package ports

import (
	"context"
	"time"

	"tradepost/contexts/settlement-core/sale-settlement-service/domain/entities"
	contractsv1 "tradepost/contracts/gen/events/v1"
)

// Clock allows deterministic testing of timestamps.
type Clock interface {
	Now() time.Time
}

// IDGenerator abstracts settlement/event identifier generation.
type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}

// Sequence is the monotonically increasing ordering counter purchase expiry
// is compared against (the service-side analogue of chain height). Advance is
// called once per committed purchase or cancel call.
type Sequence interface {
	Current(ctx context.Context) (uint64, error)
	Advance(ctx context.Context) (uint64, error)
}

// Registry is the consumed role/configuration capability. The settlement
// module never owns this state; it reads it through this boundary.
type Registry interface {
	HasCapability(ctx context.Context, role string, identity string) (bool, error)
	CommissionFeeRate(ctx context.Context) (uint64, error)
	TreasuryIdentity(ctx context.Context) (string, error)
	IsAcceptedPaymentAsset(ctx context.Context, asset string) (bool, error)
	IsSupportedAssetContract(ctx context.Context, contract string) (bool, error)
}

// SaleStateRepository owns the persisted per-sale runtime state. The boolean
// result distinguishes a missing record (sale never touched) from a zero one.
type SaleStateRepository interface {
	GetSaleState(ctx context.Context, saleID string) (entities.SaleState, bool, error)
	PutSaleState(ctx context.Context, state entities.SaleState) error
}

// RoyaltyRepository owns per-asset-contract royalty configuration.
type RoyaltyRepository interface {
	GetRoyalty(ctx context.Context, assetContract string) (entities.RoyaltyInfo, bool, error)
	PutRoyalty(ctx context.Context, info entities.RoyaltyInfo) error
}

// PurchasedEvent is the outbound integration payload for a settled purchase.
type PurchasedEvent struct {
	EventID         string
	SaleID          string
	Buyer           string
	Seller          string
	PurchasedAmount uint64
	CommissionFee   uint64
	RoyaltyFee      uint64
	PayToSeller     uint64
	OccurredAt      time.Time
}

// CanceledEvent is the outbound integration payload for a cancellation.
type CanceledEvent struct {
	EventID    string
	SaleID     string
	Canceler   string
	OccurredAt time.Time
}

// SettlementFilter selects settlement log rows by their indexed fields.
type SettlementFilter struct {
	SaleID string
	Buyer  string
	Seller string
	Limit  int
}

// SettlementRepository persists the append-only settlement/cancellation log
// together with the outbox rows that mirror it onto the event bus.
type SettlementRepository interface {
	CreateSettlementWithOutbox(ctx context.Context, settlement entities.Settlement, event PurchasedEvent) error
	CreateCancellationWithOutbox(ctx context.Context, cancellation entities.Cancellation, event CanceledEvent) error
	ListSettlements(ctx context.Context, filter SettlementFilter) ([]entities.Settlement, error)
	GetCancellation(ctx context.Context, saleID string) (entities.Cancellation, bool, error)
}

// PaymentLedger moves payment value between parties. Native transfers draw on
// the value attached to the settling call; fungible transfers require the
// payer to have granted the settlement identity an allowance beforehand.
type PaymentLedger interface {
	TransferNative(ctx context.Context, payer string, payee string, amount uint64) error
	TransferFungible(ctx context.Context, asset string, payer string, payee string, amount uint64) error
}

// AssetLedger moves ownership of the traded asset. The seller must have
// granted the settlement identity blanket transfer approval beforehand.
type AssetLedger interface {
	TransferUnique(ctx context.Context, assetContract string, from string, to string, itemID string) error
	TransferQuantity(ctx context.Context, assetContract string, from string, to string, itemID string, amount uint64) error
}

// SettlementStores bundles every port one settlement transaction may touch.
type SettlementStores interface {
	SaleStateRepository
	RoyaltyRepository
	SettlementRepository
	PaymentLedger
	AssetLedger
}

// UnitOfWork runs fn against transactional stores. A non-nil error from fn
// rolls back every mutation fn performed; nothing partial survives.
type UnitOfWork interface {
	Execute(ctx context.Context, fn func(ctx context.Context, stores SettlementStores) error) error
}

// OutboxMessage is a row ready to relay from the module outbox.
type OutboxMessage struct {
	OutboxID     string
	EventType    string
	PartitionKey string
	Payload      []byte
	CreatedAt    time.Time
}

// OutboxRepository models worker-side outbox polling/acknowledgement.
type OutboxRepository interface {
	ListPendingOutbox(ctx context.Context, limit int) ([]OutboxMessage, error)
	MarkOutboxSent(ctx context.Context, outboxID string, sentAt time.Time) error
}

// EventEnvelope reuses the canonical cross-runtime envelope contract.
type EventEnvelope = contractsv1.Envelope

// EventPublisher publishes canonical envelopes to a topic.
type EventPublisher interface {
	Publish(ctx context.Context, topic string, event EventEnvelope) error
}
