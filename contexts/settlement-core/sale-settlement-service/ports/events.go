package ports

import (
	"encoding/json"
)

const (
	PurchasedEventType = "settlement.purchased"
	CanceledEventType  = "settlement.canceled"

	sourceService = "sale-settlement-service"
)

// NewPurchasedEnvelope wraps a purchase fact in the canonical envelope.
// Events are partitioned by sale so per-sale consumers observe settlement
// order.
func NewPurchasedEnvelope(event PurchasedEvent) (EventEnvelope, error) {
	payload, err := json.Marshal(map[string]any{
		"sale_id":          event.SaleID,
		"buyer":            event.Buyer,
		"seller":           event.Seller,
		"purchased_amount": event.PurchasedAmount,
		"commission_fee":   event.CommissionFee,
		"royalty_fee":      event.RoyaltyFee,
		"pay_to_seller":    event.PayToSeller,
	})
	if err != nil {
		return EventEnvelope{}, err
	}
	return EventEnvelope{
		EventID:          event.EventID,
		EventType:        PurchasedEventType,
		OccurredAt:       event.OccurredAt.UTC(),
		SourceService:    sourceService,
		TraceID:          event.EventID,
		SchemaVersion:    1,
		PartitionKeyPath: "sale_id",
		PartitionKey:     event.SaleID,
		Data:             payload,
	}, nil
}

// NewCanceledEnvelope wraps a cancellation fact in the canonical envelope.
func NewCanceledEnvelope(event CanceledEvent) (EventEnvelope, error) {
	payload, err := json.Marshal(map[string]any{
		"sale_id":  event.SaleID,
		"canceler": event.Canceler,
	})
	if err != nil {
		return EventEnvelope{}, err
	}
	return EventEnvelope{
		EventID:          event.EventID,
		EventType:        CanceledEventType,
		OccurredAt:       event.OccurredAt.UTC(),
		SourceService:    sourceService,
		TraceID:          event.EventID,
		SchemaVersion:    1,
		PartitionKeyPath: "sale_id",
		PartitionKey:     event.SaleID,
		Data:             payload,
	}, nil
}
