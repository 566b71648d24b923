package entities

import "time"

// Settlement is the persisted record of one completed purchase. Settlement
// rows are the queryable form of the Purchased event log, indexed by sale id,
// buyer and seller.
type Settlement struct {
	SettlementID  string
	SaleID        string
	Buyer         string
	Seller        string
	AssetContract string
	ItemID        string
	AssetKind     AssetKind
	PaymentAsset  string
	Amount        uint64
	CommissionFee uint64
	RoyaltyFee    uint64
	SellerPayout  uint64
	SettledAt     time.Time
}

// Cancellation records the permanent cancellation of a sale identifier.
type Cancellation struct {
	SaleID     string
	Canceler   string
	CanceledAt time.Time
}
