package entities

import (
	"strings"

	"tradepost/internal/shared/signing"
)

// AssetKind distinguishes ownership-of-one assets from ownership-of-N assets.
type AssetKind string

const (
	AssetKindUniqueItem    AssetKind = "unique_item"
	AssetKindQuantityBased AssetKind = "quantity_based"
)

// Valid reports whether k is one of the two supported kinds.
func (k AssetKind) Valid() bool {
	return k == AssetKindUniqueItem || k == AssetKindQuantityBased
}

// NativePaymentAsset is the sentinel payment-asset reference meaning the
// chain-native currency attached to the settling call.
const NativePaymentAsset = ""

// SaleOrder is the immutable, seller-signed trade offer supplied with every
// purchase call. It is never stored; only its SaleID binds it to runtime
// state. The seller signature covers every field above it, in order.
type SaleOrder struct {
	SaleID          string
	Seller          string
	AssetContract   string
	PaymentAsset    string
	AssetKind       AssetKind
	ItemID          string
	Quantity        uint64
	UnitPrice       uint64
	SellerSignature signing.Envelope
}

// IsNativePayment reports whether the order settles in native currency.
func (o SaleOrder) IsNativePayment() bool {
	return strings.TrimSpace(o.PaymentAsset) == NativePaymentAsset
}
