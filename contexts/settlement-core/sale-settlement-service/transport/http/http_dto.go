package httptransport

type SignatureDTO struct {
	PublicKey string `json:"public_key"`
	Signature string `json:"signature"`
}

type SaleOrderDTO struct {
	SaleID          string       `json:"sale_id"`
	Seller          string       `json:"seller"`
	AssetContract   string       `json:"asset_contract"`
	PaymentAsset    string       `json:"payment_asset,omitempty"`
	AssetKind       string       `json:"asset_kind"`
	ItemID          string       `json:"item_id"`
	Quantity        uint64       `json:"quantity"`
	UnitPrice       uint64       `json:"unit_price"`
	SellerSignature SignatureDTO `json:"seller_signature"`
}

type PurchaseRequest struct {
	Order               SaleOrderDTO `json:"order"`
	Buyer               string       `json:"buyer"`
	Amount              uint64       `json:"amount"`
	Expiry              uint64       `json:"expiry"`
	AuthorizerSignature SignatureDTO `json:"authorizer_signature"`
	AttachedValue       uint64       `json:"attached_value,omitempty"`
}

type PurchaseResponse struct {
	SettlementID  string `json:"settlement_id"`
	SaleID        string `json:"sale_id"`
	Buyer         string `json:"buyer"`
	Seller        string `json:"seller"`
	Amount        uint64 `json:"amount"`
	CommissionFee uint64 `json:"commission_fee"`
	RoyaltyFee    uint64 `json:"royalty_fee"`
	PayToSeller   uint64 `json:"pay_to_seller"`
	SettledAt     string `json:"settled_at"`
}

type CancelRequest struct {
	SaleID              string       `json:"sale_id"`
	Canceler            string       `json:"canceler"`
	AuthorizerSignature SignatureDTO `json:"authorizer_signature"`
}

type CancelResponse struct {
	SaleID     string `json:"sale_id"`
	Canceler   string `json:"canceler"`
	CanceledAt string `json:"canceled_at"`
}

type SetRoyaltyRequest struct {
	Caller        string `json:"caller"`
	AssetContract string `json:"asset_contract"`
	RateBps       uint64 `json:"rate_bps"`
	Receiver      string `json:"receiver"`
}

type RoyaltyResponse struct {
	AssetContract string `json:"asset_contract"`
	RateBps       uint64 `json:"rate_bps"`
	Receiver      string `json:"receiver"`
	UpdatedAt     string `json:"updated_at"`
}

type SaleStateResponse struct {
	SaleID    string `json:"sale_id"`
	Locked    bool   `json:"locked"`
	Remaining uint64 `json:"remaining"`
	Canceled  bool   `json:"canceled"`
	UpdatedAt string `json:"updated_at"`
}

type SettlementDTO struct {
	SettlementID  string `json:"settlement_id"`
	SaleID        string `json:"sale_id"`
	Buyer         string `json:"buyer"`
	Seller        string `json:"seller"`
	AssetContract string `json:"asset_contract"`
	ItemID        string `json:"item_id"`
	AssetKind     string `json:"asset_kind"`
	PaymentAsset  string `json:"payment_asset,omitempty"`
	Amount        uint64 `json:"amount"`
	CommissionFee uint64 `json:"commission_fee"`
	RoyaltyFee    uint64 `json:"royalty_fee"`
	SellerPayout  uint64 `json:"seller_payout"`
	SettledAt     string `json:"settled_at"`
}

type ListSettlementsResponse struct {
	Items []SettlementDTO `json:"items"`
}

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
