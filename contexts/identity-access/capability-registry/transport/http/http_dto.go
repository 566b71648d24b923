package httptransport

type GrantRequest struct {
	Caller   string `json:"caller"`
	Role     string `json:"role"`
	Identity string `json:"identity"`
}

type GrantResponse struct {
	Role      string `json:"role"`
	Identity  string `json:"identity"`
	GrantedBy string `json:"granted_by"`
	GrantedAt string `json:"granted_at"`
}

type RevokeRequest struct {
	Caller   string `json:"caller"`
	Role     string `json:"role"`
	Identity string `json:"identity"`
}

type SetCommissionRateRequest struct {
	Caller  string `json:"caller"`
	RateBps uint64 `json:"rate_bps"`
}

type SetTreasuryRequest struct {
	Caller   string `json:"caller"`
	Treasury string `json:"treasury"`
}

type ConfigResponse struct {
	CommissionRateBps uint64 `json:"commission_rate_bps"`
	Treasury          string `json:"treasury"`
	UpdatedAt         string `json:"updated_at"`
}

type SetAssetRequest struct {
	Caller   string `json:"caller"`
	Asset    string `json:"asset"`
	Accepted bool   `json:"accepted"`
}

type SetContractRequest struct {
	Caller    string `json:"caller"`
	Contract  string `json:"contract"`
	Supported bool   `json:"supported"`
}

type SnapshotResponse struct {
	Config             ConfigResponse  `json:"config"`
	Grants             []GrantResponse `json:"grants"`
	AcceptedAssets     []string        `json:"accepted_assets"`
	SupportedContracts []string        `json:"supported_contracts"`
}

type CapabilityResponse struct {
	Role     string `json:"role"`
	Identity string `json:"identity"`
	Granted  bool   `json:"granted"`
}

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
