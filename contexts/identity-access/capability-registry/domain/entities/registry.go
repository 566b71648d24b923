package entities

import "time"

const (
	RoleManager    = "MANAGER"
	RoleAuthorizer = "AUTHORIZER"
)

// ValidRole reports whether role names a capability this registry manages.
func ValidRole(role string) bool {
	return role == RoleManager || role == RoleAuthorizer
}

// CapabilityGrant records one identity holding one role.
type CapabilityGrant struct {
	Role      string
	Identity  string
	GrantedBy string
	GrantedAt time.Time
}

// Config is the registry-wide settlement configuration. CommissionRateBps is
// expressed in basis points and must stay below the fee denominator used by
// the settlement module.
type Config struct {
	CommissionRateBps uint64
	Treasury          string
	UpdatedAt         time.Time
}

// ConfigSnapshot is the full read model returned to operators.
type ConfigSnapshot struct {
	Config             Config
	Grants             []CapabilityGrant
	AcceptedAssets     []string
	SupportedContracts []string
}
