package ports

import (
	"context"
	"time"

	"tradepost/contexts/identity-access/capability-registry/domain/entities"
)

// Clock allows deterministic testing of timestamps.
type Clock interface {
	Now() time.Time
}

// Repository owns the registry's grants, configuration and allow-lists.
type Repository interface {
	HasGrant(ctx context.Context, role string, identity string) (bool, error)
	PutGrant(ctx context.Context, grant entities.CapabilityGrant) error
	DeleteGrant(ctx context.Context, role string, identity string) error
	ListGrants(ctx context.Context) ([]entities.CapabilityGrant, error)

	GetConfig(ctx context.Context) (entities.Config, error)
	PutConfig(ctx context.Context, config entities.Config) error

	IsAcceptedAsset(ctx context.Context, asset string) (bool, error)
	PutAcceptedAsset(ctx context.Context, asset string, accepted bool) error
	ListAcceptedAssets(ctx context.Context) ([]string, error)

	IsSupportedContract(ctx context.Context, contract string) (bool, error)
	PutSupportedContract(ctx context.Context, contract string, supported bool) error
	ListSupportedContracts(ctx context.Context) ([]string, error)
}
