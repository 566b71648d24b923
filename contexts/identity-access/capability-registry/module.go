package capabilityregistry

import (
	"context"
	"log/slog"

	httpadapter "tradepost/contexts/identity-access/capability-registry/adapters/http"
	"tradepost/contexts/identity-access/capability-registry/adapters/memory"
	"tradepost/contexts/identity-access/capability-registry/application"
	"tradepost/contexts/identity-access/capability-registry/domain/entities"
	"tradepost/contexts/identity-access/capability-registry/ports"
)

// Module is the composition surface for the capability registry.
type Module struct {
	Handler httpadapter.Handler
	Service application.Service
	Store   *memory.Store
}

type Dependencies struct {
	Repo   ports.Repository
	Clock  ports.Clock
	Logger *slog.Logger
}

func NewModule(deps Dependencies) Module {
	service := application.Service{
		Repo:   deps.Repo,
		Clock:  deps.Clock,
		Logger: deps.Logger,
	}
	return Module{
		Handler: httpadapter.Handler{Service: service, Logger: deps.Logger},
		Service: service,
	}
}

// Seed is the bootstrap-time registry state. InitialManager must be set for
// the manager surface to be usable at all; everything else can be configured
// through that manager afterwards.
type Seed struct {
	InitialManager     string
	Authorizers        []string
	CommissionRateBps  uint64
	Treasury           string
	AcceptedAssets     []string
	SupportedContracts []string
}

// NewInMemoryModule wires the registry against the in-memory store and seeds
// the initial grants and configuration.
func NewInMemoryModule(seed Seed, logger *slog.Logger) Module {
	store := memory.NewStore()
	now := store.Now()

	ctx := context.Background()
	if seed.InitialManager != "" {
		_ = store.PutGrant(ctx, entities.CapabilityGrant{
			Role:      entities.RoleManager,
			Identity:  seed.InitialManager,
			GrantedBy: seed.InitialManager,
			GrantedAt: now,
		})
	}
	for _, authorizer := range seed.Authorizers {
		_ = store.PutGrant(ctx, entities.CapabilityGrant{
			Role:      entities.RoleAuthorizer,
			Identity:  authorizer,
			GrantedBy: seed.InitialManager,
			GrantedAt: now,
		})
	}
	_ = store.PutConfig(ctx, entities.Config{
		CommissionRateBps: seed.CommissionRateBps,
		Treasury:          seed.Treasury,
		UpdatedAt:         now,
	})
	for _, asset := range seed.AcceptedAssets {
		_ = store.PutAcceptedAsset(ctx, asset, true)
	}
	for _, contract := range seed.SupportedContracts {
		_ = store.PutSupportedContract(ctx, contract, true)
	}

	module := NewModule(Dependencies{Repo: store, Clock: store, Logger: logger})
	module.Store = store
	return module
}
