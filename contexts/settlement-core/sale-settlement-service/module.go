package salesettlement

import (
	"log/slog"

	httpadapter "tradepost/contexts/settlement-core/sale-settlement-service/adapters/http"
	"tradepost/contexts/settlement-core/sale-settlement-service/adapters/memory"
	application "tradepost/contexts/settlement-core/sale-settlement-service/application"
	"tradepost/contexts/settlement-core/sale-settlement-service/application/commands"
	"tradepost/contexts/settlement-core/sale-settlement-service/application/queries"
	"tradepost/contexts/settlement-core/sale-settlement-service/application/workers"
	"tradepost/contexts/settlement-core/sale-settlement-service/ports"
)

// Module is the composition surface for the sale settlement service.
// Runtime wiring consumes Handler and Relay; Store and RegistryRef are
// exposed for tests and for manager-driven registry replacement.
type Module struct {
	Handler         httpadapter.Handler
	Relay           workers.OutboxRelay
	ReplaceRegistry commands.ReplaceRegistryUseCase
	RegistryRef     *application.RegistryRef
	Store           *memory.Store
}

type Dependencies struct {
	UnitOfWork  ports.UnitOfWork
	SaleStates  ports.SaleStateRepository
	Settlements ports.SettlementRepository
	Outbox      ports.OutboxRepository
	Publisher   ports.EventPublisher
	Registry    ports.Registry
	Sequence    ports.Sequence
	Clock       ports.Clock
	IDGenerator ports.IDGenerator
	Logger      *slog.Logger
}

// NewModule wires settlement use-cases against explicit ports.
func NewModule(deps Dependencies) Module {
	registryRef := application.NewRegistryRef(deps.Registry)
	guard := application.NewReentryGuard()

	executePurchase := commands.ExecutePurchaseUseCase{
		UnitOfWork:  deps.UnitOfWork,
		Registry:    registryRef,
		Sequence:    deps.Sequence,
		Guard:       guard,
		Clock:       deps.Clock,
		IDGenerator: deps.IDGenerator,
		Logger:      deps.Logger,
	}
	cancelSale := commands.CancelSaleUseCase{
		UnitOfWork:  deps.UnitOfWork,
		Registry:    registryRef,
		Sequence:    deps.Sequence,
		Guard:       guard,
		Clock:       deps.Clock,
		IDGenerator: deps.IDGenerator,
		Logger:      deps.Logger,
	}
	setRoyalty := commands.SetRoyaltyUseCase{
		UnitOfWork: deps.UnitOfWork,
		Registry:   registryRef,
		Clock:      deps.Clock,
		Logger:     deps.Logger,
	}
	replaceRegistry := commands.ReplaceRegistryUseCase{
		Registry: registryRef,
		Logger:   deps.Logger,
	}

	getSaleState := queries.GetSaleStateUseCase{
		States: deps.SaleStates,
		Logger: deps.Logger,
	}
	getCancellation := queries.GetCancellationUseCase{
		Settlements: deps.Settlements,
		Logger:      deps.Logger,
	}
	listSettlements := queries.ListSettlementsUseCase{
		Settlements: deps.Settlements,
		Logger:      deps.Logger,
	}

	handler := httpadapter.Handler{
		ExecutePurchase: executePurchase,
		CancelSale:      cancelSale,
		SetRoyalty:      setRoyalty,
		GetSaleState:    getSaleState,
		GetCancellation: getCancellation,
		ListSettlements: listSettlements,
		Logger:          deps.Logger,
	}

	relay := workers.OutboxRelay{
		Outbox:    deps.Outbox,
		Publisher: deps.Publisher,
		Clock:     deps.Clock,
		Logger:    deps.Logger,
	}

	return Module{
		Handler:         handler,
		Relay:           relay,
		ReplaceRegistry: replaceRegistry,
		RegistryRef:     registryRef,
	}
}

// NewInMemoryModule wires the service against the in-memory store. The
// registry is still injected; this service never owns capability state.
func NewInMemoryModule(registry ports.Registry, publisher ports.EventPublisher, settlementIdentity string, logger *slog.Logger) Module {
	store := memory.NewStore(settlementIdentity)
	module := NewModule(Dependencies{
		UnitOfWork:  store,
		SaleStates:  store,
		Settlements: store,
		Outbox:      store,
		Publisher:   publisher,
		Registry:    registry,
		Sequence:    store,
		Clock:       store,
		IDGenerator: store,
		Logger:      logger,
	})
	module.Store = store
	return module
}
