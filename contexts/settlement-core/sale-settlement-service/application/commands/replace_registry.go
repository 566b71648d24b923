package commands

import (
	"context"
	"log/slog"

	application "tradepost/contexts/settlement-core/sale-settlement-service/application"
	domainerrors "tradepost/contexts/settlement-core/sale-settlement-service/domain/errors"
	"tradepost/contexts/settlement-core/sale-settlement-service/domain/services"
	"tradepost/contexts/settlement-core/sale-settlement-service/ports"
	"tradepost/internal/shared/signing"
)

// ReplaceRegistryUseCase swaps the registry binding in place. The caller must
// hold the MANAGER capability on the registry being replaced.
type ReplaceRegistryUseCase struct {
	Registry *application.RegistryRef
	Logger   *slog.Logger
}

func (u ReplaceRegistryUseCase) Execute(ctx context.Context, caller string, next ports.Registry) error {
	logger := application.ResolveLogger(u.Logger)

	if signing.IsZeroAddress(caller) {
		return domainerrors.ErrZeroAddressRejected
	}
	if next == nil {
		return domainerrors.ErrRegistryRequired
	}

	current := u.Registry.Current()
	if current == nil {
		return domainerrors.ErrRegistryRequired
	}
	isManager, err := current.HasCapability(ctx, services.RoleManager, caller)
	if err != nil {
		return err
	}
	if !isManager {
		return domainerrors.ErrCapabilityDenied
	}

	u.Registry.Swap(next)
	logger.Info("registry replaced",
		"event", "registry_replaced",
		"module", "settlement-core/sale-settlement-service",
		"layer", "application",
		"caller", caller,
	)
	return nil
}
