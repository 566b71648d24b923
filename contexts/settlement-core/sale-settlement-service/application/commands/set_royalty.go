package commands

import (
	"context"
	"log/slog"
	"strings"
	"time"

	application "tradepost/contexts/settlement-core/sale-settlement-service/application"
	"tradepost/contexts/settlement-core/sale-settlement-service/domain/entities"
	domainerrors "tradepost/contexts/settlement-core/sale-settlement-service/domain/errors"
	"tradepost/contexts/settlement-core/sale-settlement-service/domain/services"
	"tradepost/contexts/settlement-core/sale-settlement-service/ports"
	"tradepost/internal/shared/signing"
)

type SetRoyaltyCommand struct {
	Caller        string
	AssetContract string
	RateBps       uint64
	Receiver      string
}

// SetRoyaltyUseCase writes per-asset-contract royalty configuration. Manager
// capability only; the contract must be on the registry's supported list and
// the rate nonzero and below the fee denominator.
type SetRoyaltyUseCase struct {
	UnitOfWork ports.UnitOfWork
	Registry   *application.RegistryRef
	Clock      ports.Clock
	Logger     *slog.Logger
}

func (u SetRoyaltyUseCase) Execute(ctx context.Context, cmd SetRoyaltyCommand) (entities.RoyaltyInfo, error) {
	logger := application.ResolveLogger(u.Logger)

	if signing.IsZeroAddress(cmd.Caller) || signing.IsZeroAddress(cmd.Receiver) {
		return entities.RoyaltyInfo{}, domainerrors.ErrZeroAddressRejected
	}
	if strings.TrimSpace(cmd.AssetContract) == "" {
		return entities.RoyaltyInfo{}, domainerrors.ErrCollectionNotSupported
	}
	if cmd.RateBps == 0 || cmd.RateBps >= services.FeeDenominator {
		return entities.RoyaltyInfo{}, domainerrors.ErrInvalidRoyaltySetting
	}

	registry := u.Registry.Current()
	if registry == nil {
		return entities.RoyaltyInfo{}, domainerrors.ErrRegistryRequired
	}
	isManager, err := registry.HasCapability(ctx, services.RoleManager, cmd.Caller)
	if err != nil {
		return entities.RoyaltyInfo{}, err
	}
	if !isManager {
		return entities.RoyaltyInfo{}, domainerrors.ErrCapabilityDenied
	}
	supported, err := registry.IsSupportedAssetContract(ctx, cmd.AssetContract)
	if err != nil {
		return entities.RoyaltyInfo{}, err
	}
	if !supported {
		return entities.RoyaltyInfo{}, domainerrors.ErrCollectionNotSupported
	}

	info := entities.RoyaltyInfo{
		AssetContract: cmd.AssetContract,
		RateBps:       cmd.RateBps,
		Receiver:      cmd.Receiver,
		UpdatedAt:     u.now(),
	}
	err = u.UnitOfWork.Execute(ctx, func(ctx context.Context, stores ports.SettlementStores) error {
		return stores.PutRoyalty(ctx, info)
	})
	if err != nil {
		return entities.RoyaltyInfo{}, err
	}

	logger.Info("royalty configured",
		"event", "royalty_configured",
		"module", "settlement-core/sale-settlement-service",
		"layer", "application",
		"asset_contract", info.AssetContract,
		"rate_bps", info.RateBps,
		"receiver", info.Receiver,
	)
	return info, nil
}

func (u SetRoyaltyUseCase) now() time.Time {
	if u.Clock == nil {
		return time.Now().UTC()
	}
	return u.Clock.Now().UTC()
}
