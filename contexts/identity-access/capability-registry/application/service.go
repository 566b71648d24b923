package application

import (
	"context"
	"log/slog"
	"strings"

	"tradepost/contexts/identity-access/capability-registry/domain/entities"
	domainerrors "tradepost/contexts/identity-access/capability-registry/domain/errors"
	"tradepost/contexts/identity-access/capability-registry/ports"
	"tradepost/internal/shared/signing"
)

// commissionRateLimit matches the settlement fee denominator; a commission
// rate at or above it would consume the whole purchase price.
const commissionRateLimit = 10_000

// Service is the registry facade. Its read methods satisfy the settlement
// module's registry port; its Set/Grant methods are the manager surface.
type Service struct {
	Repo   ports.Repository
	Clock  ports.Clock
	Logger *slog.Logger
}

func (s Service) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

// --- read surface consumed by settlement ----------------------------------

func (s Service) HasCapability(ctx context.Context, role string, identity string) (bool, error) {
	if !entities.ValidRole(role) {
		return false, domainerrors.ErrUnknownRole
	}
	if signing.IsZeroAddress(identity) {
		return false, nil
	}
	return s.Repo.HasGrant(ctx, role, strings.TrimSpace(identity))
}

func (s Service) CommissionFeeRate(ctx context.Context) (uint64, error) {
	config, err := s.Repo.GetConfig(ctx)
	if err != nil {
		return 0, err
	}
	return config.CommissionRateBps, nil
}

func (s Service) TreasuryIdentity(ctx context.Context) (string, error) {
	config, err := s.Repo.GetConfig(ctx)
	if err != nil {
		return "", err
	}
	return config.Treasury, nil
}

func (s Service) IsAcceptedPaymentAsset(ctx context.Context, asset string) (bool, error) {
	if strings.TrimSpace(asset) == "" {
		return false, nil
	}
	return s.Repo.IsAcceptedAsset(ctx, strings.TrimSpace(asset))
}

func (s Service) IsSupportedAssetContract(ctx context.Context, contract string) (bool, error) {
	if strings.TrimSpace(contract) == "" {
		return false, nil
	}
	return s.Repo.IsSupportedContract(ctx, strings.TrimSpace(contract))
}

// --- manager surface -------------------------------------------------------

func (s Service) GrantCapability(ctx context.Context, caller string, role string, identity string) (entities.CapabilityGrant, error) {
	if err := s.requireManager(ctx, caller); err != nil {
		return entities.CapabilityGrant{}, err
	}
	if !entities.ValidRole(role) {
		return entities.CapabilityGrant{}, domainerrors.ErrUnknownRole
	}
	if signing.IsZeroAddress(identity) {
		return entities.CapabilityGrant{}, domainerrors.ErrZeroAddressRejected
	}
	grant := entities.CapabilityGrant{
		Role:      role,
		Identity:  strings.TrimSpace(identity),
		GrantedBy: strings.TrimSpace(caller),
		GrantedAt: s.Clock.Now().UTC(),
	}
	if err := s.Repo.PutGrant(ctx, grant); err != nil {
		return entities.CapabilityGrant{}, err
	}
	s.logger().Info("capability granted",
		"event", "registry_capability_granted",
		"module", "identity-access/capability-registry",
		"layer", "application",
		"role", role,
		"identity", grant.Identity,
	)
	return grant, nil
}

func (s Service) RevokeCapability(ctx context.Context, caller string, role string, identity string) error {
	if err := s.requireManager(ctx, caller); err != nil {
		return err
	}
	if !entities.ValidRole(role) {
		return domainerrors.ErrUnknownRole
	}
	if err := s.Repo.DeleteGrant(ctx, role, strings.TrimSpace(identity)); err != nil {
		return err
	}
	s.logger().Info("capability revoked",
		"event", "registry_capability_revoked",
		"module", "identity-access/capability-registry",
		"layer", "application",
		"role", role,
		"identity", strings.TrimSpace(identity),
	)
	return nil
}

func (s Service) SetCommissionFeeRate(ctx context.Context, caller string, rateBps uint64) (entities.Config, error) {
	if err := s.requireManager(ctx, caller); err != nil {
		return entities.Config{}, err
	}
	if rateBps >= commissionRateLimit {
		return entities.Config{}, domainerrors.ErrInvalidCommissionRate
	}
	config, err := s.Repo.GetConfig(ctx)
	if err != nil {
		return entities.Config{}, err
	}
	config.CommissionRateBps = rateBps
	config.UpdatedAt = s.Clock.Now().UTC()
	if err := s.Repo.PutConfig(ctx, config); err != nil {
		return entities.Config{}, err
	}
	s.logger().Info("commission rate updated",
		"event", "registry_commission_rate_updated",
		"module", "identity-access/capability-registry",
		"layer", "application",
		"rate_bps", rateBps,
	)
	return config, nil
}

func (s Service) SetTreasury(ctx context.Context, caller string, treasury string) (entities.Config, error) {
	if err := s.requireManager(ctx, caller); err != nil {
		return entities.Config{}, err
	}
	if signing.IsZeroAddress(treasury) {
		return entities.Config{}, domainerrors.ErrTreasuryRequired
	}
	config, err := s.Repo.GetConfig(ctx)
	if err != nil {
		return entities.Config{}, err
	}
	config.Treasury = strings.TrimSpace(treasury)
	config.UpdatedAt = s.Clock.Now().UTC()
	if err := s.Repo.PutConfig(ctx, config); err != nil {
		return entities.Config{}, err
	}
	return config, nil
}

func (s Service) SetAcceptedPaymentAsset(ctx context.Context, caller string, asset string, accepted bool) error {
	if err := s.requireManager(ctx, caller); err != nil {
		return err
	}
	if strings.TrimSpace(asset) == "" {
		return domainerrors.ErrInvalidRequest
	}
	return s.Repo.PutAcceptedAsset(ctx, strings.TrimSpace(asset), accepted)
}

func (s Service) SetSupportedAssetContract(ctx context.Context, caller string, contract string, supported bool) error {
	if err := s.requireManager(ctx, caller); err != nil {
		return err
	}
	if strings.TrimSpace(contract) == "" {
		return domainerrors.ErrInvalidRequest
	}
	return s.Repo.PutSupportedContract(ctx, strings.TrimSpace(contract), supported)
}

func (s Service) Snapshot(ctx context.Context) (entities.ConfigSnapshot, error) {
	config, err := s.Repo.GetConfig(ctx)
	if err != nil {
		return entities.ConfigSnapshot{}, err
	}
	grants, err := s.Repo.ListGrants(ctx)
	if err != nil {
		return entities.ConfigSnapshot{}, err
	}
	assets, err := s.Repo.ListAcceptedAssets(ctx)
	if err != nil {
		return entities.ConfigSnapshot{}, err
	}
	contracts, err := s.Repo.ListSupportedContracts(ctx)
	if err != nil {
		return entities.ConfigSnapshot{}, err
	}
	return entities.ConfigSnapshot{
		Config:             config,
		Grants:             grants,
		AcceptedAssets:     assets,
		SupportedContracts: contracts,
	}, nil
}

func (s Service) requireManager(ctx context.Context, caller string) error {
	if signing.IsZeroAddress(caller) {
		return domainerrors.ErrZeroAddressRejected
	}
	ok, err := s.Repo.HasGrant(ctx, entities.RoleManager, strings.TrimSpace(caller))
	if err != nil {
		return err
	}
	if !ok {
		return domainerrors.ErrCapabilityDenied
	}
	return nil
}
