package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"tradepost/contexts/identity-access/capability-registry/adapters/memory"
	"tradepost/contexts/identity-access/capability-registry/domain/entities"
	domainerrors "tradepost/contexts/identity-access/capability-registry/domain/errors"
)

const (
	managerAddr    = "0x00000000000000000000000000000000000000a1"
	authorizerAddr = "0x00000000000000000000000000000000000000b2"
	outsiderAddr   = "0x00000000000000000000000000000000000000c3"
	treasuryAddr   = "0x00000000000000000000000000000000000000d4"
)

func newService(t *testing.T) (Service, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	err := store.PutGrant(context.Background(), entities.CapabilityGrant{
		Role:      entities.RoleManager,
		Identity:  managerAddr,
		GrantedBy: managerAddr,
		GrantedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("seed manager failed: %v", err)
	}
	return Service{Repo: store, Clock: store}, store
}

func TestGrantAndRevokeCapability(t *testing.T) {
	service, _ := newService(t)
	ctx := context.Background()

	grant, err := service.GrantCapability(ctx, managerAddr, entities.RoleAuthorizer, authorizerAddr)
	if err != nil {
		t.Fatalf("grant failed: %v", err)
	}
	if grant.GrantedBy != managerAddr {
		t.Fatalf("unexpected grant %+v", grant)
	}

	ok, err := service.HasCapability(ctx, entities.RoleAuthorizer, authorizerAddr)
	if err != nil || !ok {
		t.Fatalf("capability not visible: %v", err)
	}

	if err := service.RevokeCapability(ctx, managerAddr, entities.RoleAuthorizer, authorizerAddr); err != nil {
		t.Fatalf("revoke failed: %v", err)
	}
	ok, _ = service.HasCapability(ctx, entities.RoleAuthorizer, authorizerAddr)
	if ok {
		t.Fatalf("capability survived revoke")
	}
}

func TestGrantRequiresManager(t *testing.T) {
	service, _ := newService(t)

	_, err := service.GrantCapability(context.Background(), outsiderAddr, entities.RoleAuthorizer, authorizerAddr)
	if !errors.Is(err, domainerrors.ErrCapabilityDenied) {
		t.Fatalf("expected capability denied, got %v", err)
	}
}

func TestGrantRejectsUnknownRoleAndZeroIdentity(t *testing.T) {
	service, _ := newService(t)
	ctx := context.Background()

	_, err := service.GrantCapability(ctx, managerAddr, "JANITOR", authorizerAddr)
	if !errors.Is(err, domainerrors.ErrUnknownRole) {
		t.Fatalf("expected unknown role, got %v", err)
	}
	_, err = service.GrantCapability(ctx, managerAddr, entities.RoleAuthorizer, "")
	if !errors.Is(err, domainerrors.ErrZeroAddressRejected) {
		t.Fatalf("expected zero address rejected, got %v", err)
	}
}

func TestHasCapabilityUnknownRole(t *testing.T) {
	service, _ := newService(t)
	_, err := service.HasCapability(context.Background(), "JANITOR", managerAddr)
	if !errors.Is(err, domainerrors.ErrUnknownRole) {
		t.Fatalf("expected unknown role, got %v", err)
	}
}

func TestSetCommissionFeeRate(t *testing.T) {
	service, _ := newService(t)
	ctx := context.Background()

	config, err := service.SetCommissionFeeRate(ctx, managerAddr, 250)
	if err != nil {
		t.Fatalf("set rate failed: %v", err)
	}
	if config.CommissionRateBps != 250 {
		t.Fatalf("unexpected config %+v", config)
	}

	rate, err := service.CommissionFeeRate(ctx)
	if err != nil || rate != 250 {
		t.Fatalf("read rate %d %v", rate, err)
	}

	_, err = service.SetCommissionFeeRate(ctx, managerAddr, 10_000)
	if !errors.Is(err, domainerrors.ErrInvalidCommissionRate) {
		t.Fatalf("expected invalid commission rate, got %v", err)
	}
	_, err = service.SetCommissionFeeRate(ctx, outsiderAddr, 100)
	if !errors.Is(err, domainerrors.ErrCapabilityDenied) {
		t.Fatalf("expected capability denied, got %v", err)
	}
}

func TestSetTreasury(t *testing.T) {
	service, _ := newService(t)
	ctx := context.Background()

	config, err := service.SetTreasury(ctx, managerAddr, treasuryAddr)
	if err != nil {
		t.Fatalf("set treasury failed: %v", err)
	}
	if config.Treasury != treasuryAddr {
		t.Fatalf("unexpected config %+v", config)
	}

	_, err = service.SetTreasury(ctx, managerAddr, "")
	if !errors.Is(err, domainerrors.ErrTreasuryRequired) {
		t.Fatalf("expected treasury required, got %v", err)
	}
}

func TestAcceptedAssetsAndSupportedContracts(t *testing.T) {
	service, _ := newService(t)
	ctx := context.Background()

	const asset = "0xf4a6000000000000000000000000000000000001"
	const contract = "0xc011ec7100000000000000000000000000000001"

	if err := service.SetAcceptedPaymentAsset(ctx, managerAddr, asset, true); err != nil {
		t.Fatalf("set asset failed: %v", err)
	}
	if err := service.SetSupportedAssetContract(ctx, managerAddr, contract, true); err != nil {
		t.Fatalf("set contract failed: %v", err)
	}

	ok, _ := service.IsAcceptedPaymentAsset(ctx, asset)
	if !ok {
		t.Fatalf("asset not accepted")
	}
	ok, _ = service.IsSupportedAssetContract(ctx, contract)
	if !ok {
		t.Fatalf("contract not supported")
	}

	if err := service.SetAcceptedPaymentAsset(ctx, managerAddr, asset, false); err != nil {
		t.Fatalf("unset asset failed: %v", err)
	}
	ok, _ = service.IsAcceptedPaymentAsset(ctx, asset)
	if ok {
		t.Fatalf("asset still accepted")
	}

	if err := service.SetAcceptedPaymentAsset(ctx, managerAddr, "  ", true); !errors.Is(err, domainerrors.ErrInvalidRequest) {
		t.Fatalf("expected invalid request, got %v", err)
	}
}

func TestSnapshot(t *testing.T) {
	service, _ := newService(t)
	ctx := context.Background()

	if _, err := service.GrantCapability(ctx, managerAddr, entities.RoleAuthorizer, authorizerAddr); err != nil {
		t.Fatalf("grant failed: %v", err)
	}
	if _, err := service.SetCommissionFeeRate(ctx, managerAddr, 250); err != nil {
		t.Fatalf("set rate failed: %v", err)
	}
	if err := service.SetSupportedAssetContract(ctx, managerAddr, "0xc011ec7100000000000000000000000000000001", true); err != nil {
		t.Fatalf("set contract failed: %v", err)
	}

	snapshot, err := service.Snapshot(ctx)
	if err != nil {
		t.Fatalf("snapshot failed: %v", err)
	}
	if snapshot.Config.CommissionRateBps != 250 {
		t.Fatalf("unexpected config %+v", snapshot.Config)
	}
	if len(snapshot.Grants) != 2 {
		t.Fatalf("unexpected grants %+v", snapshot.Grants)
	}
	if len(snapshot.SupportedContracts) != 1 {
		t.Fatalf("unexpected contracts %+v", snapshot.SupportedContracts)
	}
}
