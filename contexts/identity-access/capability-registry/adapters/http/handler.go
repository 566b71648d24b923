package httpadapter

import (
	"context"
	"log/slog"
	"time"

	"tradepost/contexts/identity-access/capability-registry/application"
	"tradepost/contexts/identity-access/capability-registry/domain/entities"
	httptransport "tradepost/contexts/identity-access/capability-registry/transport/http"
)

type Handler struct {
	Service application.Service
	Logger  *slog.Logger
}

// GrantCapabilityHandler godoc
// @Summary Grant a capability to an identity
// @Tags capability-registry
// @Accept json
// @Produce json
// @Param request body httptransport.GrantRequest true "Grant payload"
// @Success 200 {object} httptransport.GrantResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 403 {object} httptransport.ErrorResponse
// @Failure 500 {object} httptransport.ErrorResponse
// @Router /capabilities [post]
func (h Handler) GrantCapabilityHandler(ctx context.Context, req httptransport.GrantRequest) (httptransport.GrantResponse, error) {
	grant, err := h.Service.GrantCapability(ctx, req.Caller, req.Role, req.Identity)
	if err != nil {
		return httptransport.GrantResponse{}, err
	}
	return mapGrant(grant), nil
}

// RevokeCapabilityHandler godoc
// @Summary Revoke a capability from an identity
// @Tags capability-registry
// @Accept json
// @Produce json
// @Param request body httptransport.RevokeRequest true "Revoke payload"
// @Success 204
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 403 {object} httptransport.ErrorResponse
// @Failure 500 {object} httptransport.ErrorResponse
// @Router /capabilities [delete]
func (h Handler) RevokeCapabilityHandler(ctx context.Context, req httptransport.RevokeRequest) error {
	return h.Service.RevokeCapability(ctx, req.Caller, req.Role, req.Identity)
}

// CheckCapabilityHandler godoc
// @Summary Check whether an identity holds a role
// @Tags capability-registry
// @Produce json
// @Param role query string true "Role name"
// @Param identity query string true "Identity address"
// @Success 200 {object} httptransport.CapabilityResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 500 {object} httptransport.ErrorResponse
// @Router /capabilities/check [get]
func (h Handler) CheckCapabilityHandler(ctx context.Context, role string, identity string) (httptransport.CapabilityResponse, error) {
	granted, err := h.Service.HasCapability(ctx, role, identity)
	if err != nil {
		return httptransport.CapabilityResponse{}, err
	}
	return httptransport.CapabilityResponse{
		Role:     role,
		Identity: identity,
		Granted:  granted,
	}, nil
}

// SetCommissionRateHandler godoc
// @Summary Set the commission fee rate in basis points
// @Tags capability-registry
// @Accept json
// @Produce json
// @Param request body httptransport.SetCommissionRateRequest true "Rate payload"
// @Success 200 {object} httptransport.ConfigResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 403 {object} httptransport.ErrorResponse
// @Failure 500 {object} httptransport.ErrorResponse
// @Router /config/commission-rate [put]
func (h Handler) SetCommissionRateHandler(ctx context.Context, req httptransport.SetCommissionRateRequest) (httptransport.ConfigResponse, error) {
	config, err := h.Service.SetCommissionFeeRate(ctx, req.Caller, req.RateBps)
	if err != nil {
		return httptransport.ConfigResponse{}, err
	}
	return mapConfig(config), nil
}

// SetTreasuryHandler godoc
// @Summary Set the treasury identity receiving commission fees
// @Tags capability-registry
// @Accept json
// @Produce json
// @Param request body httptransport.SetTreasuryRequest true "Treasury payload"
// @Success 200 {object} httptransport.ConfigResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 403 {object} httptransport.ErrorResponse
// @Failure 500 {object} httptransport.ErrorResponse
// @Router /config/treasury [put]
func (h Handler) SetTreasuryHandler(ctx context.Context, req httptransport.SetTreasuryRequest) (httptransport.ConfigResponse, error) {
	config, err := h.Service.SetTreasury(ctx, req.Caller, req.Treasury)
	if err != nil {
		return httptransport.ConfigResponse{}, err
	}
	return mapConfig(config), nil
}

// SetAcceptedAssetHandler godoc
// @Summary Accept or reject a fungible payment asset
// @Tags capability-registry
// @Accept json
// @Produce json
// @Param request body httptransport.SetAssetRequest true "Asset payload"
// @Success 204
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 403 {object} httptransport.ErrorResponse
// @Failure 500 {object} httptransport.ErrorResponse
// @Router /config/payment-assets [put]
func (h Handler) SetAcceptedAssetHandler(ctx context.Context, req httptransport.SetAssetRequest) error {
	return h.Service.SetAcceptedPaymentAsset(ctx, req.Caller, req.Asset, req.Accepted)
}

// SetSupportedContractHandler godoc
// @Summary Support or drop an asset contract
// @Tags capability-registry
// @Accept json
// @Produce json
// @Param request body httptransport.SetContractRequest true "Contract payload"
// @Success 204
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 403 {object} httptransport.ErrorResponse
// @Failure 500 {object} httptransport.ErrorResponse
// @Router /config/asset-contracts [put]
func (h Handler) SetSupportedContractHandler(ctx context.Context, req httptransport.SetContractRequest) error {
	return h.Service.SetSupportedAssetContract(ctx, req.Caller, req.Contract, req.Supported)
}

// SnapshotHandler godoc
// @Summary Read the full registry configuration
// @Tags capability-registry
// @Produce json
// @Success 200 {object} httptransport.SnapshotResponse
// @Failure 500 {object} httptransport.ErrorResponse
// @Router /config [get]
func (h Handler) SnapshotHandler(ctx context.Context) (httptransport.SnapshotResponse, error) {
	snapshot, err := h.Service.Snapshot(ctx)
	if err != nil {
		return httptransport.SnapshotResponse{}, err
	}
	grants := make([]httptransport.GrantResponse, 0, len(snapshot.Grants))
	for _, grant := range snapshot.Grants {
		grants = append(grants, mapGrant(grant))
	}
	return httptransport.SnapshotResponse{
		Config:             mapConfig(snapshot.Config),
		Grants:             grants,
		AcceptedAssets:     snapshot.AcceptedAssets,
		SupportedContracts: snapshot.SupportedContracts,
	}, nil
}

func mapGrant(grant entities.CapabilityGrant) httptransport.GrantResponse {
	return httptransport.GrantResponse{
		Role:      grant.Role,
		Identity:  grant.Identity,
		GrantedBy: grant.GrantedBy,
		GrantedAt: grant.GrantedAt.UTC().Format(time.RFC3339),
	}
}

func mapConfig(config entities.Config) httptransport.ConfigResponse {
	return httptransport.ConfigResponse{
		CommissionRateBps: config.CommissionRateBps,
		Treasury:          config.Treasury,
		UpdatedAt:         config.UpdatedAt.UTC().Format(time.RFC3339),
	}
}
