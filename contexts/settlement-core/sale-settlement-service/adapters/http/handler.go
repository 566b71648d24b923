package httpadapter

import (
	"context"
	"log/slog"
	"time"

	application "tradepost/contexts/settlement-core/sale-settlement-service/application"
	"tradepost/contexts/settlement-core/sale-settlement-service/application/commands"
	"tradepost/contexts/settlement-core/sale-settlement-service/application/queries"
	"tradepost/contexts/settlement-core/sale-settlement-service/domain/entities"
	httptransport "tradepost/contexts/settlement-core/sale-settlement-service/transport/http"
	"tradepost/internal/shared/signing"
)

type Handler struct {
	ExecutePurchase commands.ExecutePurchaseUseCase
	CancelSale      commands.CancelSaleUseCase
	SetRoyalty      commands.SetRoyaltyUseCase
	GetSaleState    queries.GetSaleStateUseCase
	GetCancellation queries.GetCancellationUseCase
	ListSettlements queries.ListSettlementsUseCase
	Logger          *slog.Logger
}

// ExecutePurchaseHandler godoc
// @Summary Settle a purchase against a signed sale order
// @Description Verifies the seller and authorizer signatures, reserves supply, splits fees and atomically moves payment and asset.
// @Tags sale-settlement
// @Accept json
// @Produce json
// @Param request body httptransport.PurchaseRequest true "Purchase payload"
// @Success 200 {object} httptransport.PurchaseResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 402 {object} httptransport.ErrorResponse
// @Failure 403 {object} httptransport.ErrorResponse
// @Failure 409 {object} httptransport.ErrorResponse
// @Failure 500 {object} httptransport.ErrorResponse
// @Router /purchases [post]
func (h Handler) ExecutePurchaseHandler(ctx context.Context, req httptransport.PurchaseRequest) (httptransport.PurchaseResponse, error) {
	logger := application.ResolveLogger(h.Logger)
	logger.Info("purchase request received",
		"event", "http_purchase_received",
		"module", "settlement-core/sale-settlement-service",
		"layer", "transport",
		"sale_id", req.Order.SaleID,
	)

	result, err := h.ExecutePurchase.Execute(ctx, commands.PurchaseCommand{
		Order:               mapSaleOrder(req.Order),
		Buyer:               req.Buyer,
		Amount:              req.Amount,
		Expiry:              req.Expiry,
		AuthorizerSignature: mapSignature(req.AuthorizerSignature),
		AttachedValue:       req.AttachedValue,
	})
	if err != nil {
		logger.Warn("purchase request failed",
			"event", "http_purchase_failed",
			"module", "settlement-core/sale-settlement-service",
			"layer", "transport",
			"sale_id", req.Order.SaleID,
			"error", err.Error(),
		)
		return httptransport.PurchaseResponse{}, err
	}

	settlement := result.Settlement
	return httptransport.PurchaseResponse{
		SettlementID:  settlement.SettlementID,
		SaleID:        settlement.SaleID,
		Buyer:         settlement.Buyer,
		Seller:        settlement.Seller,
		Amount:        settlement.Amount,
		CommissionFee: settlement.CommissionFee,
		RoyaltyFee:    settlement.RoyaltyFee,
		PayToSeller:   settlement.SellerPayout,
		SettledAt:     settlement.SettledAt.UTC().Format(time.RFC3339),
	}, nil
}

// CancelSaleHandler godoc
// @Summary Cancel a sale identifier permanently
// @Description Marks the sale id canceled after verifying the canceler's chained authorization.
// @Tags sale-settlement
// @Accept json
// @Produce json
// @Param request body httptransport.CancelRequest true "Cancel payload"
// @Success 200 {object} httptransport.CancelResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 403 {object} httptransport.ErrorResponse
// @Failure 409 {object} httptransport.ErrorResponse
// @Failure 500 {object} httptransport.ErrorResponse
// @Router /cancellations [post]
func (h Handler) CancelSaleHandler(ctx context.Context, req httptransport.CancelRequest) (httptransport.CancelResponse, error) {
	logger := application.ResolveLogger(h.Logger)
	logger.Info("cancel request received",
		"event", "http_cancel_received",
		"module", "settlement-core/sale-settlement-service",
		"layer", "transport",
		"sale_id", req.SaleID,
	)

	result, err := h.CancelSale.Execute(ctx, commands.CancelCommand{
		SaleID:              req.SaleID,
		Canceler:            req.Canceler,
		AuthorizerSignature: mapSignature(req.AuthorizerSignature),
	})
	if err != nil {
		logger.Warn("cancel request failed",
			"event", "http_cancel_failed",
			"module", "settlement-core/sale-settlement-service",
			"layer", "transport",
			"sale_id", req.SaleID,
			"error", err.Error(),
		)
		return httptransport.CancelResponse{}, err
	}

	return mapCancellation(result.Cancellation), nil
}

// SetRoyaltyHandler godoc
// @Summary Configure royalty for an asset contract
// @Description Manager-only write of royalty rate and receiver for a supported asset contract.
// @Tags sale-settlement
// @Accept json
// @Produce json
// @Param request body httptransport.SetRoyaltyRequest true "Royalty payload"
// @Success 200 {object} httptransport.RoyaltyResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 403 {object} httptransport.ErrorResponse
// @Failure 500 {object} httptransport.ErrorResponse
// @Router /royalties [put]
func (h Handler) SetRoyaltyHandler(ctx context.Context, req httptransport.SetRoyaltyRequest) (httptransport.RoyaltyResponse, error) {
	info, err := h.SetRoyalty.Execute(ctx, commands.SetRoyaltyCommand{
		Caller:        req.Caller,
		AssetContract: req.AssetContract,
		RateBps:       req.RateBps,
		Receiver:      req.Receiver,
	})
	if err != nil {
		return httptransport.RoyaltyResponse{}, err
	}
	return httptransport.RoyaltyResponse{
		AssetContract: info.AssetContract,
		RateBps:       info.RateBps,
		Receiver:      info.Receiver,
		UpdatedAt:     info.UpdatedAt.UTC().Format(time.RFC3339),
	}, nil
}

// GetSaleStateHandler godoc
// @Summary Get runtime state for a sale id
// @Tags sale-settlement
// @Produce json
// @Param sale_id path string true "Sale id"
// @Success 200 {object} httptransport.SaleStateResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Failure 500 {object} httptransport.ErrorResponse
// @Router /sales/{sale_id} [get]
func (h Handler) GetSaleStateHandler(ctx context.Context, saleID string) (httptransport.SaleStateResponse, error) {
	state, err := h.GetSaleState.Execute(ctx, queries.GetSaleStateQuery{SaleID: saleID})
	if err != nil {
		return httptransport.SaleStateResponse{}, err
	}
	return httptransport.SaleStateResponse{
		SaleID:    state.SaleID,
		Locked:    state.Locked,
		Remaining: state.Remaining,
		Canceled:  state.Canceled,
		UpdatedAt: state.UpdatedAt.UTC().Format(time.RFC3339),
	}, nil
}

// GetCancellationHandler godoc
// @Summary Get the cancellation record for a sale id
// @Tags sale-settlement
// @Produce json
// @Param sale_id path string true "Sale id"
// @Success 200 {object} httptransport.CancelResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Failure 500 {object} httptransport.ErrorResponse
// @Router /sales/{sale_id}/cancellation [get]
func (h Handler) GetCancellationHandler(ctx context.Context, saleID string) (httptransport.CancelResponse, error) {
	cancellation, err := h.GetCancellation.Execute(ctx, queries.GetCancellationQuery{SaleID: saleID})
	if err != nil {
		return httptransport.CancelResponse{}, err
	}
	return mapCancellation(cancellation), nil
}

// ListSettlementsHandler godoc
// @Summary List settled purchases
// @Tags sale-settlement
// @Produce json
// @Param sale_id query string false "Filter by sale id"
// @Param buyer query string false "Filter by buyer identity"
// @Param seller query string false "Filter by seller identity"
// @Param limit query int false "Page size (max 50)"
// @Success 200 {object} httptransport.ListSettlementsResponse
// @Failure 500 {object} httptransport.ErrorResponse
// @Router /settlements [get]
func (h Handler) ListSettlementsHandler(ctx context.Context, query queries.ListSettlementsQuery) (httptransport.ListSettlementsResponse, error) {
	items, err := h.ListSettlements.Execute(ctx, query)
	if err != nil {
		return httptransport.ListSettlementsResponse{}, err
	}
	dtos := make([]httptransport.SettlementDTO, 0, len(items))
	for _, settlement := range items {
		dtos = append(dtos, mapSettlement(settlement))
	}
	return httptransport.ListSettlementsResponse{Items: dtos}, nil
}

func mapSaleOrder(dto httptransport.SaleOrderDTO) entities.SaleOrder {
	return entities.SaleOrder{
		SaleID:          dto.SaleID,
		Seller:          dto.Seller,
		AssetContract:   dto.AssetContract,
		PaymentAsset:    dto.PaymentAsset,
		AssetKind:       entities.AssetKind(dto.AssetKind),
		ItemID:          dto.ItemID,
		Quantity:        dto.Quantity,
		UnitPrice:       dto.UnitPrice,
		SellerSignature: mapSignature(dto.SellerSignature),
	}
}

func mapSignature(dto httptransport.SignatureDTO) signing.Envelope {
	return signing.Envelope{
		PublicKey: dto.PublicKey,
		Signature: dto.Signature,
	}
}

func mapCancellation(cancellation entities.Cancellation) httptransport.CancelResponse {
	return httptransport.CancelResponse{
		SaleID:     cancellation.SaleID,
		Canceler:   cancellation.Canceler,
		CanceledAt: cancellation.CanceledAt.UTC().Format(time.RFC3339),
	}
}

func mapSettlement(settlement entities.Settlement) httptransport.SettlementDTO {
	return httptransport.SettlementDTO{
		SettlementID:  settlement.SettlementID,
		SaleID:        settlement.SaleID,
		Buyer:         settlement.Buyer,
		Seller:        settlement.Seller,
		AssetContract: settlement.AssetContract,
		ItemID:        settlement.ItemID,
		AssetKind:     string(settlement.AssetKind),
		PaymentAsset:  settlement.PaymentAsset,
		Amount:        settlement.Amount,
		CommissionFee: settlement.CommissionFee,
		RoyaltyFee:    settlement.RoyaltyFee,
		SellerPayout:  settlement.SellerPayout,
		SettledAt:     settlement.SettledAt.UTC().Format(time.RFC3339),
	}
}
