package queries

import (
	"context"
	"log/slog"

	"tradepost/contexts/settlement-core/sale-settlement-service/domain/entities"
	"tradepost/contexts/settlement-core/sale-settlement-service/ports"
)

const defaultSettlementPageSize = 50

type ListSettlementsQuery struct {
	SaleID string
	Buyer  string
	Seller string
	Limit  int
}

type ListSettlementsUseCase struct {
	Settlements ports.SettlementRepository
	Logger      *slog.Logger
}

func (u ListSettlementsUseCase) Execute(ctx context.Context, query ListSettlementsQuery) ([]entities.Settlement, error) {
	limit := query.Limit
	if limit <= 0 || limit > defaultSettlementPageSize {
		limit = defaultSettlementPageSize
	}
	return u.Settlements.ListSettlements(ctx, ports.SettlementFilter{
		SaleID: query.SaleID,
		Buyer:  query.Buyer,
		Seller: query.Seller,
		Limit:  limit,
	})
}
