package queries

import (
	"context"
	"log/slog"
	"strings"

	"tradepost/contexts/settlement-core/sale-settlement-service/domain/entities"
	domainerrors "tradepost/contexts/settlement-core/sale-settlement-service/domain/errors"
	"tradepost/contexts/settlement-core/sale-settlement-service/ports"
)

type GetCancellationQuery struct {
	SaleID string
}

type GetCancellationUseCase struct {
	Settlements ports.SettlementRepository
	Logger      *slog.Logger
}

func (u GetCancellationUseCase) Execute(ctx context.Context, query GetCancellationQuery) (entities.Cancellation, error) {
	if strings.TrimSpace(query.SaleID) == "" {
		return entities.Cancellation{}, domainerrors.ErrSaleNotFound
	}
	cancellation, found, err := u.Settlements.GetCancellation(ctx, query.SaleID)
	if err != nil {
		return entities.Cancellation{}, err
	}
	if !found {
		return entities.Cancellation{}, domainerrors.ErrSaleNotFound
	}
	return cancellation, nil
}
