package queries

import (
	"context"
	"log/slog"
	"strings"

	"tradepost/contexts/settlement-core/sale-settlement-service/domain/entities"
	domainerrors "tradepost/contexts/settlement-core/sale-settlement-service/domain/errors"
	"tradepost/contexts/settlement-core/sale-settlement-service/ports"
)

type GetSaleStateQuery struct {
	SaleID string
}

type GetSaleStateUseCase struct {
	States ports.SaleStateRepository
	Logger *slog.Logger
}

func (u GetSaleStateUseCase) Execute(ctx context.Context, query GetSaleStateQuery) (entities.SaleState, error) {
	if strings.TrimSpace(query.SaleID) == "" {
		return entities.SaleState{}, domainerrors.ErrSaleNotFound
	}
	state, found, err := u.States.GetSaleState(ctx, query.SaleID)
	if err != nil {
		return entities.SaleState{}, err
	}
	if !found {
		return entities.SaleState{}, domainerrors.ErrSaleNotFound
	}
	return state, nil
}
