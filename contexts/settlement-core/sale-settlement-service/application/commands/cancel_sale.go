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

type CancelCommand struct {
	SaleID              string
	Canceler            string
	AuthorizerSignature signing.Envelope
}

type CancelResult struct {
	Cancellation entities.Cancellation
}

// CancelSaleUseCase permanently cancels a sale identifier. Cancellation does
// not inspect lock or remaining quantity: a partially fulfilled sale can
// still be canceled, which only strands its leftover supply.
type CancelSaleUseCase struct {
	UnitOfWork  ports.UnitOfWork
	Registry    *application.RegistryRef
	Sequence    ports.Sequence
	Guard       *application.ReentryGuard
	Clock       ports.Clock
	IDGenerator ports.IDGenerator
	Logger      *slog.Logger
}

func (u CancelSaleUseCase) Execute(ctx context.Context, cmd CancelCommand) (CancelResult, error) {
	logger := application.ResolveLogger(u.Logger)

	if strings.TrimSpace(cmd.SaleID) == "" {
		return CancelResult{}, domainerrors.ErrInvalidCancelRequest
	}
	if signing.IsZeroAddress(cmd.Canceler) {
		return CancelResult{}, domainerrors.ErrZeroAddressRejected
	}

	if u.Guard != nil {
		if !u.Guard.Enter() {
			return CancelResult{}, domainerrors.ErrReentrantCall
		}
		defer u.Guard.Leave()
	}

	registry := u.Registry.Current()
	if registry == nil {
		return CancelResult{}, domainerrors.ErrRegistryRequired
	}

	now := u.now()
	eventID, err := u.IDGenerator.NewID(ctx)
	if err != nil {
		return CancelResult{}, err
	}

	var cancellation entities.Cancellation
	err = u.UnitOfWork.Execute(ctx, func(ctx context.Context, stores ports.SettlementStores) error {
		state, found, err := stores.GetSaleState(ctx, cmd.SaleID)
		if err != nil {
			return err
		}
		if !found {
			state = entities.SaleState{SaleID: cmd.SaleID}
		}
		next, err := services.MarkCanceled(state)
		if err != nil {
			return err
		}

		if err := services.VerifyCancelAuthorization(
			ctx, registry, cmd.SaleID, cmd.Canceler, cmd.AuthorizerSignature,
		); err != nil {
			return err
		}

		next.UpdatedAt = now
		if err := stores.PutSaleState(ctx, next); err != nil {
			return err
		}

		cancellation = entities.Cancellation{
			SaleID:     cmd.SaleID,
			Canceler:   cmd.Canceler,
			CanceledAt: now,
		}
		return stores.CreateCancellationWithOutbox(ctx, cancellation, ports.CanceledEvent{
			EventID:    eventID,
			SaleID:     cmd.SaleID,
			Canceler:   cmd.Canceler,
			OccurredAt: now,
		})
	})
	if err != nil {
		logger.Warn("cancel sale aborted",
			"event", "cancel_sale_aborted",
			"module", "settlement-core/sale-settlement-service",
			"layer", "application",
			"sale_id", cmd.SaleID,
			"canceler", cmd.Canceler,
			"error", err.Error(),
		)
		return CancelResult{}, err
	}

	if _, err := u.Sequence.Advance(ctx); err != nil {
		return CancelResult{}, err
	}

	logger.Info("sale canceled",
		"event", "sale_canceled",
		"module", "settlement-core/sale-settlement-service",
		"layer", "application",
		"sale_id", cmd.SaleID,
		"canceler", cmd.Canceler,
	)
	return CancelResult{Cancellation: cancellation}, nil
}

func (u CancelSaleUseCase) now() time.Time {
	if u.Clock == nil {
		return time.Now().UTC()
	}
	return u.Clock.Now().UTC()
}
