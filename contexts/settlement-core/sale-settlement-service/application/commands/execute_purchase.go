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

// PurchaseCommand carries one pre-agreed trade: the seller-signed order, the
// buyer-specific authorization, and (for native-currency sales) the value
// attached to the call.
type PurchaseCommand struct {
	Order               entities.SaleOrder
	Buyer               string
	Amount              uint64
	Expiry              uint64
	AuthorizerSignature signing.Envelope
	AttachedValue       uint64
}

type PurchaseResult struct {
	Settlement entities.Settlement
}

// ExecutePurchaseUseCase settles a single purchase atomically. Order of
// operations inside the unit of work is deliberate: the reservation mutates
// sale state before any ledger interaction, so a re-entrant call can only
// observe already-decremented supply.
type ExecutePurchaseUseCase struct {
	UnitOfWork  ports.UnitOfWork
	Registry    *application.RegistryRef
	Sequence    ports.Sequence
	Guard       *application.ReentryGuard
	Clock       ports.Clock
	IDGenerator ports.IDGenerator
	Logger      *slog.Logger
}

func (u ExecutePurchaseUseCase) Execute(ctx context.Context, cmd PurchaseCommand) (PurchaseResult, error) {
	logger := application.ResolveLogger(u.Logger)

	if !cmd.Order.AssetKind.Valid() {
		return PurchaseResult{}, domainerrors.ErrInvalidAssetKind
	}
	if strings.TrimSpace(cmd.Order.SaleID) == "" || cmd.Amount == 0 {
		return PurchaseResult{}, domainerrors.ErrInvalidPurchaseRequest
	}
	if signing.IsZeroAddress(cmd.Buyer) || signing.IsZeroAddress(cmd.Order.Seller) {
		return PurchaseResult{}, domainerrors.ErrZeroAddressRejected
	}

	if u.Guard != nil {
		if !u.Guard.Enter() {
			return PurchaseResult{}, domainerrors.ErrReentrantCall
		}
		defer u.Guard.Leave()
	}

	registry := u.Registry.Current()
	if registry == nil {
		return PurchaseResult{}, domainerrors.ErrRegistryRequired
	}

	current, err := u.Sequence.Current(ctx)
	if err != nil {
		return PurchaseResult{}, err
	}
	if current > cmd.Expiry {
		logger.Warn("purchase authorization expired",
			"event", "purchase_authorization_expired",
			"module", "settlement-core/sale-settlement-service",
			"layer", "application",
			"sale_id", cmd.Order.SaleID,
			"buyer", cmd.Buyer,
			"expiry", cmd.Expiry,
			"current", current,
		)
		return PurchaseResult{}, domainerrors.ErrAuthorizationExpired
	}

	now := u.now()
	settlementID, err := u.IDGenerator.NewID(ctx)
	if err != nil {
		return PurchaseResult{}, err
	}
	eventID, err := u.IDGenerator.NewID(ctx)
	if err != nil {
		return PurchaseResult{}, err
	}

	var settlement entities.Settlement
	err = u.UnitOfWork.Execute(ctx, func(ctx context.Context, stores ports.SettlementStores) error {
		// Reserve first: the only internal state mutation, committed or rolled
		// back with everything below it.
		state, found, err := stores.GetSaleState(ctx, cmd.Order.SaleID)
		if err != nil {
			return err
		}
		if !found {
			state = entities.SaleState{SaleID: cmd.Order.SaleID}
		}
		next, err := services.Reserve(state, cmd.Order.AssetKind, cmd.Order.Quantity, cmd.Amount)
		if err != nil {
			return err
		}
		next.UpdatedAt = now
		if err := stores.PutSaleState(ctx, next); err != nil {
			return err
		}

		if err := services.VerifySaleAuthorization(
			ctx, registry, cmd.Buyer, cmd.Expiry, cmd.Amount, cmd.Order, cmd.AuthorizerSignature,
		); err != nil {
			return err
		}

		supported, err := registry.IsSupportedAssetContract(ctx, cmd.Order.AssetContract)
		if err != nil {
			return err
		}
		if !supported {
			return domainerrors.ErrCollectionNotSupported
		}

		commissionBps, err := registry.CommissionFeeRate(ctx)
		if err != nil {
			return err
		}
		var royaltyBps uint64
		royalty, hasRoyalty, err := stores.GetRoyalty(ctx, cmd.Order.AssetContract)
		if err != nil {
			return err
		}
		if hasRoyalty && !signing.IsZeroAddress(royalty.Receiver) {
			royaltyBps = royalty.RateBps
		}
		split, err := services.ComputeFeeSplit(cmd.Order.UnitPrice, cmd.Amount, commissionBps, royaltyBps)
		if err != nil {
			return err
		}

		pay, err := u.resolvePayment(ctx, registry, stores, cmd, split.TotalPrice)
		if err != nil {
			return err
		}
		if split.CommissionFee > 0 {
			treasury, err := registry.TreasuryIdentity(ctx)
			if err != nil {
				return err
			}
			if err := pay(treasury, split.CommissionFee); err != nil {
				return err
			}
		}
		if split.RoyaltyFee > 0 {
			if err := pay(royalty.Receiver, split.RoyaltyFee); err != nil {
				return err
			}
		}
		if err := pay(cmd.Order.Seller, split.SellerPayout); err != nil {
			return err
		}

		switch cmd.Order.AssetKind {
		case entities.AssetKindUniqueItem:
			err = stores.TransferUnique(ctx, cmd.Order.AssetContract, cmd.Order.Seller, cmd.Buyer, cmd.Order.ItemID)
		case entities.AssetKindQuantityBased:
			err = stores.TransferQuantity(ctx, cmd.Order.AssetContract, cmd.Order.Seller, cmd.Buyer, cmd.Order.ItemID, cmd.Amount)
		}
		if err != nil {
			return err
		}

		settlement = entities.Settlement{
			SettlementID:  settlementID,
			SaleID:        cmd.Order.SaleID,
			Buyer:         cmd.Buyer,
			Seller:        cmd.Order.Seller,
			AssetContract: cmd.Order.AssetContract,
			ItemID:        cmd.Order.ItemID,
			AssetKind:     cmd.Order.AssetKind,
			PaymentAsset:  cmd.Order.PaymentAsset,
			Amount:        cmd.Amount,
			CommissionFee: split.CommissionFee,
			RoyaltyFee:    split.RoyaltyFee,
			SellerPayout:  split.SellerPayout,
			SettledAt:     now,
		}
		return stores.CreateSettlementWithOutbox(ctx, settlement, ports.PurchasedEvent{
			EventID:         eventID,
			SaleID:          settlement.SaleID,
			Buyer:           settlement.Buyer,
			Seller:          settlement.Seller,
			PurchasedAmount: settlement.Amount,
			CommissionFee:   settlement.CommissionFee,
			RoyaltyFee:      settlement.RoyaltyFee,
			PayToSeller:     settlement.SellerPayout,
			OccurredAt:      now,
		})
	})
	if err != nil {
		logger.Warn("purchase settlement aborted",
			"event", "purchase_settlement_aborted",
			"module", "settlement-core/sale-settlement-service",
			"layer", "application",
			"sale_id", cmd.Order.SaleID,
			"buyer", cmd.Buyer,
			"error", err.Error(),
		)
		return PurchaseResult{}, err
	}

	if _, err := u.Sequence.Advance(ctx); err != nil {
		return PurchaseResult{}, err
	}

	logger.Info("purchase settled",
		"event", "purchase_settled",
		"module", "settlement-core/sale-settlement-service",
		"layer", "application",
		"settlement_id", settlement.SettlementID,
		"sale_id", settlement.SaleID,
		"buyer", settlement.Buyer,
		"seller", settlement.Seller,
		"amount", settlement.Amount,
		"commission_fee", settlement.CommissionFee,
		"royalty_fee", settlement.RoyaltyFee,
		"seller_payout", settlement.SellerPayout,
	)
	return PurchaseResult{Settlement: settlement}, nil
}

// resolvePayment validates the payment path once and returns the per-split
// transfer function. Native sales validate the attached value against the
// full total here, not per split.
func (u ExecutePurchaseUseCase) resolvePayment(
	ctx context.Context,
	registry ports.Registry,
	stores ports.SettlementStores,
	cmd PurchaseCommand,
	totalPrice uint64,
) (func(payee string, amount uint64) error, error) {
	if cmd.Order.IsNativePayment() {
		if cmd.AttachedValue != totalPrice {
			return nil, domainerrors.ErrInsufficientPayment
		}
		return func(payee string, amount uint64) error {
			return stores.TransferNative(ctx, cmd.Buyer, payee, amount)
		}, nil
	}

	accepted, err := registry.IsAcceptedPaymentAsset(ctx, cmd.Order.PaymentAsset)
	if err != nil {
		return nil, err
	}
	if !accepted {
		return nil, domainerrors.ErrUnsupportedPaymentAsset
	}
	return func(payee string, amount uint64) error {
		return stores.TransferFungible(ctx, cmd.Order.PaymentAsset, cmd.Buyer, payee, amount)
	}, nil
}

func (u ExecutePurchaseUseCase) now() time.Time {
	if u.Clock == nil {
		return time.Now().UTC()
	}
	return u.Clock.Now().UTC()
}
