package services

import (
	"tradepost/contexts/settlement-core/sale-settlement-service/domain/entities"
	domainerrors "tradepost/contexts/settlement-core/sale-settlement-service/domain/errors"
)

// Reserve applies the quantity reservation for one purchase attempt and
// returns the next sale state. The first successful reservation locks the
// sale, freezing the offered quantity the signed order claimed at that
// moment; later calls only decrement against the frozen remaining supply, so
// a reissued order with a different quantity cannot change what is for sale.
func Reserve(
	state entities.SaleState,
	kind entities.AssetKind,
	offeredQuantity uint64,
	amount uint64,
) (entities.SaleState, error) {
	if state.Canceled {
		return entities.SaleState{}, domainerrors.ErrSaleCanceled
	}

	if !state.Locked {
		switch kind {
		case entities.AssetKindUniqueItem:
			if offeredQuantity != 1 {
				return entities.SaleState{}, domainerrors.ErrInvalidOfferedQuantity
			}
		case entities.AssetKindQuantityBased:
			if offeredQuantity == 0 {
				return entities.SaleState{}, domainerrors.ErrInvalidOfferedQuantity
			}
		default:
			return entities.SaleState{}, domainerrors.ErrInvalidAssetKind
		}
		if amount > offeredQuantity {
			return entities.SaleState{}, domainerrors.ErrInsufficientSupply
		}
		state.Locked = true
		state.Remaining = offeredQuantity - amount
		return state, nil
	}

	if amount > state.Remaining {
		return entities.SaleState{}, domainerrors.ErrInsufficientSupply
	}
	state.Remaining -= amount
	return state, nil
}

// MarkCanceled sets the permanent canceled flag. It deliberately ignores
// lock/remaining: a sale can be canceled after partial fulfillment, which
// only makes the leftover supply unpurchasable.
func MarkCanceled(state entities.SaleState) (entities.SaleState, error) {
	if state.Canceled {
		return entities.SaleState{}, domainerrors.ErrAlreadyCanceled
	}
	state.Canceled = true
	return state, nil
}
