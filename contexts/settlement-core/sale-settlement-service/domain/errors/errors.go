package errors

import "errors"

var (
	ErrCapabilityDenied           = errors.New("caller lacks required capability")
	ErrZeroAddressRejected        = errors.New("zero address is not a valid identity")
	ErrCollectionNotSupported     = errors.New("asset contract is not on the supported list")
	ErrInvalidRoyaltySetting      = errors.New("royalty rate must be nonzero and below the fee denominator")
	ErrSaleCanceled               = errors.New("sale has been canceled")
	ErrAlreadyCanceled            = errors.New("sale is already canceled")
	ErrInvalidSellerSignature     = errors.New("seller signature does not recover to the declared seller")
	ErrInvalidAuthorizerSignature = errors.New("authorization signature does not recover to an authorizer")
	ErrAuthorizationExpired       = errors.New("purchase authorization has expired")
	ErrInvalidAssetKind           = errors.New("asset kind is not supported")
	ErrInvalidOfferedQuantity     = errors.New("offered quantity violates asset kind policy")
	ErrInsufficientSupply         = errors.New("purchase amount exceeds remaining supply")
	ErrInsufficientPayment        = errors.New("attached value does not match total price")
	ErrUnsupportedPaymentAsset    = errors.New("payment asset is not on the accepted list")
	ErrInsufficientAllowance      = errors.New("payer allowance is below the transfer amount")
	ErrTransferFailed             = errors.New("asset or payment transfer failed")
	ErrOverflowDetected           = errors.New("price multiplication overflow")

	ErrInvalidPurchaseRequest   = errors.New("invalid purchase request")
	ErrInvalidCancelRequest     = errors.New("invalid cancel request")
	ErrReentrantCall            = errors.New("reentrant settlement call rejected")
	ErrSaleNotFound             = errors.New("sale not found")
	ErrRegistryRequired         = errors.New("registry reference is required")
	ErrRepositoryInvariantBroke = errors.New("repository invariant violated")
)
