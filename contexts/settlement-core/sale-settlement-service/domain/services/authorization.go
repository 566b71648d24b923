package services

import (
	"context"

	"tradepost/contexts/settlement-core/sale-settlement-service/domain/entities"
	domainerrors "tradepost/contexts/settlement-core/sale-settlement-service/domain/errors"
	"tradepost/internal/shared/signing"
)

// Capability roles consumed by the settlement chain.
const (
	RoleManager    = "MANAGER"
	RoleAuthorizer = "AUTHORIZER"
)

// Digest domain tags. Changing a tuple layout requires a new tag version.
const (
	saleOrderTag    = "tradepost/sale-order/v1"
	purchaseAuthTag = "tradepost/purchase-auth/v1"
	cancelAuthTag   = "tradepost/cancel-auth/v1"
)

// CapabilityChecker is the slice of the registry the verifier needs.
type CapabilityChecker interface {
	HasCapability(ctx context.Context, role string, identity string) (bool, error)
}

// SaleOrderDigest is the canonical digest the seller signs at listing time.
// It covers every order field preceding the signature, in declaration order.
func SaleOrderDigest(order entities.SaleOrder) []byte {
	return signing.NewHasher(saleOrderTag).
		WriteString(order.SaleID).
		WriteString(order.Seller).
		WriteString(order.AssetContract).
		WriteString(order.PaymentAsset).
		WriteString(string(order.AssetKind)).
		WriteString(order.ItemID).
		WriteUint64(order.Quantity).
		WriteUint64(order.UnitPrice).
		Sum()
}

// PurchaseAuthDigest is the canonical digest the authorizer signs per
// purchase attempt. Chaining the seller signature in binds the authorization
// to one exact listing.
func PurchaseAuthDigest(sellerSig []byte, buyer string, amount, expiry uint64) []byte {
	return signing.NewHasher(purchaseAuthTag).
		WriteBytes(sellerSig).
		WriteString(buyer).
		WriteUint64(amount).
		WriteUint64(expiry).
		Sum()
}

// CancelAuthDigest is the canonical digest the authorizer signs to approve a
// cancellation.
func CancelAuthDigest(saleID, canceler string) []byte {
	return signing.NewHasher(cancelAuthTag).
		WriteString(saleID).
		WriteString(canceler).
		Sum()
}

// VerifySaleAuthorization checks the two-signature chain for a purchase:
// the seller signature must recover to the seller declared in the order, and
// the authorization signature over (seller signature, buyer, amount, expiry)
// must recover to an identity holding the AUTHORIZER capability.
func VerifySaleAuthorization(
	ctx context.Context,
	checker CapabilityChecker,
	buyer string,
	expiry uint64,
	amount uint64,
	order entities.SaleOrder,
	authSig signing.Envelope,
) error {
	seller, err := signing.Recover(SaleOrderDigest(order), order.SellerSignature)
	if err != nil || seller != order.Seller {
		return domainerrors.ErrInvalidSellerSignature
	}

	sellerSigBytes, err := signing.SignatureBytes(order.SellerSignature)
	if err != nil {
		return domainerrors.ErrInvalidSellerSignature
	}
	authorizer, err := signing.Recover(PurchaseAuthDigest(sellerSigBytes, buyer, amount, expiry), authSig)
	if err != nil {
		return domainerrors.ErrInvalidAuthorizerSignature
	}
	ok, err := checker.HasCapability(ctx, RoleAuthorizer, authorizer)
	if err != nil {
		return err
	}
	if !ok {
		return domainerrors.ErrInvalidAuthorizerSignature
	}
	return nil
}

// VerifyCancelAuthorization checks the authorizer signature over a
// cancellation request.
func VerifyCancelAuthorization(
	ctx context.Context,
	checker CapabilityChecker,
	saleID string,
	canceler string,
	authSig signing.Envelope,
) error {
	authorizer, err := signing.Recover(CancelAuthDigest(saleID, canceler), authSig)
	if err != nil {
		return domainerrors.ErrInvalidAuthorizerSignature
	}
	ok, err := checker.HasCapability(ctx, RoleAuthorizer, authorizer)
	if err != nil {
		return err
	}
	if !ok {
		return domainerrors.ErrInvalidAuthorizerSignature
	}
	return nil
}
