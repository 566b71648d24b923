package errors

import "errors"

var (
	ErrCapabilityDenied      = errors.New("caller lacks required capability")
	ErrZeroAddressRejected   = errors.New("zero address rejected")
	ErrUnknownRole           = errors.New("unknown role")
	ErrInvalidCommissionRate = errors.New("invalid commission rate")
	ErrTreasuryRequired      = errors.New("treasury identity required")
	ErrInvalidRequest        = errors.New("invalid request")
)
