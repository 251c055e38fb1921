package chaincode

import "errors"

// Error kinds surfaced to callers. Fabric flattens chaincode errors into
// strings before they reach the client, so each kind is a stable
// machine-readable prefix that clients can match on. Every kind is a
// precondition failure detected before any state mutation; the whole call
// aborts and no partial state is written.
var (
	ErrAlreadyInitialized   = errors.New("ALREADY_INITIALIZED")
	ErrInvalidInput         = errors.New("INVALID_INPUT")
	ErrDuplicateFingerprint = errors.New("DUPLICATE_FINGERPRINT")
	ErrDuplicateOwner       = errors.New("DUPLICATE_OWNER")
	ErrNotFound             = errors.New("NOT_FOUND")
	ErrUnauthorized         = errors.New("UNAUTHORIZED")
	ErrBelowMinimum         = errors.New("BELOW_MINIMUM")
	ErrRecipientNotFound    = errors.New("RECIPIENT_NOT_FOUND")
	ErrSelfPayment          = errors.New("SELF_PAYMENT")
	ErrInsufficientFunds    = errors.New("INSUFFICIENT_FUNDS")
	ErrInvalidFeeRate       = errors.New("INVALID_FEE_RATE")
)
