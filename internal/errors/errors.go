package errors

import "errors"

// Reservation failure taxonomy. Handlers map these to HTTP statuses;
// everything else bubbles up as a 500.
var (
	ErrInvalidInput          = errors.New("invalid booking input")
	ErrInvalidRange          = errors.New("check-out must be after check-in")
	ErrListingNotFound       = errors.New("listing not found or inactive")
	ErrBookingNotFound       = errors.New("booking not found")
	ErrDateRangeUnavailable  = errors.New("requested dates are unavailable")
	ErrInvalidTransition     = errors.New("invalid booking status transition")
	ErrInvalidWebhookPayload = errors.New("invalid payment webhook payload")
	ErrDuplicatePayment      = errors.New("payment already reconciled")
	ErrForbidden             = errors.New("operation is forbidden for user")
	ErrUnauthorized          = errors.New("user is not authorized")
)
