package errors

import "errors"

var ErrValidation = errors.New("validation failed")
var ErrNotFound = errors.New("booking not found")
var ErrStoreUnavailable = errors.New("booking store unavailable")
var ErrInvalidTransition = errors.New("status transition not allowed")
var ErrSignatureInvalid = errors.New("webhook signature verification failed")
var ErrMissingCorrelation = errors.New("no booking_id in event metadata")
var ErrPaymentLinkFailed = errors.New("payment link creation failed")
var ErrUnauthorized = errors.New("user is not authorized")
var ErrForbidden = errors.New("operation is forbidden for user")
