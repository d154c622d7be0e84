package models

import "errors"

// Pipeline error taxonomy. Services wrap these with fmt.Errorf("...: %w", ...)
// and handlers map them to HTTP statuses in one place.
var (
	ErrValidation       = errors.New("validation failed")
	ErrNotFound         = errors.New("not found")
	ErrForbidden        = errors.New("forbidden")
	ErrPaymentRequired  = errors.New("payment required")
	ErrUpstream         = errors.New("upstream service failed")
	ErrExpiredOrInvalid = errors.New("invalid or expired")
)
