package domain

import "errors"

// Sentinel errors shared across services and repositories. Services wrap these
// with context; controllers map them to HTTP error codes with errors.Is.
var (
	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("forbidden")
	ErrInvalidInput = errors.New("invalid input")

	// ErrDuplicateEmail is returned on signup when the email is taken.
	ErrDuplicateEmail = errors.New("email already in use")

	// ErrOutOfCapacity is returned when a tier reservation would exceed the
	// tier's total capacity. The ledger state is unchanged.
	ErrOutOfCapacity = errors.New("ticket tier is out of capacity")

	// ErrValidationFailed is returned by Advance when the current step's
	// gate predicate does not hold.
	ErrValidationFailed = errors.New("field validation failed")

	// ErrTermsNotAccepted is returned by Advance from the confirmation step
	// when the registrant has not accepted the terms.
	ErrTermsNotAccepted = errors.New("terms not accepted")

	// ErrDraftClosed is returned when mutating a draft that is already
	// submitted or abandoned.
	ErrDraftClosed = errors.New("registration draft is closed")

	// Entry-validation denials. Each renders a distinct operator message.
	ErrAlreadyRedeemed = errors.New("credential already redeemed")
	ErrCredentialVoid  = errors.New("credential is void")
	ErrOutsideWindow   = errors.New("outside the admission window")
)
