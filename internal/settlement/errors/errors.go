// Package errors defines the sentinel errors shared across the settlement
// engine. Callers classify failures with errors.Is; the HTTP layer maps
// them to status codes.
package errors

import (
	"fmt"
)

var (
	// ErrNotFound is returned when a referenced job, company, purchase
	// order, invoice or proof does not exist.
	ErrNotFound = fmt.Errorf("not found")

	// ErrValidation is returned for malformed input: unknown size,
	// non-positive quantity or amount, bad PO number format.
	ErrValidation = fmt.Errorf("invalid input")

	// ErrInvalidRouting is returned when a third-party-vendor routing is
	// requested without a vendor or with a negative vendor amount.
	ErrInvalidRouting = fmt.Errorf("invalid routing")

	// ErrConflict marks a uniqueness violation on concurrent duplicate
	// creation. It never escapes the idempotent create operations; they
	// convert it into the already-existing record.
	ErrConflict = fmt.Errorf("conflict")

	// ErrMissingAmount is returned by invoice generation when the relevant
	// job amount is unset or non-positive.
	ErrMissingAmount = fmt.Errorf("missing amount")

	// ErrInvalidTransition is returned for a job or proof status change
	// that the state machine does not permit.
	ErrInvalidTransition = fmt.Errorf("invalid status transition")

	// ErrExtraction is returned when document extraction fails or yields
	// no usable fields. Callers fall back to generated values.
	ErrExtraction = fmt.Errorf("extraction failed")

	// ErrDelivery is returned by the notification dispatcher when a
	// message cannot be published. It is logged and never propagated into
	// ledger state.
	ErrDelivery = fmt.Errorf("delivery failed")
)
