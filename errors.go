package zynapse

import (
	"errors"
	"net/http"
)

// OutcomeCode identifies the result of verifying one payment proof. The
// string values are the wire-level error codes sent in response bodies.
type OutcomeCode string

const (
	// OutcomePassed is never sent on the wire; the protected handler's own
	// response is returned instead.
	OutcomePassed OutcomeCode = "passed"

	OutcomeMissingProof        OutcomeCode = "payment_required"
	OutcomeMalformedProof      OutcomeCode = "invalid_payment_encoding"
	OutcomeTransactionNotFound OutcomeCode = "tx_not_found"
	OutcomeRecipientMissing    OutcomeCode = "missing_payout"
	OutcomeAmountInsufficient  OutcomeCode = "insufficient_amount"
	OutcomeInfrastructureError OutcomeCode = "verification_error"
)

// Sentinel errors returned by Ledger implementations so the verifier can
// tell "the chain has no such transaction" apart from "the chain could not
// be consulted".
var (
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrUnreadableAccounts  = errors.New("unable to read transaction accounts")
)

// Verification is the outcome of checking one proof against a requirement
// set. The gateway never retries a verification; each outcome maps to
// exactly one HTTP status.
type Verification struct {
	Code OutcomeCode

	// Recipient is the payee that was missing from the transaction or
	// underpaid, for the outcomes that name one.
	Recipient string
	// Required and Got carry the shortfall for OutcomeAmountInsufficient.
	Required uint64
	Got      int64
	// TxRef echoes the submitted reference for OutcomeTransactionNotFound.
	TxRef string
	// Err holds the underlying error for malformed proofs and
	// infrastructure failures. It is logged, never sent verbatim beyond a
	// short diagnostic.
	Err error
}

// Passed reports whether the proof satisfied every requirement.
func (v Verification) Passed() bool { return v.Code == OutcomePassed }

// HTTPStatus maps the outcome to its response status.
func (v Verification) HTTPStatus() int {
	switch v.Code {
	case OutcomePassed:
		return http.StatusOK
	case OutcomeMalformedProof:
		return http.StatusBadRequest
	case OutcomeInfrastructureError:
		return http.StatusInternalServerError
	default:
		return http.StatusPaymentRequired
	}
}
