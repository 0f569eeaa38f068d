package zynapse

import (
	"context"
	"errors"
)

// Ledger is the read side of the chain: it fetches a finalized transaction
// by its signature, already normalized into a TransactionRecord.
// Implementations return ErrTransactionNotFound when the reference is
// unknown to the chain and ErrUnreadableAccounts when the participant list
// cannot be assembled from either message encoding.
type Ledger interface {
	Transaction(ctx context.Context, ref string) (*TransactionRecord, error)
}

// Verifier checks submitted payment proofs against a requirement set. It
// holds no mutable state, so a single instance serves concurrent requests
// without locking; the ledger is the only source of truth for balances.
type Verifier struct {
	ledger Ledger
}

// NewVerifier wires a verifier to a ledger.
func NewVerifier(ledger Ledger) *Verifier {
	return &Verifier{ledger: ledger}
}

// Verify runs the verification algorithm for one request. headerValues
// are all values submitted for the payment header; exactly one is
// required. Verification is all-or-nothing across the set: a split payment
// missing even one payee fails entirely, regardless of the others.
func (v *Verifier) Verify(ctx context.Context, headerValues []string, set PaymentRequirementSet) Verification {
	if len(headerValues) != 1 || headerValues[0] == "" {
		return Verification{Code: OutcomeMissingProof}
	}

	proof, err := DecodeProofHeader(headerValues[0], set.Split())
	if err != nil {
		return Verification{Code: OutcomeMalformedProof, Err: err}
	}

	record, err := v.ledger.Transaction(ctx, proof.TransactionRef)
	switch {
	case errors.Is(err, ErrTransactionNotFound):
		return Verification{Code: OutcomeTransactionNotFound, TxRef: proof.TransactionRef}
	case err != nil:
		// A flaky RPC endpoint must never take the gateway down.
		return Verification{Code: OutcomeInfrastructureError, Err: err}
	}

	for _, req := range set {
		idx := record.ParticipantIndex(req.Recipient)
		if idx < 0 {
			return Verification{Code: OutcomeRecipientMissing, Recipient: req.Recipient}
		}
		delta := record.BalanceDelta(idx)
		if delta < 0 || uint64(delta) < req.MinAmount {
			return Verification{
				Code:      OutcomeAmountInsufficient,
				Recipient: req.Recipient,
				Required:  req.MinAmount,
				Got:       delta,
			}
		}
	}
	return Verification{Code: OutcomePassed}
}
