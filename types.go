// Package zynapse implements an on-chain paywall for HTTP resources: a
// server-side gateway that demands proof of a Solana payment before a
// protected handler runs, and the verification model shared with the
// autonomous client that satisfies such challenges.
package zynapse

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math"
)

// HeaderPayment is the request header carrying a base64-encoded payment
// proof. Matching is case-insensitive.
const HeaderPayment = "X-Payment"

// PaymentRequirement names one payee that must receive at least MinAmount,
// expressed in the ledger's smallest unit (lamports), on the given network.
// Immutable once constructed; the route that registered it owns it.
type PaymentRequirement struct {
	Recipient string `json:"to"`
	MinAmount uint64 `json:"minAmount"`
	Network   string `json:"network"`
}

// PaymentRequirementSet is an ordered list of requirements sharing one
// logical price. The order matters: split derivation assigns the rounding
// remainder to the last entry, and that ordering is part of the wire
// contract.
type PaymentRequirementSet []PaymentRequirement

// Network returns the network identifier shared by the set.
func (s PaymentRequirementSet) Network() string {
	if len(s) == 0 {
		return ""
	}
	return s[0].Network
}

// Total sums the minimum amounts across the set.
func (s PaymentRequirementSet) Total() uint64 {
	var total uint64
	for _, req := range s {
		total += req.MinAmount
	}
	return total
}

// Split reports whether the set requires a multi-payee proof.
func (s PaymentRequirementSet) Split() bool { return len(s) > 1 }

// PaymentProof is the client-submitted evidence that a requirement set was
// satisfied. It lives only for the duration of one request, carried as
// base64(JSON) in the payment header. Single-recipient proofs carry a
// claimed amount; split proofs carry an advisory payout list instead, and
// verification re-derives the truth from the chain either way.
type PaymentProof struct {
	TransactionRef string        `json:"transactionRef"`
	ClaimedAmount  uint64        `json:"claimedAmount,omitempty"`
	Payouts        []ProofPayout `json:"payouts,omitempty"`
}

// ProofPayout is one advisory entry of a split proof.
type ProofPayout struct {
	To     string `json:"to"`
	Amount uint64 `json:"amount"`
}

// EncodeHeader serializes the proof into its header representation.
func (p *PaymentProof) EncodeHeader() string {
	data, err := json.Marshal(p)
	if err != nil {
		panic(fmt.Sprintf("failed to marshal payment proof: %v", err))
	}
	return base64.StdEncoding.EncodeToString(data)
}

// DecodeProofHeader decodes and strictly validates a proof header value.
// A transaction reference is always required; the claimed amount is
// required only for single-recipient proofs (split verification ignores
// claims entirely). Any decoding or shape failure is a MalformedProof
// condition for the caller.
func DecodeProofHeader(header string, split bool) (*PaymentProof, error) {
	raw, err := base64.StdEncoding.DecodeString(header)
	if err != nil {
		return nil, fmt.Errorf("invalid base64 encoding: %w", err)
	}

	var fields map[string]interface{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("invalid proof JSON: %w", err)
	}

	ref, ok := fields["transactionRef"].(string)
	if !ok || ref == "" {
		return nil, fmt.Errorf("missing required field: transactionRef")
	}

	if !split {
		amount, ok := fields["claimedAmount"].(float64)
		if !ok {
			return nil, fmt.Errorf("missing required field: claimedAmount")
		}
		if amount < 0 || amount != math.Trunc(amount) {
			return nil, fmt.Errorf("invalid field: claimedAmount must be a non-negative integer")
		}
	}

	var proof PaymentProof
	if err := json.Unmarshal(raw, &proof); err != nil {
		return nil, fmt.Errorf("invalid proof payload: %w", err)
	}
	return &proof, nil
}

// TransactionRecord is a finalized ledger transaction normalized for
// verification: Participants[i]'s balance changed from PreBalances[i] to
// PostBalances[i], regardless of which message encoding the transaction
// used on the wire.
type TransactionRecord struct {
	Participants []string
	PreBalances  []uint64
	PostBalances []uint64
}

// ParticipantIndex returns the index of addr in the participant sequence,
// or -1 when the address took no part in the transaction.
func (r *TransactionRecord) ParticipantIndex(addr string) int {
	for i, p := range r.Participants {
		if p == addr {
			return i
		}
	}
	return -1
}

// BalanceDelta returns post minus pre for participant i. Balance entries
// the node did not report count as zero, mirroring how the RPC result is
// read on other stacks.
func (r *TransactionRecord) BalanceDelta(i int) int64 {
	var pre, post uint64
	if i >= 0 && i < len(r.PreBalances) {
		pre = r.PreBalances[i]
	}
	if i >= 0 && i < len(r.PostBalances) {
		post = r.PostBalances[i]
	}
	return int64(post) - int64(pre)
}
