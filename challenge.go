package zynapse

// Header format strings advertised in challenges so a payer knows exactly
// how to encode its proof.
const (
	singleHeaderFormat = HeaderPayment + `: base64({"transactionRef":"<signature>","claimedAmount":<lamports>})`
	splitHeaderFormat  = HeaderPayment + `: base64({"transactionRef":"<signature>","payouts":[{"to":"<address>","amount":<lamports>}]})`
)

// ChallengePayout is one payee entry of the payment instructions.
type ChallengePayout struct {
	To        string `json:"to"`
	MinAmount uint64 `json:"minAmount"`
}

// HowToPay tells a payer what to transfer, to whom, on which network, and
// how to encode the resulting proof.
type HowToPay struct {
	Network      string            `json:"network"`
	Payouts      []ChallengePayout `json:"payouts"`
	HeaderFormat string            `json:"header_format"`
}

// Challenge is the machine-readable body returned whenever a request does
// not carry a satisfactory proof. HowToPay is present on the 402 outcomes;
// the remaining fields carry outcome-specific detail.
type Challenge struct {
	OK             bool      `json:"ok"`
	Error          string    `json:"error"`
	HowToPay       *HowToPay `json:"how_to_pay,omitempty"`
	TransactionRef string    `json:"transactionRef,omitempty"`
	Missing        string    `json:"missing,omitempty"`
	To             string    `json:"to,omitempty"`
	Required       *uint64   `json:"required,omitempty"`
	Got            *int64    `json:"got,omitempty"`
	Detail         string    `json:"detail,omitempty"`
}

// NewChallenge builds the payment-required body for a requirement set.
// Pure construction: no side effects, always succeeds.
func NewChallenge(set PaymentRequirementSet) Challenge {
	payouts := make([]ChallengePayout, len(set))
	for i, req := range set {
		payouts[i] = ChallengePayout{To: req.Recipient, MinAmount: req.MinAmount}
	}
	format := singleHeaderFormat
	if set.Split() {
		format = splitHeaderFormat
	}
	return Challenge{
		Error: string(OutcomeMissingProof),
		HowToPay: &HowToPay{
			Network:      set.Network(),
			Payouts:      payouts,
			HeaderFormat: format,
		},
	}
}

// ChallengeForOutcome builds the response body for a failed verification.
// The 402 outcomes embed the full payment instructions so a payer can
// correct and resubmit; malformed proofs and infrastructure failures get a
// bare code (plus a short diagnostic for the latter).
func ChallengeForOutcome(v Verification, set PaymentRequirementSet) Challenge {
	switch v.Code {
	case OutcomeMissingProof:
		return NewChallenge(set)
	case OutcomeMalformedProof:
		return Challenge{Error: string(v.Code)}
	case OutcomeInfrastructureError:
		c := Challenge{Error: string(v.Code)}
		if v.Err != nil {
			c.Detail = v.Err.Error()
		}
		return c
	case OutcomeTransactionNotFound:
		c := NewChallenge(set)
		c.Error = string(v.Code)
		c.TransactionRef = v.TxRef
		return c
	case OutcomeRecipientMissing:
		c := NewChallenge(set)
		c.Error = string(v.Code)
		c.Missing = v.Recipient
		return c
	case OutcomeAmountInsufficient:
		c := NewChallenge(set)
		c.Error = string(v.Code)
		c.To = v.Recipient
		required, got := v.Required, v.Got
		c.Required = &required
		c.Got = &got
		return c
	}
	return Challenge{Error: string(v.Code)}
}
