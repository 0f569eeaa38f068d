package zynapse

import (
	"fmt"
	"math/big"
)

// Share assigns a percentage of a total price to one recipient.
type Share struct {
	Recipient string
	Percent   uint64
}

// SingleRequirement builds the one-payee requirement set.
func SingleRequirement(network, recipient string, minAmount uint64) PaymentRequirementSet {
	return PaymentRequirementSet{{Recipient: recipient, MinAmount: minAmount, Network: network}}
}

// SplitRequirements divides total across the shares in order. Every share
// but the last gets floor(total * percent / sumPercent); the last share
// absorbs whatever integer division truncated, so the set always sums to
// exactly total. The last-recipient remainder rule is order-dependent and
// part of the compatibility contract; do not redistribute it.
func SplitRequirements(network string, total uint64, shares []Share) (PaymentRequirementSet, error) {
	if len(shares) == 0 {
		return nil, fmt.Errorf("at least one share is required")
	}

	var sumPercent uint64
	for _, sh := range shares {
		if sh.Recipient == "" {
			return nil, fmt.Errorf("share recipient must not be empty")
		}
		sumPercent += sh.Percent
	}
	if sumPercent == 0 {
		return nil, fmt.Errorf("share percentages sum to zero")
	}

	totalBig := new(big.Int).SetUint64(total)
	sumBig := new(big.Int).SetUint64(sumPercent)

	set := make(PaymentRequirementSet, 0, len(shares))
	var assigned uint64
	for i, sh := range shares {
		var amount uint64
		if i == len(shares)-1 {
			amount = total - assigned
		} else {
			n := new(big.Int).Mul(totalBig, new(big.Int).SetUint64(sh.Percent))
			amount = n.Div(n, sumBig).Uint64()
			assigned += amount
		}
		set = append(set, PaymentRequirement{
			Recipient: sh.Recipient,
			MinAmount: amount,
			Network:   network,
		})
	}
	return set, nil
}
