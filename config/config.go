// Package config turns human-friendly route pricing into payment
// requirement sets. Prices are written in SOL and converted to lamports;
// payout splits are written in whole percents.
package config

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	zynapse "github.com/zynapse-ai/zynapse-go"
	"github.com/zynapse-ai/zynapse-go/ledger"
)

var validate = validator.New()

// Payout is one recipient's share of a route's price.
type Payout struct {
	Address string `json:"address" validate:"required"`
	Percent uint64 `json:"percent" validate:"required,gt=0,lte=100"`
}

// Route prices a single path. PriceSOL is a decimal string such as
// "0.001"; with a single payout the percent is ignored and the full price
// goes to that address.
type Route struct {
	Path     string   `json:"path" validate:"required,startswith=/"`
	Network  string   `json:"network"`
	PriceSOL string   `json:"price_sol" validate:"required"`
	Payouts  []Payout `json:"payouts" validate:"required,min=1,dive"`
}

// Requirements converts the route into an ordered requirement set,
// splitting the lamport total across the payouts by percent.
func (r *Route) Requirements() (zynapse.PaymentRequirementSet, error) {
	if err := validate.Struct(r); err != nil {
		return nil, fmt.Errorf("invalid route %q: %w", r.Path, err)
	}

	network := r.Network
	if network == "" {
		network = ledger.NetworkDevnet
	}

	price, err := decimal.NewFromString(r.PriceSOL)
	if err != nil {
		return nil, fmt.Errorf("invalid price %q: %w", r.PriceSOL, err)
	}
	if price.Sign() <= 0 {
		return nil, fmt.Errorf("price %q must be positive", r.PriceSOL)
	}

	lamports := price.Mul(decimal.NewFromInt(int64(solana.LAMPORTS_PER_SOL))).Floor().BigInt()
	if !lamports.IsUint64() || lamports.Uint64() == 0 {
		return nil, fmt.Errorf("price %q does not convert to a usable lamport amount", r.PriceSOL)
	}
	total := lamports.Uint64()

	if len(r.Payouts) == 1 {
		return zynapse.SingleRequirement(network, r.Payouts[0].Address, total), nil
	}

	shares := make([]zynapse.Share, len(r.Payouts))
	var sum uint64
	for i, p := range r.Payouts {
		shares[i] = zynapse.Share{Recipient: p.Address, Percent: p.Percent}
		sum += p.Percent
	}
	if sum != 100 {
		return nil, fmt.Errorf("route %q payout percents sum to %d, want 100", r.Path, sum)
	}
	return zynapse.SplitRequirements(network, total, shares)
}
