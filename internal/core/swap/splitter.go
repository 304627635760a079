// Package swap converts an inbound native payment into one or more target
// tokens through an external exchange router, splitting the amount across
// targets by percentage weight.
package swap

import (
	"errors"
	"time"

	"github.com/plip123/nft-marketplace/internal/core/market"
	"github.com/plip123/nft-marketplace/internal/core/types"
)

// ExchangeRouter is the external venue that performs the actual conversion.
// It delivers the output tokens directly to the recipient and returns the
// amount delivered.
type ExchangeRouter interface {
	SwapExactNativeForToken(amountIn, minOut uint64, token, recipient types.Address, deadline time.Time) (uint64, error)
}

// TokenResolver returns the payment binding for a destination token
// contract, used to forward swapped output from custody to the caller.
type TokenResolver func(types.Address) (market.FungibleToken, bool)

// DefaultDeadline bounds how long the router may hold a leg open.
const DefaultDeadline = 5 * time.Minute

// Request describes one split-swap call. PaymentValue is the attached native
// value and must equal AmountIn exactly.
type Request struct {
	Caller       types.Address
	AmountIn     uint64
	PaymentValue uint64
	Weights      []uint8
	Destinations []types.Address
}

// Leg reports one executed conversion.
type Leg struct {
	Token     types.Address `json:"token"`
	AmountIn  uint64        `json:"amount_in"`
	AmountOut uint64        `json:"amount_out"`

	rail market.FungibleToken
}

// Splitter routes proportional shares of a native payment through the
// exchange router. Legs swap into the custody account and the output is
// forwarded to the caller only once every leg has cleared, so a failed leg
// delivers nothing.
type Splitter struct {
	router   ExchangeRouter
	clock    market.Clock
	custody  types.Address
	tokens   TokenResolver
	deadline time.Duration
}

// NewSplitter builds a splitter over router. Custody is the account leg
// output accumulates in between swap and forward. A nil clock means system
// time.
func NewSplitter(router ExchangeRouter, clock market.Clock, custody types.Address, tokens TokenResolver) (*Splitter, error) {
	if clock == nil {
		clock = market.SystemClock()
	}
	if custody.IsZero() {
		return nil, errors.New("splitter: custody address required")
	}
	if tokens == nil {
		return nil, errors.New("splitter: token resolver required")
	}
	return &Splitter{router: router, clock: clock, custody: custody, tokens: tokens, deadline: DefaultDeadline}, nil
}

// Split validates the request, computes floor shares, and executes one
// router leg per destination. share_i = floor(amountIn * weight_i / 100);
// truncation dust is swept into the last leg rather than refunded. Legs with
// a zero share are skipped. Any leg failure aborts the call before any
// output reaches the caller; remaining legs are not attempted and the
// executed legs are not reported.
func (s *Splitter) Split(req Request) ([]Leg, market.Result) {
	if len(req.Weights) == 0 || len(req.Weights) != len(req.Destinations) {
		return nil, market.InvalidParameter
	}
	var sum uint64
	for _, w := range req.Weights {
		sum += uint64(w)
	}
	if sum != 100 {
		return nil, market.InvalidParameter
	}
	for _, dst := range req.Destinations {
		if dst.IsZero() {
			return nil, market.InvalidParameter
		}
	}
	if req.Caller.IsZero() {
		return nil, market.InvalidParameter
	}
	if req.AmountIn == 0 || req.PaymentValue != req.AmountIn {
		return nil, market.InvalidPayment
	}
	// Every destination must have a forwarding binding before any leg runs.
	rails := make([]market.FungibleToken, len(req.Destinations))
	for i, dst := range req.Destinations {
		rail, ok := s.tokens(dst)
		if !ok {
			return nil, market.InvalidCurrency
		}
		rails[i] = rail
	}

	shares := make([]uint64, len(req.Weights))
	var allotted uint64
	for i, w := range req.Weights {
		shares[i] = req.AmountIn / 100 * uint64(w)
		shares[i] += req.AmountIn % 100 * uint64(w) / 100
		allotted += shares[i]
	}
	// Dust from floor division goes to the last leg.
	shares[len(shares)-1] += req.AmountIn - allotted

	deadline := s.clock.Now().Add(s.deadline)
	legs := make([]Leg, 0, len(shares))
	for i, share := range shares {
		if share == 0 {
			continue
		}
		out, err := s.router.SwapExactNativeForToken(share, 0, req.Destinations[i], s.custody, deadline)
		if err != nil {
			return nil, market.TransferFailed
		}
		legs = append(legs, Leg{Token: req.Destinations[i], AmountIn: share, AmountOut: out, rail: rails[i]})
	}

	// All legs cleared; release the custodied output to the caller.
	for _, leg := range legs {
		if err := leg.rail.Transfer(req.Caller, leg.AmountOut); err != nil {
			return nil, market.TransferFailed
		}
	}
	return legs, market.Success
}
