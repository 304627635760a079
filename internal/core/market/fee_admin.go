package market

import (
	"github.com/plip123/nft-marketplace/internal/core/keylet"
	"github.com/plip123/nft-marketplace/internal/core/market/entry"
	"github.com/plip123/nft-marketplace/internal/core/types"
)

// SetFee changes the percentage taken from each sale. Admin only.
type SetFee struct {
	Caller  types.Address
	Percent uint8
}

func (s *SetFee) OpName() string { return "SetFee" }

func (s *SetFee) Validate() error {
	if s.Caller.IsZero() {
		return &CodedError{Code: InvalidParameter, Msg: "caller address required"}
	}
	if s.Percent > entry.MaxFeePercent {
		return &CodedError{Code: InvalidParameter, Msg: "fee percent must be between 0 and 100"}
	}
	return nil
}

func (s *SetFee) Apply(ctx *ApplyContext) Result {
	if s.Caller != ctx.Config.Admin {
		return NotAdmin
	}
	fees, err := readFeeSettings(ctx.View)
	if err != nil {
		return Internal
	}
	fees.Percent = s.Percent
	raw, err := entry.SerializeFeeSettings(fees)
	if err != nil {
		return Internal
	}
	if err := ctx.View.Update(keylet.FeeSettings(), raw); err != nil {
		return Internal
	}
	return Success
}

// SetRecipientFee changes the account that receives sale fees. Admin only.
type SetRecipientFee struct {
	Caller    types.Address
	Recipient types.Address
}

func (s *SetRecipientFee) OpName() string { return "SetRecipientFee" }

func (s *SetRecipientFee) Validate() error {
	if s.Caller.IsZero() {
		return &CodedError{Code: InvalidParameter, Msg: "caller address required"}
	}
	if s.Recipient.IsZero() {
		return &CodedError{Code: InvalidParameter, Msg: "fee recipient must not be the zero address"}
	}
	return nil
}

func (s *SetRecipientFee) Apply(ctx *ApplyContext) Result {
	if s.Caller != ctx.Config.Admin {
		return NotAdmin
	}
	fees, err := readFeeSettings(ctx.View)
	if err != nil {
		return Internal
	}
	fees.Recipient = s.Recipient
	raw, err := entry.SerializeFeeSettings(fees)
	if err != nil {
		return Internal
	}
	if err := ctx.View.Update(keylet.FeeSettings(), raw); err != nil {
		return Internal
	}
	return Success
}
