package market

import "fmt"

// Result is the outcome code of a marketplace operation. Codes are stable:
// client tooling matches on them, and Message() texts are part of the
// contract (several are preserved verbatim from the original platform).
type Result int

// Result codes, organized by category.
//
// 0 is success. Positive codes are rejections: the operation was well formed
// but the ledger state, the caller's role, or a collaborator refused it.
// Codes in (-300, -200] are malformed input, rejected before any state is
// read. Internal is an engine invariant failure.
const (
	Success Result = 0

	// Authorization failures (100-119)
	NotAdmin  Result = 100
	NotSeller Result = 101

	// Listing creation failures (120-139)
	InvalidPrice        Result = 120
	InvalidQuantity     Result = 121
	InsufficientBalance Result = 122
	InvalidDuration     Result = 123
	NotApproved         Result = 124

	// Purchase and cancellation failures (140-169)
	NotFound              Result = 140
	SelfPurchase          Result = 141
	OutOfStock            Result = 142
	AlreadyClosed         Result = 143
	InvalidPayment        Result = 144
	InsufficientAllowance Result = 145
	InsufficientFunds     Result = 146
	TransferFailed        Result = 147

	// Malformed input (-299 to -200)
	InvalidParameter Result = -299
	InvalidCurrency  Result = -298

	// Internal engine failure (-192, mirrors nothing the caller did)
	Internal Result = -192
)

// IsSuccess reports whether the operation was applied.
func (r Result) IsSuccess() bool {
	return r == Success
}

// IsRejection reports whether the operation was well formed but refused.
func (r Result) IsRejection() bool {
	return r >= 100 && r < 200
}

// IsMalformed reports whether the input was rejected before touching state.
func (r Result) IsMalformed() bool {
	return r > -300 && r <= -200
}

// IsUnauthorized reports whether the failure was a role check.
func (r Result) IsUnauthorized() bool {
	return r == NotAdmin || r == NotSeller
}

// String returns the code's symbolic name.
func (r Result) String() string {
	switch r {
	case Success:
		return "Success"
	case NotAdmin:
		return "NotAdmin"
	case NotSeller:
		return "NotSeller"
	case InvalidPrice:
		return "InvalidPrice"
	case InvalidQuantity:
		return "InvalidQuantity"
	case InsufficientBalance:
		return "InsufficientBalance"
	case InvalidDuration:
		return "InvalidDuration"
	case NotApproved:
		return "NotApproved"
	case NotFound:
		return "NotFound"
	case SelfPurchase:
		return "SelfPurchase"
	case OutOfStock:
		return "OutOfStock"
	case AlreadyClosed:
		return "AlreadyClosed"
	case InvalidPayment:
		return "InvalidPayment"
	case InsufficientAllowance:
		return "InsufficientAllowance"
	case InsufficientFunds:
		return "InsufficientFunds"
	case TransferFailed:
		return "TransferFailed"
	case InvalidParameter:
		return "InvalidParameter"
	case InvalidCurrency:
		return "InvalidCurrency"
	case Internal:
		return "Internal"
	default:
		return fmt.Sprintf("Result(%d)", int(r))
	}
}

// Message returns the human-readable reason for the code. The texts for
// NotAdmin, InvalidPrice, InvalidQuantity, InsufficientBalance, and
// SelfPurchase are the original platform's verbatim messages and must not
// change.
func (r Result) Message() string {
	switch r {
	case Success:
		return "The operation was applied."
	case NotAdmin:
		return "You are not the admin"
	case NotSeller:
		return "You are not the seller"
	case InvalidPrice:
		return "Price must be greater than 0"
	case InvalidQuantity:
		return "Can not sell 0 tokens"
	case InsufficientBalance:
		return "You do not have enough tokens"
	case InvalidDuration:
		return "Duration must be greater than 0"
	case NotApproved:
		return "Marketplace is not approved to transfer your tokens"
	case NotFound:
		return "Offer does not exist"
	case SelfPurchase:
		return "You are the owner"
	case OutOfStock:
		return "Offer is out of stock"
	case AlreadyClosed:
		return "Offer is already closed"
	case InvalidPayment:
		return "Attached value does not match the price"
	case InsufficientAllowance:
		return "Token allowance does not cover the price"
	case InsufficientFunds:
		return "You do not have enough funds"
	case TransferFailed:
		return "Token transfer failed"
	case InvalidParameter:
		return "Invalid parameter"
	case InvalidCurrency:
		return "Currency is not accepted"
	case Internal:
		return "Internal error"
	default:
		return "Unknown result"
	}
}

// CodedError carries a Result through an error return. Operation Validate
// methods return coded errors so the engine can surface the precise code.
type CodedError struct {
	Code Result
	Msg  string
}

func (e *CodedError) Error() string {
	if e.Msg != "" {
		return e.Code.String() + ": " + e.Msg
	}
	return e.Code.String() + ": " + e.Code.Message()
}

// NewCodedError builds a coded error with the code's canonical message.
func NewCodedError(code Result) *CodedError {
	return &CodedError{Code: code}
}
