package marketplace

// Kind classifies marketplace errors for callers that map them onto a
// transport (HTTP status, problem type).
type Kind uint8

const (
	// KindValidation covers malformed input: zero prices, bids that do
	// not exceed the current highest, unknown token references.
	KindValidation Kind = iota + 1
	// KindAuthorization covers callers that are not the recorded owner,
	// auction seller, or creator, and a marketplace lacking transfer
	// approval from the registry.
	KindAuthorization
	// KindState covers operations attempted in the wrong state.
	KindState
	// KindPayment covers attached funds below the required amount and
	// ledger balances that cannot cover the attached amount.
	KindPayment
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAuthorization:
		return "authorization"
	case KindState:
		return "state"
	case KindPayment:
		return "payment"
	default:
		return "unknown"
	}
}

// Error is a marketplace failure with a machine-readable code. Every error
// aborts the whole operation: no state mutation, fund movement, or custody
// change survives it.
type Error struct {
	Kind    Kind
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

var (
	ErrUnknownToken        = &Error{KindValidation, "unknown_token", "token does not exist"}
	ErrInvalidPrice        = &Error{KindValidation, "invalid_price", "price must be greater than 0"}
	ErrInvalidAmount       = &Error{KindValidation, "invalid_amount", "amount must be greater than 0"}
	ErrBidTooLow           = &Error{KindValidation, "bid_too_low", "bid too low"}
	ErrNotTokenOwner       = &Error{KindAuthorization, "not_token_owner", "not token owner"}
	ErrNotOwner            = &Error{KindAuthorization, "not_owner", "not item owner"}
	ErrNotApproved         = &Error{KindAuthorization, "not_approved", "marketplace not approved for transfer"}
	ErrNotAuctionCreator   = &Error{KindAuthorization, "not_auction_creator", "not auction creator"}
	ErrItemExists          = &Error{KindState, "item_exists", "item already registered"}
	ErrNotListed           = &Error{KindState, "not_listed", "item not listed"}
	ErrNotForSale          = &Error{KindState, "not_for_sale", "item not for sale"}
	ErrAuctionActive       = &Error{KindState, "auction_active", "auction already active"}
	ErrAuctionInactive     = &Error{KindState, "auction_inactive", "auction inactive"}
	ErrAuctionEnded        = &Error{KindState, "auction_ended", "auction ended"}
	ErrAuctionNotOver      = &Error{KindState, "auction_not_over", "auction not over"}
	ErrAuctionHasBids      = &Error{KindState, "auction_has_bids", "cannot cancel auction with bids"}
	ErrInsufficientPayment = &Error{KindPayment, "insufficient_payment", "insufficient payment"}
	ErrInsufficientFunds   = &Error{KindPayment, "insufficient_funds", "insufficient funds"}
)
