package domain

import "errors"

var (
	// ErrInternalServerError will throw if any the Internal Server Error happen
	ErrInternalServerError = errors.New("Internal Server Error")
	// ErrNotFound will throw if the requested item is not exists
	ErrNotFound = errors.New("Your requested Item is not found")
	// ErrConflict will throw if the current action already exists
	ErrConflict = errors.New("Your Item already exist")
	// ErrBadParamInput will throw if the given request-body or params is not valid
	ErrBadParamInput = errors.New("Given Param is not valid")

	// request error
	ErrInvalidAddress   = errors.New("Invalid address")
	ErrInvalidSignature = errors.New("Invalid signature")

	// ledger precondition violations, surfaced verbatim to callers
	ErrInvalidPrice      = errors.New("invalid price")
	ErrItemNotFound      = errors.New("market item not found")
	ErrAlreadySold       = errors.New("market item already sold")
	ErrSelfTrade         = errors.New("seller cannot trade own item")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrZeroOffer         = errors.New("offer price must be greater than zero")
	ErrOfferNotFound     = errors.New("offer not found")
	ErrNotSeller         = errors.New("caller is not the seller")
	ErrNotAssetOwner     = errors.New("caller is not the asset owner")
	ErrNotApproved       = errors.New("marketplace is not approved for the asset")
)
