// Package registry defines the asset-ownership registry the marketplace
// consumes: the authoritative record of who holds each token and who is
// authorized to transfer it.
package registry

import (
	"context"
	"errors"
)

// Registry is the capability surface the marketplace core depends on.
// Callers are explicit: every mutating call names the address it is made
// on behalf of, and the implementation enforces authorization against it.
type Registry interface {
	// HolderOf returns the current custodian of the token.
	HolderOf(ctx context.Context, tokenID uint64) (string, error)

	// Transfer moves custody of the token from one address to another.
	// The caller must be the holder, the single approved operator for the
	// token, or a blanket operator for the holder. Any per-token approval
	// is cleared by a successful transfer.
	Transfer(ctx context.Context, caller, from, to string, tokenID uint64) error

	// ApprovedOperator returns the address holding single-token transfer
	// approval, or the empty string if none.
	ApprovedOperator(ctx context.Context, tokenID uint64) (string, error)

	// IsOperatorFor reports whether operator holds blanket transfer
	// approval from owner.
	IsOperatorFor(ctx context.Context, owner, operator string) (bool, error)
}

// Registry errors.
var (
	ErrTokenNotFound  = errors.New("token does not exist")
	ErrTokenExists    = errors.New("token already exists")
	ErrNotHolder      = errors.New("not the holder")
	ErrNotAuthorized  = errors.New("not authorized")
	ErrOnlyMarket     = errors.New("only the bound marketplace can mint")
	ErrAlreadyBound   = errors.New("marketplace already bound")
	ErrInvalidBinding = errors.New("invalid marketplace address")
)
