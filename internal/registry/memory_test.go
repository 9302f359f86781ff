package registry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	market = "0xmarket"
	alice  = "0xalice"
	bob    = "0xbob"
	carol  = "0xcarol"
)

func newBound(t *testing.T) *Memory {
	t.Helper()
	reg := NewMemory()
	require.NoError(t, reg.Bind(market))
	return reg
}

func TestBindOnce(t *testing.T) {
	reg := NewMemory()

	require.NoError(t, reg.Bind(market))
	assert.Equal(t, market, reg.Marketplace())

	assert.ErrorIs(t, reg.Bind(alice), ErrAlreadyBound)
}

func TestBindEmpty(t *testing.T) {
	reg := NewMemory()
	assert.ErrorIs(t, reg.Bind(""), ErrInvalidBinding)
}

func TestMint(t *testing.T) {
	ctx := context.Background()
	reg := newBound(t)

	require.NoError(t, reg.Mint(ctx, market, alice, 1))

	holder, err := reg.HolderOf(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, alice, holder)
}

func TestMintRestricted(t *testing.T) {
	ctx := context.Background()
	reg := newBound(t)

	assert.ErrorIs(t, reg.Mint(ctx, alice, alice, 1), ErrOnlyMarket)

	unbound := NewMemory()
	assert.ErrorIs(t, unbound.Mint(ctx, market, alice, 1), ErrOnlyMarket)
}

func TestMintExisting(t *testing.T) {
	ctx := context.Background()
	reg := newBound(t)

	require.NoError(t, reg.Mint(ctx, market, alice, 1))
	assert.ErrorIs(t, reg.Mint(ctx, market, bob, 1), ErrTokenExists)
}

func TestHolderOfMissing(t *testing.T) {
	reg := newBound(t)
	_, err := reg.HolderOf(context.Background(), 999)
	assert.ErrorIs(t, err, ErrTokenNotFound)
}

func TestTransferByHolder(t *testing.T) {
	ctx := context.Background()
	reg := newBound(t)
	require.NoError(t, reg.Mint(ctx, market, alice, 1))

	require.NoError(t, reg.Transfer(ctx, alice, alice, bob, 1))

	holder, err := reg.HolderOf(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, bob, holder)
}

func TestTransferUnauthorized(t *testing.T) {
	ctx := context.Background()
	reg := newBound(t)
	require.NoError(t, reg.Mint(ctx, market, alice, 1))

	assert.ErrorIs(t, reg.Transfer(ctx, bob, alice, bob, 1), ErrNotAuthorized)
}

func TestTransferWrongFrom(t *testing.T) {
	ctx := context.Background()
	reg := newBound(t)
	require.NoError(t, reg.Mint(ctx, market, alice, 1))

	assert.ErrorIs(t, reg.Transfer(ctx, bob, bob, carol, 1), ErrNotHolder)
	assert.ErrorIs(t, reg.Transfer(ctx, alice, alice, bob, 999), ErrNotHolder)
}

func TestTransferByApproved(t *testing.T) {
	ctx := context.Background()
	reg := newBound(t)
	require.NoError(t, reg.Mint(ctx, market, alice, 1))
	require.NoError(t, reg.Approve(ctx, alice, bob, 1))

	require.NoError(t, reg.Transfer(ctx, bob, alice, bob, 1))

	holder, err := reg.HolderOf(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, bob, holder)
}

func TestApprovalClearedOnTransfer(t *testing.T) {
	ctx := context.Background()
	reg := newBound(t)
	require.NoError(t, reg.Mint(ctx, market, alice, 1))
	require.NoError(t, reg.Approve(ctx, alice, bob, 1))

	require.NoError(t, reg.Transfer(ctx, bob, alice, bob, 1))

	approved, err := reg.ApprovedOperator(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, approved)
}

func TestApproveNotHolder(t *testing.T) {
	ctx := context.Background()
	reg := newBound(t)
	require.NoError(t, reg.Mint(ctx, market, alice, 1))

	assert.ErrorIs(t, reg.Approve(ctx, bob, bob, 1), ErrNotAuthorized)
}

func TestApproveMissingToken(t *testing.T) {
	reg := newBound(t)
	assert.ErrorIs(t, reg.Approve(context.Background(), alice, bob, 999), ErrTokenNotFound)
}

func TestOperatorApproval(t *testing.T) {
	ctx := context.Background()
	reg := newBound(t)
	require.NoError(t, reg.Mint(ctx, market, alice, 1))

	require.NoError(t, reg.SetOperatorApproval(ctx, alice, bob, true))

	ok, err := reg.IsOperatorFor(ctx, alice, bob)
	require.NoError(t, err)
	assert.True(t, ok)

	// Operator may transfer any of the owner's tokens.
	require.NoError(t, reg.Transfer(ctx, bob, alice, carol, 1))

	require.NoError(t, reg.SetOperatorApproval(ctx, alice, bob, false))
	ok, err = reg.IsOperatorFor(ctx, alice, bob)
	require.NoError(t, err)
	assert.False(t, ok)
}
