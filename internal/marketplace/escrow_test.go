package marketplace

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestEscrowDepositWithdraw(t *testing.T) {
	e := NewEscrow()

	require.NoError(t, e.Deposit("alice", dec("5")))
	assert.True(t, e.Balance("alice").Equal(dec("5")))

	require.NoError(t, e.Withdraw("alice", dec("2")))
	assert.True(t, e.Balance("alice").Equal(dec("3")))
}

func TestEscrowRejectsNonPositiveAmounts(t *testing.T) {
	e := NewEscrow()

	assert.ErrorIs(t, e.Deposit("alice", decimal.Zero), ErrInvalidAmount)
	assert.ErrorIs(t, e.Deposit("alice", dec("-1")), ErrInvalidAmount)
	assert.ErrorIs(t, e.Withdraw("alice", decimal.Zero), ErrInvalidAmount)
	assert.ErrorIs(t, e.Withdraw("alice", dec("-1")), ErrInvalidAmount)
}

func TestEscrowWithdrawInsufficient(t *testing.T) {
	e := NewEscrow()
	require.NoError(t, e.Deposit("alice", dec("1")))

	assert.ErrorIs(t, e.Withdraw("alice", dec("2")), ErrInsufficientFunds)
	assert.True(t, e.Balance("alice").Equal(dec("1")))
}

func TestEscrowHeldNotWithdrawable(t *testing.T) {
	e := NewEscrow()
	require.NoError(t, e.Deposit("alice", dec("3")))
	require.NoError(t, e.hold("alice", dec("2")))

	assert.True(t, e.Balance("alice").Equal(dec("1")))
	assert.True(t, e.Held().Equal(dec("2")))
	assert.ErrorIs(t, e.Withdraw("alice", dec("2")), ErrInsufficientFunds)
}

func TestEscrowHoldInsufficient(t *testing.T) {
	e := NewEscrow()
	require.NoError(t, e.Deposit("alice", dec("1")))

	assert.ErrorIs(t, e.hold("alice", dec("2")), ErrInsufficientFunds)
	assert.True(t, e.Balance("alice").Equal(dec("1")))
	assert.True(t, e.Held().IsZero())
}

func TestEscrowReleaseRefundsExactly(t *testing.T) {
	e := NewEscrow()
	require.NoError(t, e.Deposit("alice", dec("3")))
	require.NoError(t, e.hold("alice", dec("2")))

	e.release("alice", dec("2"))

	assert.True(t, e.Balance("alice").Equal(dec("3")))
	assert.True(t, e.Held().IsZero())
}

func TestEscrowPay(t *testing.T) {
	e := NewEscrow()
	require.NoError(t, e.Deposit("buyer", dec("5")))

	require.NoError(t, e.pay("buyer", "seller", dec("4")))

	assert.True(t, e.Balance("buyer").Equal(dec("1")))
	assert.True(t, e.Balance("seller").Equal(dec("4")))

	assert.ErrorIs(t, e.pay("buyer", "seller", dec("2")), ErrInsufficientFunds)
}

// Conservation: the sum of all balances plus the held pool is unchanged by
// internal movements.
func TestEscrowConservation(t *testing.T) {
	e := NewEscrow()
	require.NoError(t, e.Deposit("a", dec("10")))
	require.NoError(t, e.Deposit("b", dec("7")))

	total := func() decimal.Decimal {
		return e.Balance("a").Add(e.Balance("b")).Add(e.Balance("c")).Add(e.Held())
	}
	before := total()

	require.NoError(t, e.hold("a", dec("4")))
	assert.True(t, total().Equal(before))

	e.release("b", dec("4"))
	assert.True(t, total().Equal(before))

	require.NoError(t, e.pay("b", "c", dec("6")))
	assert.True(t, total().Equal(before))
}
