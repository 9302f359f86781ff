package marketplace

import (
	"github.com/shopspring/decimal"

	"github.com/blockmart/blockmart/pkg/metrics"
)

// Escrow is the fund ledger behind every marketplace operation. Each
// address carries an available balance; amounts attached to standing bids
// are moved into a held pool until the bid is displaced, refunded, or paid
// out to the seller. The total of available balances plus the held pool is
// conserved by every movement.
//
// Escrow is not internally synchronized; the facade serializes access.
type Escrow struct {
	balances map[string]decimal.Decimal
	held     decimal.Decimal
}

// NewEscrow creates an empty ledger.
func NewEscrow() *Escrow {
	return &Escrow{balances: make(map[string]decimal.Decimal)}
}

// Deposit credits the address's available balance.
func (e *Escrow) Deposit(addr string, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	e.balances[addr] = e.balances[addr].Add(amount)
	return nil
}

// Withdraw debits the address's available balance. Held bid amounts are
// not withdrawable.
func (e *Escrow) Withdraw(addr string, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	if e.balances[addr].LessThan(amount) {
		return ErrInsufficientFunds
	}
	e.balances[addr] = e.balances[addr].Sub(amount)
	return nil
}

// Balance returns the address's available balance.
func (e *Escrow) Balance(addr string) decimal.Decimal {
	return e.balances[addr]
}

// Held returns the total currently locked in standing bids.
func (e *Escrow) Held() decimal.Decimal {
	return e.held
}

// covers reports whether the address can attach the given amount.
func (e *Escrow) covers(addr string, amount decimal.Decimal) bool {
	return e.balances[addr].GreaterThanOrEqual(amount)
}

// pay moves amount directly from one available balance to another.
func (e *Escrow) pay(from, to string, amount decimal.Decimal) error {
	if e.balances[from].LessThan(amount) {
		return ErrInsufficientFunds
	}
	e.balances[from] = e.balances[from].Sub(amount)
	e.balances[to] = e.balances[to].Add(amount)
	return nil
}

// hold locks amount of the address's available balance into the held pool.
func (e *Escrow) hold(addr string, amount decimal.Decimal) error {
	if e.balances[addr].LessThan(amount) {
		return ErrInsufficientFunds
	}
	e.balances[addr] = e.balances[addr].Sub(amount)
	e.held = e.held.Add(amount)
	e.updateHeldGauge()
	return nil
}

// release moves amount from the held pool to the address's available
// balance; it settles refunds of displaced or losing bids and payouts to
// sellers.
func (e *Escrow) release(to string, amount decimal.Decimal) {
	e.held = e.held.Sub(amount)
	e.balances[to] = e.balances[to].Add(amount)
	e.updateHeldGauge()
}

func (e *Escrow) updateHeldGauge() {
	f, _ := e.held.Float64()
	metrics.EscrowHeld.Set(f)
}
