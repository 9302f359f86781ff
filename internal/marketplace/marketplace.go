// Package marketplace implements the transaction engine for a marketplace
// of uniquely-identified digital assets: fixed-price listings, timed
// auctions with bid escrow and refund guarantees, and the fund ledger that
// keeps every movement accounted for. Asset custody is delegated to an
// external ownership registry.
package marketplace

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/blockmart/blockmart/internal/notify"
	"github.com/blockmart/blockmart/internal/registry"
	"github.com/blockmart/blockmart/pkg/metrics"
	"github.com/blockmart/blockmart/pkg/models"
)

// Marketplace is the public operation surface. It validates preconditions,
// drives the listing store, auction engine, escrow ledger, and asset
// registry in order, and emits one notification per successful operation.
//
// Operations execute one at a time under a single mutex: every operation
// is atomic and all-or-nothing, and no other operation can observe or
// re-enter its in-progress state. Record and ledger mutations are committed
// only after every fallible step (registry custody transfers included) has
// succeeded, and notifications go out only after the lock is released, so
// a notification consumer calling back into the marketplace sees fully
// settled state.
type Marketplace struct {
	mu sync.Mutex

	reg      registry.Registry
	operator string

	listings *ListingStore
	engine   *AuctionEngine
	escrow   *Escrow

	notifier notify.Notifier
	logger   *zap.Logger
	now      func() time.Time
}

// Option configures a Marketplace.
type Option func(*Marketplace)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(m *Marketplace) { m.logger = logger }
}

// WithNotifier sets the notification sink.
func WithNotifier(n notify.Notifier) Option {
	return func(m *Marketplace) { m.notifier = n }
}

// WithClock overrides the time source. The clock is only read for
// auction-end comparisons; the marketplace never advances it.
func WithClock(now func() time.Time) Option {
	return func(m *Marketplace) { m.now = now }
}

// New creates a marketplace bound to the given registry. operator is the
// address the marketplace acts as in the registry: sellers grant it
// transfer approval, and it takes custody of auctioned assets.
func New(reg registry.Registry, operator string, opts ...Option) *Marketplace {
	m := &Marketplace{
		reg:      reg,
		operator: operator,
		listings: NewListingStore(),
		engine:   NewAuctionEngine(),
		escrow:   NewEscrow(),
		notifier: notify.Nop{},
		logger:   zap.NewNop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Operator returns the marketplace's registry address.
func (m *Marketplace) Operator() string {
	return m.operator
}

// CreateItem registers an externally-owned asset with the marketplace,
// initializing its item record. The marketplace never mints; the caller
// must already hold the token in the registry.
func (m *Marketplace) CreateItem(ctx context.Context, caller string, tokenID uint64) error {
	return m.run(ctx, "create_item", func(ctx context.Context) (*models.Event, error) {
		if m.listings.Get(tokenID) != nil {
			return nil, ErrItemExists
		}
		holder, err := m.reg.HolderOf(ctx, tokenID)
		if err != nil {
			return nil, m.registryErr(err)
		}
		if holder != caller {
			return nil, ErrNotTokenOwner
		}
		m.listings.Create(tokenID, caller)
		return m.event(models.EventItemCreated, tokenID, caller, "", decimal.Zero), nil
	})
}

// ListItem puts the token up for direct sale at the given price.
// Re-listing while already listed overwrites the price. If no item record
// exists yet, the caller must hold the token and the record is initialized.
func (m *Marketplace) ListItem(ctx context.Context, caller string, tokenID uint64, price decimal.Decimal) error {
	return m.run(ctx, "list_item", func(ctx context.Context) (*models.Event, error) {
		item := m.listings.Get(tokenID)
		if err := m.checkOwner(ctx, item, caller, tokenID); err != nil {
			return nil, err
		}
		if !price.IsPositive() {
			return nil, ErrInvalidPrice
		}
		if m.engine.Active(tokenID) != nil {
			return nil, ErrAuctionActive
		}
		if err := m.checkApproval(ctx, caller, tokenID); err != nil {
			return nil, err
		}

		if item == nil {
			item = m.listings.Create(tokenID, caller)
		}
		item.ListPrice = price
		return m.event(models.EventListed, tokenID, caller, "", price), nil
	})
}

// CancelListing takes the token off direct sale.
func (m *Marketplace) CancelListing(ctx context.Context, caller string, tokenID uint64) error {
	return m.run(ctx, "cancel_listing", func(ctx context.Context) (*models.Event, error) {
		item := m.listings.Get(tokenID)
		if item == nil || item.Owner != caller {
			return nil, ErrNotOwner
		}
		if !item.Listed() {
			return nil, ErrNotListed
		}
		item.ListPrice = decimal.Zero
		return m.event(models.EventListingCanceled, tokenID, caller, "", decimal.Zero), nil
	})
}

// BuyItem purchases a listed token. The attached amount must cover the
// list price and must be available in the buyer's ledger balance. Exactly
// the list price changes hands: any excess attached never leaves the
// buyer's balance.
func (m *Marketplace) BuyItem(ctx context.Context, caller string, tokenID uint64, attached decimal.Decimal) error {
	return m.run(ctx, "buy_item", func(ctx context.Context) (*models.Event, error) {
		item := m.listings.Get(tokenID)
		if item == nil || !item.Listed() {
			return nil, ErrNotForSale
		}
		if attached.LessThan(item.ListPrice) {
			return nil, ErrInsufficientPayment
		}
		if !m.escrow.covers(caller, attached) {
			return nil, ErrInsufficientFunds
		}

		seller, price := item.Owner, item.ListPrice
		if err := m.reg.Transfer(ctx, m.operator, seller, caller, tokenID); err != nil {
			return nil, m.registryErr(err)
		}
		if err := m.escrow.pay(caller, seller, price); err != nil {
			// Unreachable after the covers check; kept as a guard on the
			// fund-conservation invariant.
			return nil, err
		}
		item.Owner = caller
		item.ListPrice = decimal.Zero
		return m.event(models.EventSold, tokenID, caller, seller, price), nil
	})
}

// StartAuction opens a timed auction on the token and moves its custody to
// the marketplace for the auction's lifetime. A standing fixed-price
// listing is cleared: the two sale modes are mutually exclusive per token.
func (m *Marketplace) StartAuction(ctx context.Context, caller string, tokenID uint64) error {
	return m.run(ctx, "start_auction", func(ctx context.Context) (*models.Event, error) {
		item := m.listings.Get(tokenID)
		if err := m.checkOwner(ctx, item, caller, tokenID); err != nil {
			return nil, err
		}
		if m.engine.Active(tokenID) != nil {
			return nil, ErrAuctionActive
		}
		if err := m.checkApproval(ctx, caller, tokenID); err != nil {
			return nil, err
		}

		if err := m.reg.Transfer(ctx, m.operator, caller, m.operator, tokenID); err != nil {
			return nil, m.registryErr(err)
		}
		if item == nil {
			item = m.listings.Create(tokenID, caller)
		}
		item.ListPrice = decimal.Zero
		if _, err := m.engine.Start(tokenID, caller, m.now()); err != nil {
			return nil, err
		}
		return m.event(models.EventAuctionStarted, tokenID, caller, "", decimal.Zero), nil
	})
}

// PlaceBid places a bid on the token's active auction. The attached amount
// must strictly exceed the current highest bid and must be available in
// the bidder's balance. A displaced bidder's funds are released back in the
// same operation that accepts the new bid.
func (m *Marketplace) PlaceBid(ctx context.Context, caller string, tokenID uint64, attached decimal.Decimal) error {
	return m.run(ctx, "place_bid", func(ctx context.Context) (*models.Event, error) {
		a := m.engine.Active(tokenID)
		if a == nil {
			return nil, ErrAuctionInactive
		}
		if err := m.engine.CheckBid(a, attached, m.now()); err != nil {
			return nil, err
		}
		if err := m.escrow.hold(caller, attached); err != nil {
			return nil, err
		}

		prevBidder, prevBid := m.engine.ApplyBid(a, caller, attached)
		if prevBidder != "" {
			m.escrow.release(prevBidder, prevBid)
		}
		ev := m.event(models.EventBidPlaced, tokenID, caller, prevBidder, attached)
		ev.BidCount = a.BidCount
		return ev, nil
	})
}

// FinishAuction settles an auction whose window has elapsed. It is
// permissionless: any caller may trigger settlement. With two or more bids
// the asset goes to the highest bidder and the held bid to the seller;
// with fewer, the asset returns to the seller and a sole bidder is
// refunded in full.
func (m *Marketplace) FinishAuction(ctx context.Context, caller string, tokenID uint64) error {
	return m.run(ctx, "finish_auction", func(ctx context.Context) (*models.Event, error) {
		a := m.engine.Active(tokenID)
		if a == nil {
			return nil, ErrAuctionInactive
		}
		if err := m.engine.CheckFinish(a, m.now()); err != nil {
			return nil, err
		}

		item := m.listings.Get(tokenID)
		var ev *models.Event
		if m.engine.Sold(a) {
			if err := m.reg.Transfer(ctx, m.operator, m.operator, a.HighestBidder, tokenID); err != nil {
				return nil, m.registryErr(err)
			}
			m.escrow.release(a.Seller, a.HighestBid)
			if item != nil {
				item.Owner = a.HighestBidder
			}
			ev = m.event(models.EventAuctionFinished, tokenID, caller, a.HighestBidder, a.HighestBid)
		} else {
			if err := m.reg.Transfer(ctx, m.operator, m.operator, a.Seller, tokenID); err != nil {
				return nil, m.registryErr(err)
			}
			if a.BidCount == 1 {
				m.escrow.release(a.HighestBidder, a.HighestBid)
			}
			ev = m.event(models.EventAuctionFinished, tokenID, caller, a.Seller, decimal.Zero)
		}
		ev.BidCount = a.BidCount
		m.engine.Deactivate(a)
		return ev, nil
	})
}

// CancelAuction cancels an auction before its window elapses. Only the
// seller may cancel, and only while no bid stands; canceling over a
// standing bid would strand the bidder's funds mid-flight.
func (m *Marketplace) CancelAuction(ctx context.Context, caller string, tokenID uint64) error {
	return m.run(ctx, "cancel_auction", func(ctx context.Context) (*models.Event, error) {
		a := m.engine.Active(tokenID)
		if a == nil {
			return nil, ErrAuctionInactive
		}
		if err := m.engine.CheckCancel(a, caller, m.now()); err != nil {
			return nil, err
		}

		if err := m.reg.Transfer(ctx, m.operator, m.operator, a.Seller, tokenID); err != nil {
			return nil, m.registryErr(err)
		}
		m.engine.Deactivate(a)
		return m.event(models.EventAuctionCanceled, tokenID, caller, "", decimal.Zero), nil
	})
}

// Deposit credits the caller's fund balance.
func (m *Marketplace) Deposit(ctx context.Context, caller string, amount decimal.Decimal) error {
	return m.run(ctx, "deposit", func(ctx context.Context) (*models.Event, error) {
		if err := m.escrow.Deposit(caller, amount); err != nil {
			return nil, err
		}
		return m.event(models.EventDeposited, 0, caller, "", amount), nil
	})
}

// Withdraw debits the caller's fund balance. Funds held in standing bids
// cannot be withdrawn.
func (m *Marketplace) Withdraw(ctx context.Context, caller string, amount decimal.Decimal) error {
	return m.run(ctx, "withdraw", func(ctx context.Context) (*models.Event, error) {
		if err := m.escrow.Withdraw(caller, amount); err != nil {
			return nil, err
		}
		return m.event(models.EventWithdrawn, 0, caller, "", amount), nil
	})
}

// BalanceOf returns the address's available fund balance.
func (m *Marketplace) BalanceOf(addr string) decimal.Decimal {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.escrow.Balance(addr)
}

// HeldFunds returns the total currently locked in standing bids.
func (m *Marketplace) HeldFunds() decimal.Decimal {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.escrow.Held()
}

// Item returns a snapshot of the token's item record.
func (m *Marketplace) Item(tokenID uint64) (models.Item, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.listings.Snapshot(tokenID)
}

// AuctionOf returns a snapshot of the token's auction record, including
// records of finished or canceled auctions.
func (m *Marketplace) AuctionOf(tokenID uint64) (models.Auction, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.engine.Snapshot(tokenID)
}

// run executes one operation under the lock, records metrics, and emits
// the operation's notification after the lock is released.
func (m *Marketplace) run(ctx context.Context, op string, fn func(context.Context) (*models.Event, error)) error {
	start := time.Now()

	m.mu.Lock()
	ev, err := fn(ctx)
	m.mu.Unlock()

	metrics.OperationLatency.WithLabelValues(op).Observe(time.Since(start).Seconds())
	metrics.OperationsTotal.WithLabelValues(op, outcome(err)).Inc()

	if err != nil {
		m.logger.Debug("operation rejected",
			zap.String("op", op),
			zap.Error(err),
		)
		return err
	}
	if ev != nil {
		m.notifier.Publish(ctx, *ev)
	}
	return nil
}

func (m *Marketplace) event(typ models.EventType, tokenID uint64, actor, counterparty string, amount decimal.Decimal) *models.Event {
	return &models.Event{
		ID:           uuid.New(),
		Type:         typ,
		TokenID:      tokenID,
		Actor:        actor,
		Counterparty: counterparty,
		Amount:       amount,
		Time:         m.now(),
	}
}

// checkOwner verifies the caller is the recognized owner: the item record's
// owner if one exists, otherwise the registry holder.
func (m *Marketplace) checkOwner(ctx context.Context, item *models.Item, caller string, tokenID uint64) error {
	if item != nil {
		if item.Owner != caller {
			return ErrNotOwner
		}
		return nil
	}
	holder, err := m.reg.HolderOf(ctx, tokenID)
	if err != nil {
		return m.registryErr(err)
	}
	if holder != caller {
		return ErrNotOwner
	}
	return nil
}

// checkApproval verifies the marketplace holds transfer authorization over
// the token, either as the single approved operator or as a blanket
// operator for the owner.
func (m *Marketplace) checkApproval(ctx context.Context, owner string, tokenID uint64) error {
	approved, err := m.reg.ApprovedOperator(ctx, tokenID)
	if err != nil {
		return m.registryErr(err)
	}
	if approved == m.operator {
		return nil
	}
	ok, err := m.reg.IsOperatorFor(ctx, owner, m.operator)
	if err != nil {
		return m.registryErr(err)
	}
	if !ok {
		return ErrNotApproved
	}
	return nil
}

func (m *Marketplace) registryErr(err error) error {
	if errors.Is(err, registry.ErrTokenNotFound) {
		return ErrUnknownToken
	}
	return fmt.Errorf("registry: %w", err)
}

func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	var me *Error
	if errors.As(err, &me) {
		return me.Code
	}
	return "error"
}
