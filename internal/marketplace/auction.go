package marketplace

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/blockmart/blockmart/pkg/metrics"
	"github.com/blockmart/blockmart/pkg/models"
)

// AuctionDuration is the fixed window after which an active auction may be
// finished. It is identical for every auction.
const AuctionDuration = 3 * 24 * time.Hour

// AuctionEngine is the per-token auction state machine: NoAuction →
// Active → {Finished | Canceled}. At most one record per token is active
// at a time; an inactive record may be replaced by a fresh start. The
// engine validates transitions and mutates records, but never moves funds
// or custody itself. The facade stages those around it so that record
// mutation happens only after every fallible step has succeeded.
//
// Not internally synchronized; the facade serializes access.
type AuctionEngine struct {
	auctions map[uint64]*models.Auction
	duration time.Duration
}

// NewAuctionEngine creates an engine with the fixed auction duration.
func NewAuctionEngine() *AuctionEngine {
	return &AuctionEngine{
		auctions: make(map[uint64]*models.Auction),
		duration: AuctionDuration,
	}
}

// Active returns the active auction for the token, nil if none.
func (e *AuctionEngine) Active(tokenID uint64) *models.Auction {
	a, ok := e.auctions[tokenID]
	if !ok || !a.Active {
		return nil
	}
	return a
}

// Snapshot returns a copy of the auction record for read surfaces,
// including inactive records of finished or canceled auctions.
func (e *AuctionEngine) Snapshot(tokenID uint64) (models.Auction, bool) {
	a, ok := e.auctions[tokenID]
	if !ok {
		return models.Auction{}, false
	}
	return *a, true
}

// Start creates an active auction record for the token. The caller has
// already established ownership, approval, and custody transfer.
func (e *AuctionEngine) Start(tokenID uint64, seller string, now time.Time) (*models.Auction, error) {
	if e.Active(tokenID) != nil {
		return nil, ErrAuctionActive
	}
	a := &models.Auction{
		TokenID:    tokenID,
		Seller:     seller,
		Active:     true,
		StartTime:  now,
		HighestBid: decimal.Zero,
	}
	e.auctions[tokenID] = a
	metrics.ActiveAuctions.Inc()
	return a, nil
}

// Ended reports whether the auction's window has elapsed. The boundary is
// inclusive: the auction is over exactly at StartTime+duration.
func (e *AuctionEngine) Ended(a *models.Auction, now time.Time) bool {
	return !now.Before(a.EndTime(e.duration))
}

// CheckBid validates a bid against the active auction without mutating
// anything. Equal bids are rejected; only a strictly higher bid displaces
// the current one.
func (e *AuctionEngine) CheckBid(a *models.Auction, amount decimal.Decimal, now time.Time) error {
	if e.Ended(a, now) {
		return ErrAuctionEnded
	}
	if amount.LessThanOrEqual(a.HighestBid) {
		return ErrBidTooLow
	}
	return nil
}

// ApplyBid commits a validated bid and returns the displaced bidder and
// amount (empty bidder if this is the first bid). It cannot fail; the
// facade calls it only after the new bid's funds are held in escrow.
func (e *AuctionEngine) ApplyBid(a *models.Auction, bidder string, amount decimal.Decimal) (prevBidder string, prevBid decimal.Decimal) {
	prevBidder, prevBid = a.HighestBidder, a.HighestBid
	a.HighestBid = amount
	a.HighestBidder = bidder
	a.BidCount++
	return prevBidder, prevBid
}

// CheckFinish validates that the auction may be settled.
func (e *AuctionEngine) CheckFinish(a *models.Auction, now time.Time) error {
	if !e.Ended(a, now) {
		return ErrAuctionNotOver
	}
	return nil
}

// Sold reports whether finishing the auction results in a sale: a sale
// requires at least two accepted bids, otherwise the asset goes back to
// the seller and a sole bidder is refunded.
func (e *AuctionEngine) Sold(a *models.Auction) bool {
	return a.BidCount >= 2
}

// CheckCancel validates cancellation: only the seller, only before the
// window elapses, and only while no bid stands.
func (e *AuctionEngine) CheckCancel(a *models.Auction, caller string, now time.Time) error {
	if caller != a.Seller {
		return ErrNotAuctionCreator
	}
	if e.Ended(a, now) {
		return ErrAuctionEnded
	}
	if a.BidCount > 0 {
		return ErrAuctionHasBids
	}
	return nil
}

// Deactivate permanently retires the auction record. The token id may host
// a new auction afterwards.
func (e *AuctionEngine) Deactivate(a *models.Auction) {
	a.Active = false
	metrics.ActiveAuctions.Dec()
}
