package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Item is the marketplace record for a single token. Owner is the address
// the marketplace recognizes as seller-of-record, which diverges from the
// registry's custodian while the token sits in auction escrow. A zero
// ListPrice means the item is not listed for direct sale.
type Item struct {
	TokenID   uint64          `json:"token_id"`
	Owner     string          `json:"owner"`
	ListPrice decimal.Decimal `json:"list_price"`
}

// Listed reports whether the item is available for direct purchase.
func (i Item) Listed() bool {
	return i.ListPrice.IsPositive()
}

// Auction is the record of a timed auction for one token. At most one
// record exists per token at a time; once Active flips to false the record
// is permanently inactive and the token id may host a new auction.
type Auction struct {
	TokenID       uint64          `json:"token_id"`
	Seller        string          `json:"seller"`
	Active        bool            `json:"active"`
	StartTime     time.Time       `json:"start_time"`
	HighestBid    decimal.Decimal `json:"highest_bid"`
	HighestBidder string          `json:"highest_bidder,omitempty"`
	BidCount      int             `json:"bid_count"`
}

// EndTime returns the moment the auction can be finished, given the fixed
// auction duration.
func (a Auction) EndTime(duration time.Duration) time.Time {
	return a.StartTime.Add(duration)
}

// EventType identifies a marketplace notification.
type EventType string

const (
	EventItemCreated     EventType = "item_created"
	EventListed          EventType = "listed"
	EventListingCanceled EventType = "listing_canceled"
	EventSold            EventType = "sold"
	EventAuctionStarted  EventType = "auction_started"
	EventBidPlaced       EventType = "bid_placed"
	EventAuctionFinished EventType = "auction_finished"
	EventAuctionCanceled EventType = "auction_canceled"
	EventDeposited       EventType = "deposited"
	EventWithdrawn       EventType = "withdrawn"
)

// Event is emitted once per successful marketplace operation. Actor is the
// address that performed the operation; Counterparty is the other side of
// any fund or custody movement (the seller on a sale, the winner on an
// auction finish, the displaced bidder on a refund-carrying bid).
type Event struct {
	ID           uuid.UUID       `json:"id"`
	Type         EventType       `json:"type"`
	TokenID      uint64          `json:"token_id,omitempty"`
	Actor        string          `json:"actor"`
	Counterparty string          `json:"counterparty,omitempty"`
	Amount       decimal.Decimal `json:"amount"`
	BidCount     int             `json:"bid_count,omitempty"`
	Time         time.Time       `json:"time"`
}
