package marketplace

import (
	"github.com/blockmart/blockmart/pkg/models"
)

// ListingStore holds the per-token item records: seller-of-record and the
// optional fixed-price listing. Records are never deleted; a zero price
// marks them unlisted. Not internally synchronized; the facade serializes
// access.
type ListingStore struct {
	items map[uint64]*models.Item
}

// NewListingStore creates an empty store.
func NewListingStore() *ListingStore {
	return &ListingStore{items: make(map[uint64]*models.Item)}
}

// Get returns the record for the token, nil if none exists.
func (s *ListingStore) Get(tokenID uint64) *models.Item {
	return s.items[tokenID]
}

// Create initializes a record with the given owner and no listing.
func (s *ListingStore) Create(tokenID uint64, owner string) *models.Item {
	item := &models.Item{TokenID: tokenID, Owner: owner}
	s.items[tokenID] = item
	return item
}

// Snapshot returns a copy of the record for read surfaces.
func (s *ListingStore) Snapshot(tokenID uint64) (models.Item, bool) {
	item, ok := s.items[tokenID]
	if !ok {
		return models.Item{}, false
	}
	return *item, true
}
