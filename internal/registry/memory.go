package registry

import (
	"context"
	"sync"
)

// Memory is an in-process Registry backed by maps. It carries the full
// authorization model of the external ledger: per-token approvals cleared
// on transfer, blanket operator approvals, and minting restricted to a
// marketplace address bound exactly once after construction.
type Memory struct {
	mu sync.RWMutex

	marketplace string
	holders     map[uint64]string
	approvals   map[uint64]string
	operators   map[string]map[string]bool
}

// NewMemory creates an empty in-memory registry with no marketplace bound.
func NewMemory() *Memory {
	return &Memory{
		holders:   make(map[uint64]string),
		approvals: make(map[uint64]string),
		operators: make(map[string]map[string]bool),
	}
}

// Bind sets the marketplace address allowed to mint. It succeeds at most
// once; empty addresses and rebinding are rejected.
func (m *Memory) Bind(marketplace string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if marketplace == "" {
		return ErrInvalidBinding
	}
	if m.marketplace != "" {
		return ErrAlreadyBound
	}
	m.marketplace = marketplace
	return nil
}

// Marketplace returns the bound marketplace address, empty if unbound.
func (m *Memory) Marketplace() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.marketplace
}

// Mint creates a token owned by owner. Only the bound marketplace may call
// it, and the token id must be unused.
func (m *Memory) Mint(ctx context.Context, caller, owner string, tokenID uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.marketplace == "" || caller != m.marketplace {
		return ErrOnlyMarket
	}
	if _, ok := m.holders[tokenID]; ok {
		return ErrTokenExists
	}
	m.holders[tokenID] = owner
	return nil
}

// HolderOf returns the current custodian of the token.
func (m *Memory) HolderOf(ctx context.Context, tokenID uint64) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	holder, ok := m.holders[tokenID]
	if !ok {
		return "", ErrTokenNotFound
	}
	return holder, nil
}

// Transfer moves custody from one address to another, enforcing the
// holder/approved/operator authorization model.
func (m *Memory) Transfer(ctx context.Context, caller, from, to string, tokenID uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	holder, ok := m.holders[tokenID]
	if !ok || holder != from {
		return ErrNotHolder
	}
	if !m.canTransfer(caller, holder, tokenID) {
		return ErrNotAuthorized
	}

	m.holders[tokenID] = to
	delete(m.approvals, tokenID)
	return nil
}

// Approve grants operator single-token transfer approval. Only the holder
// or one of the holder's blanket operators may grant it.
func (m *Memory) Approve(ctx context.Context, caller, operator string, tokenID uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	holder, ok := m.holders[tokenID]
	if !ok {
		return ErrTokenNotFound
	}
	if caller != holder && !m.operators[holder][caller] {
		return ErrNotAuthorized
	}
	m.approvals[tokenID] = operator
	return nil
}

// ApprovedOperator returns the single-token approval for the token, empty
// if none.
func (m *Memory) ApprovedOperator(ctx context.Context, tokenID uint64) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if _, ok := m.holders[tokenID]; !ok {
		return "", ErrTokenNotFound
	}
	return m.approvals[tokenID], nil
}

// SetOperatorApproval grants or revokes blanket transfer approval from the
// caller to operator.
func (m *Memory) SetOperatorApproval(ctx context.Context, caller, operator string, enabled bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.operators[caller] == nil {
		m.operators[caller] = make(map[string]bool)
	}
	m.operators[caller][operator] = enabled
	return nil
}

// IsOperatorFor reports whether operator holds blanket approval from owner.
func (m *Memory) IsOperatorFor(ctx context.Context, owner, operator string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.operators[owner][operator], nil
}

func (m *Memory) canTransfer(caller, holder string, tokenID uint64) bool {
	if caller == holder {
		return true
	}
	if m.approvals[tokenID] == caller {
		return true
	}
	return m.operators[holder][caller]
}
