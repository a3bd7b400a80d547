package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/riskibarqy/athlete-network/internal/domain/affiliation"
)

type AffiliationRepository struct {
	mu sync.RWMutex

	items  map[string]affiliation.Affiliation
	orders []string
	// openByPair indexes the pending or accepted affiliation per agent and player.
	openByPair map[string]string

	blocks      map[string]affiliation.Block
	blockOrders []string
}

func NewAffiliationRepository() *AffiliationRepository {
	return &AffiliationRepository{
		items:      make(map[string]affiliation.Affiliation),
		openByPair: make(map[string]string),
		blocks:     make(map[string]affiliation.Block),
	}
}

func (r *AffiliationRepository) Create(_ context.Context, a affiliation.Affiliation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[a.ID]; exists {
		return fmt.Errorf("affiliation %s already exists", a.ID)
	}
	if _, blocked := r.blocks[blockKey(a.PlayerID, a.AgentID)]; blocked {
		return affiliation.ErrBlocked
	}
	key := pairKey(a.AgentID, a.PlayerID)
	if _, open := r.openByPair[key]; open {
		return affiliation.ErrOpenAffiliation
	}

	r.items[a.ID] = cloneAffiliation(a)
	r.orders = append(r.orders, a.ID)
	if a.Status.IsOpen() {
		r.openByPair[key] = a.ID
	}
	return nil
}

func (r *AffiliationRepository) GetByID(_ context.Context, affiliationID string) (affiliation.Affiliation, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.items[affiliationID]
	if !ok {
		return affiliation.Affiliation{}, false, nil
	}
	return cloneAffiliation(a), true, nil
}

func (r *AffiliationRepository) GetOpen(_ context.Context, agentID, playerID string) (affiliation.Affiliation, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.openByPair[pairKey(agentID, playerID)]
	if !ok {
		return affiliation.Affiliation{}, false, nil
	}
	return cloneAffiliation(r.items[id]), true, nil
}

func (r *AffiliationRepository) ListByAgent(_ context.Context, agentID string) ([]affiliation.Affiliation, error) {
	return r.list(func(a affiliation.Affiliation) bool { return a.AgentID == agentID }), nil
}

func (r *AffiliationRepository) ListByPlayer(_ context.Context, playerID string) ([]affiliation.Affiliation, error) {
	return r.list(func(a affiliation.Affiliation) bool { return a.PlayerID == playerID }), nil
}

func (r *AffiliationRepository) UpdateStatus(_ context.Context, a affiliation.Affiliation, expected affiliation.Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.items[a.ID]
	if !ok {
		return affiliation.ErrAffiliationNotFound
	}
	if current.Status != expected {
		return affiliation.ErrStaleState
	}

	current.Status = a.Status
	current.RespondedAt = a.RespondedAt
	current.EndedAt = a.EndedAt
	r.items[a.ID] = cloneAffiliation(current)
	if !current.Status.IsOpen() {
		delete(r.openByPair, pairKey(current.AgentID, current.PlayerID))
	}
	return nil
}

func (r *AffiliationRepository) CreateBlock(_ context.Context, b affiliation.Block) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := blockKey(b.PlayerID, b.AgentID)
	if _, exists := r.blocks[key]; exists {
		return affiliation.ErrAlreadyBlocked
	}

	pair := pairKey(b.AgentID, b.PlayerID)
	if id, open := r.openByPair[pair]; open {
		a := r.items[id]
		endedAt := b.CreatedAt
		if a.Status == affiliation.StatusPending {
			a.Status = affiliation.StatusRetracted
		} else {
			a.Status = affiliation.StatusTerminated
		}
		a.EndedAt = &endedAt
		r.items[id] = a
		delete(r.openByPair, pair)
	}

	r.blocks[key] = b
	r.blockOrders = append(r.blockOrders, key)
	return nil
}

func (r *AffiliationRepository) DeleteBlock(_ context.Context, playerID, agentID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := blockKey(playerID, agentID)
	if _, exists := r.blocks[key]; !exists {
		return affiliation.ErrBlockNotFound
	}
	delete(r.blocks, key)

	kept := r.blockOrders[:0]
	for _, k := range r.blockOrders {
		if k != key {
			kept = append(kept, k)
		}
	}
	r.blockOrders = kept
	return nil
}

func (r *AffiliationRepository) GetBlock(_ context.Context, playerID, agentID string) (affiliation.Block, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	b, ok := r.blocks[blockKey(playerID, agentID)]
	return b, ok, nil
}

func (r *AffiliationRepository) ListBlocksByPlayer(_ context.Context, playerID string) ([]affiliation.Block, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]affiliation.Block, 0)
	for _, key := range r.blockOrders {
		if b := r.blocks[key]; b.PlayerID == playerID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (r *AffiliationRepository) list(match func(affiliation.Affiliation) bool) []affiliation.Affiliation {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]affiliation.Affiliation, 0)
	for i := len(r.orders) - 1; i >= 0; i-- {
		a := r.items[r.orders[i]]
		if match(a) {
			out = append(out, cloneAffiliation(a))
		}
	}
	return out
}

func blockKey(playerID, agentID string) string {
	return "block::" + playerID + "::" + agentID
}

func cloneAffiliation(a affiliation.Affiliation) affiliation.Affiliation {
	copied := a
	if a.RespondedAt != nil {
		v := *a.RespondedAt
		copied.RespondedAt = &v
	}
	if a.EndedAt != nil {
		v := *a.EndedAt
		copied.EndedAt = &v
	}
	return copied
}
