package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/riskibarqy/athlete-network/internal/domain/club"
)

// ClubRepository keeps clubs, memberships and join requests under one lock so multi-record
// transitions are atomic.
type ClubRepository struct {
	mu sync.RWMutex

	clubs      map[string]club.Club
	clubOrders []string

	memberships      map[string]club.Membership
	membershipOrders []string
	activeByPair     map[string]string

	requests      map[string]club.JoinRequest
	requestOrders []string
	pendingByPair map[string]string
}

func NewClubRepository() *ClubRepository {
	return &ClubRepository{
		clubs:         make(map[string]club.Club),
		memberships:   make(map[string]club.Membership),
		activeByPair:  make(map[string]string),
		requests:      make(map[string]club.JoinRequest),
		pendingByPair: make(map[string]string),
	}
}

func (r *ClubRepository) CreateClub(_ context.Context, c club.Club, owner club.Membership) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.clubs[c.ID]; exists {
		return fmt.Errorf("club %s already exists", c.ID)
	}
	if owner.ClubID != c.ID || owner.Role != club.RoleAdmin || !owner.IsActive {
		return fmt.Errorf("owner membership must be an active admin of club %s", c.ID)
	}

	c.MembersCount = 1
	r.clubs[c.ID] = cloneClub(c)
	r.clubOrders = append(r.clubOrders, c.ID)
	r.insertMembershipLocked(owner)
	return nil
}

func (r *ClubRepository) GetClub(_ context.Context, clubID string) (club.Club, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.clubs[clubID]
	if !ok {
		return club.Club{}, false, nil
	}
	return cloneClub(c), true, nil
}

func (r *ClubRepository) UpdateClub(_ context.Context, c club.Club) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.clubs[c.ID]
	if !ok {
		return club.ErrClubNotFound
	}
	c.CreatedBy = current.CreatedBy
	c.CreatedAt = current.CreatedAt
	c.MembersCount = current.MembersCount
	c.FollowersCount = current.FollowersCount
	r.clubs[c.ID] = cloneClub(c)
	return nil
}

func (r *ClubRepository) ListClubs(_ context.Context, filter club.Filter) ([]club.Club, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]club.Club, 0, len(r.clubOrders))
	for i := len(r.clubOrders) - 1; i >= 0; i-- {
		c := r.clubs[r.clubOrders[i]]
		if filter.Matches(c) {
			out = append(out, cloneClub(c))
		}
	}
	return out, nil
}

func (r *ClubRepository) GetActiveMembership(_ context.Context, clubID, userID string) (club.Membership, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.activeByPair[pairKey(clubID, userID)]
	if !ok {
		return club.Membership{}, false, nil
	}
	return cloneMembership(r.memberships[id]), true, nil
}

func (r *ClubRepository) ListActiveMemberships(_ context.Context, clubID string) ([]club.Membership, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]club.Membership, 0)
	for _, id := range r.membershipOrders {
		m := r.memberships[id]
		if m.ClubID == clubID && m.IsActive {
			out = append(out, cloneMembership(m))
		}
	}
	return out, nil
}

func (r *ClubRepository) ListMembershipsByUser(_ context.Context, userID string) ([]club.Membership, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]club.Membership, 0)
	for _, id := range r.membershipOrders {
		m := r.memberships[id]
		if m.UserID == userID && m.IsActive {
			out = append(out, cloneMembership(m))
		}
	}
	return out, nil
}

func (r *ClubRepository) AddMembership(_ context.Context, m club.Membership) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.addMembershipLocked(m)
}

func (r *ClubRepository) DeactivateMembership(_ context.Context, clubID, userID string, leftAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := pairKey(clubID, userID)
	id, ok := r.activeByPair[key]
	if !ok {
		return club.ErrMembershipNotFound
	}
	m := r.memberships[id]
	if m.Role == club.RoleAdmin && r.activeAdminCountLocked(clubID) <= 1 {
		return club.ErrLastAdmin
	}

	m.IsActive = false
	m.LeftAt = &leftAt
	r.memberships[id] = m
	delete(r.activeByPair, key)

	c := r.clubs[clubID]
	c.MembersCount--
	c.UpdatedAt = leftAt
	r.clubs[clubID] = c
	return nil
}

func (r *ClubRepository) UpdateMembershipRole(_ context.Context, clubID, userID string, role club.MemberRole, permissions []club.Permission) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := r.activeByPair[pairKey(clubID, userID)]
	if !ok {
		return club.ErrMembershipNotFound
	}
	m := r.memberships[id]
	if m.Role == club.RoleAdmin && role != club.RoleAdmin && r.activeAdminCountLocked(clubID) <= 1 {
		return club.ErrLastAdmin
	}
	m.Role = role
	m.Permissions = append([]club.Permission(nil), permissions...)
	r.memberships[id] = m
	return nil
}

func (r *ClubRepository) CreateJoinRequest(_ context.Context, req club.JoinRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.clubs[req.ClubID]; !ok {
		return club.ErrClubNotFound
	}
	key := pairKey(req.ClubID, req.UserID)
	if _, ok := r.activeByPair[key]; ok {
		return club.ErrActiveMembershipExists
	}
	if _, ok := r.pendingByPair[key]; ok {
		return club.ErrPendingRequestExists
	}

	r.requests[req.ID] = req
	r.requestOrders = append(r.requestOrders, req.ID)
	r.pendingByPair[key] = req.ID
	return nil
}

func (r *ClubRepository) GetJoinRequest(_ context.Context, requestID string) (club.JoinRequest, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	req, ok := r.requests[requestID]
	return req, ok, nil
}

func (r *ClubRepository) ListJoinRequests(_ context.Context, clubID string, status club.JoinRequestStatus) ([]club.JoinRequest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]club.JoinRequest, 0)
	for _, id := range r.requestOrders {
		req := r.requests[id]
		if req.ClubID != clubID {
			continue
		}
		if status != "" && req.Status != status {
			continue
		}
		out = append(out, req)
	}
	return out, nil
}

func (r *ClubRepository) ListJoinRequestsByUser(_ context.Context, userID string) ([]club.JoinRequest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]club.JoinRequest, 0)
	for _, id := range r.requestOrders {
		if req := r.requests[id]; req.UserID == userID {
			out = append(out, req)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].RequestedAt.After(out[j].RequestedAt)
	})
	return out, nil
}

func (r *ClubRepository) AcceptJoinRequest(_ context.Context, req club.JoinRequest, m club.Membership) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.requests[req.ID]
	if !ok {
		return club.ErrJoinRequestNotFound
	}
	if current.Status != club.JoinRequestPending {
		return club.ErrRequestNotPending
	}
	if m.ClubID != current.ClubID || m.UserID != current.UserID {
		return fmt.Errorf("membership does not match join request %s", req.ID)
	}

	// The membership goes first so a failure leaves the request pending.
	if err := r.addMembershipLocked(m); err != nil {
		return err
	}

	current.Status = club.JoinRequestAccepted
	current.RespondedAt = req.RespondedAt
	current.RespondedBy = req.RespondedBy
	r.requests[req.ID] = current
	delete(r.pendingByPair, pairKey(current.ClubID, current.UserID))
	return nil
}

func (r *ClubRepository) RejectJoinRequest(_ context.Context, req club.JoinRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.requests[req.ID]
	if !ok {
		return club.ErrJoinRequestNotFound
	}
	if current.Status != club.JoinRequestPending {
		return club.ErrRequestNotPending
	}

	current.Status = club.JoinRequestRejected
	current.RespondedAt = req.RespondedAt
	current.RespondedBy = req.RespondedBy
	r.requests[req.ID] = current
	delete(r.pendingByPair, pairKey(current.ClubID, current.UserID))
	return nil
}

func (r *ClubRepository) addMembershipLocked(m club.Membership) error {
	if _, ok := r.clubs[m.ClubID]; !ok {
		return club.ErrClubNotFound
	}
	if _, ok := r.activeByPair[pairKey(m.ClubID, m.UserID)]; ok {
		return club.ErrActiveMembershipExists
	}

	m.IsActive = true
	m.LeftAt = nil
	r.insertMembershipLocked(m)

	c := r.clubs[m.ClubID]
	c.MembersCount++
	r.clubs[m.ClubID] = c
	return nil
}

func (r *ClubRepository) insertMembershipLocked(m club.Membership) {
	r.memberships[m.ID] = cloneMembership(m)
	r.membershipOrders = append(r.membershipOrders, m.ID)
	r.activeByPair[pairKey(m.ClubID, m.UserID)] = m.ID
}

func (r *ClubRepository) activeAdminCountLocked(clubID string) int {
	count := 0
	for _, id := range r.activeByPair {
		if m := r.memberships[id]; m.ClubID == clubID && m.Role == club.RoleAdmin {
			count++
		}
	}
	return count
}

func pairKey(a, b string) string {
	return a + "::" + b
}

func cloneClub(c club.Club) club.Club {
	copied := c
	copied.Sports = append([]string(nil), c.Sports...)
	return copied
}

func cloneMembership(m club.Membership) club.Membership {
	copied := m
	copied.Permissions = append([]club.Permission(nil), m.Permissions...)
	if m.LeftAt != nil {
		leftAt := *m.LeftAt
		copied.LeftAt = &leftAt
	}
	return copied
}
