package usecase

import (
	"context"
	"fmt"

	"github.com/riskibarqy/athlete-network/internal/domain/club"
)

func loadClub(ctx context.Context, repo club.Repository, clubID string) (club.Club, error) {
	c, exists, err := repo.GetClub(ctx, clubID)
	if err != nil {
		return club.Club{}, fmt.Errorf("get club: %w", err)
	}
	if !exists {
		return club.Club{}, fmt.Errorf("%w: club not found", ErrNotFound)
	}
	return c, nil
}

func activeMembership(ctx context.Context, repo club.Repository, clubID, userID string) (club.Membership, bool, error) {
	m, exists, err := repo.GetActiveMembership(ctx, clubID, userID)
	if err != nil {
		return club.Membership{}, false, fmt.Errorf("get active membership: %w", err)
	}
	return m, exists && m.IsActive, nil
}

func requireClubAdmin(ctx context.Context, repo club.Repository, clubID, userID string) (club.Membership, error) {
	m, ok, err := activeMembership(ctx, repo, clubID, userID)
	if err != nil {
		return club.Membership{}, err
	}
	if !ok || !m.IsAdmin() {
		return club.Membership{}, fmt.Errorf("%w: club admin role required", ErrForbidden)
	}
	return m, nil
}

func requireOpportunityManager(ctx context.Context, repo club.Repository, clubID, userID string) (club.Membership, error) {
	m, ok, err := activeMembership(ctx, repo, clubID, userID)
	if err != nil {
		return club.Membership{}, err
	}
	if !ok || !m.CanManageOpportunities() {
		return club.Membership{}, fmt.Errorf("%w: club admin or manager role required", ErrForbidden)
	}
	return m, nil
}

func clubLockKey(clubID string) string {
	return "club::" + clubID
}

func pairLockKey(agentID, playerID string) string {
	return "pair::" + agentID + "::" + playerID
}
