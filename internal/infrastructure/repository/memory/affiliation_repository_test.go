package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/riskibarqy/athlete-network/internal/domain/affiliation"
	"github.com/riskibarqy/athlete-network/internal/domain/opportunity"
)

func TestAffiliationRepository_CreateBlockRetractsPending(t *testing.T) {
	repo := NewAffiliationRepository()
	ctx := context.Background()

	pending := affiliation.Affiliation{ID: "aff-1", AgentID: "agent", PlayerID: "player", Status: affiliation.StatusPending, RequestedAt: testNow}
	if err := repo.Create(ctx, pending); err != nil {
		t.Fatalf("create affiliation: %v", err)
	}
	if err := repo.Create(ctx, affiliation.Affiliation{ID: "aff-2", AgentID: "agent", PlayerID: "player", Status: affiliation.StatusPending}); !errors.Is(err, affiliation.ErrOpenAffiliation) {
		t.Fatalf("expected ErrOpenAffiliation, got %v", err)
	}

	if err := repo.CreateBlock(ctx, affiliation.Block{PlayerID: "player", AgentID: "agent", CreatedAt: testNow}); err != nil {
		t.Fatalf("create block: %v", err)
	}
	if err := repo.CreateBlock(ctx, affiliation.Block{PlayerID: "player", AgentID: "agent"}); !errors.Is(err, affiliation.ErrAlreadyBlocked) {
		t.Fatalf("expected ErrAlreadyBlocked, got %v", err)
	}

	got, _, _ := repo.GetByID(ctx, "aff-1")
	if got.Status != affiliation.StatusRetracted {
		t.Fatalf("expected retracted affiliation, got %s", got.Status)
	}
	if _, open, _ := repo.GetOpen(ctx, "agent", "player"); open {
		t.Fatalf("expected no open affiliation after block")
	}
	if err := repo.Create(ctx, affiliation.Affiliation{ID: "aff-3", AgentID: "agent", PlayerID: "player", Status: affiliation.StatusPending}); !errors.Is(err, affiliation.ErrBlocked) {
		t.Fatalf("expected ErrBlocked while blocked, got %v", err)
	}

	if err := repo.DeleteBlock(ctx, "player", "agent"); err != nil {
		t.Fatalf("delete block: %v", err)
	}
	got, _, _ = repo.GetByID(ctx, "aff-1")
	if got.Status != affiliation.StatusRetracted {
		t.Fatalf("unblock must not restore affiliation, got %s", got.Status)
	}
	if err := repo.DeleteBlock(ctx, "player", "agent"); !errors.Is(err, affiliation.ErrBlockNotFound) {
		t.Fatalf("expected ErrBlockNotFound, got %v", err)
	}
}

func TestAffiliationRepository_CreateBlockTerminatesAccepted(t *testing.T) {
	repo := NewAffiliationRepository()
	ctx := context.Background()

	a := affiliation.Affiliation{ID: "aff-1", AgentID: "agent", PlayerID: "player", Status: affiliation.StatusPending}
	if err := repo.Create(ctx, a); err != nil {
		t.Fatalf("create affiliation: %v", err)
	}
	a.Status = affiliation.StatusAccepted
	if err := repo.UpdateStatus(ctx, a, affiliation.StatusPending); err != nil {
		t.Fatalf("accept affiliation: %v", err)
	}
	if err := repo.UpdateStatus(ctx, a, affiliation.StatusPending); !errors.Is(err, affiliation.ErrStaleState) {
		t.Fatalf("expected ErrStaleState for stale expected status, got %v", err)
	}

	blockedAt := testNow.Add(time.Hour)
	if err := repo.CreateBlock(ctx, affiliation.Block{PlayerID: "player", AgentID: "agent", CreatedAt: blockedAt}); err != nil {
		t.Fatalf("create block: %v", err)
	}
	if _, open, _ := repo.GetOpen(ctx, "agent", "player"); open {
		t.Fatalf("expected no open affiliation after block")
	}
	got, _, _ := repo.GetByID(ctx, "aff-1")
	if got.Status != affiliation.StatusTerminated || got.EndedAt == nil || !got.EndedAt.Equal(blockedAt) {
		t.Fatalf("expected terminated affiliation ended at block time, got %+v", got)
	}

	if err := repo.DeleteBlock(ctx, "player", "agent"); err != nil {
		t.Fatalf("delete block: %v", err)
	}
	if _, open, _ := repo.GetOpen(ctx, "agent", "player"); open {
		t.Fatalf("unblock must not reopen the affiliation")
	}
}

func TestOpportunityRepository_ApplicationLifecycle(t *testing.T) {
	repo := NewOpportunityRepository()
	ctx := context.Background()

	o := opportunity.Opportunity{ID: "opp-1", ClubID: "club-1", Title: "Winter trial", IsActive: true, ExpiryDate: testNow.Add(48 * time.Hour), CreatedAt: testNow}
	if err := repo.Create(ctx, o); err != nil {
		t.Fatalf("create opportunity: %v", err)
	}

	app := opportunity.Application{ID: "app-1", OpportunityID: "opp-1", ApplicantID: "player", Status: opportunity.ApplicationPending}
	if err := repo.CreateApplication(ctx, app); err != nil {
		t.Fatalf("create application: %v", err)
	}
	if err := repo.CreateApplication(ctx, opportunity.Application{ID: "app-2", OpportunityID: "opp-1", ApplicantID: "player", Status: opportunity.ApplicationPending}); !errors.Is(err, opportunity.ErrDuplicateApplication) {
		t.Fatalf("expected ErrDuplicateApplication, got %v", err)
	}

	app.Status = opportunity.ApplicationWithdrawn
	if err := repo.UpdateApplication(ctx, app, opportunity.ApplicationPending); err != nil {
		t.Fatalf("withdraw application: %v", err)
	}
	if err := repo.CreateApplication(ctx, opportunity.Application{ID: "app-3", OpportunityID: "opp-1", ApplicantID: "player", Status: opportunity.ApplicationPending}); err != nil {
		t.Fatalf("re-apply after withdrawal: %v", err)
	}

	count, err := repo.CountApplications(ctx, "opp-1")
	if err != nil {
		t.Fatalf("count applications: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 applications regardless of status, got %d", count)
	}

	if err := repo.DeleteCascade(ctx, "opp-1"); err != nil {
		t.Fatalf("delete cascade: %v", err)
	}
	if _, ok, _ := repo.GetApplication(ctx, "app-3"); ok {
		t.Fatalf("expected applications to be removed with opportunity")
	}
	items, _ := repo.ListApplicationsByApplicant(ctx, "player")
	if len(items) != 0 {
		t.Fatalf("expected no applications left, got %d", len(items))
	}
}

func TestOpportunityRepository_ListFiltersExpired(t *testing.T) {
	repo := NewOpportunityRepository()
	ctx := context.Background()

	_ = repo.Create(ctx, opportunity.Opportunity{ID: "open", Sport: "Football", City: "Lagos", IsActive: true, ExpiryDate: testNow.Add(time.Hour), CreatedAt: testNow})
	_ = repo.Create(ctx, opportunity.Opportunity{ID: "expired", Sport: "Football", IsActive: true, ExpiryDate: testNow.Add(-time.Minute), CreatedAt: testNow})
	_ = repo.Create(ctx, opportunity.Opportunity{ID: "inactive", Sport: "Football", IsActive: false, ExpiryDate: testNow.Add(time.Hour), CreatedAt: testNow})

	items, err := repo.List(ctx, opportunity.Filter{Sport: "football", City: "LAGOS", ActiveAt: testNow})
	if err != nil {
		t.Fatalf("list opportunities: %v", err)
	}
	if len(items) != 1 || items[0].ID != "open" {
		t.Fatalf("expected only the open opportunity, got %+v", items)
	}
}
