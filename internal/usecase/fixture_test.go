package usecase

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/riskibarqy/athlete-network/internal/domain/club"
	"github.com/riskibarqy/athlete-network/internal/domain/notification"
	"github.com/riskibarqy/athlete-network/internal/domain/user"
	"github.com/riskibarqy/athlete-network/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/athlete-network/internal/platform/logging"
	"github.com/riskibarqy/athlete-network/internal/platform/resilience"
)

type sequenceIDGenerator struct {
	prefix string
	next   atomic.Int64
}

func (g *sequenceIDGenerator) NewID() (string, error) {
	return fmt.Sprintf("%s-%03d", g.prefix, g.next.Add(1)), nil
}

type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time { return c.now }

func (c *testClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

type fixture struct {
	clock *testClock

	clubRepo        *memory.ClubRepository
	opportunityRepo *memory.OpportunityRepository
	affiliationRepo *memory.AffiliationRepository
	directory       *memory.UserDirectory

	clubs         *ClubService
	joinRequests  *JoinRequestService
	opportunities *OpportunityService
	applications  *ApplicationService
	affiliations  *AffiliationService
}

func newFixture(t *testing.T, publisher notification.Publisher) *fixture {
	t.Helper()

	clock := &testClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	idGen := &sequenceIDGenerator{prefix: "id"}
	logger := logging.NewNop()
	clubLocks := &resilience.KeyedMutex{}
	pairLocks := &resilience.KeyedMutex{}

	f := &fixture{
		clock:           clock,
		clubRepo:        memory.NewClubRepository(),
		opportunityRepo: memory.NewOpportunityRepository(),
		affiliationRepo: memory.NewAffiliationRepository(),
		directory:       memory.NewUserDirectory(nil),
	}

	f.clubs = NewClubService(f.clubRepo, idGen, clubLocks, logger)
	f.clubs.now = clock.Now
	f.joinRequests = NewJoinRequestService(f.clubRepo, idGen, clubLocks, publisher, logger)
	f.joinRequests.now = clock.Now
	f.opportunities = NewOpportunityService(f.clubRepo, f.opportunityRepo, idGen, logger)
	f.opportunities.now = clock.Now
	f.affiliations = NewAffiliationService(f.affiliationRepo, f.directory, idGen, pairLocks, publisher, logger)
	f.affiliations.now = clock.Now
	f.applications = NewApplicationService(f.clubRepo, f.opportunityRepo, f.affiliations, f.directory, idGen, pairLocks, publisher, logger)
	f.applications.now = clock.Now
	return f
}

func (f *fixture) addProfile(id string, role user.Role) {
	f.directory.Upsert(user.Profile{ID: id, Name: gofakeit.Name(), Role: role, City: gofakeit.City()})
}

func (f *fixture) createClub(t *testing.T, ownerID string) club.Club {
	t.Helper()

	c, err := f.clubs.CreateClub(context.Background(), CreateClubInput{
		UserID:  ownerID,
		Name:    gofakeit.Company() + " FC",
		Sports:  []string{"football"},
		City:    "Lisbon",
		Country: "PT",
	})
	if err != nil {
		t.Fatalf("create club: %v", err)
	}
	return c
}

func (f *fixture) addMember(t *testing.T, clubID, adminID, userID string, role club.MemberRole) {
	t.Helper()

	if _, err := f.clubs.AddMember(context.Background(), AddMemberInput{
		ClubID:  clubID,
		ActorID: adminID,
		UserID:  userID,
		Role:    string(role),
	}); err != nil {
		t.Fatalf("add member %s: %v", userID, err)
	}
}

func (f *fixture) assertMembersCount(t *testing.T, clubID string, want int) {
	t.Helper()

	c, err := f.clubs.GetClub(context.Background(), clubID)
	if err != nil {
		t.Fatalf("get club: %v", err)
	}
	members, err := f.clubs.ListMembers(context.Background(), clubID)
	if err != nil {
		t.Fatalf("list members: %v", err)
	}
	if c.MembersCount != len(members) {
		t.Fatalf("members count drift: counter=%d active=%d", c.MembersCount, len(members))
	}
	if c.MembersCount != want {
		t.Fatalf("expected %d members, got %d", want, c.MembersCount)
	}
}
