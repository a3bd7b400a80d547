package usecase

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/riskibarqy/athlete-network/internal/domain/club"
	"github.com/riskibarqy/athlete-network/internal/domain/notification"
	notificationmock "github.com/riskibarqy/athlete-network/internal/mocks/domain/notification"
	"github.com/sourcegraph/conc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestJoinRequestService_AcceptCreatesMembership(t *testing.T) {
	publisher := notificationmock.NewPublisher(t)
	publisher.
		On("Publish", mock.Anything, mock.MatchedBy(func(e notification.Event) bool {
			return e.Type == notification.EventJoinRequestCreated && len(e.Recipients) == 1 && e.Recipients[0] == "owner"
		})).
		Return(nil).
		Once()
	publisher.
		On("Publish", mock.Anything, mock.MatchedBy(func(e notification.Event) bool {
			return e.Type == notification.EventJoinRequestAccepted && e.Recipients[0] == "user-x"
		})).
		Return(nil).
		Once()

	f := newFixture(t, publisher)
	ctx := t.Context()
	c := f.createClub(t, "owner")

	req, err := f.joinRequests.Create(ctx, CreateJoinRequestInput{ClubID: c.ID, UserID: "user-x", RequestedRole: "Player", Message: "I play left back"})
	require.NoError(t, err)
	assert.Equal(t, club.JoinRequestPending, req.Status)
	assert.Equal(t, club.RolePlayer, req.RequestedRole)

	pending, err := f.joinRequests.ListPending(ctx, c.ID, "owner")
	require.NoError(t, err)
	require.Len(t, pending, 1)

	f.clock.Advance(time.Hour)
	m, err := f.joinRequests.Accept(ctx, req.ID, "owner")
	require.NoError(t, err)
	assert.Equal(t, club.RolePlayer, m.Role)
	assert.True(t, m.IsActive)
	f.assertMembersCount(t, c.ID, 2)

	mine, err := f.joinRequests.ListMine(ctx, "user-x")
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, club.JoinRequestAccepted, mine[0].Status)
	assert.Equal(t, "owner", mine[0].RespondedBy)
	require.NotNil(t, mine[0].RespondedAt)
	assert.True(t, mine[0].RespondedAt.Equal(f.clock.now))

	_, err = f.joinRequests.Create(ctx, CreateJoinRequestInput{ClubID: c.ID, UserID: "user-x"})
	assert.ErrorIs(t, err, ErrAlreadyMember)
}

func TestJoinRequestService_CreateValidation(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	c := f.createClub(t, "owner")

	if _, err := f.joinRequests.Create(ctx, CreateJoinRequestInput{ClubID: c.ID, UserID: "u1"}); err != nil {
		t.Fatalf("create join request: %v", err)
	}
	_, err := f.joinRequests.Create(ctx, CreateJoinRequestInput{ClubID: c.ID, UserID: "u1"})
	if !errors.Is(err, ErrDuplicateJoinRequest) {
		t.Fatalf("expected ErrDuplicateJoinRequest, got %v", err)
	}

	if _, err := f.joinRequests.Create(ctx, CreateJoinRequestInput{ClubID: c.ID, UserID: "u2", RequestedRole: "admin"}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for admin role, got %v", err)
	}
	if _, err := f.joinRequests.Create(ctx, CreateJoinRequestInput{ClubID: "missing", UserID: "u2"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown club, got %v", err)
	}
	if _, err := f.joinRequests.Create(ctx, CreateJoinRequestInput{ClubID: c.ID, UserID: "owner"}); !errors.Is(err, ErrAlreadyMember) {
		t.Fatalf("expected ErrAlreadyMember for owner, got %v", err)
	}
}

func TestJoinRequestService_RespondAuthorizationAndStates(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	c := f.createClub(t, "owner")
	f.addMember(t, c.ID, "owner", "manager", club.RoleManager)

	req, err := f.joinRequests.Create(ctx, CreateJoinRequestInput{ClubID: c.ID, UserID: "u1"})
	if err != nil {
		t.Fatalf("create join request: %v", err)
	}

	if _, err := f.joinRequests.Accept(ctx, req.ID, "manager"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden for manager, got %v", err)
	}
	if _, err := f.joinRequests.ListPending(ctx, c.ID, "manager"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden listing as manager, got %v", err)
	}

	rejected, err := f.joinRequests.Reject(ctx, req.ID, "owner")
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if rejected.Status != club.JoinRequestRejected {
		t.Fatalf("expected rejected, got %s", rejected.Status)
	}
	if _, err := f.joinRequests.Accept(ctx, req.ID, "owner"); !errors.Is(err, ErrInvalidStateTransition) {
		t.Fatalf("expected ErrInvalidStateTransition, got %v", err)
	}
	f.assertMembersCount(t, c.ID, 2)

	if _, err := f.joinRequests.Create(ctx, CreateJoinRequestInput{ClubID: c.ID, UserID: "u1"}); err != nil {
		t.Fatalf("re-request after rejection: %v", err)
	}
	if _, err := f.joinRequests.Accept(ctx, "missing", "owner"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestJoinRequestService_ConcurrentAcceptCreatesOneMembership(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	c := f.createClub(t, "owner")
	f.addMember(t, c.ID, "owner", "second-admin", club.RoleAdmin)

	req, err := f.joinRequests.Create(ctx, CreateJoinRequestInput{ClubID: c.ID, UserID: "u1"})
	if err != nil {
		t.Fatalf("create join request: %v", err)
	}

	admins := []string{"owner", "second-admin", "owner", "second-admin"}
	var wg sync.WaitGroup
	var mu sync.Mutex
	accepted := 0
	wg.Add(len(admins))
	for _, admin := range admins {
		go func(admin string) {
			defer wg.Done()
			_, err := f.joinRequests.Accept(ctx, req.ID, admin)
			if err == nil {
				mu.Lock()
				accepted++
				mu.Unlock()
				return
			}
			if !errors.Is(err, ErrInvalidStateTransition) {
				t.Errorf("unexpected accept error: %v", err)
			}
		}(admin)
	}
	wg.Wait()

	if accepted != 1 {
		t.Fatalf("expected exactly one accept to succeed, got %d", accepted)
	}
	f.assertMembersCount(t, c.ID, 3)
}

func TestJoinRequestService_ConcurrentCreateKeepsOnePending(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	c := f.createClub(t, "owner")

	var created, duplicates atomic.Int32
	var wg conc.WaitGroup
	for range 8 {
		wg.Go(func() {
			_, err := f.joinRequests.Create(ctx, CreateJoinRequestInput{ClubID: c.ID, UserID: "u1"})
			switch {
			case err == nil:
				created.Add(1)
			case errors.Is(err, ErrDuplicateJoinRequest):
				duplicates.Add(1)
			default:
				t.Errorf("unexpected create error: %v", err)
			}
		})
	}
	wg.Wait()

	assert.Equal(t, int32(1), created.Load())
	assert.Equal(t, int32(7), duplicates.Load())

	pending, err := f.joinRequests.ListPending(ctx, c.ID, "owner")
	require.NoError(t, err)
	assert.Len(t, pending, 1)
}

func TestJoinRequestService_PublishFailureDoesNotFailWorkflow(t *testing.T) {
	publisher := notificationmock.NewPublisher(t)
	publisher.On("Publish", mock.Anything, mock.Anything).Return(errors.New("broker down"))

	f := newFixture(t, publisher)
	c := f.createClub(t, "owner")

	req, err := f.joinRequests.Create(t.Context(), CreateJoinRequestInput{ClubID: c.ID, UserID: "u1"})
	require.NoError(t, err)
	_, err = f.joinRequests.Reject(t.Context(), req.ID, "owner")
	require.NoError(t, err)
	publisher.AssertNumberOfCalls(t, "Publish", 2)
}
