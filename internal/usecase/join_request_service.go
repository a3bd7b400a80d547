package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/riskibarqy/athlete-network/internal/domain/club"
	"github.com/riskibarqy/athlete-network/internal/domain/notification"
	idgen "github.com/riskibarqy/athlete-network/internal/platform/id"
	"github.com/riskibarqy/athlete-network/internal/platform/logging"
	"github.com/riskibarqy/athlete-network/internal/platform/resilience"
)

const maxJoinRequestMessageLength = 1000

type CreateJoinRequestInput struct {
	ClubID        string
	UserID        string
	RequestedRole string
	Message       string
}

type JoinRequestService struct {
	clubRepo club.Repository
	idGen    idgen.Generator
	locks    *resilience.KeyedMutex
	logger   *logging.Logger
	notifier notifier
	now      func() time.Time
}

func NewJoinRequestService(
	clubRepo club.Repository,
	idGen idgen.Generator,
	locks *resilience.KeyedMutex,
	publisher notification.Publisher,
	logger *logging.Logger,
) *JoinRequestService {
	if locks == nil {
		locks = &resilience.KeyedMutex{}
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &JoinRequestService{
		clubRepo: clubRepo,
		idGen:    idGen,
		locks:    locks,
		logger:   logger,
		notifier: notifier{publisher: publisher, logger: logger},
		now:      time.Now,
	}
}

func (s *JoinRequestService) Create(ctx context.Context, input CreateJoinRequestInput) (club.JoinRequest, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.JoinRequestService.Create")
	defer span.End()

	input.ClubID = strings.TrimSpace(input.ClubID)
	input.UserID = strings.TrimSpace(input.UserID)
	input.Message = strings.TrimSpace(input.Message)
	if input.ClubID == "" || input.UserID == "" {
		return club.JoinRequest{}, fmt.Errorf("%w: club id and user id are required", ErrInvalidInput)
	}
	role := club.RoleMember
	if strings.TrimSpace(input.RequestedRole) != "" {
		parsed, ok := club.ParseMemberRole(input.RequestedRole)
		if !ok {
			return club.JoinRequest{}, fmt.Errorf("%w: unsupported requested role %q", ErrInvalidInput, input.RequestedRole)
		}
		role = parsed
	}
	if role == club.RoleAdmin {
		return club.JoinRequest{}, fmt.Errorf("%w: admin role cannot be requested", ErrInvalidInput)
	}
	if len(input.Message) > maxJoinRequestMessageLength {
		return club.JoinRequest{}, fmt.Errorf("%w: message exceeds %d characters", ErrInvalidInput, maxJoinRequestMessageLength)
	}

	c, err := loadClub(ctx, s.clubRepo, input.ClubID)
	if err != nil {
		return club.JoinRequest{}, err
	}

	unlock := s.locks.Lock(clubLockKey(input.ClubID))
	defer unlock()

	requestID, err := s.idGen.NewID()
	if err != nil {
		return club.JoinRequest{}, fmt.Errorf("generate join request id: %w", err)
	}
	req := club.JoinRequest{
		ID:            requestID,
		ClubID:        input.ClubID,
		UserID:        input.UserID,
		RequestedRole: role,
		Message:       input.Message,
		Status:        club.JoinRequestPending,
		RequestedAt:   s.now().UTC(),
	}
	if err := s.clubRepo.CreateJoinRequest(ctx, req); err != nil {
		s.logger.WarnContext(ctx, "join request rejected by store", "club_id", req.ClubID, "user_id", req.UserID, "error", err)
		return club.JoinRequest{}, translateClubStoreError("create join request", err)
	}

	s.notifier.publish(ctx, notification.Event{
		Type:       notification.EventJoinRequestCreated,
		ActorID:    req.UserID,
		Recipients: s.adminIDs(ctx, c.ID),
		SubjectID:  req.ID,
		Data:       map[string]string{"club_id": c.ID, "club_name": c.Name, "requested_role": string(req.RequestedRole)},
		OccurredAt: req.RequestedAt,
	})
	return req, nil
}

// ListPending returns the club's pending requests oldest first. Only admins may list them.
func (s *JoinRequestService) ListPending(ctx context.Context, clubID, actorID string) ([]club.JoinRequest, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.JoinRequestService.ListPending")
	defer span.End()

	clubID = strings.TrimSpace(clubID)
	actorID = strings.TrimSpace(actorID)
	if clubID == "" || actorID == "" {
		return nil, fmt.Errorf("%w: club id and actor id are required", ErrInvalidInput)
	}
	if _, err := loadClub(ctx, s.clubRepo, clubID); err != nil {
		return nil, err
	}
	if _, err := requireClubAdmin(ctx, s.clubRepo, clubID, actorID); err != nil {
		return nil, err
	}

	items, err := s.clubRepo.ListJoinRequests(ctx, clubID, club.JoinRequestPending)
	if err != nil {
		return nil, fmt.Errorf("list pending join requests: %w", err)
	}
	return items, nil
}

func (s *JoinRequestService) ListMine(ctx context.Context, userID string) ([]club.JoinRequest, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.JoinRequestService.ListMine")
	defer span.End()

	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	items, err := s.clubRepo.ListJoinRequestsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list join requests by user: %w", err)
	}
	return items, nil
}

// Accept marks the request accepted and creates the membership in one store operation.
func (s *JoinRequestService) Accept(ctx context.Context, requestID, respondedBy string) (club.Membership, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.JoinRequestService.Accept")
	defer span.End()

	req, err := s.loadForResponse(ctx, requestID, respondedBy)
	if err != nil {
		return club.Membership{}, err
	}

	unlock := s.locks.Lock(clubLockKey(req.ClubID))
	defer unlock()

	membershipID, err := s.idGen.NewID()
	if err != nil {
		return club.Membership{}, fmt.Errorf("generate membership id: %w", err)
	}
	now := s.now().UTC()
	respondedBy = strings.TrimSpace(respondedBy)
	req.Status = club.JoinRequestAccepted
	req.RespondedAt = &now
	req.RespondedBy = respondedBy

	m := club.Membership{
		ID:          membershipID,
		ClubID:      req.ClubID,
		UserID:      req.UserID,
		Role:        req.RequestedRole,
		Permissions: club.DefaultPermissions(req.RequestedRole),
		IsActive:    true,
		JoinedAt:    now,
	}
	if err := s.clubRepo.AcceptJoinRequest(ctx, req, m); err != nil {
		return club.Membership{}, translateClubStoreError("accept join request", err)
	}

	s.logger.InfoContext(ctx, "join request accepted", "request_id", req.ID, "club_id", req.ClubID, "user_id", req.UserID, "responded_by", respondedBy)
	s.notifier.publish(ctx, notification.Event{
		Type:       notification.EventJoinRequestAccepted,
		ActorID:    respondedBy,
		Recipients: []string{req.UserID},
		SubjectID:  req.ID,
		Data:       map[string]string{"club_id": req.ClubID, "role": string(m.Role)},
		OccurredAt: now,
	})
	return m, nil
}

func (s *JoinRequestService) Reject(ctx context.Context, requestID, respondedBy string) (club.JoinRequest, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.JoinRequestService.Reject")
	defer span.End()

	req, err := s.loadForResponse(ctx, requestID, respondedBy)
	if err != nil {
		return club.JoinRequest{}, err
	}

	unlock := s.locks.Lock(clubLockKey(req.ClubID))
	defer unlock()

	now := s.now().UTC()
	respondedBy = strings.TrimSpace(respondedBy)
	req.Status = club.JoinRequestRejected
	req.RespondedAt = &now
	req.RespondedBy = respondedBy
	if err := s.clubRepo.RejectJoinRequest(ctx, req); err != nil {
		return club.JoinRequest{}, translateClubStoreError("reject join request", err)
	}

	s.logger.InfoContext(ctx, "join request rejected", "request_id", req.ID, "club_id", req.ClubID, "responded_by", respondedBy)
	s.notifier.publish(ctx, notification.Event{
		Type:       notification.EventJoinRequestRejected,
		ActorID:    respondedBy,
		Recipients: []string{req.UserID},
		SubjectID:  req.ID,
		Data:       map[string]string{"club_id": req.ClubID},
		OccurredAt: now,
	})
	return req, nil
}

func (s *JoinRequestService) loadForResponse(ctx context.Context, requestID, respondedBy string) (club.JoinRequest, error) {
	requestID = strings.TrimSpace(requestID)
	respondedBy = strings.TrimSpace(respondedBy)
	if requestID == "" || respondedBy == "" {
		return club.JoinRequest{}, fmt.Errorf("%w: request id and responder id are required", ErrInvalidInput)
	}

	req, exists, err := s.clubRepo.GetJoinRequest(ctx, requestID)
	if err != nil {
		return club.JoinRequest{}, fmt.Errorf("get join request: %w", err)
	}
	if !exists {
		return club.JoinRequest{}, fmt.Errorf("%w: join request not found", ErrNotFound)
	}
	if _, err := requireClubAdmin(ctx, s.clubRepo, req.ClubID, respondedBy); err != nil {
		return club.JoinRequest{}, err
	}
	if req.Status != club.JoinRequestPending {
		return club.JoinRequest{}, fmt.Errorf("%w: join request is already %s", ErrInvalidStateTransition, req.Status)
	}
	return req, nil
}

func (s *JoinRequestService) adminIDs(ctx context.Context, clubID string) []string {
	members, err := s.clubRepo.ListActiveMemberships(ctx, clubID)
	if err != nil {
		s.logger.WarnContext(ctx, "list club admins for notification failed", "club_id", clubID, "error", err)
		return nil
	}
	out := make([]string, 0, 1)
	for _, m := range members {
		if m.IsAdmin() {
			out = append(out, m.UserID)
		}
	}
	return out
}
