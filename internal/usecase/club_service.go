package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/riskibarqy/athlete-network/internal/domain/club"
	idgen "github.com/riskibarqy/athlete-network/internal/platform/id"
	"github.com/riskibarqy/athlete-network/internal/platform/logging"
	"github.com/riskibarqy/athlete-network/internal/platform/resilience"
)

type CreateClubInput struct {
	UserID      string
	Name        string
	Description string
	Sports      []string
	City        string
	Country     string
}

type UpdateClubInput struct {
	ActorID     string
	ClubID      string
	Name        string
	Description string
	Sports      []string
	City        string
	Country     string
}

type AddMemberInput struct {
	ClubID      string
	ActorID     string
	UserID      string
	Role        string
	Permissions []string
}

type UpdateMemberRoleInput struct {
	ClubID  string
	ActorID string
	UserID  string
	Role    string
}

type ClubService struct {
	clubRepo club.Repository
	idGen    idgen.Generator
	logger   *logging.Logger
	locks    *resilience.KeyedMutex
	now      func() time.Time
}

func NewClubService(
	clubRepo club.Repository,
	idGen idgen.Generator,
	locks *resilience.KeyedMutex,
	logger *logging.Logger,
) *ClubService {
	if locks == nil {
		locks = &resilience.KeyedMutex{}
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &ClubService{
		clubRepo: clubRepo,
		idGen:    idGen,
		logger:   logger,
		locks:    locks,
		now:      time.Now,
	}
}

func (s *ClubService) CreateClub(ctx context.Context, input CreateClubInput) (club.Club, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ClubService.CreateClub")
	defer span.End()

	input.UserID = strings.TrimSpace(input.UserID)
	input.Name = strings.TrimSpace(input.Name)
	if input.UserID == "" {
		return club.Club{}, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	if input.Name == "" {
		return club.Club{}, fmt.Errorf("%w: club name is required", ErrInvalidInput)
	}

	clubID, err := s.idGen.NewID()
	if err != nil {
		return club.Club{}, fmt.Errorf("generate club id: %w", err)
	}
	membershipID, err := s.idGen.NewID()
	if err != nil {
		return club.Club{}, fmt.Errorf("generate membership id: %w", err)
	}

	now := s.now().UTC()
	c := club.Club{
		ID:           clubID,
		Name:         input.Name,
		Description:  strings.TrimSpace(input.Description),
		Sports:       normalizeList(input.Sports),
		City:         strings.TrimSpace(input.City),
		Country:      strings.TrimSpace(input.Country),
		CreatedBy:    input.UserID,
		MembersCount: 1,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	owner := club.Membership{
		ID:          membershipID,
		ClubID:      clubID,
		UserID:      input.UserID,
		Role:        club.RoleAdmin,
		Permissions: club.DefaultPermissions(club.RoleAdmin),
		IsActive:    true,
		JoinedAt:    now,
	}

	if err := s.clubRepo.CreateClub(ctx, c, owner); err != nil {
		return club.Club{}, fmt.Errorf("create club: %w", err)
	}

	s.logger.InfoContext(ctx, "club created", "club_id", c.ID, "created_by", c.CreatedBy)
	return c, nil
}

func (s *ClubService) GetClub(ctx context.Context, clubID string) (club.Club, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ClubService.GetClub")
	defer span.End()

	clubID = strings.TrimSpace(clubID)
	if clubID == "" {
		return club.Club{}, fmt.Errorf("%w: club id is required", ErrInvalidInput)
	}
	return loadClub(ctx, s.clubRepo, clubID)
}

func (s *ClubService) ListClubs(ctx context.Context, filter club.Filter) ([]club.Club, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ClubService.ListClubs")
	defer span.End()

	filter.Sport = strings.TrimSpace(filter.Sport)
	filter.City = strings.TrimSpace(filter.City)
	filter.Country = strings.TrimSpace(filter.Country)
	filter.Search = strings.TrimSpace(filter.Search)

	items, err := s.clubRepo.ListClubs(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list clubs: %w", err)
	}
	return items, nil
}

func (s *ClubService) UpdateClub(ctx context.Context, input UpdateClubInput) (club.Club, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ClubService.UpdateClub")
	defer span.End()

	input.ActorID = strings.TrimSpace(input.ActorID)
	input.ClubID = strings.TrimSpace(input.ClubID)
	input.Name = strings.TrimSpace(input.Name)
	if input.ActorID == "" || input.ClubID == "" {
		return club.Club{}, fmt.Errorf("%w: actor id and club id are required", ErrInvalidInput)
	}
	if input.Name == "" {
		return club.Club{}, fmt.Errorf("%w: club name is required", ErrInvalidInput)
	}

	c, err := loadClub(ctx, s.clubRepo, input.ClubID)
	if err != nil {
		return club.Club{}, err
	}
	if _, err := requireClubAdmin(ctx, s.clubRepo, input.ClubID, input.ActorID); err != nil {
		return club.Club{}, err
	}

	c.Name = input.Name
	c.Description = strings.TrimSpace(input.Description)
	c.Sports = normalizeList(input.Sports)
	c.City = strings.TrimSpace(input.City)
	c.Country = strings.TrimSpace(input.Country)
	c.UpdatedAt = s.now().UTC()

	if err := s.clubRepo.UpdateClub(ctx, c); err != nil {
		if errors.Is(err, club.ErrClubNotFound) {
			return club.Club{}, fmt.Errorf("%w: club not found", ErrNotFound)
		}
		return club.Club{}, fmt.Errorf("update club: %w", err)
	}
	return c, nil
}

// AddMember creates an active membership on behalf of a club admin.
func (s *ClubService) AddMember(ctx context.Context, input AddMemberInput) (club.Membership, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ClubService.AddMember")
	defer span.End()

	input.ClubID = strings.TrimSpace(input.ClubID)
	input.ActorID = strings.TrimSpace(input.ActorID)
	input.UserID = strings.TrimSpace(input.UserID)
	if input.ClubID == "" || input.ActorID == "" || input.UserID == "" {
		return club.Membership{}, fmt.Errorf("%w: club id, actor id and user id are required", ErrInvalidInput)
	}
	role, ok := club.ParseMemberRole(input.Role)
	if !ok {
		return club.Membership{}, fmt.Errorf("%w: unsupported member role %q", ErrInvalidInput, input.Role)
	}
	permissions, err := parsePermissions(role, input.Permissions)
	if err != nil {
		return club.Membership{}, err
	}

	if _, err := loadClub(ctx, s.clubRepo, input.ClubID); err != nil {
		return club.Membership{}, err
	}
	if _, err := requireClubAdmin(ctx, s.clubRepo, input.ClubID, input.ActorID); err != nil {
		return club.Membership{}, err
	}

	unlock := s.locks.Lock(clubLockKey(input.ClubID))
	defer unlock()

	membershipID, err := s.idGen.NewID()
	if err != nil {
		return club.Membership{}, fmt.Errorf("generate membership id: %w", err)
	}
	m := club.Membership{
		ID:          membershipID,
		ClubID:      input.ClubID,
		UserID:      input.UserID,
		Role:        role,
		Permissions: permissions,
		IsActive:    true,
		JoinedAt:    s.now().UTC(),
	}
	if err := s.clubRepo.AddMembership(ctx, m); err != nil {
		return club.Membership{}, translateClubStoreError("add membership", err)
	}

	s.logger.InfoContext(ctx, "club member added",
		"club_id", m.ClubID,
		"user_id", m.UserID,
		"role", string(m.Role),
		"actor_id", input.ActorID,
	)
	return m, nil
}

// RemoveMember deactivates a non-admin member. It reports false when the user has no active
// membership in the club.
func (s *ClubService) RemoveMember(ctx context.Context, clubID, actorID, userID string) (bool, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ClubService.RemoveMember")
	defer span.End()

	clubID = strings.TrimSpace(clubID)
	actorID = strings.TrimSpace(actorID)
	userID = strings.TrimSpace(userID)
	if clubID == "" || actorID == "" || userID == "" {
		return false, fmt.Errorf("%w: club id, actor id and user id are required", ErrInvalidInput)
	}

	if _, err := loadClub(ctx, s.clubRepo, clubID); err != nil {
		return false, err
	}
	if _, err := requireClubAdmin(ctx, s.clubRepo, clubID, actorID); err != nil {
		return false, err
	}

	unlock := s.locks.Lock(clubLockKey(clubID))
	defer unlock()

	target, ok, err := activeMembership(ctx, s.clubRepo, clubID, userID)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}
	if target.Role == club.RoleAdmin && target.UserID != actorID {
		return false, fmt.Errorf("%w: admins cannot remove other admins", ErrForbidden)
	}

	if err := s.clubRepo.DeactivateMembership(ctx, clubID, userID, s.now().UTC()); err != nil {
		if errors.Is(err, club.ErrMembershipNotFound) {
			return false, nil
		}
		return false, translateClubStoreError("remove membership", err)
	}

	s.logger.InfoContext(ctx, "club member removed", "club_id", clubID, "user_id", userID, "actor_id", actorID)
	return true, nil
}

func (s *ClubService) LeaveClub(ctx context.Context, clubID, userID string) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.ClubService.LeaveClub")
	defer span.End()

	clubID = strings.TrimSpace(clubID)
	userID = strings.TrimSpace(userID)
	if clubID == "" || userID == "" {
		return fmt.Errorf("%w: club id and user id are required", ErrInvalidInput)
	}

	unlock := s.locks.Lock(clubLockKey(clubID))
	defer unlock()

	if err := s.clubRepo.DeactivateMembership(ctx, clubID, userID, s.now().UTC()); err != nil {
		if errors.Is(err, club.ErrMembershipNotFound) {
			return fmt.Errorf("%w: active membership not found", ErrNotFound)
		}
		return translateClubStoreError("leave club", err)
	}

	s.logger.InfoContext(ctx, "club member left", "club_id", clubID, "user_id", userID)
	return nil
}

func (s *ClubService) UpdateMemberRole(ctx context.Context, input UpdateMemberRoleInput) (club.Membership, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ClubService.UpdateMemberRole")
	defer span.End()

	input.ClubID = strings.TrimSpace(input.ClubID)
	input.ActorID = strings.TrimSpace(input.ActorID)
	input.UserID = strings.TrimSpace(input.UserID)
	if input.ClubID == "" || input.ActorID == "" || input.UserID == "" {
		return club.Membership{}, fmt.Errorf("%w: club id, actor id and user id are required", ErrInvalidInput)
	}
	role, ok := club.ParseMemberRole(input.Role)
	if !ok {
		return club.Membership{}, fmt.Errorf("%w: unsupported member role %q", ErrInvalidInput, input.Role)
	}

	if _, err := requireClubAdmin(ctx, s.clubRepo, input.ClubID, input.ActorID); err != nil {
		return club.Membership{}, err
	}

	unlock := s.locks.Lock(clubLockKey(input.ClubID))
	defer unlock()

	permissions := club.DefaultPermissions(role)
	if err := s.clubRepo.UpdateMembershipRole(ctx, input.ClubID, input.UserID, role, permissions); err != nil {
		if errors.Is(err, club.ErrMembershipNotFound) {
			return club.Membership{}, fmt.Errorf("%w: active membership not found", ErrNotFound)
		}
		return club.Membership{}, translateClubStoreError("update membership role", err)
	}

	m, _, err := activeMembership(ctx, s.clubRepo, input.ClubID, input.UserID)
	if err != nil {
		return club.Membership{}, err
	}
	return m, nil
}

func (s *ClubService) IsAdmin(ctx context.Context, clubID, userID string) (bool, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ClubService.IsAdmin")
	defer span.End()

	m, ok, err := activeMembership(ctx, s.clubRepo, strings.TrimSpace(clubID), strings.TrimSpace(userID))
	if err != nil {
		return false, err
	}
	return ok && m.IsAdmin(), nil
}

func (s *ClubService) GetMembership(ctx context.Context, clubID, userID string) (club.Membership, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ClubService.GetMembership")
	defer span.End()

	clubID = strings.TrimSpace(clubID)
	userID = strings.TrimSpace(userID)
	if clubID == "" || userID == "" {
		return club.Membership{}, fmt.Errorf("%w: club id and user id are required", ErrInvalidInput)
	}

	m, ok, err := activeMembership(ctx, s.clubRepo, clubID, userID)
	if err != nil {
		return club.Membership{}, err
	}
	if !ok {
		return club.Membership{}, fmt.Errorf("%w: active membership not found", ErrNotFound)
	}
	return m, nil
}

func (s *ClubService) ListMembers(ctx context.Context, clubID string) ([]club.Membership, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ClubService.ListMembers")
	defer span.End()

	clubID = strings.TrimSpace(clubID)
	if clubID == "" {
		return nil, fmt.Errorf("%w: club id is required", ErrInvalidInput)
	}
	if _, err := loadClub(ctx, s.clubRepo, clubID); err != nil {
		return nil, err
	}

	items, err := s.clubRepo.ListActiveMemberships(ctx, clubID)
	if err != nil {
		return nil, fmt.Errorf("list active memberships: %w", err)
	}
	return items, nil
}

func (s *ClubService) ListMyMemberships(ctx context.Context, userID string) ([]club.Membership, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ClubService.ListMyMemberships")
	defer span.End()

	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}

	items, err := s.clubRepo.ListMembershipsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list memberships by user: %w", err)
	}
	return items, nil
}

func parsePermissions(role club.MemberRole, raw []string) ([]club.Permission, error) {
	if len(raw) == 0 {
		return club.DefaultPermissions(role), nil
	}
	out := make([]club.Permission, 0, len(raw))
	seen := make(map[club.Permission]struct{}, len(raw))
	for _, item := range raw {
		p, ok := club.ParsePermission(item)
		if !ok {
			return nil, fmt.Errorf("%w: unsupported permission %q", ErrInvalidInput, item)
		}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out, nil
}

func translateClubStoreError(op string, err error) error {
	switch {
	case errors.Is(err, club.ErrActiveMembershipExists):
		return ErrAlreadyMember
	case errors.Is(err, club.ErrPendingRequestExists):
		return ErrDuplicateJoinRequest
	case errors.Is(err, club.ErrLastAdmin):
		return ErrLastAdmin
	case errors.Is(err, club.ErrClubNotFound):
		return fmt.Errorf("%w: club not found", ErrNotFound)
	case errors.Is(err, club.ErrJoinRequestNotFound):
		return fmt.Errorf("%w: join request not found", ErrNotFound)
	case errors.Is(err, club.ErrRequestNotPending):
		return fmt.Errorf("%w: join request is not pending", ErrInvalidStateTransition)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}

func normalizeList(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		key := strings.ToLower(v)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, v)
	}
	return out
}
