package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/riskibarqy/athlete-network/internal/domain/affiliation"
	"github.com/riskibarqy/athlete-network/internal/domain/notification"
	"github.com/riskibarqy/athlete-network/internal/domain/user"
	idgen "github.com/riskibarqy/athlete-network/internal/platform/id"
	"github.com/riskibarqy/athlete-network/internal/platform/logging"
	"github.com/riskibarqy/athlete-network/internal/platform/resilience"
)

type RequestAffiliationInput struct {
	AgentID  string
	PlayerID string
	Message  string
}

type BlockAgentInput struct {
	PlayerID string
	AgentID  string
	Reason   string
}

type AffiliationService struct {
	repo      affiliation.Repository
	directory user.Directory
	idGen     idgen.Generator
	locks     *resilience.KeyedMutex
	logger    *logging.Logger
	notifier  notifier
	now       func() time.Time
}

func NewAffiliationService(
	repo affiliation.Repository,
	directory user.Directory,
	idGen idgen.Generator,
	locks *resilience.KeyedMutex,
	publisher notification.Publisher,
	logger *logging.Logger,
) *AffiliationService {
	if locks == nil {
		locks = &resilience.KeyedMutex{}
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &AffiliationService{
		repo:      repo,
		directory: directory,
		idGen:     idGen,
		locks:     locks,
		logger:    logger,
		notifier:  notifier{publisher: publisher, logger: logger},
		now:       time.Now,
	}
}

// Request opens a pending affiliation from an agent to a player. Closed affiliations for the
// pair do not prevent a new request.
func (s *AffiliationService) Request(ctx context.Context, input RequestAffiliationInput) (affiliation.Affiliation, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.AffiliationService.Request")
	defer span.End()

	input.AgentID = strings.TrimSpace(input.AgentID)
	input.PlayerID = strings.TrimSpace(input.PlayerID)
	input.Message = strings.TrimSpace(input.Message)
	if input.AgentID == "" || input.PlayerID == "" {
		return affiliation.Affiliation{}, fmt.Errorf("%w: agent id and player id are required", ErrInvalidInput)
	}
	if input.AgentID == input.PlayerID {
		return affiliation.Affiliation{}, fmt.Errorf("%w: agent and player must differ", ErrInvalidInput)
	}

	if err := requireProfileRole(ctx, s.directory, input.AgentID, user.RoleAgent, ErrForbidden, "requester"); err != nil {
		return affiliation.Affiliation{}, err
	}
	if err := requireProfileRole(ctx, s.directory, input.PlayerID, user.RolePlayer, ErrInvalidInput, "target"); err != nil {
		return affiliation.Affiliation{}, err
	}

	unlock := s.locks.Lock(pairLockKey(input.AgentID, input.PlayerID))
	defer unlock()

	affiliationID, err := s.idGen.NewID()
	if err != nil {
		return affiliation.Affiliation{}, fmt.Errorf("generate affiliation id: %w", err)
	}
	a := affiliation.Affiliation{
		ID:          affiliationID,
		AgentID:     input.AgentID,
		PlayerID:    input.PlayerID,
		Message:     input.Message,
		Status:      affiliation.StatusPending,
		RequestedAt: s.now().UTC(),
	}
	if err := s.repo.Create(ctx, a); err != nil {
		return affiliation.Affiliation{}, translateAffiliationStoreError("create affiliation", err)
	}

	s.logger.InfoContext(ctx, "affiliation requested", "affiliation_id", a.ID, "agent_id", a.AgentID, "player_id", a.PlayerID)
	s.notifier.publish(ctx, notification.Event{
		Type:       notification.EventAffiliationRequested,
		ActorID:    a.AgentID,
		Recipients: []string{a.PlayerID},
		SubjectID:  a.ID,
		OccurredAt: a.RequestedAt,
	})
	return a, nil
}

func (s *AffiliationService) Accept(ctx context.Context, affiliationID, playerID string) (affiliation.Affiliation, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.AffiliationService.Accept")
	defer span.End()

	return s.respond(ctx, affiliationID, playerID, affiliation.StatusAccepted)
}

func (s *AffiliationService) Reject(ctx context.Context, affiliationID, playerID string) (affiliation.Affiliation, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.AffiliationService.Reject")
	defer span.End()

	return s.respond(ctx, affiliationID, playerID, affiliation.StatusRejected)
}

// Terminate ends an accepted affiliation. Either party may terminate.
func (s *AffiliationService) Terminate(ctx context.Context, affiliationID, requestedBy string) (affiliation.Affiliation, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.AffiliationService.Terminate")
	defer span.End()

	requestedBy = strings.TrimSpace(requestedBy)
	a, err := s.load(ctx, affiliationID, requestedBy)
	if err != nil {
		return affiliation.Affiliation{}, err
	}
	if requestedBy != a.AgentID && requestedBy != a.PlayerID {
		return affiliation.Affiliation{}, fmt.Errorf("%w: only the agent or the player can terminate", ErrForbidden)
	}

	unlock := s.locks.Lock(pairLockKey(a.AgentID, a.PlayerID))
	defer unlock()

	now := s.now().UTC()
	updated, err := s.transition(ctx, a, affiliation.StatusTerminated, func(next *affiliation.Affiliation) {
		next.EndedAt = &now
	})
	if err != nil {
		return affiliation.Affiliation{}, err
	}

	other := a.PlayerID
	if requestedBy == a.PlayerID {
		other = a.AgentID
	}
	s.logger.InfoContext(ctx, "affiliation terminated", "affiliation_id", a.ID, "requested_by", requestedBy)
	s.notifier.publish(ctx, notification.Event{
		Type:       notification.EventAffiliationTerminated,
		ActorID:    requestedBy,
		Recipients: []string{other},
		SubjectID:  a.ID,
		OccurredAt: now,
	})
	return updated, nil
}

// Block records that the player refuses representation by the agent. In the same store
// operation a pending affiliation for the pair is retracted and an accepted one terminated.
func (s *AffiliationService) Block(ctx context.Context, input BlockAgentInput) (affiliation.Block, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.AffiliationService.Block")
	defer span.End()

	input.PlayerID = strings.TrimSpace(input.PlayerID)
	input.AgentID = strings.TrimSpace(input.AgentID)
	input.Reason = strings.TrimSpace(input.Reason)
	if input.PlayerID == "" || input.AgentID == "" {
		return affiliation.Block{}, fmt.Errorf("%w: player id and agent id are required", ErrInvalidInput)
	}
	if input.PlayerID == input.AgentID {
		return affiliation.Block{}, fmt.Errorf("%w: cannot block yourself", ErrInvalidInput)
	}

	unlock := s.locks.Lock(pairLockKey(input.AgentID, input.PlayerID))
	defer unlock()

	b := affiliation.Block{
		PlayerID:  input.PlayerID,
		AgentID:   input.AgentID,
		Reason:    input.Reason,
		CreatedAt: s.now().UTC(),
	}
	if err := s.repo.CreateBlock(ctx, b); err != nil {
		return affiliation.Block{}, translateAffiliationStoreError("create block", err)
	}

	s.logger.InfoContext(ctx, "agent blocked", "player_id", b.PlayerID, "agent_id", b.AgentID)
	return b, nil
}

// Unblock removes the block. Affiliations closed by the block stay closed.
func (s *AffiliationService) Unblock(ctx context.Context, playerID, agentID string) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.AffiliationService.Unblock")
	defer span.End()

	playerID = strings.TrimSpace(playerID)
	agentID = strings.TrimSpace(agentID)
	if playerID == "" || agentID == "" {
		return fmt.Errorf("%w: player id and agent id are required", ErrInvalidInput)
	}

	unlock := s.locks.Lock(pairLockKey(agentID, playerID))
	defer unlock()

	if err := s.repo.DeleteBlock(ctx, playerID, agentID); err != nil {
		return translateAffiliationStoreError("delete block", err)
	}
	s.logger.InfoContext(ctx, "agent unblocked", "player_id", playerID, "agent_id", agentID)
	return nil
}

func (s *AffiliationService) ListForAgent(ctx context.Context, agentID string) ([]affiliation.Affiliation, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.AffiliationService.ListForAgent")
	defer span.End()

	agentID = strings.TrimSpace(agentID)
	if agentID == "" {
		return nil, fmt.Errorf("%w: agent id is required", ErrInvalidInput)
	}
	items, err := s.repo.ListByAgent(ctx, agentID)
	if err != nil {
		return nil, fmt.Errorf("list affiliations by agent: %w", err)
	}
	return items, nil
}

func (s *AffiliationService) ListForPlayer(ctx context.Context, playerID string) ([]affiliation.Affiliation, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.AffiliationService.ListForPlayer")
	defer span.End()

	playerID = strings.TrimSpace(playerID)
	if playerID == "" {
		return nil, fmt.Errorf("%w: player id is required", ErrInvalidInput)
	}
	items, err := s.repo.ListByPlayer(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("list affiliations by player: %w", err)
	}
	return items, nil
}

func (s *AffiliationService) ListBlocks(ctx context.Context, playerID string) ([]affiliation.Block, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.AffiliationService.ListBlocks")
	defer span.End()

	playerID = strings.TrimSpace(playerID)
	if playerID == "" {
		return nil, fmt.Errorf("%w: player id is required", ErrInvalidInput)
	}
	items, err := s.repo.ListBlocksByPlayer(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("list blocks by player: %w", err)
	}
	return items, nil
}

// CanRepresent reports whether the agent holds an accepted affiliation with the player and
// is not blocked by them.
func (s *AffiliationService) CanRepresent(ctx context.Context, agentID, playerID string) (bool, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.AffiliationService.CanRepresent")
	defer span.End()

	_, blocked, err := s.repo.GetBlock(ctx, playerID, agentID)
	if err != nil {
		return false, fmt.Errorf("get block: %w", err)
	}
	if blocked {
		return false, nil
	}

	a, exists, err := s.repo.GetOpen(ctx, agentID, playerID)
	if err != nil {
		return false, fmt.Errorf("get open affiliation: %w", err)
	}
	return exists && a.Status == affiliation.StatusAccepted, nil
}

func (s *AffiliationService) respond(ctx context.Context, affiliationID, playerID string, to affiliation.Status) (affiliation.Affiliation, error) {
	playerID = strings.TrimSpace(playerID)
	a, err := s.load(ctx, affiliationID, playerID)
	if err != nil {
		return affiliation.Affiliation{}, err
	}
	if a.PlayerID != playerID {
		return affiliation.Affiliation{}, fmt.Errorf("%w: only the player can respond to this request", ErrForbidden)
	}

	unlock := s.locks.Lock(pairLockKey(a.AgentID, a.PlayerID))
	defer unlock()

	now := s.now().UTC()
	updated, err := s.transition(ctx, a, to, func(next *affiliation.Affiliation) {
		next.RespondedAt = &now
	})
	if err != nil {
		return affiliation.Affiliation{}, err
	}

	s.logger.InfoContext(ctx, "affiliation decided", "affiliation_id", a.ID, "status", string(to))
	s.notifier.publish(ctx, notification.Event{
		Type:       notification.EventAffiliationDecided,
		ActorID:    playerID,
		Recipients: []string{a.AgentID},
		SubjectID:  a.ID,
		Data:       map[string]string{"status": string(to)},
		OccurredAt: now,
	})
	return updated, nil
}

func (s *AffiliationService) transition(
	ctx context.Context,
	a affiliation.Affiliation,
	to affiliation.Status,
	stamp func(next *affiliation.Affiliation),
) (affiliation.Affiliation, error) {
	if !a.Status.CanTransition(to) {
		return affiliation.Affiliation{}, fmt.Errorf("%w: affiliation cannot move from %s to %s", ErrInvalidStateTransition, a.Status, to)
	}
	next := a
	next.Status = to
	stamp(&next)
	if err := s.repo.UpdateStatus(ctx, next, a.Status); err != nil {
		return affiliation.Affiliation{}, translateAffiliationStoreError("update affiliation status", err)
	}
	return next, nil
}

func (s *AffiliationService) load(ctx context.Context, affiliationID, actorID string) (affiliation.Affiliation, error) {
	affiliationID = strings.TrimSpace(affiliationID)
	if affiliationID == "" || actorID == "" {
		return affiliation.Affiliation{}, fmt.Errorf("%w: affiliation id and actor id are required", ErrInvalidInput)
	}
	a, exists, err := s.repo.GetByID(ctx, affiliationID)
	if err != nil {
		return affiliation.Affiliation{}, fmt.Errorf("get affiliation: %w", err)
	}
	if !exists {
		return affiliation.Affiliation{}, fmt.Errorf("%w: affiliation not found", ErrNotFound)
	}
	return a, nil
}

func requireProfileRole(ctx context.Context, directory user.Directory, userID string, want user.Role, mismatch error, label string) error {
	profile, exists, err := directory.GetProfile(ctx, userID)
	if err != nil {
		return fmt.Errorf("%w: resolve %s profile: %w", ErrDependencyUnavailable, label, err)
	}
	if !exists {
		return fmt.Errorf("%w: %s profile not found", ErrNotFound, label)
	}
	if profile.Role != want {
		return fmt.Errorf("%w: %s must have the %s role", mismatch, label, want)
	}
	return nil
}

func translateAffiliationStoreError(op string, err error) error {
	switch {
	case errors.Is(err, affiliation.ErrOpenAffiliation):
		return ErrDuplicateAffiliation
	case errors.Is(err, affiliation.ErrBlocked):
		return ErrAgentBlocked
	case errors.Is(err, affiliation.ErrAlreadyBlocked):
		return ErrAlreadyBlocked
	case errors.Is(err, affiliation.ErrBlockNotFound):
		return fmt.Errorf("%w: block not found", ErrNotFound)
	case errors.Is(err, affiliation.ErrAffiliationNotFound):
		return fmt.Errorf("%w: affiliation not found", ErrNotFound)
	case errors.Is(err, affiliation.ErrStaleState):
		return fmt.Errorf("%w: affiliation changed concurrently", ErrInvalidStateTransition)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}
