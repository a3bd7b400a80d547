package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/riskibarqy/athlete-network/internal/domain/club"
	"github.com/riskibarqy/athlete-network/internal/domain/notification"
	"github.com/riskibarqy/athlete-network/internal/domain/opportunity"
	"github.com/riskibarqy/athlete-network/internal/domain/user"
	idgen "github.com/riskibarqy/athlete-network/internal/platform/id"
	"github.com/riskibarqy/athlete-network/internal/platform/logging"
	"github.com/riskibarqy/athlete-network/internal/platform/resilience"
)

const maxApplicationMessageLength = 2000

type ApplyInput struct {
	OpportunityID string
	ApplicantID   string
	// AgentID is set when an agent applies on behalf of the applicant.
	AgentID string
	Message string
}

type DecideApplicationInput struct {
	ApplicationID string
	ReviewedBy    string
	Decision      string
}

type representationChecker interface {
	CanRepresent(ctx context.Context, agentID, playerID string) (bool, error)
}

type ApplicationService struct {
	clubRepo        club.Repository
	opportunityRepo opportunity.Repository
	representation  representationChecker
	directory       user.Directory
	idGen           idgen.Generator
	locks           *resilience.KeyedMutex
	logger          *logging.Logger
	notifier        notifier
	now             func() time.Time
}

func NewApplicationService(
	clubRepo club.Repository,
	opportunityRepo opportunity.Repository,
	representation representationChecker,
	directory user.Directory,
	idGen idgen.Generator,
	locks *resilience.KeyedMutex,
	publisher notification.Publisher,
	logger *logging.Logger,
) *ApplicationService {
	if locks == nil {
		locks = &resilience.KeyedMutex{}
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &ApplicationService{
		clubRepo:        clubRepo,
		opportunityRepo: opportunityRepo,
		representation:  representation,
		directory:       directory,
		idGen:           idGen,
		locks:           locks,
		logger:          logger,
		notifier:        notifier{publisher: publisher, logger: logger},
		now:             time.Now,
	}
}

// Apply submits a pending application. With an agent, the agent must hold an accepted
// affiliation with the applicant and the opportunity must require a player.
func (s *ApplicationService) Apply(ctx context.Context, input ApplyInput) (opportunity.Application, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ApplicationService.Apply")
	defer span.End()

	input.OpportunityID = strings.TrimSpace(input.OpportunityID)
	input.ApplicantID = strings.TrimSpace(input.ApplicantID)
	input.AgentID = strings.TrimSpace(input.AgentID)
	input.Message = strings.TrimSpace(input.Message)
	if input.OpportunityID == "" || input.ApplicantID == "" {
		return opportunity.Application{}, fmt.Errorf("%w: opportunity id and applicant id are required", ErrInvalidInput)
	}
	if input.AgentID == input.ApplicantID {
		input.AgentID = ""
	}
	if len(input.Message) > maxApplicationMessageLength {
		return opportunity.Application{}, fmt.Errorf("%w: message exceeds %d characters", ErrInvalidInput, maxApplicationMessageLength)
	}

	o, exists, err := s.opportunityRepo.GetByID(ctx, input.OpportunityID)
	if err != nil {
		return opportunity.Application{}, fmt.Errorf("get opportunity: %w", err)
	}
	if !exists {
		return opportunity.Application{}, fmt.Errorf("%w: opportunity not found", ErrNotFound)
	}
	now := s.now().UTC()
	if !o.IsOpen(now) {
		return opportunity.Application{}, ErrOpportunityClosed
	}

	if input.AgentID != "" {
		unlockPair := s.locks.Lock(pairLockKey(input.AgentID, input.ApplicantID))
		defer unlockPair()

		if err := s.checkAgentApplication(ctx, o, input.AgentID, input.ApplicantID); err != nil {
			s.logger.WarnContext(ctx, "agent application refused",
				"opportunity_id", o.ID,
				"agent_id", input.AgentID,
				"applicant_id", input.ApplicantID,
				"error", err,
			)
			return opportunity.Application{}, err
		}
	} else if err := s.checkDirectApplication(ctx, o, input.ApplicantID); err != nil {
		return opportunity.Application{}, err
	}

	unlock := s.locks.Lock(applicationLockKey(o.ID, input.ApplicantID))
	defer unlock()

	applicationID, err := s.idGen.NewID()
	if err != nil {
		return opportunity.Application{}, fmt.Errorf("generate application id: %w", err)
	}
	app := opportunity.Application{
		ID:            applicationID,
		OpportunityID: o.ID,
		ApplicantID:   input.ApplicantID,
		AgentID:       input.AgentID,
		Status:        opportunity.ApplicationPending,
		Message:       input.Message,
		AppliedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.opportunityRepo.CreateApplication(ctx, app); err != nil {
		return opportunity.Application{}, translateOpportunityStoreError("create application", err)
	}

	s.logger.InfoContext(ctx, "application submitted",
		"application_id", app.ID,
		"opportunity_id", app.OpportunityID,
		"applicant_id", app.ApplicantID,
		"via_agent", app.ViaAgent(),
	)
	s.notifier.publish(ctx, notification.Event{
		Type:       notification.EventApplicationSubmitted,
		ActorID:    firstNonEmpty(app.AgentID, app.ApplicantID),
		Recipients: s.reviewerIDs(ctx, o.ClubID),
		SubjectID:  app.ID,
		Data:       map[string]string{"opportunity_id": o.ID, "opportunity_title": o.Title},
		OccurredAt: now,
	})
	return app, nil
}

// Withdraw moves a pending or accepted application to withdrawn. Only the applicant or the
// agent recorded on the application may withdraw it, and the agent only while it still
// represents the applicant.
func (s *ApplicationService) Withdraw(ctx context.Context, applicationID, requestedBy string) (opportunity.Application, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ApplicationService.Withdraw")
	defer span.End()

	requestedBy = strings.TrimSpace(requestedBy)
	app, err := s.loadApplication(ctx, applicationID, requestedBy)
	if err != nil {
		return opportunity.Application{}, err
	}
	if requestedBy != app.ApplicantID {
		if app.AgentID == "" || requestedBy != app.AgentID {
			return opportunity.Application{}, fmt.Errorf("%w: only the applicant or their agent can withdraw", ErrForbidden)
		}

		unlockPair := s.locks.Lock(pairLockKey(app.AgentID, app.ApplicantID))
		defer unlockPair()

		ok, err := s.representation.CanRepresent(ctx, app.AgentID, app.ApplicantID)
		if err != nil {
			return opportunity.Application{}, fmt.Errorf("check representation: %w", err)
		}
		if !ok {
			s.logger.WarnContext(ctx, "agent withdrawal refused", "application_id", app.ID, "agent_id", app.AgentID, "applicant_id", app.ApplicantID)
			return opportunity.Application{}, ErrNotAuthorizedToRepresent
		}
	}

	unlock := s.locks.Lock(applicationLockKey(app.OpportunityID, app.ApplicantID))
	defer unlock()

	now := s.now().UTC()
	updated, err := s.transition(ctx, app, opportunity.ApplicationWithdrawn, func(next *opportunity.Application) {
		next.WithdrawnAt = &now
		next.UpdatedAt = now
	})
	if err != nil {
		return opportunity.Application{}, err
	}

	s.logger.InfoContext(ctx, "application withdrawn", "application_id", app.ID, "requested_by", requestedBy)
	if o, exists, err := s.opportunityRepo.GetByID(ctx, app.OpportunityID); err == nil && exists {
		s.notifier.publish(ctx, notification.Event{
			Type:       notification.EventApplicationWithdrawn,
			ActorID:    requestedBy,
			Recipients: s.reviewerIDs(ctx, o.ClubID),
			SubjectID:  app.ID,
			Data:       map[string]string{"opportunity_id": o.ID},
			OccurredAt: now,
		})
	}
	return updated, nil
}

// Decide accepts or rejects a pending application on behalf of the opportunity's club.
func (s *ApplicationService) Decide(ctx context.Context, input DecideApplicationInput) (opportunity.Application, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ApplicationService.Decide")
	defer span.End()

	input.ReviewedBy = strings.TrimSpace(input.ReviewedBy)
	var to opportunity.ApplicationStatus
	switch strings.ToLower(strings.TrimSpace(input.Decision)) {
	case "accept", "accepted":
		to = opportunity.ApplicationAccepted
	case "reject", "rejected":
		to = opportunity.ApplicationRejected
	default:
		return opportunity.Application{}, fmt.Errorf("%w: decision must be accept or reject", ErrInvalidInput)
	}

	app, err := s.loadApplication(ctx, input.ApplicationID, input.ReviewedBy)
	if err != nil {
		return opportunity.Application{}, err
	}
	o, exists, err := s.opportunityRepo.GetByID(ctx, app.OpportunityID)
	if err != nil {
		return opportunity.Application{}, fmt.Errorf("get opportunity: %w", err)
	}
	if !exists {
		return opportunity.Application{}, fmt.Errorf("%w: opportunity not found", ErrNotFound)
	}
	if _, err := requireOpportunityManager(ctx, s.clubRepo, o.ClubID, input.ReviewedBy); err != nil {
		return opportunity.Application{}, err
	}

	unlock := s.locks.Lock(applicationLockKey(app.OpportunityID, app.ApplicantID))
	defer unlock()

	now := s.now().UTC()
	updated, err := s.transition(ctx, app, to, func(next *opportunity.Application) {
		next.ReviewedBy = input.ReviewedBy
		next.ReviewedAt = &now
		next.UpdatedAt = now
	})
	if err != nil {
		return opportunity.Application{}, err
	}

	s.logger.InfoContext(ctx, "application decided", "application_id", app.ID, "status", string(to), "reviewed_by", input.ReviewedBy)
	recipients := []string{app.ApplicantID}
	if app.AgentID != "" {
		recipients = append(recipients, app.AgentID)
	}
	s.notifier.publish(ctx, notification.Event{
		Type:       notification.EventApplicationDecided,
		ActorID:    input.ReviewedBy,
		Recipients: recipients,
		SubjectID:  app.ID,
		Data:       map[string]string{"opportunity_id": o.ID, "opportunity_title": o.Title, "status": string(to)},
		OccurredAt: now,
	})
	return updated, nil
}

func (s *ApplicationService) ListByOpportunity(ctx context.Context, opportunityID, actorID string) ([]opportunity.Application, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ApplicationService.ListByOpportunity")
	defer span.End()

	opportunityID = strings.TrimSpace(opportunityID)
	actorID = strings.TrimSpace(actorID)
	if opportunityID == "" || actorID == "" {
		return nil, fmt.Errorf("%w: opportunity id and actor id are required", ErrInvalidInput)
	}
	o, exists, err := s.opportunityRepo.GetByID(ctx, opportunityID)
	if err != nil {
		return nil, fmt.Errorf("get opportunity: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: opportunity not found", ErrNotFound)
	}
	if _, err := requireOpportunityManager(ctx, s.clubRepo, o.ClubID, actorID); err != nil {
		return nil, err
	}

	items, err := s.opportunityRepo.ListApplicationsByOpportunity(ctx, opportunityID)
	if err != nil {
		return nil, fmt.Errorf("list applications by opportunity: %w", err)
	}
	return items, nil
}

func (s *ApplicationService) ListByApplicant(ctx context.Context, applicantID string) ([]opportunity.Application, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ApplicationService.ListByApplicant")
	defer span.End()

	applicantID = strings.TrimSpace(applicantID)
	if applicantID == "" {
		return nil, fmt.Errorf("%w: applicant id is required", ErrInvalidInput)
	}
	items, err := s.opportunityRepo.ListApplicationsByApplicant(ctx, applicantID)
	if err != nil {
		return nil, fmt.Errorf("list applications by applicant: %w", err)
	}
	return items, nil
}

func (s *ApplicationService) ListByAgent(ctx context.Context, agentID string) ([]opportunity.Application, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ApplicationService.ListByAgent")
	defer span.End()

	agentID = strings.TrimSpace(agentID)
	if agentID == "" {
		return nil, fmt.Errorf("%w: agent id is required", ErrInvalidInput)
	}
	items, err := s.opportunityRepo.ListApplicationsByAgent(ctx, agentID)
	if err != nil {
		return nil, fmt.Errorf("list applications by agent: %w", err)
	}
	return items, nil
}

func (s *ApplicationService) checkAgentApplication(ctx context.Context, o opportunity.Opportunity, agentID, playerID string) error {
	agent, exists, err := s.directory.GetProfile(ctx, agentID)
	if err != nil {
		return fmt.Errorf("%w: resolve agent profile: %w", ErrDependencyUnavailable, err)
	}
	if !exists || agent.Role != user.RoleAgent {
		return fmt.Errorf("%w: only agents can apply on behalf of a player", ErrNotAuthorizedToRepresent)
	}
	if !strings.EqualFold(o.RoleRequired, string(user.RolePlayer)) {
		return fmt.Errorf("%w: agents can only apply to opportunities for players", ErrRoleMismatch)
	}

	ok, err := s.representation.CanRepresent(ctx, agentID, playerID)
	if err != nil {
		return fmt.Errorf("check representation: %w", err)
	}
	if !ok {
		return ErrNotAuthorizedToRepresent
	}
	return nil
}

func (s *ApplicationService) checkDirectApplication(ctx context.Context, o opportunity.Opportunity, applicantID string) error {
	profile, exists, err := s.directory.GetProfile(ctx, applicantID)
	if err != nil {
		return fmt.Errorf("%w: resolve applicant profile: %w", ErrDependencyUnavailable, err)
	}
	if !exists {
		return fmt.Errorf("%w: applicant profile not found", ErrNotFound)
	}
	if !strings.EqualFold(string(profile.Role), o.RoleRequired) {
		return fmt.Errorf("%w: opportunity requires %s, applicant is %s", ErrRoleMismatch, o.RoleRequired, profile.Role)
	}
	return nil
}

func (s *ApplicationService) transition(
	ctx context.Context,
	app opportunity.Application,
	to opportunity.ApplicationStatus,
	stamp func(next *opportunity.Application),
) (opportunity.Application, error) {
	if !app.Status.CanTransition(to) {
		return opportunity.Application{}, fmt.Errorf("%w: application cannot move from %s to %s", ErrInvalidStateTransition, app.Status, to)
	}
	next := app
	next.Status = to
	stamp(&next)
	if err := s.opportunityRepo.UpdateApplication(ctx, next, app.Status); err != nil {
		return opportunity.Application{}, translateOpportunityStoreError("update application", err)
	}
	return next, nil
}

func (s *ApplicationService) loadApplication(ctx context.Context, applicationID, actorID string) (opportunity.Application, error) {
	applicationID = strings.TrimSpace(applicationID)
	if applicationID == "" || actorID == "" {
		return opportunity.Application{}, fmt.Errorf("%w: application id and actor id are required", ErrInvalidInput)
	}
	app, exists, err := s.opportunityRepo.GetApplication(ctx, applicationID)
	if err != nil {
		return opportunity.Application{}, fmt.Errorf("get application: %w", err)
	}
	if !exists {
		return opportunity.Application{}, fmt.Errorf("%w: application not found", ErrNotFound)
	}
	return app, nil
}

func (s *ApplicationService) reviewerIDs(ctx context.Context, clubID string) []string {
	members, err := s.clubRepo.ListActiveMemberships(ctx, clubID)
	if err != nil {
		s.logger.WarnContext(ctx, "list club reviewers for notification failed", "club_id", clubID, "error", err)
		return nil
	}
	out := make([]string, 0, len(members))
	for _, m := range members {
		if m.CanManageOpportunities() {
			out = append(out, m.UserID)
		}
	}
	return out
}

func translateOpportunityStoreError(op string, err error) error {
	switch {
	case errors.Is(err, opportunity.ErrDuplicateApplication):
		return ErrAlreadyApplied
	case errors.Is(err, opportunity.ErrOpportunityNotFound):
		return fmt.Errorf("%w: opportunity not found", ErrNotFound)
	case errors.Is(err, opportunity.ErrApplicationNotFound):
		return fmt.Errorf("%w: application not found", ErrNotFound)
	case errors.Is(err, opportunity.ErrStaleState):
		return fmt.Errorf("%w: application changed concurrently", ErrInvalidStateTransition)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}

func applicationLockKey(opportunityID, applicantID string) string {
	return "application::" + opportunityID + "::" + applicantID
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
