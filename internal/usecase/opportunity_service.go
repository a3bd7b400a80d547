package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/riskibarqy/athlete-network/internal/domain/club"
	"github.com/riskibarqy/athlete-network/internal/domain/opportunity"
	idgen "github.com/riskibarqy/athlete-network/internal/platform/id"
	"github.com/riskibarqy/athlete-network/internal/platform/logging"
	"github.com/sourcegraph/conc/iter"
)

const countApplicationsConcurrency = 8

type CreateOpportunityInput struct {
	ClubID       string
	CreatedBy    string
	Title        string
	Type         string
	Sport        string
	RoleRequired string
	Level        string
	City         string
	Country      string
	Description  string
	ExpiryDate   time.Time
}

type OpportunityService struct {
	clubRepo        club.Repository
	opportunityRepo opportunity.Repository
	idGen           idgen.Generator
	logger          *logging.Logger
	now             func() time.Time
}

func NewOpportunityService(
	clubRepo club.Repository,
	opportunityRepo opportunity.Repository,
	idGen idgen.Generator,
	logger *logging.Logger,
) *OpportunityService {
	if logger == nil {
		logger = logging.Default()
	}
	return &OpportunityService{
		clubRepo:        clubRepo,
		opportunityRepo: opportunityRepo,
		idGen:           idGen,
		logger:          logger,
		now:             time.Now,
	}
}

func (s *OpportunityService) Create(ctx context.Context, input CreateOpportunityInput) (opportunity.Opportunity, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.OpportunityService.Create")
	defer span.End()

	input.ClubID = strings.TrimSpace(input.ClubID)
	input.CreatedBy = strings.TrimSpace(input.CreatedBy)
	input.Title = strings.TrimSpace(input.Title)
	input.Sport = strings.TrimSpace(input.Sport)
	input.RoleRequired = strings.ToLower(strings.TrimSpace(input.RoleRequired))
	if input.ClubID == "" || input.CreatedBy == "" {
		return opportunity.Opportunity{}, fmt.Errorf("%w: club id and creator id are required", ErrInvalidInput)
	}
	if input.Title == "" {
		return opportunity.Opportunity{}, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	if input.Sport == "" {
		return opportunity.Opportunity{}, fmt.Errorf("%w: sport is required", ErrInvalidInput)
	}
	if input.RoleRequired == "" {
		return opportunity.Opportunity{}, fmt.Errorf("%w: required role is required", ErrInvalidInput)
	}
	oppType, ok := opportunity.ParseType(input.Type)
	if !ok {
		return opportunity.Opportunity{}, fmt.Errorf("%w: unsupported opportunity type %q", ErrInvalidInput, input.Type)
	}

	now := s.now().UTC()
	if !input.ExpiryDate.After(now) {
		return opportunity.Opportunity{}, ErrInvalidExpiry
	}

	if _, err := loadClub(ctx, s.clubRepo, input.ClubID); err != nil {
		return opportunity.Opportunity{}, err
	}
	if _, err := requireOpportunityManager(ctx, s.clubRepo, input.ClubID, input.CreatedBy); err != nil {
		return opportunity.Opportunity{}, err
	}

	opportunityID, err := s.idGen.NewID()
	if err != nil {
		return opportunity.Opportunity{}, fmt.Errorf("generate opportunity id: %w", err)
	}
	o := opportunity.Opportunity{
		ID:           opportunityID,
		ClubID:       input.ClubID,
		Title:        input.Title,
		Type:         oppType,
		Sport:        input.Sport,
		RoleRequired: input.RoleRequired,
		Level:        strings.TrimSpace(input.Level),
		City:         strings.TrimSpace(input.City),
		Country:      strings.TrimSpace(input.Country),
		Description:  strings.TrimSpace(input.Description),
		ExpiryDate:   input.ExpiryDate.UTC(),
		CreatedBy:    input.CreatedBy,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.opportunityRepo.Create(ctx, o); err != nil {
		return opportunity.Opportunity{}, fmt.Errorf("create opportunity: %w", err)
	}

	s.logger.InfoContext(ctx, "opportunity created", "opportunity_id", o.ID, "club_id", o.ClubID, "expiry_date", o.ExpiryDate)
	return o, nil
}

func (s *OpportunityService) Get(ctx context.Context, opportunityID string) (opportunity.Opportunity, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.OpportunityService.Get")
	defer span.End()

	o, err := s.load(ctx, opportunityID)
	if err != nil {
		return opportunity.Opportunity{}, err
	}
	count, err := s.opportunityRepo.CountApplications(ctx, o.ID)
	if err != nil {
		return opportunity.Opportunity{}, fmt.Errorf("count applications: %w", err)
	}
	o.ApplicationsCount = count
	return o, nil
}

// ListActive returns opportunities that are active and unexpired at call time.
func (s *OpportunityService) ListActive(ctx context.Context, filter opportunity.Filter) ([]opportunity.Opportunity, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.OpportunityService.ListActive")
	defer span.End()

	filter.ClubID = strings.TrimSpace(filter.ClubID)
	filter.Sport = strings.TrimSpace(filter.Sport)
	filter.Level = strings.TrimSpace(filter.Level)
	filter.City = strings.TrimSpace(filter.City)
	filter.Country = strings.TrimSpace(filter.Country)
	filter.RoleRequired = strings.TrimSpace(filter.RoleRequired)
	filter.Search = strings.TrimSpace(filter.Search)
	filter.ActiveAt = s.now().UTC()

	items, err := s.opportunityRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list opportunities: %w", err)
	}

	// Stores may return rows that expired between query and read.
	open := items[:0]
	for _, o := range items {
		if o.IsOpen(filter.ActiveAt) {
			open = append(open, o)
		}
	}

	counter := iter.Mapper[opportunity.Opportunity, int]{MaxGoroutines: countApplicationsConcurrency}
	counts, err := counter.MapErr(open, func(o *opportunity.Opportunity) (int, error) {
		return s.opportunityRepo.CountApplications(ctx, o.ID)
	})
	if err != nil {
		return nil, fmt.Errorf("count applications: %w", err)
	}
	for i := range open {
		open[i].ApplicationsCount = counts[i]
	}
	return open, nil
}

func (s *OpportunityService) Deactivate(ctx context.Context, opportunityID, actorID string) (opportunity.Opportunity, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.OpportunityService.Deactivate")
	defer span.End()

	o, err := s.loadManaged(ctx, opportunityID, actorID)
	if err != nil {
		return opportunity.Opportunity{}, err
	}
	if !o.IsActive {
		return o, nil
	}

	now := s.now().UTC()
	if err := s.opportunityRepo.Deactivate(ctx, o.ID, now); err != nil {
		if errors.Is(err, opportunity.ErrOpportunityNotFound) {
			return opportunity.Opportunity{}, fmt.Errorf("%w: opportunity not found", ErrNotFound)
		}
		return opportunity.Opportunity{}, fmt.Errorf("deactivate opportunity: %w", err)
	}
	o.IsActive = false
	o.UpdatedAt = now

	s.logger.InfoContext(ctx, "opportunity deactivated", "opportunity_id", o.ID, "actor_id", actorID)
	return o, nil
}

// Delete removes the opportunity together with all of its applications.
func (s *OpportunityService) Delete(ctx context.Context, opportunityID, actorID string) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.OpportunityService.Delete")
	defer span.End()

	o, err := s.loadManaged(ctx, opportunityID, actorID)
	if err != nil {
		return err
	}
	if err := s.opportunityRepo.DeleteCascade(ctx, o.ID); err != nil {
		if errors.Is(err, opportunity.ErrOpportunityNotFound) {
			return fmt.Errorf("%w: opportunity not found", ErrNotFound)
		}
		return fmt.Errorf("delete opportunity: %w", err)
	}

	s.logger.InfoContext(ctx, "opportunity deleted", "opportunity_id", o.ID, "actor_id", actorID)
	return nil
}

func (s *OpportunityService) load(ctx context.Context, opportunityID string) (opportunity.Opportunity, error) {
	opportunityID = strings.TrimSpace(opportunityID)
	if opportunityID == "" {
		return opportunity.Opportunity{}, fmt.Errorf("%w: opportunity id is required", ErrInvalidInput)
	}
	o, exists, err := s.opportunityRepo.GetByID(ctx, opportunityID)
	if err != nil {
		return opportunity.Opportunity{}, fmt.Errorf("get opportunity: %w", err)
	}
	if !exists {
		return opportunity.Opportunity{}, fmt.Errorf("%w: opportunity not found", ErrNotFound)
	}
	return o, nil
}

func (s *OpportunityService) loadManaged(ctx context.Context, opportunityID, actorID string) (opportunity.Opportunity, error) {
	actorID = strings.TrimSpace(actorID)
	if actorID == "" {
		return opportunity.Opportunity{}, fmt.Errorf("%w: actor id is required", ErrInvalidInput)
	}
	o, err := s.load(ctx, opportunityID)
	if err != nil {
		return opportunity.Opportunity{}, err
	}
	if _, err := requireOpportunityManager(ctx, s.clubRepo, o.ClubID, actorID); err != nil {
		return opportunity.Opportunity{}, err
	}
	return o, nil
}
