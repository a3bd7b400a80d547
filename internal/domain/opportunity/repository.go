package opportunity

import (
	"context"
	"errors"
	"time"
)

var (
	ErrOpportunityNotFound  = errors.New("opportunity not found")
	ErrApplicationNotFound  = errors.New("application not found")
	ErrDuplicateApplication = errors.New("non-withdrawn application already exists")
	// ErrStaleState is returned when a compare-and-set update finds a status other than expected.
	ErrStaleState = errors.New("application status changed concurrently")
)

type Repository interface {
	Create(ctx context.Context, o Opportunity) error
	GetByID(ctx context.Context, opportunityID string) (Opportunity, bool, error)
	List(ctx context.Context, filter Filter) ([]Opportunity, error)
	Deactivate(ctx context.Context, opportunityID string, at time.Time) error
	// DeleteCascade removes the opportunity and all of its applications atomically.
	DeleteCascade(ctx context.Context, opportunityID string) error

	CreateApplication(ctx context.Context, app Application) error
	GetApplication(ctx context.Context, applicationID string) (Application, bool, error)
	// UpdateApplication persists app only when the stored status still equals expected.
	UpdateApplication(ctx context.Context, app Application, expected ApplicationStatus) error
	ListApplicationsByOpportunity(ctx context.Context, opportunityID string) ([]Application, error)
	ListApplicationsByApplicant(ctx context.Context, applicantID string) ([]Application, error)
	ListApplicationsByAgent(ctx context.Context, agentID string) ([]Application, error)
	CountApplications(ctx context.Context, opportunityID string) (int, error)
}
