package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/riskibarqy/athlete-network/internal/domain/opportunity"
)

type OpportunityRepository struct {
	mu sync.RWMutex

	opportunities map[string]opportunity.Opportunity

	applications      map[string]opportunity.Application
	applicationOrders []string
	// liveByPair indexes the single non-withdrawn application per opportunity and applicant.
	liveByPair map[string]string
}

func NewOpportunityRepository() *OpportunityRepository {
	return &OpportunityRepository{
		opportunities: make(map[string]opportunity.Opportunity),
		applications:  make(map[string]opportunity.Application),
		liveByPair:    make(map[string]string),
	}
}

func (r *OpportunityRepository) Create(_ context.Context, o opportunity.Opportunity) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.opportunities[o.ID]; exists {
		return fmt.Errorf("opportunity %s already exists", o.ID)
	}
	o.ApplicationsCount = 0
	r.opportunities[o.ID] = o
	return nil
}

func (r *OpportunityRepository) GetByID(_ context.Context, opportunityID string) (opportunity.Opportunity, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	o, ok := r.opportunities[opportunityID]
	return o, ok, nil
}

func (r *OpportunityRepository) List(_ context.Context, filter opportunity.Filter) ([]opportunity.Opportunity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]opportunity.Opportunity, 0, len(r.opportunities))
	for _, o := range r.opportunities {
		if filter.Matches(o) {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r *OpportunityRepository) Deactivate(_ context.Context, opportunityID string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	o, ok := r.opportunities[opportunityID]
	if !ok {
		return opportunity.ErrOpportunityNotFound
	}
	o.IsActive = false
	o.UpdatedAt = at
	r.opportunities[opportunityID] = o
	return nil
}

func (r *OpportunityRepository) DeleteCascade(_ context.Context, opportunityID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.opportunities[opportunityID]; !ok {
		return opportunity.ErrOpportunityNotFound
	}
	delete(r.opportunities, opportunityID)

	kept := r.applicationOrders[:0]
	for _, id := range r.applicationOrders {
		app := r.applications[id]
		if app.OpportunityID != opportunityID {
			kept = append(kept, id)
			continue
		}
		delete(r.applications, id)
		delete(r.liveByPair, pairKey(app.OpportunityID, app.ApplicantID))
	}
	r.applicationOrders = kept
	return nil
}

func (r *OpportunityRepository) CreateApplication(_ context.Context, app opportunity.Application) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.opportunities[app.OpportunityID]; !ok {
		return opportunity.ErrOpportunityNotFound
	}
	key := pairKey(app.OpportunityID, app.ApplicantID)
	if _, ok := r.liveByPair[key]; ok {
		return opportunity.ErrDuplicateApplication
	}

	r.applications[app.ID] = cloneApplication(app)
	r.applicationOrders = append(r.applicationOrders, app.ID)
	if app.Status.Blocks() {
		r.liveByPair[key] = app.ID
	}
	return nil
}

func (r *OpportunityRepository) GetApplication(_ context.Context, applicationID string) (opportunity.Application, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	app, ok := r.applications[applicationID]
	if !ok {
		return opportunity.Application{}, false, nil
	}
	return cloneApplication(app), true, nil
}

func (r *OpportunityRepository) UpdateApplication(_ context.Context, app opportunity.Application, expected opportunity.ApplicationStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.applications[app.ID]
	if !ok {
		return opportunity.ErrApplicationNotFound
	}
	if current.Status != expected {
		return opportunity.ErrStaleState
	}

	app.OpportunityID = current.OpportunityID
	app.ApplicantID = current.ApplicantID
	app.AgentID = current.AgentID
	app.AppliedAt = current.AppliedAt
	r.applications[app.ID] = cloneApplication(app)
	if !app.Status.Blocks() {
		delete(r.liveByPair, pairKey(app.OpportunityID, app.ApplicantID))
	}
	return nil
}

func (r *OpportunityRepository) ListApplicationsByOpportunity(_ context.Context, opportunityID string) ([]opportunity.Application, error) {
	return r.listApplications(func(app opportunity.Application) bool { return app.OpportunityID == opportunityID }), nil
}

func (r *OpportunityRepository) ListApplicationsByApplicant(_ context.Context, applicantID string) ([]opportunity.Application, error) {
	return r.listApplications(func(app opportunity.Application) bool { return app.ApplicantID == applicantID }), nil
}

func (r *OpportunityRepository) ListApplicationsByAgent(_ context.Context, agentID string) ([]opportunity.Application, error) {
	return r.listApplications(func(app opportunity.Application) bool { return app.AgentID != "" && app.AgentID == agentID }), nil
}

func (r *OpportunityRepository) CountApplications(_ context.Context, opportunityID string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	count := 0
	for _, app := range r.applications {
		if app.OpportunityID == opportunityID {
			count++
		}
	}
	return count, nil
}

func (r *OpportunityRepository) listApplications(match func(opportunity.Application) bool) []opportunity.Application {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]opportunity.Application, 0)
	for i := len(r.applicationOrders) - 1; i >= 0; i-- {
		app := r.applications[r.applicationOrders[i]]
		if match(app) {
			out = append(out, cloneApplication(app))
		}
	}
	return out
}

func cloneApplication(app opportunity.Application) opportunity.Application {
	copied := app
	if app.ReviewedAt != nil {
		v := *app.ReviewedAt
		copied.ReviewedAt = &v
	}
	if app.WithdrawnAt != nil {
		v := *app.WithdrawnAt
		copied.WithdrawnAt = &v
	}
	return copied
}
