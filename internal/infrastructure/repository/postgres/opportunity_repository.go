package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/athlete-network/internal/domain/opportunity"
	qb "github.com/riskibarqy/athlete-network/internal/platform/querybuilder"
)

type OpportunityRepository struct {
	db *sqlx.DB
	tx txRunner
}

func NewOpportunityRepository(db *sqlx.DB, writeRetries int) *OpportunityRepository {
	return &OpportunityRepository{db: db, tx: newTxRunner(db, writeRetries)}
}

func (r *OpportunityRepository) Create(ctx context.Context, o opportunity.Opportunity) error {
	insertModel := opportunityInsertModel{
		PublicID:     o.ID,
		ClubID:       o.ClubID,
		Title:        o.Title,
		Type:         string(o.Type),
		Sport:        o.Sport,
		RoleRequired: o.RoleRequired,
		Level:        o.Level,
		City:         o.City,
		Country:      o.Country,
		Description:  o.Description,
		ExpiryDate:   o.ExpiryDate,
		CreatedBy:    o.CreatedBy,
		IsActive:     o.IsActive,
		CreatedAt:    o.CreatedAt,
		UpdatedAt:    o.UpdatedAt,
	}
	query, args, err := qb.InsertModel("opportunities", insertModel, "")
	if err != nil {
		return fmt.Errorf("build create opportunity query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("create opportunity: %w", err)
	}
	return nil
}

func (r *OpportunityRepository) GetByID(ctx context.Context, opportunityID string) (opportunity.Opportunity, bool, error) {
	query, args, err := qb.Select("*").
		From("opportunities").
		Where(qb.Eq("public_id", opportunityID)).
		Limit(1).
		ToSQL()
	if err != nil {
		return opportunity.Opportunity{}, false, fmt.Errorf("build get opportunity query: %w", err)
	}

	var row opportunityTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return opportunity.Opportunity{}, false, nil
		}
		return opportunity.Opportunity{}, false, fmt.Errorf("get opportunity: %w", err)
	}
	return opportunityFromRow(row), true, nil
}

func (r *OpportunityRepository) List(ctx context.Context, filter opportunity.Filter) ([]opportunity.Opportunity, error) {
	conditions := make([]qb.Condition, 0, 10)
	if !filter.ActiveAt.IsZero() {
		conditions = append(conditions, qb.Eq("is_active", true), qb.Gt("expiry_date", filter.ActiveAt))
	}
	if filter.ClubID != "" {
		conditions = append(conditions, qb.Eq("club_public_id", filter.ClubID))
	}
	if filter.Type != "" {
		conditions = append(conditions, qb.Eq("type", string(filter.Type)))
	}
	for _, field := range []struct{ column, value string }{
		{"sport", filter.Sport},
		{"level", filter.Level},
		{"city", filter.City},
		{"country", filter.Country},
		{"role_required", filter.RoleRequired},
	} {
		if value := strings.TrimSpace(field.value); value != "" {
			conditions = append(conditions, qb.EqFold(field.column, value))
		}
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		conditions = append(conditions, qb.ContainsFold(search, "title", "description"))
	}

	query, args, err := qb.Select("*").
		From("opportunities").
		Where(conditions...).
		OrderBy("created_at DESC", "public_id DESC").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list opportunities query: %w", err)
	}

	var rows []opportunityTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list opportunities: %w", err)
	}
	out := make([]opportunity.Opportunity, 0, len(rows))
	for _, row := range rows {
		out = append(out, opportunityFromRow(row))
	}
	return out, nil
}

func (r *OpportunityRepository) Deactivate(ctx context.Context, opportunityID string, at time.Time) error {
	query, args, err := qb.Update("opportunities").
		Set("is_active", false).
		Set("updated_at", at).
		Where(qb.Eq("public_id", opportunityID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build deactivate opportunity query: %w", err)
	}
	affected, err := execAffected(ctx, r.db, "deactivate opportunity", query, args...)
	if err != nil {
		return err
	}
	if affected == 0 {
		return opportunity.ErrOpportunityNotFound
	}
	return nil
}

func (r *OpportunityRepository) DeleteCascade(ctx context.Context, opportunityID string) error {
	return r.tx.inTx(ctx, "delete opportunity", func(tx *sqlx.Tx) error {
		applicationsQuery, applicationsArgs, err := qb.DeleteFrom("opportunity_applications").
			Where(qb.Eq("opportunity_public_id", opportunityID)).
			ToSQL()
		if err != nil {
			return fmt.Errorf("build delete applications query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, applicationsQuery, applicationsArgs...); err != nil {
			return fmt.Errorf("delete applications: %w", err)
		}

		query, args, err := qb.DeleteFrom("opportunities").
			Where(qb.Eq("public_id", opportunityID)).
			ToSQL()
		if err != nil {
			return fmt.Errorf("build delete opportunity query: %w", err)
		}
		affected, err := execAffected(ctx, tx, "delete opportunity", query, args...)
		if err != nil {
			return err
		}
		if affected == 0 {
			return opportunity.ErrOpportunityNotFound
		}
		return nil
	})
}

func (r *OpportunityRepository) CreateApplication(ctx context.Context, app opportunity.Application) error {
	return r.tx.inTx(ctx, "create application", func(tx *sqlx.Tx) error {
		// Share-lock the opportunity so a concurrent cascade delete cannot orphan the row.
		lockQuery, lockArgs, err := qb.Select("id").
			From("opportunities").
			Where(qb.Eq("public_id", app.OpportunityID)).
			Suffix("FOR SHARE").
			ToSQL()
		if err != nil {
			return fmt.Errorf("build lock opportunity query: %w", err)
		}
		var id int64
		if err := tx.GetContext(ctx, &id, lockQuery, lockArgs...); err != nil {
			if isNotFound(err) {
				return opportunity.ErrOpportunityNotFound
			}
			return fmt.Errorf("lock opportunity: %w", err)
		}

		insertModel := applicationInsertModel{
			PublicID:      app.ID,
			OpportunityID: app.OpportunityID,
			ApplicantID:   app.ApplicantID,
			AgentID:       optionalString(app.AgentID),
			Status:        string(app.Status),
			Message:       app.Message,
			AppliedAt:     app.AppliedAt,
			UpdatedAt:     app.UpdatedAt,
		}
		query, args, err := qb.InsertModel("opportunity_applications", insertModel, "")
		if err != nil {
			return fmt.Errorf("build create application query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			if isUniqueViolation(err, uqOpportunityApplicationsLive) {
				return opportunity.ErrDuplicateApplication
			}
			return fmt.Errorf("create application: %w", err)
		}
		return nil
	})
}

func (r *OpportunityRepository) GetApplication(ctx context.Context, applicationID string) (opportunity.Application, bool, error) {
	query, args, err := qb.Select("*").
		From("opportunity_applications").
		Where(qb.Eq("public_id", applicationID)).
		Limit(1).
		ToSQL()
	if err != nil {
		return opportunity.Application{}, false, fmt.Errorf("build get application query: %w", err)
	}

	var row applicationTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return opportunity.Application{}, false, nil
		}
		return opportunity.Application{}, false, fmt.Errorf("get application: %w", err)
	}
	return applicationFromRow(row), true, nil
}

func (r *OpportunityRepository) UpdateApplication(ctx context.Context, app opportunity.Application, expected opportunity.ApplicationStatus) error {
	return r.tx.inTx(ctx, "update application", func(tx *sqlx.Tx) error {
		query, args, err := qb.Update("opportunity_applications").
			Set("status", string(app.Status)).
			Set("reviewed_by", optionalString(app.ReviewedBy)).
			Set("reviewed_at", app.ReviewedAt).
			Set("withdrawn_at", app.WithdrawnAt).
			Set("updated_at", app.UpdatedAt).
			Where(
				qb.Eq("public_id", app.ID),
				qb.Eq("status", string(expected)),
			).
			ToSQL()
		if err != nil {
			return fmt.Errorf("build update application query: %w", err)
		}
		affected, err := execAffected(ctx, tx, "update application", query, args...)
		if err != nil {
			return err
		}
		if affected > 0 {
			return nil
		}

		_, exists, err := getApplicationStatus(ctx, tx, app.ID)
		if err != nil {
			return err
		}
		if !exists {
			return opportunity.ErrApplicationNotFound
		}
		return opportunity.ErrStaleState
	})
}

func (r *OpportunityRepository) ListApplicationsByOpportunity(ctx context.Context, opportunityID string) ([]opportunity.Application, error) {
	return r.listApplications(ctx, "list applications by opportunity", qb.Eq("opportunity_public_id", opportunityID))
}

func (r *OpportunityRepository) ListApplicationsByApplicant(ctx context.Context, applicantID string) ([]opportunity.Application, error) {
	return r.listApplications(ctx, "list applications by applicant", qb.Eq("applicant_id", applicantID))
}

func (r *OpportunityRepository) ListApplicationsByAgent(ctx context.Context, agentID string) ([]opportunity.Application, error) {
	return r.listApplications(ctx, "list applications by agent", qb.Eq("agent_id", agentID))
}

func (r *OpportunityRepository) CountApplications(ctx context.Context, opportunityID string) (int, error) {
	query, args, err := qb.Select("COUNT(*)").
		From("opportunity_applications").
		Where(qb.Eq("opportunity_public_id", opportunityID)).
		ToSQL()
	if err != nil {
		return 0, fmt.Errorf("build count applications query: %w", err)
	}

	var count int
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		return 0, fmt.Errorf("count applications: %w", err)
	}
	return count, nil
}

func (r *OpportunityRepository) listApplications(ctx context.Context, op string, scope qb.Condition) ([]opportunity.Application, error) {
	query, args, err := qb.Select("*").
		From("opportunity_applications").
		Where(scope).
		OrderBy("applied_at DESC", "id DESC").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build %s query: %w", op, err)
	}

	var rows []applicationTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	out := make([]opportunity.Application, 0, len(rows))
	for _, row := range rows {
		out = append(out, applicationFromRow(row))
	}
	return out, nil
}

func getApplicationStatus(ctx context.Context, q sqlx.QueryerContext, applicationID string) (opportunity.ApplicationStatus, bool, error) {
	query, args, err := qb.Select("status").
		From("opportunity_applications").
		Where(qb.Eq("public_id", applicationID)).
		Limit(1).
		ToSQL()
	if err != nil {
		return "", false, fmt.Errorf("build get application status query: %w", err)
	}

	var status string
	if err := sqlx.GetContext(ctx, q, &status, query, args...); err != nil {
		if isNotFound(err) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("get application status: %w", err)
	}
	return opportunity.ApplicationStatus(status), true, nil
}

func opportunityFromRow(row opportunityTableModel) opportunity.Opportunity {
	return opportunity.Opportunity{
		ID:           row.PublicID,
		ClubID:       row.ClubID,
		Title:        row.Title,
		Type:         opportunity.Type(row.Type),
		Sport:        row.Sport,
		RoleRequired: row.RoleRequired,
		Level:        row.Level,
		City:         row.City,
		Country:      row.Country,
		Description:  row.Description,
		ExpiryDate:   row.ExpiryDate.UTC(),
		CreatedBy:    row.CreatedBy,
		IsActive:     row.IsActive,
		CreatedAt:    row.CreatedAt.UTC(),
		UpdatedAt:    row.UpdatedAt.UTC(),
	}
}

func applicationFromRow(row applicationTableModel) opportunity.Application {
	return opportunity.Application{
		ID:            row.PublicID,
		OpportunityID: row.OpportunityID,
		ApplicantID:   row.ApplicantID,
		AgentID:       row.AgentID.String,
		Status:        opportunity.ApplicationStatus(row.Status),
		Message:       row.Message,
		AppliedAt:     row.AppliedAt.UTC(),
		ReviewedBy:    row.ReviewedBy.String,
		ReviewedAt:    nullTimePtr(row.ReviewedAt),
		WithdrawnAt:   nullTimePtr(row.WithdrawnAt),
		UpdatedAt:     row.UpdatedAt.UTC(),
	}
}
