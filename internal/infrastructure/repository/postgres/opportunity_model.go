package postgres

import (
	"database/sql"
	"time"
)

const uqOpportunityApplicationsLive = "uq_opportunity_applications_live"

type opportunityTableModel struct {
	ID           int64     `db:"id"`
	PublicID     string    `db:"public_id"`
	ClubID       string    `db:"club_public_id"`
	Title        string    `db:"title"`
	Type         string    `db:"type"`
	Sport        string    `db:"sport"`
	RoleRequired string    `db:"role_required"`
	Level        string    `db:"level"`
	City         string    `db:"city"`
	Country      string    `db:"country"`
	Description  string    `db:"description"`
	ExpiryDate   time.Time `db:"expiry_date"`
	CreatedBy    string    `db:"created_by"`
	IsActive     bool      `db:"is_active"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

type opportunityInsertModel struct {
	PublicID     string    `db:"public_id"`
	ClubID       string    `db:"club_public_id"`
	Title        string    `db:"title"`
	Type         string    `db:"type"`
	Sport        string    `db:"sport"`
	RoleRequired string    `db:"role_required"`
	Level        string    `db:"level"`
	City         string    `db:"city"`
	Country      string    `db:"country"`
	Description  string    `db:"description"`
	ExpiryDate   time.Time `db:"expiry_date"`
	CreatedBy    string    `db:"created_by"`
	IsActive     bool      `db:"is_active"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

type applicationTableModel struct {
	ID            int64          `db:"id"`
	PublicID      string         `db:"public_id"`
	OpportunityID string         `db:"opportunity_public_id"`
	ApplicantID   string         `db:"applicant_id"`
	AgentID       sql.NullString `db:"agent_id"`
	Status        string         `db:"status"`
	Message       string         `db:"message"`
	AppliedAt     time.Time      `db:"applied_at"`
	ReviewedBy    sql.NullString `db:"reviewed_by"`
	ReviewedAt    sql.NullTime   `db:"reviewed_at"`
	WithdrawnAt   sql.NullTime   `db:"withdrawn_at"`
	UpdatedAt     time.Time      `db:"updated_at"`
}

type applicationInsertModel struct {
	PublicID      string    `db:"public_id"`
	OpportunityID string    `db:"opportunity_public_id"`
	ApplicantID   string    `db:"applicant_id"`
	AgentID       *string   `db:"agent_id"`
	Status        string    `db:"status"`
	Message       string    `db:"message"`
	AppliedAt     time.Time `db:"applied_at"`
	UpdatedAt     time.Time `db:"updated_at"`
}
