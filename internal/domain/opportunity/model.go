package opportunity

import (
	"strings"
	"time"
)

type Type string

const (
	TypeTrial      Type = "trial"
	TypeContract   Type = "contract"
	TypeTournament Type = "tournament"
	TypeCamp       Type = "camp"
	TypeCoaching   Type = "coaching"
	TypeScouting   Type = "scouting"
	TypeOther      Type = "other"
)

func ParseType(raw string) (Type, bool) {
	t := Type(strings.ToLower(strings.TrimSpace(raw)))
	switch t {
	case TypeTrial, TypeContract, TypeTournament, TypeCamp, TypeCoaching, TypeScouting, TypeOther:
		return t, true
	default:
		return "", false
	}
}

type Opportunity struct {
	ID                string
	ClubID            string
	Title             string
	Type              Type
	Sport             string
	RoleRequired      string
	Level             string
	City              string
	Country           string
	Description       string
	ExpiryDate        time.Time
	CreatedBy         string
	IsActive          bool
	ApplicationsCount int
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// IsOpen reports whether the opportunity is visible and accepts applications at now.
func (o Opportunity) IsOpen(now time.Time) bool {
	return o.IsActive && now.Before(o.ExpiryDate)
}

type Filter struct {
	ClubID       string
	Sport        string
	Type         Type
	Level        string
	City         string
	Country      string
	RoleRequired string
	Search       string
	// ActiveAt restricts results to opportunities open at this instant. Zero disables the check.
	ActiveAt time.Time
}

func (f Filter) Matches(o Opportunity) bool {
	if !f.ActiveAt.IsZero() && !o.IsOpen(f.ActiveAt) {
		return false
	}
	if f.ClubID != "" && o.ClubID != f.ClubID {
		return false
	}
	if f.Type != "" && o.Type != f.Type {
		return false
	}
	if !equalFoldOrEmpty(f.Sport, o.Sport) ||
		!equalFoldOrEmpty(f.Level, o.Level) ||
		!equalFoldOrEmpty(f.City, o.City) ||
		!equalFoldOrEmpty(f.Country, o.Country) ||
		!equalFoldOrEmpty(f.RoleRequired, o.RoleRequired) {
		return false
	}
	if f.Search != "" {
		needle := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(o.Title), needle) && !strings.Contains(strings.ToLower(o.Description), needle) {
			return false
		}
	}
	return true
}

func equalFoldOrEmpty(want, got string) bool {
	return want == "" || strings.EqualFold(want, got)
}

type ApplicationStatus string

const (
	ApplicationPending   ApplicationStatus = "pending"
	ApplicationAccepted  ApplicationStatus = "accepted"
	ApplicationRejected  ApplicationStatus = "rejected"
	ApplicationWithdrawn ApplicationStatus = "withdrawn"
)

var applicationTransitions = map[ApplicationStatus][]ApplicationStatus{
	ApplicationPending:  {ApplicationAccepted, ApplicationRejected, ApplicationWithdrawn},
	ApplicationAccepted: {ApplicationWithdrawn},
}

// CanTransition reports whether an application may move from one status to another.
func (s ApplicationStatus) CanTransition(to ApplicationStatus) bool {
	for _, next := range applicationTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// Blocks reports whether an application in this status prevents a new application for the
// same opportunity and applicant.
func (s ApplicationStatus) Blocks() bool {
	return s != ApplicationWithdrawn
}

type Application struct {
	ID            string
	OpportunityID string
	ApplicantID   string
	AgentID       string
	Status        ApplicationStatus
	Message       string
	AppliedAt     time.Time
	ReviewedBy    string
	ReviewedAt    *time.Time
	WithdrawnAt   *time.Time
	UpdatedAt     time.Time
}

func (a Application) ViaAgent() bool {
	return a.AgentID != ""
}
