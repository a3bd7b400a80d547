package httpapi

import (
	"time"

	"github.com/riskibarqy/athlete-network/internal/domain/affiliation"
	"github.com/riskibarqy/athlete-network/internal/domain/club"
	"github.com/riskibarqy/athlete-network/internal/domain/opportunity"
)

type createClubRequest struct {
	Name        string   `json:"name" validate:"required,max=120"`
	Description string   `json:"description" validate:"omitempty,max=2000"`
	Sports      []string `json:"sports" validate:"omitempty,max=10,dive,required,max=50"`
	City        string   `json:"city" validate:"omitempty,max=100"`
	Country     string   `json:"country" validate:"omitempty,max=100"`
}

type updateClubRequest = createClubRequest

type addMemberRequest struct {
	UserID      string   `json:"user_id" validate:"required"`
	Role        string   `json:"role" validate:"required,max=20"`
	Permissions []string `json:"permissions" validate:"omitempty,dive,required"`
}

type updateMemberRoleRequest struct {
	Role string `json:"role" validate:"required,max=20"`
}

type createJoinRequestRequest struct {
	RequestedRole string `json:"requested_role" validate:"omitempty,max=20"`
	Message       string `json:"message" validate:"omitempty,max=1000"`
}

type createOpportunityRequest struct {
	Title        string    `json:"title" validate:"required,max=200"`
	Type         string    `json:"type" validate:"required"`
	Sport        string    `json:"sport" validate:"required,max=50"`
	RoleRequired string    `json:"role_required" validate:"required,max=20"`
	Level        string    `json:"level" validate:"omitempty,max=50"`
	City         string    `json:"city" validate:"omitempty,max=100"`
	Country      string    `json:"country" validate:"omitempty,max=100"`
	Description  string    `json:"description" validate:"omitempty,max=5000"`
	ExpiryDate   time.Time `json:"expiry_date"`
}

type applyRequest struct {
	// PlayerID is set when an agent applies on behalf of a represented player.
	PlayerID string `json:"player_id"`
	Message  string `json:"message" validate:"omitempty,max=2000"`
}

type decideApplicationRequest struct {
	Decision string `json:"decision" validate:"required,max=20"`
}

type requestAffiliationRequest struct {
	PlayerID string `json:"player_id" validate:"required"`
	Message  string `json:"message" validate:"omitempty,max=1000"`
}

type blockAgentRequest struct {
	AgentID string `json:"agent_id" validate:"required"`
	Reason  string `json:"reason" validate:"omitempty,max=500"`
}

type clubDTO struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Description    string    `json:"description"`
	Sports         []string  `json:"sports"`
	City           string    `json:"city"`
	Country        string    `json:"country"`
	CreatedBy      string    `json:"created_by"`
	FollowersCount int       `json:"followers_count"`
	MembersCount   int       `json:"members_count"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type membershipDTO struct {
	ID          string     `json:"id"`
	ClubID      string     `json:"club_id"`
	UserID      string     `json:"user_id"`
	Role        string     `json:"role"`
	Permissions []string   `json:"permissions"`
	IsActive    bool       `json:"is_active"`
	IsAdmin     bool       `json:"is_admin"`
	JoinedAt    time.Time  `json:"joined_at"`
	LeftAt      *time.Time `json:"left_at,omitempty"`
}

type joinRequestDTO struct {
	ID            string     `json:"id"`
	ClubID        string     `json:"club_id"`
	UserID        string     `json:"user_id"`
	RequestedRole string     `json:"requested_role"`
	Message       string     `json:"message,omitempty"`
	Status        string     `json:"status"`
	RequestedAt   time.Time  `json:"requested_at"`
	RespondedAt   *time.Time `json:"responded_at,omitempty"`
	RespondedBy   string     `json:"responded_by,omitempty"`
}

type opportunityDTO struct {
	ID                string    `json:"id"`
	ClubID            string    `json:"club_id"`
	Title             string    `json:"title"`
	Type              string    `json:"type"`
	Sport             string    `json:"sport"`
	RoleRequired      string    `json:"role_required,omitempty"`
	Level             string    `json:"level,omitempty"`
	City              string    `json:"city,omitempty"`
	Country           string    `json:"country,omitempty"`
	Description       string    `json:"description,omitempty"`
	ExpiryDate        time.Time `json:"expiry_date"`
	CreatedBy         string    `json:"created_by"`
	IsActive          bool      `json:"is_active"`
	ApplicationsCount int       `json:"applications_count"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

type applicationDTO struct {
	ID            string     `json:"id"`
	OpportunityID string     `json:"opportunity_id"`
	ApplicantID   string     `json:"applicant_id"`
	AgentID       string     `json:"agent_id,omitempty"`
	Status        string     `json:"status"`
	Message       string     `json:"message,omitempty"`
	AppliedAt     time.Time  `json:"applied_at"`
	ReviewedBy    string     `json:"reviewed_by,omitempty"`
	ReviewedAt    *time.Time `json:"reviewed_at,omitempty"`
	WithdrawnAt   *time.Time `json:"withdrawn_at,omitempty"`
}

type affiliationDTO struct {
	ID          string     `json:"id"`
	AgentID     string     `json:"agent_id"`
	PlayerID    string     `json:"player_id"`
	Message     string     `json:"message,omitempty"`
	Status      string     `json:"status"`
	RequestedAt time.Time  `json:"requested_at"`
	RespondedAt *time.Time `json:"responded_at,omitempty"`
	EndedAt     *time.Time `json:"ended_at,omitempty"`
}

type myAffiliationsDTO struct {
	AsAgent  []affiliationDTO `json:"as_agent"`
	AsPlayer []affiliationDTO `json:"as_player"`
}

type blockDTO struct {
	PlayerID  string    `json:"player_id"`
	AgentID   string    `json:"agent_id"`
	Reason    string    `json:"reason,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func clubToDTO(v club.Club) clubDTO {
	sports := v.Sports
	if sports == nil {
		sports = []string{}
	}
	return clubDTO{
		ID:             v.ID,
		Name:           v.Name,
		Description:    v.Description,
		Sports:         sports,
		City:           v.City,
		Country:        v.Country,
		CreatedBy:      v.CreatedBy,
		FollowersCount: v.FollowersCount,
		MembersCount:   v.MembersCount,
		CreatedAt:      v.CreatedAt,
		UpdatedAt:      v.UpdatedAt,
	}
}

func membershipToDTO(v club.Membership) membershipDTO {
	permissions := make([]string, 0, len(v.Permissions))
	for _, p := range v.Permissions {
		permissions = append(permissions, string(p))
	}
	return membershipDTO{
		ID:          v.ID,
		ClubID:      v.ClubID,
		UserID:      v.UserID,
		Role:        string(v.Role),
		Permissions: permissions,
		IsActive:    v.IsActive,
		IsAdmin:     v.IsAdmin(),
		JoinedAt:    v.JoinedAt,
		LeftAt:      v.LeftAt,
	}
}

func joinRequestToDTO(v club.JoinRequest) joinRequestDTO {
	return joinRequestDTO{
		ID:            v.ID,
		ClubID:        v.ClubID,
		UserID:        v.UserID,
		RequestedRole: string(v.RequestedRole),
		Message:       v.Message,
		Status:        string(v.Status),
		RequestedAt:   v.RequestedAt,
		RespondedAt:   v.RespondedAt,
		RespondedBy:   v.RespondedBy,
	}
}

func opportunityToDTO(v opportunity.Opportunity) opportunityDTO {
	return opportunityDTO{
		ID:                v.ID,
		ClubID:            v.ClubID,
		Title:             v.Title,
		Type:              string(v.Type),
		Sport:             v.Sport,
		RoleRequired:      v.RoleRequired,
		Level:             v.Level,
		City:              v.City,
		Country:           v.Country,
		Description:       v.Description,
		ExpiryDate:        v.ExpiryDate,
		CreatedBy:         v.CreatedBy,
		IsActive:          v.IsActive,
		ApplicationsCount: v.ApplicationsCount,
		CreatedAt:         v.CreatedAt,
		UpdatedAt:         v.UpdatedAt,
	}
}

func applicationToDTO(v opportunity.Application) applicationDTO {
	return applicationDTO{
		ID:            v.ID,
		OpportunityID: v.OpportunityID,
		ApplicantID:   v.ApplicantID,
		AgentID:       v.AgentID,
		Status:        string(v.Status),
		Message:       v.Message,
		AppliedAt:     v.AppliedAt,
		ReviewedBy:    v.ReviewedBy,
		ReviewedAt:    v.ReviewedAt,
		WithdrawnAt:   v.WithdrawnAt,
	}
}

func affiliationToDTO(v affiliation.Affiliation) affiliationDTO {
	return affiliationDTO{
		ID:          v.ID,
		AgentID:     v.AgentID,
		PlayerID:    v.PlayerID,
		Message:     v.Message,
		Status:      string(v.Status),
		RequestedAt: v.RequestedAt,
		RespondedAt: v.RespondedAt,
		EndedAt:     v.EndedAt,
	}
}

func blockToDTO(v affiliation.Block) blockDTO {
	return blockDTO{
		PlayerID:  v.PlayerID,
		AgentID:   v.AgentID,
		Reason:    v.Reason,
		CreatedAt: v.CreatedAt,
	}
}

func mapSlice[T, D any](items []T, fn func(T) D) []D {
	out := make([]D, 0, len(items))
	for _, item := range items {
		out = append(out, fn(item))
	}
	return out
}
