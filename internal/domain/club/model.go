package club

import (
	"slices"
	"strings"
	"time"
)

type MemberRole string

const (
	RoleAdmin   MemberRole = "admin"
	RoleManager MemberRole = "manager"
	RoleCoach   MemberRole = "coach"
	RolePlayer  MemberRole = "player"
	RoleStaff   MemberRole = "staff"
	RoleMember  MemberRole = "member"
)

func ParseMemberRole(raw string) (MemberRole, bool) {
	role := MemberRole(strings.ToLower(strings.TrimSpace(raw)))
	switch role {
	case RoleAdmin, RoleManager, RoleCoach, RolePlayer, RoleStaff, RoleMember:
		return role, true
	default:
		return "", false
	}
}

type Permission string

const (
	PermissionManageClub          Permission = "manage_club"
	PermissionManageMembers       Permission = "manage_members"
	PermissionManageOpportunities Permission = "manage_opportunities"
	PermissionReviewApplications  Permission = "review_applications"
)

var allPermissions = []Permission{
	PermissionManageClub,
	PermissionManageMembers,
	PermissionManageOpportunities,
	PermissionReviewApplications,
}

func ParsePermission(raw string) (Permission, bool) {
	p := Permission(strings.ToLower(strings.TrimSpace(raw)))
	if slices.Contains(allPermissions, p) {
		return p, true
	}
	return "", false
}

// DefaultPermissions returns the permission set granted to a role when no explicit set is given.
func DefaultPermissions(role MemberRole) []Permission {
	switch role {
	case RoleAdmin:
		return slices.Clone(allPermissions)
	case RoleManager:
		return []Permission{PermissionManageOpportunities, PermissionReviewApplications}
	case RoleCoach:
		return []Permission{PermissionReviewApplications}
	default:
		return []Permission{}
	}
}

type Club struct {
	ID             string
	Name           string
	Description    string
	Sports         []string
	City           string
	Country        string
	CreatedBy      string
	FollowersCount int
	MembersCount   int
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type Membership struct {
	ID          string
	ClubID      string
	UserID      string
	Role        MemberRole
	Permissions []Permission
	IsActive    bool
	JoinedAt    time.Time
	LeftAt      *time.Time
}

func (m Membership) IsAdmin() bool {
	return m.IsActive && m.Role == RoleAdmin
}

// CanManageOpportunities reports whether the member may publish, deactivate, and
// delete opportunities and decide applications.
func (m Membership) CanManageOpportunities() bool {
	if !m.IsActive {
		return false
	}
	return m.Role == RoleAdmin || m.Role == RoleManager
}

func (m Membership) HasPermission(p Permission) bool {
	if !m.IsActive {
		return false
	}
	if m.Role == RoleAdmin {
		return true
	}
	return slices.Contains(m.Permissions, p)
}

type JoinRequestStatus string

const (
	JoinRequestPending  JoinRequestStatus = "pending"
	JoinRequestAccepted JoinRequestStatus = "accepted"
	JoinRequestRejected JoinRequestStatus = "rejected"
)

type JoinRequest struct {
	ID            string
	ClubID        string
	UserID        string
	RequestedRole MemberRole
	Message       string
	Status        JoinRequestStatus
	RequestedAt   time.Time
	RespondedAt   *time.Time
	RespondedBy   string
}

type Filter struct {
	Sport   string
	City    string
	Country string
	Search  string
}

// Matches applies the filter with case-insensitive equality and substring search on name.
func (f Filter) Matches(c Club) bool {
	if f.Sport != "" && !slices.ContainsFunc(c.Sports, func(s string) bool { return strings.EqualFold(s, f.Sport) }) {
		return false
	}
	if f.City != "" && !strings.EqualFold(c.City, f.City) {
		return false
	}
	if f.Country != "" && !strings.EqualFold(c.Country, f.Country) {
		return false
	}
	if f.Search != "" {
		needle := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(c.Name), needle) && !strings.Contains(strings.ToLower(c.Description), needle) {
			return false
		}
	}
	return true
}
