package club

import (
	"context"
	"errors"
	"time"
)

var (
	ErrClubNotFound           = errors.New("club not found")
	ErrActiveMembershipExists = errors.New("active membership already exists")
	ErrMembershipNotFound     = errors.New("active membership not found")
	ErrLastAdmin              = errors.New("club must keep at least one active admin")
	ErrPendingRequestExists   = errors.New("pending join request already exists")
	ErrRequestNotPending      = errors.New("join request is not pending")
	ErrJoinRequestNotFound    = errors.New("join request not found")
)

// Repository stores clubs with their memberships and join requests. Every method that
// activates or deactivates a membership adjusts Club.MembersCount in the same atomic step.
type Repository interface {
	CreateClub(ctx context.Context, c Club, owner Membership) error
	GetClub(ctx context.Context, clubID string) (Club, bool, error)
	UpdateClub(ctx context.Context, c Club) error
	ListClubs(ctx context.Context, filter Filter) ([]Club, error)

	GetActiveMembership(ctx context.Context, clubID, userID string) (Membership, bool, error)
	ListActiveMemberships(ctx context.Context, clubID string) ([]Membership, error)
	ListMembershipsByUser(ctx context.Context, userID string) ([]Membership, error)
	AddMembership(ctx context.Context, m Membership) error
	DeactivateMembership(ctx context.Context, clubID, userID string, leftAt time.Time) error
	UpdateMembershipRole(ctx context.Context, clubID, userID string, role MemberRole, permissions []Permission) error

	CreateJoinRequest(ctx context.Context, req JoinRequest) error
	GetJoinRequest(ctx context.Context, requestID string) (JoinRequest, bool, error)
	ListJoinRequests(ctx context.Context, clubID string, status JoinRequestStatus) ([]JoinRequest, error)
	ListJoinRequestsByUser(ctx context.Context, userID string) ([]JoinRequest, error)
	AcceptJoinRequest(ctx context.Context, req JoinRequest, m Membership) error
	RejectJoinRequest(ctx context.Context, req JoinRequest) error
}
