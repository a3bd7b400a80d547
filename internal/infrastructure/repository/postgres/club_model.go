package postgres

import (
	"database/sql"
	"time"

	"github.com/lib/pq"
)

const (
	uqClubMembershipsActive   = "uq_club_memberships_active"
	uqClubJoinRequestsPending = "uq_club_join_requests_pending"
)

type clubTableModel struct {
	ID             int64          `db:"id"`
	PublicID       string         `db:"public_id"`
	Name           string         `db:"name"`
	Description    string         `db:"description"`
	Sports         pq.StringArray `db:"sports"`
	City           string         `db:"city"`
	Country        string         `db:"country"`
	CreatedBy      string         `db:"created_by"`
	FollowersCount int            `db:"followers_count"`
	MembersCount   int            `db:"members_count"`
	CreatedAt      time.Time      `db:"created_at"`
	UpdatedAt      time.Time      `db:"updated_at"`
}

type clubInsertModel struct {
	PublicID     string         `db:"public_id"`
	Name         string         `db:"name"`
	Description  string         `db:"description"`
	Sports       pq.StringArray `db:"sports"`
	City         string         `db:"city"`
	Country      string         `db:"country"`
	CreatedBy    string         `db:"created_by"`
	MembersCount int            `db:"members_count"`
	CreatedAt    time.Time      `db:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at"`
}

type clubUpdateModel struct {
	Name        string         `db:"name"`
	Description string         `db:"description"`
	Sports      pq.StringArray `db:"sports"`
	City        string         `db:"city"`
	Country     string         `db:"country"`
	UpdatedAt   time.Time      `db:"updated_at"`
}

type clubMembershipTableModel struct {
	ID          int64          `db:"id"`
	PublicID    string         `db:"public_id"`
	ClubID      string         `db:"club_public_id"`
	UserID      string         `db:"user_id"`
	Role        string         `db:"role"`
	Permissions pq.StringArray `db:"permissions"`
	IsActive    bool           `db:"is_active"`
	JoinedAt    time.Time      `db:"joined_at"`
	LeftAt      sql.NullTime   `db:"left_at"`
}

type clubMembershipInsertModel struct {
	PublicID    string         `db:"public_id"`
	ClubID      string         `db:"club_public_id"`
	UserID      string         `db:"user_id"`
	Role        string         `db:"role"`
	Permissions pq.StringArray `db:"permissions"`
	IsActive    bool           `db:"is_active"`
	JoinedAt    time.Time      `db:"joined_at"`
}

type clubJoinRequestTableModel struct {
	ID            int64          `db:"id"`
	PublicID      string         `db:"public_id"`
	ClubID        string         `db:"club_public_id"`
	UserID        string         `db:"user_id"`
	RequestedRole string         `db:"requested_role"`
	Message       string         `db:"message"`
	Status        string         `db:"status"`
	RequestedAt   time.Time      `db:"requested_at"`
	RespondedAt   sql.NullTime   `db:"responded_at"`
	RespondedBy   sql.NullString `db:"responded_by"`
}

type clubJoinRequestInsertModel struct {
	PublicID      string    `db:"public_id"`
	ClubID        string    `db:"club_public_id"`
	UserID        string    `db:"user_id"`
	RequestedRole string    `db:"requested_role"`
	Message       string    `db:"message"`
	Status        string    `db:"status"`
	RequestedAt   time.Time `db:"requested_at"`
}
