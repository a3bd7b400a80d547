package user

import "strings"

// Role is the professional role a user registers with on the platform.
type Role string

const (
	RolePlayer Role = "player"
	RoleCoach  Role = "coach"
	RoleAgent  Role = "agent"
	RoleClub   Role = "club"
	RoleScout  Role = "scout"
	RoleOther  Role = "other"
)

func ParseRole(raw string) (Role, bool) {
	role := Role(strings.ToLower(strings.TrimSpace(raw)))
	switch role {
	case RolePlayer, RoleCoach, RoleAgent, RoleClub, RoleScout, RoleOther:
		return role, true
	default:
		return "", false
	}
}

// Principal is the authenticated caller resolved from a bearer token.
type Principal struct {
	UserID string
	Email  string
}

type Profile struct {
	ID        string
	Name      string
	Role      Role
	City      string
	Country   string
	AvatarURL string
}
