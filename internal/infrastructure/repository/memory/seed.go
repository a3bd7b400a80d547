package memory

import "github.com/riskibarqy/athlete-network/internal/domain/user"

const (
	UserIDPlayerAmara = "user-player-amara"
	UserIDPlayerKofi  = "user-player-kofi"
	UserIDCoachLena   = "user-coach-lena"
	UserIDAgentMarco  = "user-agent-marco"
	UserIDClubOwner   = "user-club-harbor"
	UserIDScoutIgor   = "user-scout-igor"
)

// SeedProfiles returns the profiles served by the in-memory directory in development.
func SeedProfiles() []user.Profile {
	return []user.Profile{
		{ID: UserIDPlayerAmara, Name: "Amara Okafor", Role: user.RolePlayer, City: "Lagos", Country: "NG"},
		{ID: UserIDPlayerKofi, Name: "Kofi Mensah", Role: user.RolePlayer, City: "Accra", Country: "GH"},
		{ID: UserIDCoachLena, Name: "Lena Fischer", Role: user.RoleCoach, City: "Hamburg", Country: "DE"},
		{ID: UserIDAgentMarco, Name: "Marco Bellini", Role: user.RoleAgent, City: "Milan", Country: "IT"},
		{ID: UserIDClubOwner, Name: "Harbor City FC", Role: user.RoleClub, City: "Lisbon", Country: "PT"},
		{ID: UserIDScoutIgor, Name: "Igor Petrov", Role: user.RoleScout, City: "Belgrade", Country: "RS"},
	}
}
