package club

import (
	"slices"
	"testing"
)

func TestMembershipPermissions(t *testing.T) {
	admin := Membership{Role: RoleAdmin, IsActive: true}
	if !admin.IsAdmin() || !admin.CanManageOpportunities() || !admin.HasPermission(PermissionManageMembers) {
		t.Fatalf("admin must hold every capability")
	}

	manager := Membership{Role: RoleManager, Permissions: DefaultPermissions(RoleManager), IsActive: true}
	if manager.IsAdmin() {
		t.Fatalf("manager must not be admin")
	}
	if !manager.CanManageOpportunities() {
		t.Fatalf("manager must manage opportunities")
	}
	if manager.HasPermission(PermissionManageClub) {
		t.Fatalf("manager must not manage the club by default")
	}

	coach := Membership{Role: RoleCoach, Permissions: DefaultPermissions(RoleCoach), IsActive: true}
	if coach.CanManageOpportunities() {
		t.Fatalf("coach must not manage opportunities")
	}

	inactive := Membership{Role: RoleAdmin, IsActive: false}
	if inactive.IsAdmin() || inactive.CanManageOpportunities() || inactive.HasPermission(PermissionManageClub) {
		t.Fatalf("inactive membership must grant nothing")
	}
}

func TestDefaultPermissionsReturnsCopy(t *testing.T) {
	perms := DefaultPermissions(RoleAdmin)
	perms[0] = "tampered"
	if !slices.Contains(DefaultPermissions(RoleAdmin), PermissionManageClub) {
		t.Fatalf("default admin permissions were mutated")
	}
	if got := DefaultPermissions(RoleMember); len(got) != 0 {
		t.Fatalf("expected no default permissions for member, got %v", got)
	}
}

func TestParseMemberRole(t *testing.T) {
	if got, ok := ParseMemberRole(" Manager"); !ok || got != RoleManager {
		t.Fatalf("expected manager, got %q ok=%v", got, ok)
	}
	if _, ok := ParseMemberRole("captain"); ok {
		t.Fatalf("expected unknown role to be rejected")
	}
	if _, ok := ParsePermission("delete_everything"); ok {
		t.Fatalf("expected unknown permission to be rejected")
	}
}

func TestFilterMatches(t *testing.T) {
	c := Club{Name: "Estrela Futebol Clube", Description: "Community club", Sports: []string{"Football", "Futsal"}, City: "Lisbon", Country: "PT"}

	tests := []struct {
		name   string
		filter Filter
		want   bool
	}{
		{name: "empty", filter: Filter{}, want: true},
		{name: "sport any case", filter: Filter{Sport: "futsal"}, want: true},
		{name: "sport missing", filter: Filter{Sport: "basketball"}, want: false},
		{name: "city", filter: Filter{City: "lisbon"}, want: true},
		{name: "country mismatch", filter: Filter{Country: "ES"}, want: false},
		{name: "search description", filter: Filter{Search: "COMMUNITY"}, want: true},
		{name: "search miss", filter: Filter{Search: "academy"}, want: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.filter.Matches(c); got != tc.want {
				t.Fatalf("got %v want %v", got, tc.want)
			}
		})
	}
}
