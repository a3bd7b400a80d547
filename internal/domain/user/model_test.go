package user

import "testing"

func TestParseRole(t *testing.T) {
	tests := []struct {
		raw  string
		want Role
		ok   bool
	}{
		{raw: "player", want: RolePlayer, ok: true},
		{raw: " AGENT ", want: RoleAgent, ok: true},
		{raw: "Scout", want: RoleScout, ok: true},
		{raw: "referee", ok: false},
		{raw: "", ok: false},
	}

	for _, tc := range tests {
		got, ok := ParseRole(tc.raw)
		if ok != tc.ok || got != tc.want {
			t.Errorf("ParseRole(%q) = %q, %v; want %q, %v", tc.raw, got, ok, tc.want, tc.ok)
		}
	}
}
