package opportunity

import (
	"testing"
	"time"
)

func TestApplicationStatusCanTransition(t *testing.T) {
	tests := []struct {
		from ApplicationStatus
		to   ApplicationStatus
		want bool
	}{
		{ApplicationPending, ApplicationAccepted, true},
		{ApplicationPending, ApplicationRejected, true},
		{ApplicationPending, ApplicationWithdrawn, true},
		{ApplicationAccepted, ApplicationWithdrawn, true},
		{ApplicationAccepted, ApplicationRejected, false},
		{ApplicationRejected, ApplicationAccepted, false},
		{ApplicationRejected, ApplicationWithdrawn, false},
		{ApplicationWithdrawn, ApplicationPending, false},
		{ApplicationPending, ApplicationPending, false},
	}

	for _, tc := range tests {
		if got := tc.from.CanTransition(tc.to); got != tc.want {
			t.Errorf("%s -> %s: got %v want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestApplicationStatusBlocks(t *testing.T) {
	for _, s := range []ApplicationStatus{ApplicationPending, ApplicationAccepted, ApplicationRejected} {
		if !s.Blocks() {
			t.Errorf("expected %s to block re-application", s)
		}
	}
	if ApplicationWithdrawn.Blocks() {
		t.Errorf("withdrawn must allow re-application")
	}
}

func TestOpportunityIsOpen(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	o := Opportunity{IsActive: true, ExpiryDate: now.Add(time.Minute)}
	if !o.IsOpen(now) {
		t.Fatalf("expected open before expiry")
	}
	if o.IsOpen(now.Add(time.Minute)) {
		t.Fatalf("expected closed at expiry instant")
	}
	o.IsActive = false
	if o.IsOpen(now) {
		t.Fatalf("expected inactive opportunity to be closed")
	}
}

func TestFilterMatches(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	o := Opportunity{
		ClubID:       "club-1",
		Title:        "U21 Goalkeeper Trial",
		Type:         TypeTrial,
		Sport:        "Football",
		RoleRequired: "player",
		Level:        "Semi-Pro",
		City:         "Porto",
		Country:      "PT",
		IsActive:     true,
		ExpiryDate:   now.Add(24 * time.Hour),
	}

	tests := []struct {
		name   string
		filter Filter
		want   bool
	}{
		{name: "empty filter", filter: Filter{}, want: true},
		{name: "case insensitive sport and city", filter: Filter{Sport: "football", City: "PORTO"}, want: true},
		{name: "search title", filter: Filter{Search: "goalkeeper"}, want: true},
		{name: "type mismatch", filter: Filter{Type: TypeCamp}, want: false},
		{name: "role mismatch", filter: Filter{RoleRequired: "coach"}, want: false},
		{name: "other club", filter: Filter{ClubID: "club-2"}, want: false},
		{name: "open at instant", filter: Filter{ActiveAt: now}, want: true},
		{name: "expired at instant", filter: Filter{ActiveAt: now.Add(48 * time.Hour)}, want: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.filter.Matches(o); got != tc.want {
				t.Fatalf("got %v want %v", got, tc.want)
			}
		})
	}
}

func TestParseType(t *testing.T) {
	if got, ok := ParseType(" Contract "); !ok || got != TypeContract {
		t.Fatalf("expected contract, got %q ok=%v", got, ok)
	}
	if _, ok := ParseType("friendly"); ok {
		t.Fatalf("expected unknown type to be rejected")
	}
}
