package postgres

import (
	"database/sql"
	"database/sql/driver"
	"fmt"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/riskibarqy/athlete-network/internal/domain/club"
)

func TestIsUniqueViolation(t *testing.T) {
	t.Run("matches named constraint", func(t *testing.T) {
		err := fmt.Errorf("insert membership: %w", &pq.Error{Code: "23505", Constraint: uqClubMembershipsActive})
		if !isUniqueViolation(err, uqClubMembershipsActive) {
			t.Fatalf("expected unique violation on %s", uqClubMembershipsActive)
		}
		if isUniqueViolation(err, uqClubJoinRequestsPending) {
			t.Fatalf("expected constraint name to be checked")
		}
		if !isUniqueViolation(err, "") {
			t.Fatalf("expected empty constraint to match any unique violation")
		}
	})

	t.Run("ignores other codes", func(t *testing.T) {
		err := &pq.Error{Code: "23503", Constraint: uqClubMembershipsActive}
		if isUniqueViolation(err, uqClubMembershipsActive) {
			t.Fatalf("expected foreign key violation to be ignored")
		}
		if isUniqueViolation(fakeErr("duplicate key value"), "") {
			t.Fatalf("expected non-pq error to be ignored")
		}
	})
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "serialization failure", err: &pq.Error{Code: "40001"}, want: true},
		{name: "deadlock", err: fmt.Errorf("update: %w", &pq.Error{Code: "40P01"}), want: true},
		{name: "connection failure", err: &pq.Error{Code: "08006"}, want: true},
		{name: "bad conn", err: driver.ErrBadConn, want: true},
		{name: "unique violation", err: &pq.Error{Code: "23505"}, want: false},
		{name: "domain sentinel", err: club.ErrLastAdmin, want: false},
		{name: "plain error", err: fakeErr("boom"), want: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := isRetryable(tc.err); got != tc.want {
				t.Fatalf("got %v want %v", got, tc.want)
			}
		})
	}
}

func TestIsNotFound(t *testing.T) {
	if !isNotFound(fmt.Errorf("get club: %w", sql.ErrNoRows)) {
		t.Fatalf("expected wrapped sql.ErrNoRows to be not found")
	}
	if isNotFound(fakeErr("relation clubs does not exist")) {
		t.Fatalf("expected unrelated error to be ignored")
	}
}

func TestNullTimePtr(t *testing.T) {
	if nullTimePtr(sql.NullTime{}) != nil {
		t.Fatalf("expected nil for null time")
	}
	at := time.Date(2026, 4, 1, 10, 0, 0, 0, time.FixedZone("WIB", 7*60*60))
	got := nullTimePtr(sql.NullTime{Time: at, Valid: true})
	if got == nil || !got.Equal(at) || got.Location() != time.UTC {
		t.Fatalf("expected UTC copy of %v, got %v", at, got)
	}
}

func TestNewTxRunnerDefaultsRetries(t *testing.T) {
	if got := newTxRunner(nil, -1).maxRetries; got != defaultWriteRetries {
		t.Fatalf("expected default retries %d, got %d", defaultWriteRetries, got)
	}
	if got := newTxRunner(nil, 0).maxRetries; got != 0 {
		t.Fatalf("expected retries disabled, got %d", got)
	}
}

func TestMembershipFromRow(t *testing.T) {
	m := membershipFromRow(clubMembershipTableModel{
		PublicID:    "m-1",
		ClubID:      "club-1",
		UserID:      "user-1",
		Role:        "manager",
		Permissions: pq.StringArray{"manage_opportunities"},
		IsActive:    true,
	})
	if m.Role != club.RoleManager || !m.HasPermission(club.PermissionManageOpportunities) || m.LeftAt != nil {
		t.Fatalf("unexpected membership: %+v", m)
	}
}

type fakeErr string

func (e fakeErr) Error() string { return string(e) }
