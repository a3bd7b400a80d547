package anubis

import (
	"testing"
	"time"

	"github.com/riskibarqy/athlete-network/internal/domain/user"
)

func TestPrincipalCache_SetGet(t *testing.T) {
	t.Parallel()

	cache := newPrincipalCache(time.Minute, 10)
	cache.Set("k1", user.Principal{UserID: "u-1"})

	principal, ok := cache.Get("k1")
	if !ok {
		t.Fatalf("expected cache hit")
	}
	if principal.UserID != "u-1" {
		t.Fatalf("unexpected user id: %s", principal.UserID)
	}
}

func TestPrincipalCache_Expired(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	cache := newPrincipalCache(20*time.Second, 10)
	cache.now = func() time.Time { return now }
	cache.Set("k1", user.Principal{UserID: "u-1"})

	now = now.Add(21 * time.Second)
	if _, ok := cache.Get("k1"); ok {
		t.Fatalf("expected cache miss after expiry")
	}
}

func TestPrincipalCache_EvictsWhenFull(t *testing.T) {
	t.Parallel()

	cache := newPrincipalCache(time.Minute, 2)
	cache.Set("k1", user.Principal{UserID: "u-1"})
	cache.Set("k2", user.Principal{UserID: "u-2"})
	cache.Set("k3", user.Principal{UserID: "u-3"})

	if got := cache.Len(); got != 2 {
		t.Fatalf("expected 2 entries, got %d", got)
	}
	if _, ok := cache.Get("k3"); !ok {
		t.Fatalf("expected newest entry to be kept")
	}
}

func TestPrincipalCache_DisabledWithoutTTL(t *testing.T) {
	t.Parallel()

	cache := newPrincipalCache(-1, 10)
	cache.Set("k1", user.Principal{UserID: "u-1"})
	if _, ok := cache.Get("k1"); ok {
		t.Fatalf("expected disabled cache to miss")
	}
}
