package memory

import (
	"context"
	"sync"

	"github.com/riskibarqy/athlete-network/internal/domain/user"
)

type UserDirectory struct {
	mu       sync.RWMutex
	profiles map[string]user.Profile
}

func NewUserDirectory(profiles []user.Profile) *UserDirectory {
	items := make(map[string]user.Profile, len(profiles))
	for _, p := range profiles {
		items[p.ID] = p
	}
	return &UserDirectory{profiles: items}
}

func (d *UserDirectory) GetProfile(_ context.Context, userID string) (user.Profile, bool, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	p, ok := d.profiles[userID]
	return p, ok, nil
}

func (d *UserDirectory) Upsert(p user.Profile) {
	d.mu.Lock()
	d.profiles[p.ID] = p
	d.mu.Unlock()
}
