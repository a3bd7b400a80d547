package directory

import (
	"context"
	"time"

	"github.com/riskibarqy/athlete-network/internal/domain/user"
	"github.com/riskibarqy/athlete-network/internal/platform/cache"
)

// CachedDirectory memoizes profile lookups. Unknown users are cached too so a missing
// profile does not hit the account service on every request.
type CachedDirectory struct {
	next  user.Directory
	store *cache.Store[cachedProfile]
}

type cachedProfile struct {
	profile user.Profile
	found   bool
}

func NewCachedDirectory(next user.Directory, ttl time.Duration) *CachedDirectory {
	return &CachedDirectory{
		next:  next,
		store: cache.NewStore[cachedProfile](ttl),
	}
}

func (d *CachedDirectory) GetProfile(ctx context.Context, userID string) (user.Profile, bool, error) {
	entry, err := d.store.GetOrLoad(ctx, profileCacheKey(userID), func(ctx context.Context) (cachedProfile, error) {
		profile, found, err := d.next.GetProfile(ctx, userID)
		if err != nil {
			return cachedProfile{}, err
		}
		return cachedProfile{profile: profile, found: found}, nil
	})
	if err != nil {
		return user.Profile{}, false, err
	}
	return entry.profile, entry.found, nil
}

// Invalidate drops the cached profile so the next lookup reaches the account service.
func (d *CachedDirectory) Invalidate(ctx context.Context, userID string) {
	d.store.Delete(ctx, profileCacheKey(userID))
}

func profileCacheKey(userID string) string {
	return "profile:" + userID
}
