package user

import "context"

// Directory resolves user profiles owned by the account service.
type Directory interface {
	GetProfile(ctx context.Context, userID string) (Profile, bool, error)
}
