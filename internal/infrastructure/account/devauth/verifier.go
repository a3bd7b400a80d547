// Package devauth accepts bearer tokens that are plain user ids. It exists for local runs
// against the in-memory stores and must not be enabled in production.
package devauth

import (
	"context"
	"fmt"
	"strings"

	"github.com/riskibarqy/athlete-network/internal/domain/user"
	"github.com/riskibarqy/athlete-network/internal/platform/logging"
	"github.com/riskibarqy/athlete-network/internal/usecase"
)

type Verifier struct {
	directory user.Directory
	logger    *logging.Logger
}

func NewVerifier(directory user.Directory, logger *logging.Logger) *Verifier {
	if logger == nil {
		logger = logging.Default()
	}
	return &Verifier{directory: directory, logger: logger}
}

// VerifyAccessToken treats the token as a user id. When a directory is configured the id
// must resolve to a profile.
func (v *Verifier) VerifyAccessToken(ctx context.Context, token string) (user.Principal, error) {
	userID := strings.TrimSpace(token)
	if userID == "" {
		return user.Principal{}, fmt.Errorf("%w: empty token", usecase.ErrUnauthorized)
	}
	if v.directory == nil {
		return user.Principal{UserID: userID}, nil
	}

	_, exists, err := v.directory.GetProfile(ctx, userID)
	if err != nil {
		v.logger.WarnContext(ctx, "dev token lookup failed", "user_id", userID, "error", err)
		return user.Principal{}, fmt.Errorf("%w: resolve dev token: %v", usecase.ErrDependencyUnavailable, err)
	}
	if !exists {
		return user.Principal{}, fmt.Errorf("%w: unknown user %q", usecase.ErrUnauthorized, userID)
	}
	return user.Principal{UserID: userID}, nil
}
