package usecase

import (
	"context"

	"github.com/riskibarqy/athlete-network/internal/domain/notification"
	"github.com/riskibarqy/athlete-network/internal/platform/logging"
)

type notifier struct {
	publisher notification.Publisher
	logger    *logging.Logger
}

func (n notifier) publish(ctx context.Context, event notification.Event) {
	if n.publisher == nil || len(event.Recipients) == 0 {
		return
	}
	if err := n.publisher.Publish(ctx, event); err != nil {
		n.logger.WarnContext(ctx, "publish notification failed",
			"event_type", string(event.Type),
			"subject_id", event.SubjectID,
			"error", err,
		)
	}
}
