package notifier

import (
	"context"

	"github.com/riskibarqy/athlete-network/internal/domain/notification"
	"github.com/riskibarqy/athlete-network/internal/platform/logging"
)

// LogPublisher writes events to the application log. Used when no delivery channel is configured.
type LogPublisher struct {
	logger *logging.Logger
}

func NewLogPublisher(logger *logging.Logger) *LogPublisher {
	if logger == nil {
		logger = logging.Default()
	}
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(ctx context.Context, event notification.Event) error {
	p.logger.InfoContext(ctx, "notification event",
		"event_type", string(event.Type),
		"actor_id", event.ActorID,
		"recipients", event.Recipients,
		"subject_id", event.SubjectID,
		"data", event.Data,
	)
	return nil
}
