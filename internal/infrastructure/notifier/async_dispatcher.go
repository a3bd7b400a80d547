package notifier

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/riskibarqy/athlete-network/internal/domain/notification"
	"github.com/riskibarqy/athlete-network/internal/platform/logging"
)

const defaultDeliveryTimeout = 15 * time.Second

// AsyncDispatcher moves delivery off the request path onto a bounded worker pool.
// Publish fails fast with ants.ErrPoolOverload when every worker is busy.
type AsyncDispatcher struct {
	next            notification.Publisher
	pool            *ants.Pool
	deliveryTimeout time.Duration
	logger          *logging.Logger
	inflight        sync.WaitGroup
}

func NewAsyncDispatcher(next notification.Publisher, workers int, deliveryTimeout time.Duration, logger *logging.Logger) (*AsyncDispatcher, error) {
	if next == nil {
		return nil, fmt.Errorf("notification publisher is required")
	}
	if workers <= 0 {
		workers = 4
	}
	if deliveryTimeout <= 0 {
		deliveryTimeout = defaultDeliveryTimeout
	}
	if logger == nil {
		logger = logging.Default()
	}

	pool, err := ants.NewPool(workers, ants.WithNonblocking(true))
	if err != nil {
		return nil, fmt.Errorf("create notification worker pool: %w", err)
	}

	return &AsyncDispatcher{
		next:            next,
		pool:            pool,
		deliveryTimeout: deliveryTimeout,
		logger:          logger,
	}, nil
}

func (d *AsyncDispatcher) Publish(ctx context.Context, event notification.Event) error {
	deliveryCtx := context.WithoutCancel(ctx)

	d.inflight.Add(1)
	err := d.pool.Submit(func() {
		defer d.inflight.Done()

		ctx, cancel := context.WithTimeout(deliveryCtx, d.deliveryTimeout)
		defer cancel()

		if err := d.next.Publish(ctx, event); err != nil {
			d.logger.WarnContext(ctx, "deliver notification failed",
				"event_type", string(event.Type),
				"subject_id", event.SubjectID,
				"error", err,
			)
		}
	})
	if err != nil {
		d.inflight.Done()
		return fmt.Errorf("submit notification: %w", err)
	}
	return nil
}

// Close waits for queued deliveries until ctx expires, then releases the pool.
func (d *AsyncDispatcher) Close(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.inflight.Wait()
		close(done)
	}()

	var err error
	select {
	case <-done:
	case <-ctx.Done():
		err = fmt.Errorf("wait for notification deliveries: %w", ctx.Err())
	}
	d.pool.Release()
	return err
}
