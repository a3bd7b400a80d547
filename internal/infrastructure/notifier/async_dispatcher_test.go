package notifier

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/riskibarqy/athlete-network/internal/domain/notification"
	notificationmock "github.com/riskibarqy/athlete-network/internal/mocks/domain/notification"
	"github.com/riskibarqy/athlete-network/internal/platform/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type countingPublisher struct {
	delivered atomic.Int32
	release   chan struct{}
}

func (p *countingPublisher) Publish(ctx context.Context, _ notification.Event) error {
	if p.release != nil {
		select {
		case <-p.release:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	p.delivered.Add(1)
	return nil
}

func TestAsyncDispatcher_DeliversAfterRequestContextIsCanceled(t *testing.T) {
	next := &countingPublisher{}
	dispatcher, err := NewAsyncDispatcher(next, 2, time.Second, logging.NewNop())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	for i := 0; i < 5; i++ {
		for {
			err := dispatcher.Publish(ctx, sampleEvent())
			if err == nil {
				break
			}
			require.ErrorIs(t, err, ants.ErrPoolOverload)
			time.Sleep(time.Millisecond)
		}
	}
	cancel()

	closeCtx, closeCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer closeCancel()
	require.NoError(t, dispatcher.Close(closeCtx))
	assert.Equal(t, int32(5), next.delivered.Load())
}

func TestAsyncDispatcher_OverloadIsReported(t *testing.T) {
	next := &countingPublisher{release: make(chan struct{})}
	dispatcher, err := NewAsyncDispatcher(next, 1, time.Second, logging.NewNop())
	require.NoError(t, err)

	require.NoError(t, dispatcher.Publish(context.Background(), sampleEvent()))
	require.Eventually(t, func() bool { return dispatcher.pool.Running() == 1 }, time.Second, time.Millisecond)

	err = dispatcher.Publish(context.Background(), sampleEvent())
	assert.ErrorIs(t, err, ants.ErrPoolOverload)

	close(next.release)
	closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, dispatcher.Close(closeCtx))
	assert.Equal(t, int32(1), next.delivered.Load())
}

func TestAsyncDispatcher_DeliveryErrorsAreSwallowed(t *testing.T) {
	done := make(chan struct{})
	next := notificationmock.NewPublisher(t)
	next.On("Publish", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) { close(done) }).
		Return(errors.New("webhook down")).
		Once()

	dispatcher, err := NewAsyncDispatcher(next, 1, time.Second, logging.NewNop())
	require.NoError(t, err)
	require.NoError(t, dispatcher.Publish(context.Background(), sampleEvent()))

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatalf("delivery did not run")
	}
	require.NoError(t, dispatcher.Close(context.Background()))
}

func TestNewAsyncDispatcher_RequiresPublisher(t *testing.T) {
	_, err := NewAsyncDispatcher(nil, 1, time.Second, nil)
	assert.Error(t, err)
}
