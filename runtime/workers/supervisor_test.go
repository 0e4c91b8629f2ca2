package workers

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"tcp-chat/mocks"
)

func TestSupervisor_RestartsWorkerAfterPanic(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	worker := mocks.NewMockWorker(ctrl)

	// Given a worker that panics once, then terminates properly
	first := worker.EXPECT().Run(gomock.Any()).DoAndReturn(func(ctx context.Context) error {
		panic("boom")
	})
	worker.EXPECT().Run(gomock.Any()).Return(nil).After(first)

	sup := NewSupervisor(logs.GetLoggerFromLevel(slog.LevelDebug), 10*time.Millisecond)
	sup.Add(worker)

	done := make(chan struct{})
	go func() {
		defer close(done)
		sup.Run(context.Background())
	}()

	// Then the supervisor restarts it and eventually finishes cleanly
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		req.Fail("supervisor never finished after worker restart")
	}
}

func TestSupervisor_StopsWorkersOnCancel(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	worker := mocks.NewMockWorker(ctrl)

	// Given a worker that blocks until its context is canceled
	worker.EXPECT().Run(gomock.Any()).DoAndReturn(func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})

	sup := NewSupervisor(logs.GetLoggerFromLevel(slog.LevelDebug), 10*time.Millisecond)
	sup.Add(worker)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		sup.Run(ctx)
	}()

	cancel()

	// Then Run returns without restarting the canceled worker
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		req.Fail("supervisor kept running after cancellation")
	}
}

func TestSupervisor_StopCancelsItsOwnContext(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	worker := mocks.NewMockWorker(ctrl)

	worker.EXPECT().Run(gomock.Any()).DoAndReturn(func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})

	sup := NewSupervisor(logs.GetLoggerFromLevel(slog.LevelDebug), 10*time.Millisecond)
	sup.Add(worker)

	done := make(chan struct{})
	go func() {
		defer close(done)
		sup.Run(context.Background())
	}()

	// Stop is asynchronous with Run wiring up Cancel
	req.Eventually(func() bool {
		sup.Stop()
		select {
		case <-done:
			return true
		default:
			return false
		}
	}, 2*time.Second, 10*time.Millisecond)
}
