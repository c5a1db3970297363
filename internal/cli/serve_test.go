package cli

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestWaitForServe_ServeReturns(t *testing.T) {
	done := make(chan error, 1)
	done <- nil
	assert.NoError(t, waitForServe(context.Background(), done, time.Second, zap.NewNop()))

	done <- errors.New("broken pipe")
	err := waitForServe(context.Background(), done, time.Second, zap.NewNop())
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}

func TestWaitForServe_SignalWaitsForRequest(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan error, 1)
	finished := make(chan struct{})
	go func() {
		time.Sleep(50 * time.Millisecond)
		close(finished)
		done <- context.Canceled
	}()

	require.NoError(t, waitForServe(ctx, done, 5*time.Second, zap.NewNop()))
	select {
	case <-finished:
	default:
		t.Fatal("returned before the in-flight request finished")
	}
}

func TestWaitForServe_SignalGivesUpAfterGrace(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	require.NoError(t, waitForServe(ctx, make(chan error), 20*time.Millisecond, zap.NewNop()))
	assert.Less(t, time.Since(start), 2*time.Second)
}
