package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskhive/core/internal/infrastructure/logger"
)

func TestRunnerRunsImmediately(t *testing.T) {
	var runs atomic.Int32
	runner := NewRunner("test", time.Hour, func(ctx context.Context) error {
		runs.Add(1)
		return nil
	}, logger.NewNop())

	require.NoError(t, runner.Start(context.Background()))
	defer runner.Stop()

	assert.Eventually(t, func() bool {
		return runs.Load() == 1
	}, time.Second, 10*time.Millisecond)
}

func TestRunnerTicks(t *testing.T) {
	var runs atomic.Int32
	runner := NewRunner("test", 20*time.Millisecond, func(ctx context.Context) error {
		runs.Add(1)
		return nil
	}, logger.NewNop())

	require.NoError(t, runner.Start(context.Background()))
	defer runner.Stop()

	assert.Eventually(t, func() bool {
		return runs.Load() >= 3
	}, time.Second, 10*time.Millisecond)
}

func TestRunnerStartTwice(t *testing.T) {
	runner := NewRunner("test", time.Hour, func(ctx context.Context) error {
		return nil
	}, logger.NewNop())

	require.NoError(t, runner.Start(context.Background()))
	defer runner.Stop()

	assert.Error(t, runner.Start(context.Background()))
}

func TestRunnerStop(t *testing.T) {
	var runs atomic.Int32
	runner := NewRunner("test", 10*time.Millisecond, func(ctx context.Context) error {
		runs.Add(1)
		return nil
	}, logger.NewNop())

	require.NoError(t, runner.Start(context.Background()))

	require.Eventually(t, func() bool {
		return runs.Load() >= 1
	}, time.Second, time.Millisecond)

	runner.Stop()
	after := runs.Load()

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, after, runs.Load())

	// Stopping twice is harmless.
	runner.Stop()
}

func TestRunnerSurvivesJobErrors(t *testing.T) {
	var runs atomic.Int32
	runner := NewRunner("test", 10*time.Millisecond, func(ctx context.Context) error {
		runs.Add(1)
		return errors.New("transient")
	}, logger.NewNop())

	require.NoError(t, runner.Start(context.Background()))
	defer runner.Stop()

	assert.Eventually(t, func() bool {
		return runs.Load() >= 2
	}, time.Second, time.Millisecond)
}

func TestRunnerContextCancel(t *testing.T) {
	var runs atomic.Int32
	ctx, cancel := context.WithCancel(context.Background())

	runner := NewRunner("test", 10*time.Millisecond, func(ctx context.Context) error {
		runs.Add(1)
		return nil
	}, logger.NewNop())

	require.NoError(t, runner.Start(ctx))

	require.Eventually(t, func() bool {
		return runs.Load() >= 1
	}, time.Second, time.Millisecond)

	cancel()
	time.Sleep(30 * time.Millisecond)
	after := runs.Load()

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, after, runs.Load())
}
