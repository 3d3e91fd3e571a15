package app

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTickerSchedulerFiresUntilCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var ticks atomic.Int32
	done := make(chan error, 1)

	go func() {
		done <- TickerScheduler{Period: 5 * time.Millisecond}.Run(ctx, func(context.Context) {
			if ticks.Add(1) == 3 {
				cancel()
			}
		})
	}()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("ticker scheduler did not stop")
	}
	assert.GreaterOrEqual(t, ticks.Load(), int32(3))
}

func TestTickerSchedulerRejectsNonPositivePeriod(t *testing.T) {
	err := TickerScheduler{}.Run(context.Background(), func(context.Context) {})
	assert.Error(t, err)
}

func TestCronSchedulerRejectsBadSpec(t *testing.T) {
	err := CronScheduler{Spec: "not a schedule"}.Run(context.Background(), func(context.Context) {})
	assert.Error(t, err)
}

func TestCronSchedulerStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- CronScheduler{Spec: "0 0 * * *", Location: time.UTC}.Run(ctx, func(context.Context) {})
	}()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("cron scheduler did not stop")
	}
}

func TestManualSchedulerDrivesRotation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := staticStore{1: {Index: 1}, 2: {Index: 2}}
	service := NewProblemService(ctx, store, &fakeLedger{index: 1}, newMapAttempts(), Options{})
	scheduler := NewManualScheduler()

	assert.False(t, scheduler.Fire(ctx), "fire before run is a no-op")

	done := make(chan error, 1)
	go func() { done <- service.RunRotation(ctx, scheduler) }()
	<-scheduler.Ready()

	require.True(t, scheduler.Fire(ctx))
	assert.Equal(t, 2, service.ActiveIndex())
	require.True(t, scheduler.Fire(ctx))
	assert.Equal(t, 1, service.ActiveIndex())

	cancel()
	require.NoError(t, <-done)
}
