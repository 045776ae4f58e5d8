package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/goleak"
)

func TestEvery_RunsImmediatelyAndRepeats(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx, cancel := context.WithCancel(context.Background())
	var n int32

	done := make(chan struct{})
	go func() {
		defer close(done)
		Every(ctx, 10*time.Millisecond, "test", func(context.Context) error {
			if atomic.AddInt32(&n, 1) >= 3 {
				cancel()
			}
			return nil
		}, nil)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Every did not return after cancel")
	}
	assert.GreaterOrEqual(t, atomic.LoadInt32(&n), int32(3))
}

func TestEvery_ErrorsDoNotStopTheLoop(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var n int32
	Every(ctx, time.Millisecond, "failing", func(context.Context) error {
		if atomic.AddInt32(&n, 1) == 2 {
			cancel()
		}
		return errors.New("boom")
	}, nil)

	assert.GreaterOrEqual(t, atomic.LoadInt32(&n), int32(2))
}

func TestEvery_FirstRunBeforeTick(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var ran bool
	Every(ctx, time.Hour, "once", func(context.Context) error {
		ran = true
		cancel()
		return nil
	}, nil)
	assert.True(t, ran)
}
