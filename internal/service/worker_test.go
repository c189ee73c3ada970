package service

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorker_RunOnceReportsError(t *testing.T) {
	rec := newCountingRecorder()
	boom := errors.New("boom")
	w := NewWorker("refresh", time.Hour, func(context.Context) error { return boom }, rec, zerolog.Nop())

	err := w.RunOnce(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, rec.jobs["refresh"])
	assert.Equal(t, 1, rec.jobFailures["refresh"])
}

func TestWorker_RunsImmediatelyAndStops(t *testing.T) {
	var runs atomic.Int32
	first := make(chan struct{})
	w := NewWorker("settlement", time.Hour, func(context.Context) error {
		if runs.Add(1) == 1 {
			close(first)
		}
		return nil
	}, nil, zerolog.Nop())

	go w.Start(context.Background())

	select {
	case <-first:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not run on start")
	}

	w.Stop()
	w.Stop()
	select {
	case <-w.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop")
	}
	assert.Equal(t, int32(1), runs.Load())
}

func TestWorker_TicksUntilCancelled(t *testing.T) {
	var runs atomic.Int32
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	w := NewWorker("refresh", 10*time.Millisecond, func(context.Context) error {
		if runs.Add(1) == 3 {
			cancel()
		}
		return nil
	}, nil, zerolog.Nop())

	go w.Start(ctx)
	select {
	case <-w.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop after cancel")
	}
	assert.GreaterOrEqual(t, runs.Load(), int32(3))
}

func TestWorker_RunsNeverOverlap(t *testing.T) {
	var active, maxActive atomic.Int32
	w := NewWorker("refresh", time.Hour, func(context.Context) error {
		n := active.Add(1)
		for {
			m := maxActive.Load()
			if n <= m || maxActive.CompareAndSwap(m, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		active.Add(-1)
		return nil
	}, nil, zerolog.Nop())

	done := make(chan struct{})
	for i := 0; i < 4; i++ {
		go func() {
			_ = w.RunOnce(context.Background())
			done <- struct{}{}
		}()
	}
	for i := 0; i < 4; i++ {
		<-done
	}
	require.Equal(t, int32(1), maxActive.Load())
}
