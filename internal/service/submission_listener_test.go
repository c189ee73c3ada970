package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

type fakeRefresher struct {
	mu    sync.Mutex
	calls map[string]int
	fail  map[string]bool
}

func (f *fakeRefresher) RefreshVideo(_ context.Context, videoID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[videoID]++
	if f.fail[videoID] {
		return errors.New("provider down")
	}
	return nil
}

func TestSubmissionListener_BatchesDuplicates(t *testing.T) {
	r := &fakeRefresher{calls: map[string]int{}, fail: map[string]bool{"bad": true}}
	l := NewSubmissionListener(nil, r, zerolog.Nop())

	for _, id := range []string{"v1", "v1", "v2", "", "v1", "bad"} {
		l.enqueue(id)
	}

	refreshed := l.flush(context.Background())
	assert.Equal(t, 2, refreshed)
	assert.Equal(t, map[string]int{"v1": 1, "v2": 1, "bad": 1}, r.calls)

	// Drained: a second flush does nothing.
	assert.Zero(t, l.flush(context.Background()))
	assert.Len(t, r.calls, 3)
}
