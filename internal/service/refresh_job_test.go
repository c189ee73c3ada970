package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adilhusain01/campayn/internal/events"
	"github.com/adilhusain01/campayn/internal/model"
	"github.com/adilhusain01/campayn/internal/youtube"
)

var refreshNow = time.Date(2026, 4, 10, 12, 0, 0, 0, time.UTC)

func staleSub(id string, campaign int64, videoID string, age time.Duration) model.Submission {
	return model.Submission{
		ID:                id,
		CampaignID:        campaign,
		InfluencerID:      "inf-" + id,
		VideoID:           videoID,
		LastMetricsUpdate: refreshNow.Add(-age),
	}
}

func newTestRefreshJob(store *fakeStore, fetcher *fakeFetcher, concurrency int, opts ...JobOption) *RefreshJob {
	clock := &testClock{t: refreshNow}
	opts = append([]JobOption{WithClock(clock.Now)}, opts...)
	return NewRefreshJob(store, fetcher, NewScoreService(NoJitter), time.Hour, concurrency, opts...)
}

func TestRefreshJob_SharedVideoGetsIdenticalUpdate(t *testing.T) {
	store := &fakeStore{}
	store.add(staleSub("a", 1, "vid00000001", 2*time.Hour))
	store.add(staleSub("b", 2, "vid00000001", 3*time.Hour))

	fetcher := newFakeFetcher()
	fetcher.metrics["vid00000001"] = model.VideoMetrics{
		VideoID: "vid00000001", ViewCount: 1000, LikeCount: 50, CommentCount: 10, DurationSeconds: 300,
	}

	report, err := newTestRefreshJob(store, fetcher, 1).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, report.Stale)
	assert.Equal(t, 1, report.Updated)
	assert.Equal(t, 1, fetcher.calls["vid00000001"], "one fetch per distinct video")

	a, b := store.byID("a"), store.byID("b")
	assert.Equal(t, int64(1000), a.ViewCount)
	assert.InDelta(t, 350.0, a.PerformanceScore, 1e-9)
	assert.Equal(t, refreshNow, a.LastMetricsUpdate)

	assert.Equal(t, a.ViewCount, b.ViewCount)
	assert.Equal(t, a.LikeCount, b.LikeCount)
	assert.Equal(t, a.CommentCount, b.CommentCount)
	assert.Equal(t, a.PerformanceScore, b.PerformanceScore)
	assert.Equal(t, a.LastMetricsUpdate, b.LastMetricsUpdate)
}

func TestRefreshJob_FailuresAreIsolated(t *testing.T) {
	store := &fakeStore{}
	store.add(staleSub("ok", 1, "vid-ok", 2*time.Hour))
	store.add(staleSub("quota", 1, "vid-quota", 2*time.Hour))
	store.add(staleSub("down", 1, "vid-down", 2*time.Hour))
	store.add(staleSub("gone", 1, "vid-gone", 2*time.Hour))
	store.add(staleSub("denied", 1, "vid-denied", 2*time.Hour))

	fetcher := newFakeFetcher()
	fetcher.metrics["vid-ok"] = model.VideoMetrics{ViewCount: 10, DurationSeconds: 60}
	fetcher.errs["vid-quota"] = fmt.Errorf("fetch: %w", youtube.ErrQuotaExceeded)
	fetcher.errs["vid-down"] = fmt.Errorf("fetch: %w", youtube.ErrMetricsUnavailable)
	fetcher.errs["vid-gone"] = fmt.Errorf("fetch: %w", youtube.ErrNotFound)
	fetcher.errs["vid-denied"] = fmt.Errorf("fetch: %w", youtube.ErrAccessDenied)

	rec := newCountingRecorder()
	report, err := newTestRefreshJob(store, fetcher, 1, WithRecorder(rec)).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 5, report.Stale)
	assert.Equal(t, 1, report.Updated)
	assert.Equal(t, 2, report.Deferred)
	assert.Equal(t, 1, report.NotFound)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, 2, rec.refresh[RefreshDeferred])

	assert.Equal(t, refreshNow, store.byID("ok").LastMetricsUpdate)

	// A missing video keeps its last known metrics and timestamp.
	gone := store.byID("gone")
	assert.Equal(t, refreshNow.Add(-2*time.Hour), gone.LastMetricsUpdate)
	assert.Zero(t, gone.PerformanceScore)
}

func TestRefreshJob_OnlyStaleVideos(t *testing.T) {
	store := &fakeStore{}
	store.add(staleSub("fresh", 1, "vid-fresh", 10*time.Minute))
	store.add(staleSub("old", 1, "vid-old", 90*time.Minute))

	fetcher := newFakeFetcher()
	fetcher.metrics["vid-old"] = model.VideoMetrics{ViewCount: 100, DurationSeconds: 60}

	report, err := newTestRefreshJob(store, fetcher, 1).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, report.Updated)
	assert.Zero(t, fetcher.calls["vid-fresh"])
	require.Len(t, store.cutoffs, 1)
	assert.Equal(t, refreshNow.Add(-time.Hour), store.cutoffs[0])
}

func TestRefreshJob_NothingStale(t *testing.T) {
	store := &fakeStore{}
	store.add(staleSub("fresh", 1, "vid-fresh", time.Minute))
	fetcher := newFakeFetcher()

	report, err := newTestRefreshJob(store, fetcher, 1).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, RefreshReport{}, report)
	assert.Zero(t, fetcher.totalCalls())
}

func TestRefreshJob_StoreErrorAbortsSweep(t *testing.T) {
	store := &fakeStore{err: errors.New("connection refused")}
	_, err := newTestRefreshJob(store, newFakeFetcher(), 1).Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "list stale videos")
}

func TestRefreshJob_BoundedConcurrency(t *testing.T) {
	store := &fakeStore{}
	fetcher := newFakeFetcher()
	for i := 0; i < 20; i++ {
		vid := fmt.Sprintf("vid-%02d", i)
		store.add(staleSub(fmt.Sprintf("s%d", i), int64(i%3), vid, 2*time.Hour))
		fetcher.metrics[vid] = model.VideoMetrics{ViewCount: int64(i * 100), DurationSeconds: 60}
	}

	report, err := newTestRefreshJob(store, fetcher, 4).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 20, report.Updated)
	assert.Equal(t, 20, fetcher.totalCalls())
}

func TestRefreshJob_InvalidatesCacheAndPublishes(t *testing.T) {
	store := &fakeStore{}
	store.add(staleSub("a", 7, "vid-a", 2*time.Hour))
	store.add(staleSub("b", 8, "vid-a", 2*time.Hour))

	fetcher := newFakeFetcher()
	fetcher.metrics["vid-a"] = model.VideoMetrics{ViewCount: 100, DurationSeconds: 60}

	cache := newFakeCache()
	pub := &capturePublisher{}
	_, err := newTestRefreshJob(store, fetcher, 1, WithCache(cache), WithPublisher(pub)).Run(context.Background())
	require.NoError(t, err)

	assert.ElementsMatch(t, []int64{7, 8}, cache.invalidated)
	assert.Equal(t, 1, pub.count(events.EventMetricsRefreshed))
	assert.Equal(t, []string{"vid-a"}, pub.keys)
}

func TestRefreshJob_RefreshVideoIgnoresStaleness(t *testing.T) {
	store := &fakeStore{}
	store.add(staleSub("new", 1, "vid-new", 0))

	fetcher := newFakeFetcher()
	fetcher.metrics["vid-new"] = model.VideoMetrics{ViewCount: 10, DurationSeconds: 60}

	err := newTestRefreshJob(store, fetcher, 1).RefreshVideo(context.Background(), "vid-new")
	require.NoError(t, err)
	assert.Equal(t, int64(10), store.byID("new").ViewCount)
}
