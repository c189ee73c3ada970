package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/adilhusain01/campayn/internal/events"
	"github.com/adilhusain01/campayn/internal/model"
	"github.com/adilhusain01/campayn/internal/youtube"
)

// Refresh outcomes, also used as metric labels.
const (
	RefreshUpdated  = "updated"
	RefreshDeferred = "deferred"
	RefreshNotFound = "not_found"
	RefreshFailed   = "failed"
)

// RefreshReport summarizes one sweep.
type RefreshReport struct {
	Stale    int
	Updated  int
	Deferred int
	NotFound int
	Failed   int
	Duration time.Duration
}

func (r *RefreshReport) add(outcome string) {
	switch outcome {
	case RefreshUpdated:
		r.Updated++
	case RefreshDeferred:
		r.Deferred++
	case RefreshNotFound:
		r.NotFound++
	default:
		r.Failed++
	}
}

// RefreshJob re-fetches metrics for stale submissions and rescores them.
type RefreshJob struct {
	store       SubmissionStore
	fetcher     MetricsFetcher
	scorer      *ScoreService
	staleAfter  time.Duration
	concurrency int
	jobDeps
}

// NewRefreshJob creates the job. concurrency below 1 means sequential.
func NewRefreshJob(store SubmissionStore, fetcher MetricsFetcher, scorer *ScoreService, staleAfter time.Duration, concurrency int, opts ...JobOption) *RefreshJob {
	if concurrency < 1 {
		concurrency = 1
	}
	j := &RefreshJob{
		store:       store,
		fetcher:     fetcher,
		scorer:      scorer,
		staleAfter:  staleAfter,
		concurrency: concurrency,
		jobDeps:     defaultDeps(),
	}
	for _, opt := range opts {
		opt(&j.jobDeps)
	}
	j.log = j.log.With().Str("component", "refresh-job").Logger()
	return j
}

// Task adapts Run for a Worker.
func (j *RefreshJob) Task() Task {
	return func(ctx context.Context) error {
		_, err := j.Run(ctx)
		return err
	}
}

// Run performs one sweep. Per-video failures are logged and counted, never
// returned; the error is only set when the stale set cannot be listed.
func (j *RefreshJob) Run(ctx context.Context) (RefreshReport, error) {
	start := j.now()
	var report RefreshReport

	ids, err := j.store.StaleVideoIDs(ctx, start.Add(-j.staleAfter))
	if err != nil {
		return report, fmt.Errorf("list stale videos: %w", err)
	}
	report.Stale = len(ids)
	if len(ids) == 0 {
		j.log.Debug().Msg("no stale submissions")
		return report, nil
	}

	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	g.SetLimit(j.concurrency)
	for _, videoID := range ids {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			outcome := j.refreshOne(ctx, videoID)
			j.recorder.RecordRefresh(outcome)
			mu.Lock()
			report.add(outcome)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	report.Duration = j.now().Sub(start)
	j.log.Info().
		Int("stale", report.Stale).
		Int("updated", report.Updated).
		Int("deferred", report.Deferred).
		Int("not_found", report.NotFound).
		Int("failed", report.Failed).
		Dur("elapsed", report.Duration).
		Msg("sweep complete")
	return report, nil
}

func (j *RefreshJob) refreshOne(ctx context.Context, videoID string) string {
	err := j.RefreshVideo(ctx, videoID)
	switch {
	case err == nil:
		return RefreshUpdated
	case youtube.IsDeferrable(err):
		j.log.Info().Err(err).Str("video_id", videoID).Msg("refresh deferred to next cycle")
		return RefreshDeferred
	case errors.Is(err, youtube.ErrNotFound):
		j.log.Warn().Str("video_id", videoID).Msg("video not found, keeping last known metrics")
		return RefreshNotFound
	default:
		j.log.Error().Err(err).Str("video_id", videoID).Msg("refresh failed")
		return RefreshFailed
	}
}

// RefreshVideo fetches, scores and persists one video regardless of how
// stale it is. Every submission sharing the id receives the same update.
func (j *RefreshJob) RefreshVideo(ctx context.Context, videoID string) error {
	m, err := j.fetcher.FetchVideoMetrics(ctx, videoID)
	if err != nil {
		return err
	}

	u := model.MetricsUpdate{
		ViewCount:        m.ViewCount,
		LikeCount:        m.LikeCount,
		CommentCount:     m.CommentCount,
		PerformanceScore: j.scorer.Score(m.ViewCount, m.LikeCount, m.CommentCount, float64(m.DurationSeconds)),
		UpdatedAt:        j.now(),
	}
	campaigns, err := j.store.UpdateMetricsByVideoID(ctx, videoID, u)
	if err != nil {
		return fmt.Errorf("update submissions for %s: %w", videoID, err)
	}

	if j.cache != nil {
		for _, id := range campaigns {
			if err := j.cache.InvalidateLeaderboard(ctx, id); err != nil {
				j.log.Warn().Err(err).Int64("campaign_id", id).Msg("cache invalidate failed")
			}
		}
	}

	err = events.Emit(ctx, j.publisher, events.EventMetricsRefreshed, videoID, events.MetricsRefreshed{
		VideoID:          videoID,
		CampaignIDs:      campaigns,
		ViewCount:        u.ViewCount,
		LikeCount:        u.LikeCount,
		CommentCount:     u.CommentCount,
		PerformanceScore: u.PerformanceScore,
	})
	if err != nil {
		j.log.Warn().Err(err).Str("video_id", videoID).Msg("publish metrics event failed")
	}

	j.log.Debug().
		Str("video_id", videoID).
		Int64("views", u.ViewCount).
		Float64("score", u.PerformanceScore).
		Int("campaigns", len(campaigns)).
		Msg("video refreshed")
	return nil
}
