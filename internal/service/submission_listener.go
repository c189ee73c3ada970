package service

import (
	"context"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// SubmissionChannel is the NOTIFY channel raised for new submissions.
const SubmissionChannel = "submission_created"

// VideoRefresher refreshes a single video on demand.
type VideoRefresher interface {
	RefreshVideo(ctx context.Context, videoID string) error
}

// SubmissionListener listens for PostgreSQL NOTIFY on 'submission_created'
// and scores new submissions in batches so a burst of inserts for one video
// costs a single provider call.
type SubmissionListener struct {
	pool      *pgxpool.Pool
	refresher VideoRefresher
	window    time.Duration
	log       zerolog.Logger

	mu      sync.Mutex
	pending map[string]struct{} // video IDs waiting for a refresh
}

// NewSubmissionListener creates a listener with a 5s batch window.
func NewSubmissionListener(pool *pgxpool.Pool, refresher VideoRefresher, log zerolog.Logger) *SubmissionListener {
	return &SubmissionListener{
		pool:      pool,
		refresher: refresher,
		window:    5 * time.Second,
		log:       log.With().Str("component", "submission-listener").Logger(),
		pending:   make(map[string]struct{}),
	}
}

// Start listens until ctx is cancelled, reconnecting after errors.
func (l *SubmissionListener) Start(ctx context.Context) {
	l.log.Info().Dur("batch_window", l.window).Msg("starting")

	for {
		if err := l.listenLoop(ctx); err != nil {
			if ctx.Err() != nil {
				l.log.Info().Msg("stopping (context cancelled)")
				return
			}
			l.log.Warn().Err(err).Msg("listen error, reconnecting in 5s")
			select {
			case <-time.After(5 * time.Second):
			case <-ctx.Done():
				l.log.Info().Msg("stopping (context cancelled)")
				return
			}
		}
	}
}

// listenLoop acquires a dedicated connection, LISTENs and queues payloads.
func (l *SubmissionListener) listenLoop(ctx context.Context) error {
	conn, err := l.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "LISTEN "+SubmissionChannel); err != nil {
		return err
	}
	l.log.Info().Str("channel", SubmissionChannel).Msg("listening")

	flushCtx, flushCancel := context.WithCancel(ctx)
	defer flushCancel()
	go l.flushLoop(flushCtx)

	for {
		n, err := conn.Conn().WaitForNotification(ctx)
		if err != nil {
			return err
		}
		l.enqueue(n.Payload)
	}
}

func (l *SubmissionListener) enqueue(videoID string) {
	if videoID == "" {
		return
	}
	l.mu.Lock()
	l.pending[videoID] = struct{}{}
	l.mu.Unlock()
}

func (l *SubmissionListener) flushLoop(ctx context.Context) {
	ticker := time.NewTicker(l.window)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.flush(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// flush drains the pending set and refreshes each video once.
func (l *SubmissionListener) flush(ctx context.Context) int {
	l.mu.Lock()
	if len(l.pending) == 0 {
		l.mu.Unlock()
		return 0
	}
	batch := l.pending
	l.pending = make(map[string]struct{})
	l.mu.Unlock()

	refreshed := 0
	for videoID := range batch {
		if err := l.refresher.RefreshVideo(ctx, videoID); err != nil {
			// The periodic sweep picks it up later.
			l.log.Warn().Err(err).Str("video_id", videoID).Msg("initial refresh failed")
			continue
		}
		refreshed++
	}

	l.log.Info().Int("refreshed", refreshed).Int("queued", len(batch)).Msg("batch complete")
	return refreshed
}
