package service

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/adilhusain01/campayn/internal/events"
)

// jobDeps are the collaborators shared by the background jobs.
type jobDeps struct {
	cache     LeaderboardCache
	publisher events.Publisher
	recorder  Recorder
	log       zerolog.Logger
	now       func() time.Time
}

func defaultDeps() jobDeps {
	return jobDeps{
		recorder: nopRecorder{},
		log:      zerolog.Nop(),
		now:      time.Now,
	}
}

// JobOption configures RefreshJob and SettlementJob.
type JobOption func(*jobDeps)

func WithCache(c LeaderboardCache) JobOption {
	return func(d *jobDeps) { d.cache = c }
}

func WithPublisher(p events.Publisher) JobOption {
	return func(d *jobDeps) { d.publisher = p }
}

func WithRecorder(r Recorder) JobOption {
	return func(d *jobDeps) {
		if r != nil {
			d.recorder = r
		}
	}
}

func WithLogger(l zerolog.Logger) JobOption {
	return func(d *jobDeps) { d.log = l }
}

func WithClock(now func() time.Time) JobOption {
	return func(d *jobDeps) { d.now = now }
}
