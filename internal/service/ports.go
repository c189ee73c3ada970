package service

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/adilhusain01/campayn/internal/model"
)

// SubmissionStore is the narrow view of the document store the jobs need.
type SubmissionStore interface {
	// StaleVideoIDs returns distinct video ids with a submission whose
	// metrics were last updated before cutoff.
	StaleVideoIDs(ctx context.Context, cutoff time.Time) ([]string, error)
	// UpdateMetricsByVideoID writes u to every submission backed by videoID
	// and returns the campaigns touched.
	UpdateMetricsByVideoID(ctx context.Context, videoID string, u model.MetricsUpdate) ([]int64, error)
	// TopByCampaign returns submissions ordered by score descending.
	// limit <= 0 returns all of them.
	TopByCampaign(ctx context.Context, campaignID int64, limit int) ([]model.Submission, error)
}

// MetricsFetcher looks up current statistics for one video.
type MetricsFetcher interface {
	FetchVideoMetrics(ctx context.Context, videoID string) (model.VideoMetrics, error)
}

// CampaignContract is the on-chain campaign registry.
type CampaignContract interface {
	ActiveCampaignIDs(ctx context.Context) ([]*big.Int, error)
	CampaignInfo(ctx context.Context, id *big.Int) (model.CampaignInfo, error)
	// CampaignInfluencers returns the wallets registered for the campaign.
	CampaignInfluencers(ctx context.Context, id *big.Int) ([]common.Address, error)
	// CompleteCampaign sends the payout transaction and waits for it to be
	// mined. A reverted receipt is returned as an error.
	CompleteCampaign(ctx context.Context, id *big.Int, winners [3]common.Address, rewards [3]*big.Int) (*types.Receipt, error)
}

// LeaderboardCache stores rendered leaderboards per campaign.
type LeaderboardCache interface {
	GetLeaderboard(ctx context.Context, campaignID int64) ([]byte, error)
	SetLeaderboard(ctx context.Context, campaignID int64, data any) error
	InvalidateLeaderboard(ctx context.Context, campaignID int64) error
}

// Locker provides a best-effort mutual exclusion lease across replicas.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (unlock func(context.Context) error, acquired bool, err error)
}

// Recorder receives job outcomes for metrics.
type Recorder interface {
	RecordRefresh(outcome string)
	RecordSettlement(outcome string)
	ObserveJob(job string, d time.Duration, err error)
}

type nopRecorder struct{}

func (nopRecorder) RecordRefresh(string)                    {}
func (nopRecorder) RecordSettlement(string)                 {}
func (nopRecorder) ObserveJob(string, time.Duration, error) {}
