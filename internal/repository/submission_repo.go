package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/adilhusain01/campayn/internal/model"
)

// SubmissionRepo is the Postgres submission store.
type SubmissionRepo struct {
	pool *pgxpool.Pool
}

func NewSubmissionRepo(pool *pgxpool.Pool) *SubmissionRepo {
	return &SubmissionRepo{pool: pool}
}

// StaleVideoIDs returns distinct video ids with at least one submission last
// refreshed before cutoff.
func (r *SubmissionRepo) StaleVideoIDs(ctx context.Context, cutoff time.Time) ([]string, error) {
	query := `
		SELECT DISTINCT youtube_video_id
		FROM submissions
		WHERE last_metrics_update < $1
		ORDER BY youtube_video_id`

	rows, err := r.pool.Query(ctx, query, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// UpdateMetricsByVideoID writes u to every submission of videoID in one
// statement and returns the distinct campaigns touched.
func (r *SubmissionRepo) UpdateMetricsByVideoID(ctx context.Context, videoID string, u model.MetricsUpdate) ([]int64, error) {
	query := `
		UPDATE submissions
		SET view_count = $2, like_count = $3, comment_count = $4,
		    performance_score = $5, last_metrics_update = $6
		WHERE youtube_video_id = $1
		RETURNING campaign_id`

	rows, err := r.pool.Query(ctx, query,
		videoID, u.ViewCount, u.LikeCount, u.CommentCount, u.PerformanceScore, u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	seen := make(map[int64]struct{})
	var campaigns []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			campaigns = append(campaigns, id)
		}
	}
	return campaigns, rows.Err()
}

// TopByCampaign returns a campaign's submissions ordered by score, earliest
// submission first on ties. limit <= 0 returns all rows.
func (r *SubmissionRepo) TopByCampaign(ctx context.Context, campaignID int64, limit int) ([]model.Submission, error) {
	query := `
		SELECT s.id, s.campaign_id, s.influencer_id, i.wallet_address,
		       COALESCE(i.youtube_channel_name, ''), s.youtube_video_id, s.youtube_url,
		       s.view_count, s.like_count, s.comment_count, s.performance_score,
		       s.last_metrics_update, s.created_at
		FROM submissions s
		JOIN influencers i ON i.id = s.influencer_id
		WHERE s.campaign_id = $1
		ORDER BY s.performance_score DESC, s.created_at ASC
		LIMIT $2`

	var lim any
	if limit > 0 {
		lim = limit
	}

	rows, err := r.pool.Query(ctx, query, campaignID, lim)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subs []model.Submission
	for rows.Next() {
		var s model.Submission
		if err := rows.Scan(
			&s.ID, &s.CampaignID, &s.InfluencerID, &s.WalletAddress,
			&s.ChannelName, &s.VideoID, &s.VideoURL,
			&s.ViewCount, &s.LikeCount, &s.CommentCount, &s.PerformanceScore,
			&s.LastMetricsUpdate, &s.CreatedAt,
		); err != nil {
			return nil, err
		}
		subs = append(subs, s)
	}
	return subs, rows.Err()
}

// Ping checks connectivity for health probes.
func (r *SubmissionRepo) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}
