package service

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog"

	"github.com/adilhusain01/campayn/internal/model"
)

// LeaderboardService serves ranked submissions for a campaign, read through
// the cache.
type LeaderboardService struct {
	store SubmissionStore
	cache LeaderboardCache
	log   zerolog.Logger
}

// NewLeaderboardService creates the service. cache may be nil.
func NewLeaderboardService(store SubmissionStore, cache LeaderboardCache, log zerolog.Logger) *LeaderboardService {
	return &LeaderboardService{
		store: store,
		cache: cache,
		log:   log.With().Str("component", "leaderboard").Logger(),
	}
}

// Leaderboard returns every submission of campaignID ranked by score.
func (s *LeaderboardService) Leaderboard(ctx context.Context, campaignID int64) ([]model.LeaderboardEntry, error) {
	if s.cache != nil {
		data, err := s.cache.GetLeaderboard(ctx, campaignID)
		if err != nil {
			s.log.Warn().Err(err).Int64("campaign_id", campaignID).Msg("cache read failed")
		} else if data != nil {
			var entries []model.LeaderboardEntry
			if err := json.Unmarshal(data, &entries); err == nil {
				return entries, nil
			}
		}
	}

	subs, err := s.store.TopByCampaign(ctx, campaignID, 0)
	if err != nil {
		return nil, err
	}
	entries := model.Rank(subs)

	if s.cache != nil {
		if err := s.cache.SetLeaderboard(ctx, campaignID, entries); err != nil {
			s.log.Warn().Err(err).Int64("campaign_id", campaignID).Msg("cache write failed")
		}
	}
	return entries, nil
}
