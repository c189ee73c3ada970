package model

import "time"

// Submission is one influencer's video entry into one campaign.
// (CampaignID, InfluencerID) is unique; the upstream intake layer enforces it.
type Submission struct {
	ID                string    `json:"id"`
	CampaignID        int64     `json:"campaignId"`
	InfluencerID      string    `json:"influencerId"`
	WalletAddress     string    `json:"walletAddress"`
	ChannelName       string    `json:"youtubeChannelName,omitempty"`
	VideoID           string    `json:"youtubeVideoId"`
	VideoURL          string    `json:"youtubeUrl"`
	ViewCount         int64     `json:"viewCount"`
	LikeCount         int64     `json:"likeCount"`
	CommentCount      int64     `json:"commentCount"`
	PerformanceScore  float64   `json:"performanceScore"`
	LastMetricsUpdate time.Time `json:"lastMetricsUpdate"`
	CreatedAt         time.Time `json:"createdAt"`
}

// MetricsUpdate carries the refreshed fields written to every submission
// backed by the same video.
type MetricsUpdate struct {
	ViewCount        int64
	LikeCount        int64
	CommentCount     int64
	PerformanceScore float64
	UpdatedAt        time.Time
}

// LeaderboardEntry is a submission with its 1-based rank in the campaign.
type LeaderboardEntry struct {
	Submission
	Rank int `json:"rank"`
}

// Rank assigns ranks to submissions already ordered by score descending.
func Rank(subs []Submission) []LeaderboardEntry {
	entries := make([]LeaderboardEntry, len(subs))
	for i, s := range subs {
		entries[i] = LeaderboardEntry{Submission: s, Rank: i + 1}
	}
	return entries
}
