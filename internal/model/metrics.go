package model

import "time"

// VideoMetrics is the typed view of a provider video lookup. Missing
// statistics are zero and a missing duration is DefaultDurationSeconds;
// defaults are applied once, by the client that builds this value.
type VideoMetrics struct {
	VideoID         string    `json:"videoId"`
	Title           string    `json:"title"`
	ChannelID       string    `json:"channelId"`
	ChannelTitle    string    `json:"channelTitle"`
	Description     string    `json:"-"`
	PublishedAt     time.Time `json:"publishedAt"`
	ViewCount       int64     `json:"viewCount"`
	LikeCount       int64     `json:"likeCount"`
	CommentCount    int64     `json:"commentCount"`
	DurationSeconds int       `json:"durationSeconds"`
}

// DefaultDurationSeconds is used when the provider omits or mangles a duration.
const DefaultDurationSeconds = 60

// ChannelInfo is the subset of a provider channel lookup used for verification.
type ChannelInfo struct {
	ChannelID         string `json:"channelId"`
	Title             string `json:"title"`
	Description       string `json:"description"`
	BannerDescription string `json:"bannerDescription"`
}

// QuotaStatus reports daily quota consumption.
type QuotaStatus struct {
	Used          int    `json:"used"`
	Limit         int    `json:"limit"`
	Remaining     int    `json:"remaining"`
	Percentage    int    `json:"percentage"`
	RequestsToday int    `json:"requestsToday"`
	ResetDate     string `json:"resetDate"`
}
