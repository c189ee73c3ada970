package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/adilhusain01/campayn/internal/model"
	"github.com/adilhusain01/campayn/internal/youtube"
)

// recentVideoLimit is how many uploads are searched for a verification code.
const recentVideoLimit = 5

// Verification methods reported on success.
const (
	MethodChannelDescription = "channel_description"
	MethodBannerDescription  = "banner_description"
	MethodVideoDescription   = "video_description"
	MethodVideoTitle         = "video_title"
)

// ChannelLookup is the provider surface used for verification.
type ChannelLookup interface {
	MetricsFetcher
	FetchChannel(ctx context.Context, channelID string) (model.ChannelInfo, error)
	SearchRecentVideos(ctx context.Context, channelID string, max int) ([]string, error)
}

// OwnershipResult answers whether a video was uploaded by a channel.
type OwnershipResult struct {
	VideoID            string `json:"videoId"`
	IsOwner            bool   `json:"isOwner"`
	ActualChannelID    string `json:"actualChannelId"`
	ActualChannelTitle string `json:"actualChannelTitle"`
	VideoTitle         string `json:"videoTitle"`
}

// ChannelVerification reports where a verification code was found.
type ChannelVerification struct {
	ChannelID string `json:"channelId"`
	Verified  bool   `json:"verified"`
	Method    string `json:"verificationMethod,omitempty"`
	VideoID   string `json:"videoId,omitempty"`
}

// VerificationService checks channel and video ownership against the
// provider. It is stateless: callers persist the result.
type VerificationService struct {
	yt  ChannelLookup
	log zerolog.Logger
}

func NewVerificationService(yt ChannelLookup, log zerolog.Logger) *VerificationService {
	return &VerificationService{yt: yt, log: log.With().Str("component", "verification").Logger()}
}

// VerifyVideoOwnership resolves videoRef (an id or URL) and compares its
// uploader with expectedChannelID.
func (s *VerificationService) VerifyVideoOwnership(ctx context.Context, videoRef, expectedChannelID string) (OwnershipResult, error) {
	videoID, ok := youtube.ExtractVideoID(strings.TrimSpace(videoRef))
	if !ok {
		return OwnershipResult{}, fmt.Errorf("%w: %q", ErrInvalidVideoReference, videoRef)
	}

	m, err := s.yt.FetchVideoMetrics(ctx, videoID)
	if err != nil {
		return OwnershipResult{VideoID: videoID}, err
	}

	res := OwnershipResult{
		VideoID:            videoID,
		IsOwner:            m.ChannelID == expectedChannelID,
		ActualChannelID:    m.ChannelID,
		ActualChannelTitle: m.ChannelTitle,
		VideoTitle:         m.Title,
	}
	s.log.Info().
		Str("video_id", videoID).
		Str("expected_channel", expectedChannelID).
		Str("actual_channel", m.ChannelID).
		Bool("is_owner", res.IsOwner).
		Msg("video ownership checked")
	return res, nil
}

// VerifyChannel looks for code in the channel descriptions first and then
// in the titles and descriptions of the newest uploads. The upload search is
// charged at search cost, so it only runs when the cheap check misses.
func (s *VerificationService) VerifyChannel(ctx context.Context, channelID, code string) (ChannelVerification, error) {
	res := ChannelVerification{ChannelID: channelID}
	if code == "" {
		return res, nil
	}

	ch, err := s.yt.FetchChannel(ctx, channelID)
	if err != nil {
		return res, err
	}
	switch {
	case strings.Contains(ch.Description, code):
		res.Verified, res.Method = true, MethodChannelDescription
		return res, nil
	case strings.Contains(ch.BannerDescription, code):
		res.Verified, res.Method = true, MethodBannerDescription
		return res, nil
	}

	ids, err := s.yt.SearchRecentVideos(ctx, channelID, recentVideoLimit)
	if err != nil {
		if errors.Is(err, youtube.ErrQuotaExceeded) {
			return res, err
		}
		s.log.Warn().Err(err).Str("channel_id", channelID).Msg("could not search recent uploads")
		return res, nil
	}

	for _, id := range ids {
		m, err := s.yt.FetchVideoMetrics(ctx, id)
		if err != nil {
			if errors.Is(err, youtube.ErrQuotaExceeded) {
				return res, err
			}
			s.log.Debug().Err(err).Str("video_id", id).Msg("skipping upload")
			continue
		}
		if strings.Contains(m.Description, code) {
			res.Verified, res.Method, res.VideoID = true, MethodVideoDescription, id
			break
		}
		if strings.Contains(m.Title, code) {
			res.Verified, res.Method, res.VideoID = true, MethodVideoTitle, id
			break
		}
	}

	s.log.Info().
		Str("channel_id", channelID).
		Bool("verified", res.Verified).
		Str("method", res.Method).
		Msg("channel verification checked")
	return res, nil
}
