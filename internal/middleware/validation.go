package middleware

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/gofiber/fiber/v3"
)

// Field length limits matching database schema constraints.
const (
	MaxVideoIDLen   = 16  // submissions.youtube_video_id VARCHAR(16)
	MaxChannelIDLen = 32  // influencers.youtube_channel_id VARCHAR(32)
	MaxVideoRefLen  = 256 // a full watch URL with tracking parameters
	MaxCodeLen      = 64
)

var (
	// videoIDRe matches YouTube video IDs: alphanumeric, dash, underscore.
	videoIDRe = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
	// channelIDRe matches YouTube channel IDs: alphanumeric, dash, underscore.
	channelIDRe = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
)

// ErrorResponse is a helper that returns a standard API error response.
func ErrorResponse(c fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"error": fiber.Map{
			"code":    code,
			"message": message,
		},
	})
}

// ValidateVideoID checks that a video ID is well-formed and within DB limits.
func ValidateVideoID(id string) (string, string) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", "videoId is required"
	}
	if len(id) > MaxVideoIDLen {
		return "", "videoId must be at most 16 characters"
	}
	if !videoIDRe.MatchString(id) {
		return "", "videoId contains invalid characters"
	}
	return id, ""
}

// ValidateVideoRef accepts either a bare video id or a YouTube URL. Only the
// shape is checked here; the id is extracted by the verification service.
func ValidateVideoRef(ref string) (string, string) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", "videoId or youtubeUrl is required"
	}
	if len(ref) > MaxVideoRefLen {
		return "", "youtubeUrl must be at most 256 characters"
	}
	if strings.ContainsFunc(ref, unicode.IsSpace) {
		return "", "youtubeUrl must not contain whitespace"
	}
	return ref, ""
}

// ValidateChannelID checks that a channel ID is well-formed.
func ValidateChannelID(id string) (string, string) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", "channelId is required"
	}
	if len(id) > MaxChannelIDLen {
		return "", "channelId must be at most 32 characters"
	}
	if !channelIDRe.MatchString(id) {
		return "", "channelId contains invalid characters"
	}
	return id, ""
}

// ValidateCampaignID parses a positive campaign id from a path parameter.
func ValidateCampaignID(raw string) (int64, string) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, "campaign id is required"
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, "campaign id must be a positive integer"
	}
	return id, ""
}

// ValidateVerificationCode checks the code an influencer placed on their channel.
func ValidateVerificationCode(code string) (string, string) {
	code = strings.TrimSpace(code)
	if code == "" {
		return "", "verificationCode is required"
	}
	if len(code) > MaxCodeLen {
		return "", "verificationCode must be at most 64 characters"
	}
	if strings.ContainsFunc(code, func(r rune) bool { return !unicode.IsPrint(r) }) {
		return "", "verificationCode contains invalid characters"
	}
	return code, ""
}
