package router

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adilhusain01/campayn/internal/handler"
	"github.com/adilhusain01/campayn/internal/model"
	"github.com/adilhusain01/campayn/internal/service"
	"github.com/adilhusain01/campayn/internal/youtube"
)

type okPinger struct{}

func (okPinger) Ping(context.Context) error { return nil }

type emptyLeaderboard struct{}

func (emptyLeaderboard) Leaderboard(context.Context, int64) ([]model.LeaderboardEntry, error) {
	return nil, nil
}

type noVerifier struct{}

func (noVerifier) VerifyVideoOwnership(context.Context, string, string) (service.OwnershipResult, error) {
	return service.OwnershipResult{}, nil
}

func (noVerifier) VerifyChannel(_ context.Context, channelID, _ string) (service.ChannelVerification, error) {
	return service.ChannelVerification{ChannelID: channelID}, nil
}

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()
	quota := youtube.NewQuotaTracker(10000, time.UTC, nil)
	handler.InitMetrics(prometheus.NewRegistry(), nil, quota)

	limiters := NewLimiters()
	t.Cleanup(limiters.Stop)

	app := fiber.New()
	Setup(app, &Handlers{
		Health:       handler.NewHealthHandler(okPinger{}, "postgres", nil, nil, quota),
		Quota:        handler.NewQuotaHandler(quota),
		Leaderboard:  handler.NewLeaderboardHandler(emptyLeaderboard{}),
		Verification: handler.NewVerificationHandler(noVerifier{}),
	}, limiters, "*")
	return app
}

func TestSetup_Routes(t *testing.T) {
	app := newTestApp(t)

	tests := []struct {
		method string
		path   string
		body   string
		want   int
	}{
		{fiber.MethodGet, "/health/live", "", fiber.StatusOK},
		{fiber.MethodGet, "/health/ready", "", fiber.StatusOK},
		{fiber.MethodGet, "/api/youtube-quota", "", fiber.StatusOK},
		{fiber.MethodGet, "/api/campaigns/1/leaderboard", "", fiber.StatusOK},
		{fiber.MethodPost, "/api/verify/channel", `{"channelId":"UCabc","verificationCode":"c"}`, fiber.StatusOK},
		{fiber.MethodPost, "/api/verify/video-ownership", `{"videoId":"dQw4w9WgXcQ","expectedChannelId":"UCabc"}`, fiber.StatusOK},
		{fiber.MethodGet, "/api/votes", "", fiber.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			if tt.body != "" {
				req.Header.Set("Content-Type", "application/json")
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}

func TestSetup_VerifyIsRateLimited(t *testing.T) {
	app := newTestApp(t)

	var last int
	for i := 0; i < 6; i++ {
		req := httptest.NewRequest(fiber.MethodPost, "/api/verify/channel",
			strings.NewReader(`{"channelId":"UCabc","verificationCode":"c"}`))
		req.Header.Set("Content-Type", "application/json")
		resp, err := app.Test(req)
		require.NoError(t, err)
		last = resp.StatusCode
	}
	assert.Equal(t, fiber.StatusTooManyRequests, last)
}

func TestSetup_CORSPreflight(t *testing.T) {
	app := newTestApp(t)

	req := httptest.NewRequest(fiber.MethodOptions, "/api/youtube-quota", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", fiber.MethodGet)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}
