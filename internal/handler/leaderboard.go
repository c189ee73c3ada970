package handler

import (
	"context"

	"github.com/gofiber/fiber/v3"

	"github.com/adilhusain01/campayn/internal/middleware"
	"github.com/adilhusain01/campayn/internal/model"
)

// LeaderboardReader is the read side of service.LeaderboardService.
type LeaderboardReader interface {
	Leaderboard(ctx context.Context, campaignID int64) ([]model.LeaderboardEntry, error)
}

type LeaderboardHandler struct {
	svc LeaderboardReader
}

func NewLeaderboardHandler(svc LeaderboardReader) *LeaderboardHandler {
	return &LeaderboardHandler{svc: svc}
}

// Get handles GET /api/campaigns/:id/leaderboard
func (h *LeaderboardHandler) Get(c fiber.Ctx) error {
	campaignID, errMsg := middleware.ValidateCampaignID(c.Params("id"))
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}

	entries, err := h.svc.Leaderboard(c.Context(), campaignID)
	if err != nil {
		middleware.Logger.Error().Err(err).Int64("campaign_id", campaignID).Msg("leaderboard lookup failed")
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error")
	}
	if entries == nil {
		entries = []model.LeaderboardEntry{}
	}

	return c.JSON(fiber.Map{
		"campaignId":  campaignID,
		"submissions": entries,
		"count":       len(entries),
	})
}
