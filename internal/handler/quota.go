package handler

import (
	"github.com/gofiber/fiber/v3"

	"github.com/adilhusain01/campayn/internal/youtube"
)

type QuotaHandler struct {
	quota *youtube.QuotaTracker
}

func NewQuotaHandler(quota *youtube.QuotaTracker) *QuotaHandler {
	return &QuotaHandler{quota: quota}
}

// Get handles GET /api/youtube-quota
func (h *QuotaHandler) Get(c fiber.Ctx) error {
	return c.JSON(h.quota.Status())
}
