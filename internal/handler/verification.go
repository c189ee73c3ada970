package handler

import (
	"context"

	"github.com/gofiber/fiber/v3"

	"github.com/adilhusain01/campayn/internal/middleware"
	"github.com/adilhusain01/campayn/internal/service"
)

// Verifier is the surface of service.VerificationService used over HTTP.
type Verifier interface {
	VerifyVideoOwnership(ctx context.Context, videoRef, expectedChannelID string) (service.OwnershipResult, error)
	VerifyChannel(ctx context.Context, channelID, code string) (service.ChannelVerification, error)
}

type VideoOwnershipRequest struct {
	VideoID           string `json:"videoId"`
	YouTubeURL        string `json:"youtubeUrl"`
	ExpectedChannelID string `json:"expectedChannelId"`
}

type ChannelVerificationRequest struct {
	ChannelID        string `json:"channelId"`
	VerificationCode string `json:"verificationCode"`
}

type VerificationHandler struct {
	svc Verifier
}

func NewVerificationHandler(svc Verifier) *VerificationHandler {
	return &VerificationHandler{svc: svc}
}

// VideoOwnership handles POST /api/verify/video-ownership
func (h *VerificationHandler) VideoOwnership(c fiber.Ctx) error {
	var req VideoOwnershipRequest
	if err := c.Bind().JSON(&req); err != nil {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_BODY", "Invalid request body")
	}

	// A full URL wins over a bare id when both are sent.
	ref := req.YouTubeURL
	if ref == "" {
		ref = req.VideoID
	}
	ref, errMsg := middleware.ValidateVideoRef(ref)
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}

	channelID, errMsg := middleware.ValidateChannelID(req.ExpectedChannelID)
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}

	res, err := h.svc.VerifyVideoOwnership(c.Context(), ref, channelID)
	if err != nil {
		return providerError(c, err)
	}
	return c.JSON(res)
}

// Channel handles POST /api/verify/channel
func (h *VerificationHandler) Channel(c fiber.Ctx) error {
	var req ChannelVerificationRequest
	if err := c.Bind().JSON(&req); err != nil {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_BODY", "Invalid request body")
	}

	channelID, errMsg := middleware.ValidateChannelID(req.ChannelID)
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}

	code, errMsg := middleware.ValidateVerificationCode(req.VerificationCode)
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}

	res, err := h.svc.VerifyChannel(c.Context(), channelID, code)
	if err != nil {
		return providerError(c, err)
	}
	return c.JSON(res)
}
