package handler

import (
	"errors"

	"github.com/gofiber/fiber/v3"

	"github.com/adilhusain01/campayn/internal/middleware"
	"github.com/adilhusain01/campayn/internal/service"
	"github.com/adilhusain01/campayn/internal/youtube"
)

// providerError maps a failed YouTube-backed operation onto the API envelope.
func providerError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrInvalidVideoReference):
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", "Could not extract a video id from the given reference")
	case errors.Is(err, youtube.ErrNotFound):
		return middleware.ErrorResponse(c, fiber.StatusNotFound, "NOT_FOUND", "Video or channel not found on YouTube")
	case errors.Is(err, youtube.ErrQuotaExceeded):
		c.Set("Retry-After", "3600")
		return middleware.ErrorResponse(c, fiber.StatusTooManyRequests, "QUOTA_EXCEEDED", "Daily YouTube API quota exhausted, try again later")
	case errors.Is(err, youtube.ErrAccessDenied):
		return middleware.ErrorResponse(c, fiber.StatusBadGateway, "PROVIDER_ACCESS_DENIED", "YouTube rejected the request")
	case errors.Is(err, youtube.ErrMetricsUnavailable):
		return middleware.ErrorResponse(c, fiber.StatusServiceUnavailable, "PROVIDER_UNAVAILABLE", "YouTube is temporarily unavailable")
	default:
		middleware.Logger.Error().Err(err).Str("path", c.Path()).Msg("provider call failed")
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error")
	}
}
