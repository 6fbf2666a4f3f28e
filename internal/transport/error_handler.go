package transport

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/kursadbilgin/form-relay/internal/domain"
	"github.com/kursadbilgin/form-relay/internal/provider"
	"go.uber.org/zap"
)

// Error codes surfaced in the JSON error body.
const (
	CodeValidation       = "VALIDATION"
	CodeNotFound         = "NOT_FOUND"
	CodeConflict         = "CONFLICT"
	CodeRateLimited      = "RATE_LIMITED"
	CodeNetworkTransient = "NETWORK_TRANSIENT"
	CodeProviderFatal    = "PROVIDER_FATAL"
	CodeStoreError       = "STORE_ERROR"
	CodeInternal         = "INTERNAL"
)

// ErrorHandler maps errors to `{error, message, details?}` bodies with the
// matching HTTP status.
func ErrorHandler(logger *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status, code := classify(err)

		logger.Error("request error",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", status),
			zap.String("code", code),
			zap.Error(err),
		)

		body := fiber.Map{
			"error":   code,
			"message": err.Error(),
		}
		if details := errorDetails(err); details != "" {
			body["details"] = details
		}

		return c.Status(status).JSON(body)
	}
}

func classify(err error) (int, string) {
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		code := CodeInternal
		if fiberErr.Code >= 400 && fiberErr.Code < 500 {
			code = CodeValidation
		}
		return fiberErr.Code, code
	}

	switch {
	case errors.Is(err, domain.ErrValidation):
		return fiber.StatusBadRequest, CodeValidation
	case errors.Is(err, domain.ErrNotFound):
		return fiber.StatusNotFound, CodeNotFound
	case errors.Is(err, domain.ErrConflict):
		return fiber.StatusConflict, CodeConflict
	case errors.Is(err, domain.ErrRateLimited):
		return fiber.StatusTooManyRequests, CodeRateLimited
	case errors.Is(err, domain.ErrStore):
		return fiber.StatusInternalServerError, CodeStoreError
	}

	var providerErr *provider.ProviderError
	if errors.As(err, &providerErr) {
		switch providerErr.Kind {
		case provider.KindNetwork, provider.KindHandshake:
			return fiber.StatusGatewayTimeout, CodeNetworkTransient
		default:
			return fiber.StatusBadGateway, CodeProviderFatal
		}
	}

	return fiber.StatusInternalServerError, CodeInternal
}

func errorDetails(err error) string {
	var providerErr *provider.ProviderError
	if errors.As(err, &providerErr) && providerErr.Cause != nil {
		return providerErr.Cause.Error()
	}
	return ""
}
