package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/nijaru/transcript-server/errors"
	"github.com/sirupsen/logrus"
)

// NewErrorHandler renders every error as {"error": message}. Responses on
// the audio endpoints also carry "success": false.
func NewErrorHandler(logger logrus.FieldLogger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		message := "Internal Server Error"

		if e, ok := errors.As(err); ok {
			code = e.Code
			message = e.Message
		} else if e, ok := err.(*fiber.Error); ok {
			code = e.Code
			message = e.Message
		}

		entry := logger.WithFields(logrus.Fields{
			"request_id": c.GetRespHeader(fiber.HeaderXRequestID),
			"path":       c.Path(),
			"method":     c.Method(),
			"status":     code,
		}).WithError(err)
		if code >= fiber.StatusInternalServerError {
			entry.Error("Request error")
		} else {
			entry.Info("Request rejected")
		}

		body := fiber.Map{"error": message}
		if strings.HasPrefix(c.Path(), "/transcribe") {
			body["success"] = false
		}
		return c.Status(code).JSON(body)
	}
}
