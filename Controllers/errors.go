package Controllers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"Lulan/Biometrics"
	"Lulan/Models"
	"Lulan/Session"
)

// StatusFor maps an operation error onto an HTTP status.
func StatusFor(err error) int {
	var validation *Models.ValidationError
	var duplicate *Models.DuplicateFieldError
	switch {
	case errors.As(err, &validation),
		errors.Is(err, Biometrics.ErrIncompleteProfile):
		return fiber.StatusBadRequest
	case errors.As(err, &duplicate),
		errors.Is(err, Models.ErrAuthInProgress),
		errors.Is(err, Biometrics.ErrTemplateExists):
		return fiber.StatusConflict
	case errors.Is(err, Models.ErrUnauthenticated),
		errors.Is(err, Models.ErrAuth),
		errors.Is(err, Models.ErrInvalidCredentials),
		errors.Is(err, Biometrics.ErrFaceMismatch):
		return fiber.StatusUnauthorized
	case errors.Is(err, Models.ErrForbidden),
		errors.Is(err, Models.ErrVoiceRequiresFace):
		return fiber.StatusForbidden
	case errors.Is(err, Models.ErrIndexOutOfRange),
		errors.Is(err, Models.ErrNotFound),
		errors.Is(err, Biometrics.ErrNoSavedFace):
		return fiber.StatusNotFound
	case errors.Is(err, Models.ErrRemoteWriteFailed):
		return fiber.StatusBadGateway
	case errors.Is(err, Session.ErrGoogleDisabled):
		return fiber.StatusNotImplemented
	default:
		return fiber.StatusInternalServerError
	}
}

// Fail writes the single message for err with its status.
func Fail(c *fiber.Ctx, err error) error {
	body := fiber.Map{"error": Models.Message(err)}
	var validation *Models.ValidationError
	var duplicate *Models.DuplicateFieldError
	switch {
	case errors.As(err, &validation) && validation.Field != "":
		body["field"] = validation.Field
	case errors.As(err, &duplicate):
		body["field"] = duplicate.Field
	}
	return c.Status(StatusFor(err)).JSON(body)
}

func badBody(c *fiber.Ctx, err error) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body: " + err.Error()})
}
