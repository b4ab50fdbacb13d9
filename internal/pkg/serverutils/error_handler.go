package serverutils

import (
	"errors"

	"clinical-assist-be/internal/pkg/errs"
	"clinical-assist-be/internal/pkg/logger"

	"github.com/gofiber/fiber/v2"
)

// NewErrorHandler maps the error taxonomy onto HTTP statuses. Callers only
// ever see a stable code and a safe message; internals stay in the log.
func NewErrorHandler(log logger.ILogger) fiber.ErrorHandler {
	return func(ctx *fiber.Ctx, err error) error {
		var ve *errs.ValidationError
		var de *errs.DeniedError
		var depErr *errs.DependencyError
		var ie *errs.InternalError
		var fiberErr *fiber.Error

		switch {
		case errors.As(err, &ve):
			return ctx.Status(fiber.StatusBadRequest).
				JSON(ErrorResponse("validation", ve.Error()))

		case errors.As(err, &de):
			return ctx.Status(fiber.StatusForbidden).
				JSON(ErrorResponse("denied", "access to this patient is not permitted"))

		case errors.As(err, &depErr):
			log.Error("http", "dependency failure surfaced to caller", map[string]interface{}{
				"path":  ctx.Path(),
				"class": errs.Class(err),
				"error": err.Error(),
			})
			return ctx.Status(fiber.StatusInternalServerError).
				JSON(ErrorResponse(errs.Class(err), "a backing service failed, please retry"))

		case errors.As(err, &ie):
			log.Error("http", "internal invariant violation", map[string]interface{}{
				"path":  ctx.Path(),
				"class": errs.Class(err),
				"error": err.Error(),
			})
			return ctx.Status(fiber.StatusInternalServerError).
				JSON(ErrorResponse(errs.Class(err), "internal error"))

		case errors.As(err, &fiberErr):
			return ctx.Status(fiberErr.Code).
				JSON(ErrorResponse("http_error", fiberErr.Message))

		default:
			log.Error("http", "unclassified error", map[string]interface{}{
				"path":  ctx.Path(),
				"error": err.Error(),
			})
			return ctx.Status(fiber.StatusInternalServerError).
				JSON(ErrorResponse("unknown", "internal error"))
		}
	}
}
