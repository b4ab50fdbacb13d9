package controller

import (
	"errors"

	"clinical-assist-be/internal/dto"
	"clinical-assist-be/internal/pkg/errs"
	"clinical-assist-be/internal/pkg/serverutils"
	"clinical-assist-be/internal/service"
	"clinical-assist-be/pkg/authz"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IAuditController interface {
	RegisterRoutes(r fiber.Router, jwtMiddleware fiber.Handler)
	List(ctx *fiber.Ctx) error
	Get(ctx *fiber.Ctx) error
	Verify(ctx *fiber.Ctx) error
}

type auditController struct {
	auditService service.IAuditService
}

func NewAuditController(auditService service.IAuditService) IAuditController {
	return &auditController{
		auditService: auditService,
	}
}

func (c *auditController) RegisterRoutes(r fiber.Router, jwtMiddleware fiber.Handler) {
	h := r.Group("/audit/v1")
	h.Use(jwtMiddleware)
	h.Use(requireAdmin)
	h.Get("", c.List)
	h.Get("verify", c.Verify)
	h.Get(":id", c.Get)
}

// requireAdmin gates the audit read API. Compliance data is itself sensitive;
// only admins see it.
func requireAdmin(ctx *fiber.Ctx) error {
	principal, ok := serverutils.PrincipalFromCtx(ctx)
	if !ok {
		return fiber.ErrUnauthorized
	}
	if !principal.HasRole(authz.RoleAdmin) {
		return ctx.Status(fiber.StatusForbidden).
			JSON(serverutils.ErrorResponse("denied", "admin role required"))
	}
	return ctx.Next()
}

func (c *auditController) List(ctx *fiber.Ctx) error {
	var req dto.ListAuditRequest
	if err := ctx.QueryParser(&req); err != nil {
		return fiber.ErrBadRequest
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.auditService.List(ctx.Context(), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success list audit entries", res))
}

func (c *auditController) Get(ctx *fiber.Ctx) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return errs.Validation("id", "must be a valid uuid")
	}

	res, err := c.auditService.Get(ctx.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrAuditEntryNotFound) {
			return fiber.ErrNotFound
		}
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get audit entry", res))
}

func (c *auditController) Verify(ctx *fiber.Ctx) error {
	res, err := c.auditService.VerifyChain(ctx.Context())
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success verify audit chain", res))
}
