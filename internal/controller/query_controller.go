package controller

import (
	"clinical-assist-be/internal/dto"
	"clinical-assist-be/internal/pkg/serverutils"
	"clinical-assist-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IQueryController interface {
	RegisterRoutes(r fiber.Router, jwtMiddleware fiber.Handler)
	Query(ctx *fiber.Ctx) error
}

type queryController struct {
	queryService service.IQueryService
}

func NewQueryController(queryService service.IQueryService) IQueryController {
	return &queryController{
		queryService: queryService,
	}
}

func (c *queryController) RegisterRoutes(r fiber.Router, jwtMiddleware fiber.Handler) {
	h := r.Group("/query/v1")
	h.Use(jwtMiddleware)
	h.Post("", c.Query)
}

func (c *queryController) Query(ctx *fiber.Ctx) error {
	principal, ok := serverutils.PrincipalFromCtx(ctx)
	if !ok {
		return fiber.ErrUnauthorized
	}

	var req dto.QueryRequest
	if err := ctx.BodyParser(&req); err != nil {
		// An unparseable body is still a terminal outcome; it must be
		// audited like any other rejected request.
		return c.queryService.RejectMalformedBody(ctx.Context(), principal)
	}

	// Bounds are validated inside the service so the failure is audited.
	res, err := c.queryService.HandleQuery(ctx.Context(), principal, &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success", res))
}
