package controller

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type IHealthController interface {
	RegisterRoutes(r fiber.Router)
	Health(ctx *fiber.Ctx) error
}

type healthController struct {
	db *gorm.DB
}

func NewHealthController(db *gorm.DB) IHealthController {
	return &healthController{db: db}
}

func (c *healthController) RegisterRoutes(r fiber.Router) {
	r.Get("/health", c.Health)
}

func (c *healthController) Health(ctx *fiber.Ctx) error {
	sqlDB, err := c.db.DB()
	if err != nil {
		return ctx.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "down", "db": "unreachable"})
	}
	if err := sqlDB.PingContext(ctx.Context()); err != nil {
		return ctx.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "down", "db": "unreachable"})
	}
	return ctx.JSON(fiber.Map{"status": "ok"})
}
