package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/campusgate/campusgate/pkg/cache"
)

type HealthHandler struct {
	cache *cache.Cache
}

func NewHealthHandler(c *cache.Cache) *HealthHandler {
	return &HealthHandler{cache: c}
}

// Checkup answers the load balancer's liveness probe. It reports the state
// of the ban store because the gate fails closed without it: a portal with
// no reachable store refuses everything and should be rotated out.
func (h *HealthHandler) Checkup(c *fiber.Ctx) error {
	storeState := "up"
	if err := h.cache.Client().Ping(c.UserContext()).Err(); err != nil {
		storeState = "down"
	}

	status := fiber.StatusOK
	if storeState != "up" {
		status = fiber.StatusServiceUnavailable
	}
	return c.Status(status).JSON(envelope{
		Success: storeState == "up",
		Message: "checkup",
		Data:    fiber.Map{"ban_store": storeState},
	})
}
