package middleware

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/campusgate/campusgate/pkg/common"
	"github.com/campusgate/campusgate/pkg/infra/prometheus"
	"github.com/campusgate/campusgate/pkg/plugins"
	"github.com/campusgate/campusgate/pkg/types"
)

// Defense runs the detector chain and translates a blocking verdict into
// the wire response. The verdict's status code, headers and body are sent
// exactly as the detector chose them; deception only works when nothing
// downstream "corrects" it.
func Defense(manager *plugins.Manager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		req := RequestFromLocals(c)
		resp := &types.ResponseContext{}

		if pluginErr := manager.ExecuteStage(req.Context, types.PreRequest, req, resp); pluginErr != nil {
			prometheus.RequestsBlocked.WithLabelValues(
				pluginErr.Detector, strconv.Itoa(pluginErr.StatusCode),
			).Inc()

			if pluginErr.Details != "" {
				c.Locals(common.DefenseStateKey, pluginErr.Detector+": "+pluginErr.Details)
			}

			for name, values := range pluginErr.Headers {
				for _, value := range values {
					c.Set(name, value)
				}
			}
			if pluginErr.Body != nil {
				return c.Status(pluginErr.StatusCode).Send(pluginErr.Body)
			}
			return c.Status(pluginErr.StatusCode).JSON(fiber.Map{
				"success": false,
				"message": pluginErr.Message,
			})
		}

		for name, values := range resp.Headers {
			for _, value := range values {
				c.Set(name, value)
			}
		}
		return c.Next()
	}
}
