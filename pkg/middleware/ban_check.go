package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"github.com/campusgate/campusgate/pkg/infra/banlist"
	"github.com/campusgate/campusgate/pkg/infra/prometheus"
)

// BanCheck is the gate in front of everything but panic recovery. It fails
// closed: a banned fingerprint, an unresolvable address and an unreadable
// registry all get the same 403.
func BanCheck(registry *banlist.Registry, logger *logrus.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		req := RequestFromLocals(c)

		banned, err := registry.IsBanned(req.Context, req.IP)
		if err != nil {
			prometheus.BanGateDenied.Inc()
			logger.WithError(err).WithFields(logrus.Fields{
				"trace_id": req.TraceID,
			}).Warn("ban gate denied request")
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"success": false,
				"message": "forbidden",
			})
		}
		if banned {
			prometheus.BanGateDenied.Inc()
			c.Set("X-Ban-Type", "IP")
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"success": false,
				"message": "forbidden",
			})
		}
		return c.Next()
	}
}
