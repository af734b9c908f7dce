package middleware

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/campusgate/campusgate/pkg/common"
	"github.com/campusgate/campusgate/pkg/infra/audit"
	"github.com/campusgate/campusgate/pkg/infra/prometheus"
)

// Audit records every completed request and feeds the latency histogram.
// The sink is fire-and-forget, so a slow database never shows up in
// request latency.
func Audit(sink *audit.Sink) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		req := RequestFromLocals(c)

		prometheus.RequestDuration.WithLabelValues(
			c.Route().Path, strconv.Itoa(status),
		).Observe(time.Since(start).Seconds())

		details, _ := c.Locals(common.DefenseStateKey).(string)
		sink.Record(audit.Entry{
			Actor:     ActorID(c),
			Action:    req.Method + " " + req.Path,
			IP:        req.IP,
			UserAgent: req.UserAgent,
			Status:    status,
			Details:   details,
		})
		return err
	}
}
