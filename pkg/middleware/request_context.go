package middleware

import (
	"net/url"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/campusgate/campusgate/pkg/common"
	"github.com/campusgate/campusgate/pkg/infra/banlist"
	"github.com/campusgate/campusgate/pkg/types"
)

// RequestContext snapshots the request into the shape the detectors
// consume and resolves the client address the way the edge presents it.
// It must run before every other middleware that reads locals.
func RequestContext() fiber.Handler {
	return func(c *fiber.Ctx) error {
		traceID := uuid.NewString()

		headers := make(map[string][]string)
		c.Request().Header.VisitAll(func(key, value []byte) {
			name := string(key)
			headers[name] = append(headers[name], string(value))
		})

		rawQuery := string(c.Request().URI().QueryString())
		query, err := url.ParseQuery(rawQuery)
		if err != nil {
			query = url.Values{}
		}

		ip := banlist.ResolveIP(func(name string) string { return c.Get(name) }, c.IP())

		req := &types.RequestContext{
			Context:   c.UserContext(),
			TraceID:   traceID,
			Method:    c.Method(),
			Path:      string(c.Request().URI().PathOriginal()),
			RawQuery:  rawQuery,
			Query:     query,
			Headers:   headers,
			Body:      c.Body(),
			IP:        ip,
			UserAgent: c.Get("User-Agent"),
			Stage:     types.PreRequest,
		}

		c.Locals(common.RequestContextKey, req)
		c.Locals(common.TraceIdKey, traceID)
		c.Locals(common.ClientIPContextKey, ip)
		c.Set("X-Trace-Id", traceID)
		return c.Next()
	}
}

// RequestFromLocals retrieves the snapshot; it panics if the request
// context middleware is missing, which is a wiring bug, not a runtime
// condition.
func RequestFromLocals(c *fiber.Ctx) *types.RequestContext {
	return c.Locals(common.RequestContextKey).(*types.RequestContext)
}
