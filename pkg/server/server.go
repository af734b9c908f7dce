package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/campusgate/campusgate/pkg/config"
	portalhttp "github.com/campusgate/campusgate/pkg/handlers/http"
	"github.com/campusgate/campusgate/pkg/infra/audit"
	"github.com/campusgate/campusgate/pkg/infra/banlist"
	"github.com/campusgate/campusgate/pkg/middleware"
	"github.com/campusgate/campusgate/pkg/plugins"
)

type Deps struct {
	Config        *config.Config
	Logger        *logrus.Logger
	Registry      *banlist.Registry
	Manager       *plugins.Manager
	Sink          *audit.Sink
	ExamHandler   *portalhttp.ExamHandler
	HealthHandler *portalhttp.HealthHandler
}

type Server struct {
	app     *fiber.App
	metrics *http.Server
	deps    Deps
}

// New assembles the middleware pipeline. Order is the contract: the ban
// gate runs before anything that costs money, the audit wrapper sits
// outside the defense chain so refused requests are recorded too, and the
// detectors run before any route handler.
func New(deps Deps) *Server {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		AppName:               "campusgate",
	})

	app.Use(middleware.PanicRecover(deps.Logger))
	app.Use(middleware.RequestContext())
	app.Use(middleware.Audit(deps.Sink))
	app.Use(middleware.BanCheck(deps.Registry, deps.Logger))
	app.Use(middleware.Session(deps.Config.Session.JWTSecret, deps.Logger))
	app.Use(middleware.Defense(deps.Manager))

	app.Get("/checkup", deps.HealthHandler.Checkup)

	api := app.Group("/api")
	api.Get("/exams", deps.ExamHandler.ListExams)
	api.Get("/exams/:id", deps.ExamHandler.GetExam)
	api.Post("/exams/submit", deps.ExamHandler.SubmitExam)

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.Handler())
	metrics := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", deps.Config.Server.Host, deps.Config.Server.MetricsPort),
		Handler: metricsMux,
	}

	return &Server{app: app, metrics: metrics, deps: deps}
}

// App exposes the fiber app, used by tests.
func (s *Server) App() *fiber.App {
	return s.app
}

func (s *Server) Run() error {
	go func() {
		if err := s.metrics.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.deps.Logger.WithError(err).Error("metrics server stopped")
		}
	}()

	addr := fmt.Sprintf("%s:%d", s.deps.Config.Server.Host, s.deps.Config.Server.Port)
	s.deps.Logger.WithField("addr", addr).Info("server listening")
	return s.app.Listen(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.metrics.Shutdown(ctx); err != nil {
		s.deps.Logger.WithError(err).Warn("metrics server shutdown failed")
	}
	return s.app.ShutdownWithContext(ctx)
}
