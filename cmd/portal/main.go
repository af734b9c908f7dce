package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/campusgate/campusgate/pkg/cache"
	"github.com/campusgate/campusgate/pkg/config"
	"github.com/campusgate/campusgate/pkg/handlers/http"
	"github.com/campusgate/campusgate/pkg/infra/audit"
	"github.com/campusgate/campusgate/pkg/infra/banlist"
	"github.com/campusgate/campusgate/pkg/infra/examwatch"
	"github.com/campusgate/campusgate/pkg/infra/repository"
	"github.com/campusgate/campusgate/pkg/pluginiface"
	"github.com/campusgate/campusgate/pkg/plugins"
	"github.com/campusgate/campusgate/pkg/plugins/attack_signature"
	"github.com/campusgate/campusgate/pkg/plugins/header_scanner"
	"github.com/campusgate/campusgate/pkg/plugins/ip_denylist"
	"github.com/campusgate/campusgate/pkg/plugins/path_sanitizer"
	"github.com/campusgate/campusgate/pkg/plugins/payload_guard"
	"github.com/campusgate/campusgate/pkg/plugins/probe_blocker"
	"github.com/campusgate/campusgate/pkg/plugins/query_guard"
	"github.com/campusgate/campusgate/pkg/plugins/scanner_redirect"
	"github.com/campusgate/campusgate/pkg/plugins/ua_scorer"
	"github.com/campusgate/campusgate/pkg/server"
	"github.com/campusgate/campusgate/pkg/types"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	if err := godotenv.Load(); err != nil {
		logger.Debug("no .env file found")
	}

	if err := config.Load("./config"); err != nil {
		logger.WithError(err).Fatal("failed to load configuration")
	}
	cfg := config.GetConfig()

	store, err := cache.NewCache(cache.Config{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		logger.WithError(err).Fatal("failed to connect to redis")
	}
	defer store.Close()

	db, err := repository.NewDB(cfg.Database)
	if err != nil {
		logger.WithError(err).Fatal("failed to connect to database")
	}
	if err := repository.AutoMigrate(db); err != nil {
		logger.WithError(err).Fatal("failed to run migrations")
	}

	registry := banlist.NewRegistry(store, cfg.Defense.BanKeyPrefix, logger)
	watcher := examwatch.NewWatcher(store, examwatch.Config{
		SuspiciousWindow: time.Duration(cfg.Exam.SuspiciousWindowSeconds) * time.Second,
		WindowSize:       cfg.Exam.WindowSize,
		FlagTTL:          time.Duration(cfg.Exam.FlagTTLSeconds) * time.Second,
	}, logger)

	sink := audit.NewSink(repository.NewAuditRepository(db), 1024, logger)
	defer sink.Close()

	manager, err := buildDefenseChain(cfg, registry, logger)
	if err != nil {
		logger.WithError(err).Fatal("failed to assemble defense chain")
	}

	examRepo := repository.NewExamRepository(db)
	srv := server.New(server.Deps{
		Config:        cfg,
		Logger:        logger,
		Registry:      registry,
		Manager:       manager,
		Sink:          sink,
		ExamHandler:   http.NewExamHandler(examRepo, watcher, logger),
		HealthHandler: http.NewHealthHandler(store),
	})

	go func() {
		if err := srv.Run(); err != nil {
			logger.WithError(err).Fatal("server stopped")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("shutdown failed")
	}
}

func buildDefenseChain(cfg *config.Config, registry *banlist.Registry, logger *logrus.Logger) (*plugins.Manager, error) {
	manager := plugins.NewManager(logger)

	detectors := []struct {
		plugin   pluginiface.Plugin
		settings map[string]interface{}
	}{
		{payload_guard.NewPayloadGuard(logger), map[string]interface{}{
			"max_payload_bytes": cfg.Defense.MaxPayloadBytes,
		}},
		{ip_denylist.NewIPDenylist(logger), map[string]interface{}{
			"cidrs": cfg.Defense.DenylistCIDRs,
		}},
		{ua_scorer.NewUAScorer(registry, logger), map[string]interface{}{
			"ban_ttl_seconds": cfg.Defense.BanTTLSeconds,
		}},
		{header_scanner.NewHeaderScanner(registry, logger), map[string]interface{}{
			"ban_ttl_seconds": cfg.Defense.BanTTLSeconds,
		}},
		{probe_blocker.NewProbeBlocker(logger), map[string]interface{}{
			"allowed_paths":     cfg.Defense.AllowedPaths,
			"approved_referers": cfg.Defense.ApprovedReferers,
		}},
		{path_sanitizer.NewPathSanitizer(registry, logger), map[string]interface{}{
			"stall_seconds":   cfg.Defense.StallSeconds,
			"ban_ttl_seconds": cfg.Defense.BanTTLSeconds,
		}},
		{query_guard.NewQueryGuard(registry, logger), map[string]interface{}{
			"ban_ttl_seconds": cfg.Defense.BanTTLSeconds,
		}},
		{attack_signature.NewAttackSignature(logger), map[string]interface{}{}},
		// Last: anything that still looks like a CMS sweep gets bounced to
		// the decoy instead of a deceptive error, so the honeypot and stall
		// detectors above see their paths first.
		{scanner_redirect.NewScannerRedirect(logger), map[string]interface{}{
			"decoy_url": cfg.Defense.DecoyURL,
		}},
	}

	chain := make([]types.PluginConfig, 0, len(detectors))
	for i, d := range detectors {
		if err := manager.RegisterPlugin(d.plugin); err != nil {
			return nil, err
		}
		chain = append(chain, types.PluginConfig{
			Name:     d.plugin.Name(),
			Enabled:  true,
			Stage:    types.PreRequest,
			Priority: i + 1,
			Settings: d.settings,
		})
	}

	if err := manager.SetChain(types.PreRequest, chain); err != nil {
		return nil, err
	}
	return manager, nil
}
