// Package path_sanitizer polices the request path itself: traversal
// attempts, embedded null bytes, shell metacharacters and secret-file
// lookups. Every hit except a plain malformed encoding bans the sender,
// and each category answers with a different misleading status.
package path_sanitizer

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/sirupsen/logrus"

	"github.com/campusgate/campusgate/pkg/infra/banlist"
	"github.com/campusgate/campusgate/pkg/infra/prometheus"
	"github.com/campusgate/campusgate/pkg/pluginiface"
	"github.com/campusgate/campusgate/pkg/types"
)

const PluginName = "path_sanitizer"

type Config struct {
	// StallSeconds delays the honeypot answer for secret-file lookups.
	StallSeconds  int `mapstructure:"stall_seconds"`
	BanTTLSeconds int `mapstructure:"ban_ttl_seconds"`
}

type PathSanitizer struct {
	registry *banlist.Registry
	logger   *logrus.Logger
}

func NewPathSanitizer(registry *banlist.Registry, logger *logrus.Logger) pluginiface.Plugin {
	return &PathSanitizer{registry: registry, logger: logger}
}

func (p *PathSanitizer) Name() string {
	return PluginName
}

func (p *PathSanitizer) Stages() []types.Stage {
	return []types.Stage{types.PreRequest}
}

func (p *PathSanitizer) AllowedStages() []types.Stage {
	return []types.Stage{types.PreRequest}
}

func (p *PathSanitizer) ValidateConfig(config types.PluginConfig) error {
	var cfg Config
	if err := mapstructure.Decode(config.Settings, &cfg); err != nil {
		return fmt.Errorf("failed to decode config: %w", err)
	}
	if cfg.StallSeconds < 0 || cfg.BanTTLSeconds < 0 {
		return fmt.Errorf("durations must not be negative")
	}
	return nil
}

func (p *PathSanitizer) Execute(ctx context.Context, pluginConfig types.PluginConfig, req *types.RequestContext, resp *types.ResponseContext) (*types.PluginResponse, *types.PluginError) {
	var cfg Config
	if err := mapstructure.Decode(pluginConfig.Settings, &cfg); err != nil {
		return nil, &types.PluginError{
			StatusCode: http.StatusInternalServerError,
			Message:    "failed to decode config",
			Err:        err,
		}
	}
	if cfg.StallSeconds == 0 {
		cfg.StallSeconds = 5
	}

	rawPath := req.Path
	decodedPath, err := url.PathUnescape(rawPath)
	if err != nil {
		// Undecodable garbage is rejected but not worth a ban: broken
		// clients produce it too.
		return nil, &types.PluginError{
			StatusCode: http.StatusBadRequest,
			Message:    "bad request",
		}
	}

	// Collapse duplicate slashes first so "//.env" and "/backup//db" cannot
	// sidestep any of the checks below.
	for strings.Contains(decodedPath, "//") {
		decodedPath = strings.ReplaceAll(decodedPath, "//", "/")
	}

	if strings.ContainsRune(decodedPath, 0) || strings.Contains(rawPath, "%00") {
		p.ban(ctx, req, cfg, "null byte in path")
		return nil, &types.PluginError{
			StatusCode: http.StatusBadRequest,
			Message:    "bad request",
		}
	}

	for _, pattern := range traversalPatterns {
		if pattern.MatchString(rawPath) || pattern.MatchString(decodedPath) {
			p.ban(ctx, req, cfg, "path traversal attempt")
			return nil, &types.PluginError{
				StatusCode: http.StatusNotFound,
				Message:    "not found",
			}
		}
	}

	for _, pattern := range commandInjectionPatterns {
		if pattern.MatchString(decodedPath) {
			p.ban(ctx, req, cfg, "command injection characters in path")
			return nil, &types.PluginError{
				StatusCode: http.StatusTeapot,
				Message:    "i'm a teapot",
			}
		}
	}

	lowered := strings.ToLower(decodedPath)
	for _, fragment := range stallFragments {
		if strings.Contains(lowered, fragment) {
			p.ban(ctx, req, cfg, "secret file lookup")
			p.stall(ctx, time.Duration(cfg.StallSeconds)*time.Second)
			return nil, &types.PluginError{
				StatusCode: http.StatusOK,
				Message:    "stalled honeypot",
				Body:       []byte{},
			}
		}
	}

	return &types.PluginResponse{StatusCode: http.StatusOK, Message: "request allowed"}, nil
}

// stall holds the response for the configured delay, or less when the
// client gives up first.
func (p *PathSanitizer) stall(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}

func (p *PathSanitizer) ban(ctx context.Context, req *types.RequestContext, cfg Config, reason string) {
	ttl := time.Duration(cfg.BanTTLSeconds) * time.Second
	if err := p.registry.Ban(ctx, req.IP, ttl, reason); err != nil {
		p.logger.WithError(err).WithField("trace_id", req.TraceID).Error("failed to ban client")
		return
	}
	prometheus.BansIssued.WithLabelValues(PluginName).Inc()
}
