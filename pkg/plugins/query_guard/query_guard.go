// Package query_guard inspects the query string. Values carrying a real
// attack payload get the sender banned and answered with a fake outage;
// merely suspicious parameter names get a throttle response so tooling
// that iterates parameter lists slows itself down.
package query_guard

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/sirupsen/logrus"

	"github.com/campusgate/campusgate/pkg/infra/banlist"
	"github.com/campusgate/campusgate/pkg/infra/prometheus"
	"github.com/campusgate/campusgate/pkg/pluginiface"
	"github.com/campusgate/campusgate/pkg/types"
)

const PluginName = "query_guard"

type Config struct {
	// BanTTLSeconds is the ban length for a dangerous payload; 0 means
	// permanent.
	BanTTLSeconds int `mapstructure:"ban_ttl_seconds"`
}

type QueryGuard struct {
	registry *banlist.Registry
	logger   *logrus.Logger
}

func NewQueryGuard(registry *banlist.Registry, logger *logrus.Logger) pluginiface.Plugin {
	return &QueryGuard{registry: registry, logger: logger}
}

func (p *QueryGuard) Name() string {
	return PluginName
}

func (p *QueryGuard) Stages() []types.Stage {
	return []types.Stage{types.PreRequest}
}

func (p *QueryGuard) AllowedStages() []types.Stage {
	return []types.Stage{types.PreRequest}
}

func (p *QueryGuard) ValidateConfig(config types.PluginConfig) error {
	var cfg Config
	if err := mapstructure.Decode(config.Settings, &cfg); err != nil {
		return fmt.Errorf("failed to decode config: %w", err)
	}
	if cfg.BanTTLSeconds < 0 {
		return fmt.Errorf("ban_ttl_seconds must not be negative")
	}
	return nil
}

func (p *QueryGuard) Execute(ctx context.Context, pluginConfig types.PluginConfig, req *types.RequestContext, resp *types.ResponseContext) (*types.PluginResponse, *types.PluginError) {
	var cfg Config
	if err := mapstructure.Decode(pluginConfig.Settings, &cfg); err != nil {
		return nil, &types.PluginError{
			StatusCode: http.StatusInternalServerError,
			Message:    "failed to decode config",
			Err:        err,
		}
	}

	// Payload scan runs first: ?cmd=whoami is an attack, not a curious
	// parameter name, and must earn the ban even though "cmd" is also on
	// the suspicious-name list.
	for name, values := range req.Query {
		for _, value := range values {
			for _, pattern := range dangerousPayloadPatterns {
				if pattern.MatchString(value) {
					p.ban(ctx, req, cfg, fmt.Sprintf("dangerous query payload in %q", name))
					return nil, &types.PluginError{
						StatusCode: http.StatusServiceUnavailable,
						Message:    "service temporarily unavailable",
					}
				}
			}
		}
	}

	for name := range req.Query {
		if _, hit := suspiciousParamNames[strings.ToLower(name)]; hit {
			return nil, &types.PluginError{
				StatusCode: http.StatusTooManyRequests,
				Message:    "too many requests",
			}
		}
	}

	return &types.PluginResponse{StatusCode: http.StatusOK, Message: "request allowed"}, nil
}

func (p *QueryGuard) ban(ctx context.Context, req *types.RequestContext, cfg Config, reason string) {
	ttl := time.Duration(cfg.BanTTLSeconds) * time.Second
	if err := p.registry.Ban(ctx, req.IP, ttl, reason); err != nil {
		p.logger.WithError(err).WithField("trace_id", req.TraceID).Error("failed to ban client")
		return
	}
	prometheus.BansIssued.WithLabelValues(PluginName).Inc()
}
