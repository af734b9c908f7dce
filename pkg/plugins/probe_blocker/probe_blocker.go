// Package probe_blocker answers CMS discovery probes with deceptive
// responses: a honeypot login page for the classic endpoints, a plain 404
// for the broader sweeps, and an optional referer gate for paths outside
// the portal's published surface.
package probe_blocker

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/sirupsen/logrus"

	"github.com/campusgate/campusgate/pkg/pluginiface"
	"github.com/campusgate/campusgate/pkg/types"
)

const PluginName = "probe_blocker"

type Config struct {
	// AllowedPaths are the sensitive prefixes that may only be requested
	// with an approved referer. Paths outside the list are not gated here.
	AllowedPaths     []string `mapstructure:"allowed_paths"`
	ApprovedReferers []string `mapstructure:"approved_referers"`
}

type ProbeBlocker struct {
	logger *logrus.Logger
}

func NewProbeBlocker(logger *logrus.Logger) pluginiface.Plugin {
	return &ProbeBlocker{logger: logger}
}

func (p *ProbeBlocker) Name() string {
	return PluginName
}

func (p *ProbeBlocker) Stages() []types.Stage {
	return []types.Stage{types.PreRequest}
}

func (p *ProbeBlocker) AllowedStages() []types.Stage {
	return []types.Stage{types.PreRequest}
}

func (p *ProbeBlocker) ValidateConfig(config types.PluginConfig) error {
	var cfg Config
	if err := mapstructure.Decode(config.Settings, &cfg); err != nil {
		return fmt.Errorf("failed to decode config: %w", err)
	}
	if len(cfg.AllowedPaths) > 0 && len(cfg.ApprovedReferers) == 0 {
		return fmt.Errorf("allowed_paths requires approved_referers")
	}
	return nil
}

func (p *ProbeBlocker) Execute(ctx context.Context, pluginConfig types.PluginConfig, req *types.RequestContext, resp *types.ResponseContext) (*types.PluginResponse, *types.PluginError) {
	var cfg Config
	if err := mapstructure.Decode(pluginConfig.Settings, &cfg); err != nil {
		return nil, &types.PluginError{
			StatusCode: http.StatusInternalServerError,
			Message:    "failed to decode config",
			Err:        err,
		}
	}

	path := req.Path
	lowered := strings.ToLower(path)

	if honeypotMatch(lowered) {
		p.logger.WithFields(logrus.Fields{
			"path":     path,
			"trace_id": req.TraceID,
		}).Info("honeypot path served")
		return nil, &types.PluginError{
			StatusCode: http.StatusOK,
			Message:    "honeypot",
			Body:       []byte(honeypotHTML),
			Headers:    map[string][]string{"Content-Type": {"text/html; charset=UTF-8"}},
		}
	}

	for _, pattern := range probePatterns {
		if pattern.MatchString(path) {
			return nil, &types.PluginError{
				StatusCode: http.StatusNotFound,
				Message:    "not found",
			}
		}
	}

	// Guarded paths may only be requested from an approved origin; paths
	// outside the list fall through to the rest of the chain.
	if pathGuarded(path, cfg.AllowedPaths) {
		if !refererApproved(req.Header("Referer"), cfg.ApprovedReferers) {
			return nil, &types.PluginError{
				StatusCode: http.StatusForbidden,
				Message:    "forbidden",
			}
		}
	}

	return &types.PluginResponse{StatusCode: http.StatusOK, Message: "request allowed"}, nil
}

func honeypotMatch(loweredPath string) bool {
	if _, hit := honeypotExact[loweredPath]; hit {
		return true
	}
	for _, prefix := range honeypotPrefixes {
		if strings.HasPrefix(loweredPath, prefix) {
			return true
		}
	}
	return false
}

func pathGuarded(path string, guarded []string) bool {
	for _, prefix := range guarded {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

func refererApproved(referer string, approved []string) bool {
	if referer == "" {
		return false
	}
	for _, origin := range approved {
		if strings.HasPrefix(referer, origin) {
			return true
		}
	}
	return false
}
